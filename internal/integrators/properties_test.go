package integrators_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/fields"
	"github.com/san-kum/biodyn/internal/integrators"
)

func grid(start, end float64, n int) []float64 {
	g, err := dynamo.Linspace(start, end, n)
	Expect(err).NotTo(HaveOccurred())
	return g
}

var _ = Describe("Solver", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	DescribeTable("returns one finite state per grid time",
		func(method, name string) {
			f, err := fields.Default().Lookup(name)
			Expect(err).NotTo(HaveOccurred())

			g := grid(0, 10, 101)
			s := integrators.New(integrators.Options{Method: method, RelTol: 1e-8, AbsTol: 1e-8})
			tr, err := s.Integrate(ctx, f, f.DefaultState(), g, f.DefaultParams())
			Expect(err).NotTo(HaveOccurred())

			Expect(tr.Times).To(Equal(g))
			Expect(tr.States).To(HaveLen(len(g)))
			Expect(tr.Field).To(Equal(name))
			for _, x := range tr.States {
				Expect(x).To(HaveLen(f.Dim()))
				Expect(x.IsValid()).To(BeTrue())
			}
		},
		Entry("dopri5 harmonic", integrators.MethodDopri5, "harmonic"),
		Entry("dopri5 lorenz", integrators.MethodDopri5, "lorenz"),
		Entry("dopri5 seir", integrators.MethodDopri5, "seir"),
		Entry("bs23 damped", integrators.MethodBS23, "damped"),
		Entry("bs23 lotka_volterra", integrators.MethodBS23, "lotka_volterra"),
		Entry("bs23 logistic", integrators.MethodBS23, "logistic"),
	)

	Context("on the harmonic oscillator", func() {
		It("conserves energy to the tolerance", func() {
			f := fields.Harmonic()
			tr, err := integrators.Integrate(ctx, f, dynamo.State{1, 0}, grid(0, 20, 1000), dynamo.Params{"k": 1})
			Expect(err).NotTo(HaveOccurred())

			for _, x := range tr.States {
				energy := 0.5*x[1]*x[1] + 0.5*x[0]*x[0]
				Expect(energy).To(BeNumerically("~", 0.5, 1e-6))
			}
		})

		It("gets more accurate as the tolerance tightens", func() {
			f := fields.Harmonic()
			g := []float64{0, 10}
			errAt := func(tol float64) float64 {
				s := integrators.New(integrators.Options{RelTol: tol, AbsTol: tol})
				tr, err := s.Integrate(ctx, f, dynamo.State{1, 0}, g, dynamo.Params{"k": 1})
				Expect(err).NotTo(HaveOccurred())
				return math.Abs(tr.Final()[0] - math.Cos(10))
			}
			Expect(errAt(1e-10)).To(BeNumerically("<", errAt(1e-4)))
		})
	})

	Context("on a damped oscillator", func() {
		It("loses energy monotonically at the sample times", func() {
			f := fields.Damped()
			tr, err := integrators.Integrate(ctx, f, f.DefaultState(), grid(0, 50, 500), f.DefaultParams())
			Expect(err).NotTo(HaveOccurred())

			prev := math.Inf(1)
			for _, x := range tr.States {
				energy := 0.5*x[1]*x[1] + 0.5*x[0]*x[0]
				Expect(energy).To(BeNumerically("<=", prev+1e-9))
				prev = energy
			}
		})
	})

	Context("when preconditions fail", func() {
		It("reports unknown parameters by name", func() {
			f := fields.Lorenz()
			_, err := integrators.Integrate(ctx, f, f.DefaultState(), grid(0, 1, 10), dynamo.Params{"sigma": 10})
			Expect(err).To(MatchError(dynamo.ErrMissingParameter))
			Expect(err.Error()).To(ContainSubstring("rho, beta"))
		})

		It("rejects a grid that does not increase", func() {
			f := fields.Logistic()
			_, err := integrators.Integrate(ctx, f, f.DefaultState(), []float64{0, 5, 5}, f.DefaultParams())
			Expect(errors.Is(err, dynamo.ErrInvalidGrid)).To(BeTrue())
		})
	})

	It("agrees between methods on a smooth problem", func() {
		f := fields.SIR()
		g := grid(0, 100, 50)
		tight := integrators.Options{RelTol: 1e-10, AbsTol: 1e-8}

		a, err := integrators.New(tight).Integrate(ctx, f, f.DefaultState(), g, f.DefaultParams())
		Expect(err).NotTo(HaveOccurred())
		tight.Method = integrators.MethodBS23
		b, err := integrators.New(tight).Integrate(ctx, f, f.DefaultState(), g, f.DefaultParams())
		Expect(err).NotTo(HaveOccurred())

		for i := range g {
			for j := range a.States[i] {
				Expect(b.States[i][j]).To(BeNumerically("~", a.States[i][j], 1e-3))
			}
		}
	})
})
