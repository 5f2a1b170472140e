package integrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/biodyn/internal/dynamo"
)

var errNonFinite = errors.New("non-finite evaluation")

// Solver integrates fields with a fixed set of Options. A Solver holds no
// per-call state and may be used from several goroutines at once.
type Solver struct {
	opts Options
}

func New(opts Options) *Solver {
	return &Solver{opts: opts.withDefaults()}
}

func (s *Solver) Options() Options { return s.opts }

// Integrate runs a default Solver.
func Integrate(ctx context.Context, field dynamo.Field, x0 dynamo.State, grid []float64, p dynamo.Params) (*dynamo.Trajectory, error) {
	return New(DefaultOptions()).Integrate(ctx, field, x0, grid, p)
}

// Integrate returns one state per grid time. The first state is a copy of x0.
//
// All preconditions are checked before the field is evaluated. When stepping
// fails the trajectory produced so far is returned together with the error.
func (s *Solver) Integrate(ctx context.Context, field dynamo.Field, x0 dynamo.State, grid []float64, p dynamo.Params) (*dynamo.Trajectory, error) {
	if err := dynamo.ValidateGrid(grid); err != nil {
		return nil, err
	}
	if len(x0) != field.Dim() {
		return nil, fmt.Errorf("%w: field %q has dimension %d, initial state has %d",
			dynamo.ErrDimensionMismatch, field.Name(), field.Dim(), len(x0))
	}
	if !x0.IsValid() {
		return nil, &dynamo.NonFiniteStateError{Time: grid[0]}
	}
	if missing := p.Missing(field.ParamNames()); len(missing) > 0 {
		return nil, &dynamo.MissingParameterError{Field: field.Name(), Names: missing}
	}
	if err := s.opts.validate(); err != nil {
		return nil, err
	}
	tab, err := s.opts.tableau()
	if err != nil {
		return nil, err
	}

	tr := &dynamo.Trajectory{
		Field:  field.Name(),
		Times:  make([]float64, 0, len(grid)),
		States: make([]dynamo.State, 0, len(grid)),
	}
	if l, ok := field.(dynamo.Labeled); ok {
		tr.Vars = l.VarNames()
	}
	tr.Append(grid[0], x0.Clone())
	if len(grid) == 1 {
		return tr, nil
	}

	r := newRun(tab, field, p.Clone(), s.opts, len(x0))
	err = r.solve(ctx, x0.Clone(), grid, tr)
	tr.Stats = r.stats

	log := s.opts.Logger.With(slog.String("field", field.Name()), slog.String("method", tab.Name))
	if err != nil {
		log.Debug("integration failed",
			slog.Int("outputs", tr.Len()),
			slog.Int("accepted", r.stats.Accepted),
			slog.Int("rejected", r.stats.Rejected),
			slog.Any("error", err))
		return tr, err
	}
	log.Debug("integration complete",
		slog.Int("outputs", tr.Len()),
		slog.Int("accepted", r.stats.Accepted),
		slog.Int("rejected", r.stats.Rejected),
		slog.Int("evaluations", r.stats.Evaluations))
	return tr, nil
}

// run owns the stepping state of one Integrate call.
type run struct {
	tab   *Tableau
	field dynamo.Field
	p     dynamo.Params
	opts  Options
	n     int

	k       []dynamo.State
	scratch dynamo.State
	stats   dynamo.Stats
}

func newRun(tab *Tableau, field dynamo.Field, p dynamo.Params, opts Options, n int) *run {
	k := make([]dynamo.State, tab.Stages()+1)
	for i := range k {
		k[i] = make(dynamo.State, n)
	}
	return &run{
		tab:     tab,
		field:   field,
		p:       p,
		opts:    opts,
		n:       n,
		k:       k,
		scratch: make(dynamo.State, n),
	}
}

func (r *run) eval(x dynamo.State, t float64, dst dynamo.State) error {
	r.stats.Evaluations++
	dx := r.field.Derive(x, t, r.p)
	if len(dx) != r.n {
		return fmt.Errorf("%w: field %q returned %d components, want %d",
			dynamo.ErrDimensionMismatch, r.field.Name(), len(dx), r.n)
	}
	if !dx.IsValid() {
		return errNonFinite
	}
	copy(dst, dx)
	return nil
}

func (r *run) solve(ctx context.Context, x dynamo.State, grid []float64, tr *dynamo.Trajectory) error {
	t := grid[0]
	tEnd := grid[len(grid)-1]

	f := make(dynamo.State, r.n)
	if err := r.eval(x, t, f); err != nil {
		return r.fail(err, t, 0)
	}

	h := r.opts.InitialStep
	if h <= 0 {
		var err error
		if h, err = r.initialStep(t, x, f, tEnd-t); err != nil {
			return r.fail(err, t, 0)
		}
	}
	if r.opts.MaxStep > 0 {
		h = math.Min(h, r.opts.MaxStep)
	}

	exponent := -1.0 / float64(r.tab.ErrorOrder+1)
	next := 1
	rejected := false
	// nonFinite is set while the latest attempt produced NaN or Inf.
	nonFinite := false
	attempts := 0

	for next < len(grid) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if attempts >= r.opts.MaxSteps {
			return fmt.Errorf("%w: %d steps attempted before t=%g", dynamo.ErrTooManySteps, attempts, t)
		}
		attempts++

		minStep := math.Max(r.opts.MinStep, 10*(math.Nextafter(t, math.Inf(1))-t))
		if h < minStep {
			if nonFinite {
				return &dynamo.NonFiniteStateError{Time: t, Step: h}
			}
			return &dynamo.StepSizeUnderflowError{Time: t, Step: h}
		}

		target := tEnd
		if r.opts.LandOnOutputs {
			target = grid[next]
		}
		proposed := h
		landed := false
		if t+h >= target || target-(t+h) < minStep {
			h = target - t
			landed = true
		}

		xNew, errNorm, err := r.step(t, x, f, h)
		if errors.Is(err, errNonFinite) {
			r.stats.Rejected++
			r.observe(t, h, false)
			h *= r.opts.MinScale
			rejected = true
			nonFinite = true
			continue
		}
		if err != nil {
			return r.fail(err, t, h)
		}
		nonFinite = false

		if errNorm > 1 {
			r.stats.Rejected++
			r.observe(t, h, false)
			h *= math.Max(r.opts.MinScale, r.opts.Safety*math.Pow(errNorm, exponent))
			rejected = true
			continue
		}

		r.stats.Accepted++
		r.stats.LastStep = h
		r.observe(t, h, true)

		tNew := t + h
		if landed {
			tNew = target
		}
		for next < len(grid) && grid[next] <= tNew {
			if grid[next] == tNew {
				tr.Append(grid[next], xNew.Clone())
			} else {
				tr.Append(grid[next], r.interpolate(x, t, h, grid[next]))
			}
			next++
		}

		factor := r.opts.MaxScale
		if errNorm > 0 {
			factor = math.Min(r.opts.MaxScale, r.opts.Safety*math.Pow(errNorm, exponent))
		}
		if rejected {
			factor = math.Min(1, factor)
			rejected = false
		}

		t, x = tNew, xNew
		copy(f, r.k[r.tab.Stages()])

		hNext := h * factor
		if landed {
			hNext = math.Max(hNext, math.Min(proposed, h*r.opts.MaxScale))
		}
		if r.opts.MaxStep > 0 {
			hNext = math.Min(hNext, r.opts.MaxStep)
		}
		h = hNext
	}
	return nil
}

// step advances x by h from t and returns the new state with the RMS
// weighted local error estimate. k[0] must hold f(t, x). A NaN or Inf in any
// stage yields errNonFinite, which the caller treats as a rejected step.
func (r *run) step(t float64, x, f dynamo.State, h float64) (dynamo.State, float64, error) {
	tab := r.tab
	stages := tab.Stages()
	copy(r.k[0], f)

	for s := 1; s < stages; s++ {
		for i := 0; i < r.n; i++ {
			sum := 0.0
			for j, a := range tab.A[s] {
				sum += a * r.k[j][i]
			}
			r.scratch[i] = x[i] + h*sum
		}
		if err := r.eval(r.scratch, t+tab.C[s]*h, r.k[s]); err != nil {
			return nil, 0, err
		}
	}

	xNew := make(dynamo.State, r.n)
	for i := 0; i < r.n; i++ {
		sum := 0.0
		for j, b := range tab.B {
			sum += b * r.k[j][i]
		}
		xNew[i] = x[i] + h*sum
	}
	if !xNew.IsValid() {
		return nil, 0, errNonFinite
	}
	if err := r.eval(xNew, t+h, r.k[stages]); err != nil {
		return nil, 0, err
	}

	errSum := 0.0
	for i := 0; i < r.n; i++ {
		e := 0.0
		for j, c := range tab.E {
			e += c * r.k[j][i]
		}
		e *= h
		scale := r.opts.AbsTol + r.opts.RelTol*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		errSum += (e / scale) * (e / scale)
	}
	errNorm := math.Sqrt(errSum / float64(r.n))
	if math.IsNaN(errNorm) {
		return nil, 0, errNonFinite
	}
	return xNew, errNorm, nil
}

// interpolate evaluates the continuous extension of the last accepted step
// [t, t+h] at tq.
func (r *run) interpolate(x dynamo.State, t, h, tq float64) dynamo.State {
	theta := (tq - t) / h
	powers := make([]float64, len(r.tab.P[0]))
	pw := 1.0
	for j := range powers {
		pw *= theta
		powers[j] = pw
	}

	weights := make([]float64, len(r.tab.P))
	for s, row := range r.tab.P {
		for j, c := range row {
			weights[s] += c * powers[j]
		}
	}

	out := make(dynamo.State, r.n)
	for i := 0; i < r.n; i++ {
		sum := 0.0
		for s, w := range weights {
			sum += w * r.k[s][i]
		}
		out[i] = x[i] + h*sum
	}
	return out
}

// initialStep estimates a first step from the scale of x, f(t, x) and one
// explicit Euler step.
func (r *run) initialStep(t float64, x, f dynamo.State, span float64) (float64, error) {
	scale := make([]float64, r.n)
	for i := range scale {
		scale[i] = r.opts.AbsTol + math.Abs(x[i])*r.opts.RelTol
	}
	d0 := rmsScaled(x, scale)
	d1 := rmsScaled(f, scale)

	h0 := 0.01 * d0 / d1
	if d0 < 1e-5 || d1 < 1e-5 {
		h0 = 1e-6
	}
	h0 = math.Min(h0, span)

	f1 := make(dynamo.State, r.n)
	if err := r.eval(x.Add(f.Scale(h0)), t+h0, f1); err != nil {
		if errors.Is(err, errNonFinite) {
			return h0, nil
		}
		return 0, err
	}
	d2 := rmsScaled(f1.Sub(f), scale) / h0

	var h1 float64
	if d1 <= 1e-15 && d2 <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), 1.0/float64(r.tab.ErrorOrder+1))
	}
	return math.Min(math.Min(100*h0, h1), span), nil
}

func (r *run) observe(t, h float64, accepted bool) {
	if r.opts.Observer != nil {
		r.opts.Observer.OnStep(t, h, accepted)
	}
}

func (r *run) fail(err error, t, h float64) error {
	if errors.Is(err, errNonFinite) {
		return &dynamo.NonFiniteStateError{Time: t, Step: h}
	}
	return err
}

func rmsScaled(v dynamo.State, scale []float64) float64 {
	sum := 0.0
	for i := range v {
		q := v[i] / scale[i]
		sum += q * q
	}
	return math.Sqrt(sum / float64(len(v)))
}
