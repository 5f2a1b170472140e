package metrics

import (
	"math"

	"github.com/san-kum/biodyn/internal/dynamo"
)

// Drift tracks the largest relative change of an invariant from its value
// at the first sample.
type Drift struct {
	name      string
	invariant func(dynamo.State) float64
	initial   float64
	maxDrift  float64
	samples   int
}

func NewDrift(name string, invariant func(dynamo.State) float64) *Drift {
	return &Drift{name: name, invariant: invariant}
}

// NewConservationDrift follows the sum of all components.
func NewConservationDrift() *Drift {
	return NewDrift("conservation_drift", Total)
}

// NewEnergyDrift follows 0.5*v^2 + 0.5*k*x^2 for a two-component oscillator.
func NewEnergyDrift(k float64) *Drift {
	return NewDrift("energy_drift", func(x dynamo.State) float64 {
		if len(x) < 2 {
			return 0
		}
		return 0.5*x[1]*x[1] + 0.5*k*x[0]*x[0]
	})
}

func Total(x dynamo.State) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	return sum
}

func (d *Drift) Name() string { return d.name }

func (d *Drift) Observe(x dynamo.State, _ float64) {
	value := d.invariant(x)
	if d.samples == 0 {
		d.initial = value
	}
	d.samples++

	diff := math.Abs(value - d.initial)
	if d.initial != 0 {
		diff /= math.Abs(d.initial)
	}
	d.maxDrift = math.Max(d.maxDrift, diff)
}

func (d *Drift) Value() float64 { return d.maxDrift }

func (d *Drift) Reset() {
	d.initial = 0
	d.maxDrift = 0
	d.samples = 0
}

// Minimum is the smallest component value seen; negative values flag a
// population model leaving its domain.
type Minimum struct {
	min     float64
	samples int
}

func NewMinimum() *Minimum { return &Minimum{} }

func (m *Minimum) Name() string { return "min_component" }

func (m *Minimum) Observe(x dynamo.State, _ float64) {
	for _, v := range x {
		if m.samples == 0 || v < m.min {
			m.min = v
		}
		m.samples++
	}
}

func (m *Minimum) Value() float64 { return m.min }

func (m *Minimum) Reset() {
	m.min = 0
	m.samples = 0
}

// Monotonic reports the fraction of consecutive samples over which
// component i does not decrease.
type Monotonic struct {
	index     int
	prev      float64
	samples   int
	increases int
}

func NewMonotonic(index int) *Monotonic { return &Monotonic{index: index} }

func (m *Monotonic) Name() string { return "monotonic" }

func (m *Monotonic) Observe(x dynamo.State, _ float64) {
	if m.index >= len(x) {
		return
	}
	v := x[m.index]
	if m.samples > 0 && v >= m.prev {
		m.increases++
	}
	m.prev = v
	m.samples++
}

func (m *Monotonic) Value() float64 {
	if m.samples < 2 {
		return 1
	}
	return float64(m.increases) / float64(m.samples-1)
}

func (m *Monotonic) Reset() {
	m.prev = 0
	m.samples = 0
	m.increases = 0
}

// Peak records the maximum of component i and when it occurred.
type Peak struct {
	name  string
	index int
	value float64
	time  float64
	seen  bool
}

func NewPeak(name string, index int) *Peak {
	return &Peak{name: name, index: index}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(x dynamo.State, t float64) {
	if p.index >= len(x) {
		return
	}
	if !p.seen || x[p.index] > p.value {
		p.value = x[p.index]
		p.time = t
		p.seen = true
	}
}

func (p *Peak) Value() float64 { return p.value }

// Time is the sample time of the peak.
func (p *Peak) Time() float64 { return p.time }

func (p *Peak) Reset() {
	p.value = 0
	p.time = 0
	p.seen = false
}

// PeakTime exposes the time of a Peak as its own metric.
type PeakTime struct{ *Peak }

func (p PeakTime) Name() string   { return p.Peak.Name() + "_time" }
func (p PeakTime) Value() float64 { return p.Peak.Time() }

func (p PeakTime) Observe(dynamo.State, float64) {}
func (p PeakTime) Reset()                        {}

// Bounded is the fraction of samples whose components all stay within
// threshold in magnitude.
type Bounded struct {
	threshold  float64
	violations int
	samples    int
}

func NewBounded(threshold float64) *Bounded {
	return &Bounded{threshold: threshold}
}

func (b *Bounded) Name() string { return "bounded" }

func (b *Bounded) Observe(x dynamo.State, _ float64) {
	b.samples++
	for _, val := range x {
		if math.Abs(val) > b.threshold {
			b.violations++
			break
		}
	}
}

func (b *Bounded) Value() float64 {
	if b.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(b.violations)/float64(b.samples)
}

func (b *Bounded) Reset() {
	b.violations = 0
	b.samples = 0
}

// ForField picks the diagnostics that make sense for a built-in field.
// Unknown fields get the minimum component only.
func ForField(field string, p dynamo.Params) []Metric {
	switch field {
	case "harmonic":
		return []Metric{NewEnergyDrift(p["k"]), NewMinimum()}
	case "damped", "vanderpol":
		return []Metric{NewBounded(100), NewMinimum()}
	case "lorenz":
		return []Metric{NewBounded(100), NewPeak("peak_z", 2)}
	case "lotka_volterra":
		return []Metric{NewMinimum(), NewPeak("peak_predator", 1)}
	case "logistic":
		return []Metric{NewMonotonic(0), NewPeak("peak_population", 0)}
	case "sir":
		peak := NewPeak("peak_infected", 1)
		return []Metric{NewConservationDrift(), NewMinimum(), peak, PeakTime{peak}}
	case "seir":
		peak := NewPeak("peak_infected", 2)
		return []Metric{NewConservationDrift(), NewMinimum(), peak, PeakTime{peak}}
	default:
		return []Metric{NewMinimum()}
	}
}
