package fields

import (
	"fmt"
	"sort"
	"sync"

	"github.com/san-kum/biodyn/internal/dynamo"
)

// Law evaluates dx/dt into dx. x and dx have the field's dimension.
type Law func(x dynamo.State, t float64, p dynamo.Params, dx dynamo.State)

// Definition is a named vector field plus the metadata needed to run and
// display it. A Definition must not be modified after registration.
type Definition struct {
	ID       string
	Title    string
	Vars     []string
	Params   []string
	Defaults dynamo.Params
	Initial  dynamo.State
	Law      Law
}

func (d *Definition) Name() string         { return d.ID }
func (d *Definition) Dim() int             { return len(d.Vars) }
func (d *Definition) ParamNames() []string { return d.Params }
func (d *Definition) VarNames() []string   { return d.Vars }

func (d *Definition) Derive(x dynamo.State, t float64, p dynamo.Params) dynamo.State {
	dx := make(dynamo.State, len(d.Vars))
	d.Law(x, t, p, dx)
	return dx
}

// DefaultParams returns a private copy of the defaults.
func (d *Definition) DefaultParams() dynamo.Params {
	return d.Defaults.Clone()
}

// DefaultState returns a private copy of the default initial state.
func (d *Definition) DefaultState() dynamo.State {
	return d.Initial.Clone()
}

func (d *Definition) validate() error {
	if d.ID == "" {
		return fmt.Errorf("field definition has no name")
	}
	if len(d.Vars) == 0 {
		return fmt.Errorf("field %q declares no state variables", d.ID)
	}
	if d.Law == nil {
		return fmt.Errorf("field %q has no derivative law", d.ID)
	}
	if d.Initial != nil && len(d.Initial) != len(d.Vars) {
		return fmt.Errorf("field %q: %w: initial state has %d components, want %d",
			d.ID, dynamo.ErrDimensionMismatch, len(d.Initial), len(d.Vars))
	}
	return nil
}

type Registry struct {
	mu     sync.RWMutex
	fields map[string]*Definition
}

func New() *Registry {
	return &Registry{fields: make(map[string]*Definition)}
}

func builtins() []*Definition {
	return []*Definition{
		Harmonic(),
		Damped(),
		Lorenz(),
		VanDerPol(),
		LotkaVolterra(),
		Logistic(),
		SIR(),
		SEIR(),
	}
}

// Builtin returns a fresh registry holding the shipped fields.
func Builtin() *Registry {
	r := New()
	for _, d := range builtins() {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
	return r
}

var defaultRegistry = sync.OnceValue(Builtin)

// Default returns the process-wide registry, built on first use.
func Default() *Registry {
	return defaultRegistry()
}

func (r *Registry) Register(d *Definition) error {
	if err := d.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.fields[d.ID]; ok {
		return &dynamo.DuplicateFieldError{Name: d.ID}
	}
	r.fields[d.ID] = d
	return nil
}

func (r *Registry) Lookup(name string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.fields[name]
	if !ok {
		return nil, &dynamo.UnknownFieldError{Name: name}
	}
	return d, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.fields))
	for name := range r.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
