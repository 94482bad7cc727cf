// Package binding maps variable names to positional argument slots.
//
// A Binding is an immutable value: every derivation (Restrict, Extend,
// WithDependent) returns a new Binding with its slot table recomputed, so a
// Binding can be shared freely between expression nodes and goroutines.
package binding

import (
	"errors"
	"fmt"
	"slices"
)

// Common errors.
var (
	ErrUnknownVariable     = errors.New("unknown variable")
	ErrInconsistentBinding = errors.New("inconsistent binding")
)

// Binding is an ordered set of variable names with a name -> slot mapping.
//
// Names holds every variable in scope. Active is the ordered subset that forms
// the positional argument layout; slots index into Active only, so the slot
// table is always a bijection onto 0..len(Active)-1.
type Binding struct {
	names      []string
	active     []string
	slots      map[string]int
	dependents map[string]map[string]float64
}

// empty is shared by every constant-only expression.
var empty = &Binding{slots: map[string]int{}}

// Empty returns the binding with no variables.
func Empty() *Binding {
	return empty
}

// Bind creates a binding whose slots are 0..N-1 in the order given.
func Bind(names ...string) (*Binding, error) {
	if err := checkNames(names); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return empty, nil
	}
	cp := slices.Clone(names)
	return newBinding(cp, cp, nil), nil
}

// MustBind is like Bind but panics on error.
func MustBind(names ...string) *Binding {
	b, err := Bind(names...)
	if err != nil {
		panic(err)
	}
	return b
}

func newBinding(names, active []string, deps map[string]map[string]float64) *Binding {
	slots := make(map[string]int, len(active))
	for i, n := range active {
		slots[n] = i
	}
	return &Binding{names: names, active: active, slots: slots, dependents: deps}
}

func checkNames(names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			return fmt.Errorf("%w: empty variable name", ErrInconsistentBinding)
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("%w: duplicate variable %q", ErrInconsistentBinding, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

// Names returns every variable name in scope, in declaration order.
func (b *Binding) Names() []string {
	return slices.Clone(b.names)
}

// Active returns the names that form the positional argument layout.
func (b *Binding) Active() []string {
	return slices.Clone(b.active)
}

// Len returns the number of positional arguments.
func (b *Binding) Len() int {
	return len(b.active)
}

// Contains reports whether name is in scope (active or not).
func (b *Binding) Contains(name string) bool {
	return slices.Contains(b.names, name)
}

// IsActive reports whether name is part of the argument layout.
func (b *Binding) IsActive(name string) bool {
	_, ok := b.slots[name]
	return ok
}

// SlotOf returns the argument index of an active variable.
func (b *Binding) SlotOf(name string) (int, error) {
	i, ok := b.slots[name]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return i, nil
}

// Restrict returns a binding exposing only the given names, in the given
// order. Every name must already be in scope.
func (b *Binding) Restrict(active ...string) (*Binding, error) {
	if err := checkNames(active); err != nil {
		return nil, err
	}
	for _, n := range active {
		if !b.Contains(n) {
			return nil, fmt.Errorf("%w: %q is not in scope", ErrUnknownVariable, n)
		}
	}
	return newBinding(b.names, slices.Clone(active), b.dependents), nil
}

// Extend returns a binding with names appended to the scope and to the
// argument layout. Names already present keep their position.
func (b *Binding) Extend(names ...string) *Binding {
	scope := slices.Clone(b.names)
	active := slices.Clone(b.active)
	changed := false
	for _, n := range names {
		if !slices.Contains(scope, n) {
			scope = append(scope, n)
			changed = true
		}
		if !slices.Contains(active, n) {
			active = append(active, n)
			changed = true
		}
	}
	if !changed {
		return b
	}
	return newBinding(scope, active, b.dependents)
}

// Merge returns the ordered union of b and other. Dependent declarations of
// both are kept; on conflict other wins.
func (b *Binding) Merge(other *Binding) *Binding {
	if other == nil || other == b || len(other.names) == 0 {
		return b
	}
	if len(b.names) == 0 {
		return other
	}
	m := b.Extend(other.active...)
	for _, n := range other.names {
		if !slices.Contains(m.names, n) {
			m = newBinding(append(slices.Clone(m.names), n), m.active, m.dependents)
		}
	}
	if len(other.dependents) == 0 {
		return m
	}
	deps := cloneDeps(m.dependents)
	for d, p := range other.dependents {
		deps[d] = p
	}
	return newBinding(m.names, m.active, deps)
}

// Rebind returns a binding whose scope and layout are exactly names, keeping
// the dependent declarations of b.
func (b *Binding) Rebind(names ...string) (*Binding, error) {
	if err := checkNames(names); err != nil {
		return nil, err
	}
	cp := slices.Clone(names)
	return newBinding(cp, cp, b.dependents), nil
}

// WithDependent declares dep as a dependent coordinate whose derivative with
// respect to each independent name is the given constant. For triangle area
// coordinates r+s+t=1 this is WithDependent("t", {"r": -1, "s": -1}).
func (b *Binding) WithDependent(dep string, partials map[string]float64) (*Binding, error) {
	if !b.Contains(dep) {
		return nil, fmt.Errorf("%w: dependent %q is not in scope", ErrUnknownVariable, dep)
	}
	p := make(map[string]float64, len(partials))
	for indep, d := range partials {
		if indep == dep {
			return nil, fmt.Errorf("%w: %q cannot depend on itself", ErrInconsistentBinding, dep)
		}
		if !b.Contains(indep) {
			return nil, fmt.Errorf("%w: independent %q is not in scope", ErrUnknownVariable, indep)
		}
		p[indep] = d
	}
	deps := cloneDeps(b.dependents)
	deps[dep] = p
	return newBinding(b.names, b.active, deps), nil
}

// DependentDerivative returns d(dep)/d(indep) if dep was declared dependent on
// indep.
func (b *Binding) DependentDerivative(dep, indep string) (float64, bool) {
	p, ok := b.dependents[dep]
	if !ok {
		return 0, false
	}
	d, ok := p[indep]
	return d, ok
}

// IsDependent reports whether name was declared with WithDependent.
func (b *Binding) IsDependent(name string) bool {
	_, ok := b.dependents[name]
	return ok
}

// Dependents returns a copy of the dependent declarations.
func (b *Binding) Dependents() map[string]map[string]float64 {
	return cloneDeps(b.dependents)
}

// Resolve maps named values onto the positional layout.
func (b *Binding) Resolve(values map[string]float64) ([]float64, error) {
	args := make([]float64, len(b.active))
	for i, n := range b.active {
		v, ok := values[n]
		if !ok {
			return nil, fmt.Errorf("%w: no value for %q", ErrUnknownVariable, n)
		}
		args[i] = v
	}
	return args, nil
}

// Check verifies that args matches the positional layout.
func (b *Binding) Check(args []float64) error {
	if len(args) != len(b.active) {
		return fmt.Errorf("%w: expected %d arguments %v, got %d",
			ErrInconsistentBinding, len(b.active), b.active, len(args))
	}
	return nil
}

// String renders the layout, e.g. "(x, y)".
func (b *Binding) String() string {
	s := "("
	for i, n := range b.active {
		if i > 0 {
			s += ", "
		}
		s += n
	}
	return s + ")"
}

func cloneDeps(d map[string]map[string]float64) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(d)+1)
	for k, v := range d {
		p := make(map[string]float64, len(v))
		for n, c := range v {
			p[n] = c
		}
		out[k] = p
	}
	return out
}
