// Package library loads named function definitions from YAML.
//
//	functions:
//	  - name: n3
//	    vars: [r, s, t]
//	    expr: t
//	    dependents: {t: {r: -1, s: -1}}
//	  - name: radial
//	    expr: sqrt(r)
//	    compose: {r: "x*x"}
//	    active: [x]
//
// Definitions are built in file order. A compose value that names an
// earlier definition substitutes that function; any other value is parsed
// as an expression.
package library

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/mathlib-go/mathlib/internal/binding"
	"github.com/mathlib-go/mathlib/internal/expr"
	"github.com/mathlib-go/mathlib/internal/parser"
	"gopkg.in/yaml.v3"
)

// Errors returned by the library.
var (
	ErrNotFound  = errors.New("function not found")
	ErrDuplicate = errors.New("duplicate function")
	ErrInvalid   = errors.New("invalid definition")
)

// Definition is one function in a library file.
type Definition struct {
	Name        string                        `yaml:"name"`
	Description string                        `yaml:"description,omitempty"`
	Vars        []string                      `yaml:"vars,omitempty"`
	Expr        string                        `yaml:"expr"`
	Dependents  map[string]map[string]float64 `yaml:"dependents,omitempty"`
	Compose     map[string]string             `yaml:"compose,omitempty"`
	Active      []string                      `yaml:"active,omitempty"`
}

// File is the document layout.
type File struct {
	Functions []Definition `yaml:"functions"`
}

// Library is an ordered set of named functions.
type Library struct {
	order []string
	funcs map[string]*expr.Node
	defs  map[string]Definition
}

// New returns an empty library.
func New() *Library {
	return &Library{funcs: make(map[string]*expr.Node), defs: make(map[string]Definition)}
}

// Load reads a YAML library.
func Load(r io.Reader) (*Library, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("library: decode: %w", err)
	}
	lib := New()
	for i, d := range f.Functions {
		if err := lib.Define(d); err != nil {
			return nil, fmt.Errorf("library: function #%d: %w", i+1, err)
		}
	}
	return lib, nil
}

// LoadFile reads a YAML library from path.
func LoadFile(path string) (*Library, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("library: %w", err)
	}
	defer fh.Close()
	return Load(fh)
}

// Define builds d and adds it to the library.
func (l *Library) Define(d Definition) error {
	if d.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalid)
	}
	if _, ok := l.funcs[d.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicate, d.Name)
	}
	if d.Expr == "" {
		return fmt.Errorf("%w: %q has no expr", ErrInvalid, d.Name)
	}
	n, err := l.build(d)
	if err != nil {
		return fmt.Errorf("%q: %w", d.Name, err)
	}
	l.order = append(l.order, d.Name)
	l.funcs[d.Name] = n
	l.defs[d.Name] = d
	return nil
}

func (l *Library) build(d Definition) (*expr.Node, error) {
	var scope *binding.Binding
	if len(d.Vars) > 0 || len(d.Dependents) > 0 {
		vars := d.Vars
		for dep, partials := range d.Dependents {
			if !slices.Contains(vars, dep) {
				return nil, fmt.Errorf("%w: dependent %q is not in vars", ErrInvalid, dep)
			}
			for v := range partials {
				if !slices.Contains(vars, v) {
					return nil, fmt.Errorf("%w: %q depends on %q, which is not in vars", ErrInvalid, dep, v)
				}
			}
		}
		b, err := binding.Bind(vars...)
		if err != nil {
			return nil, err
		}
		deps := make([]string, 0, len(d.Dependents))
		for dep := range d.Dependents {
			deps = append(deps, dep)
		}
		slices.Sort(deps)
		for _, dep := range deps {
			if b, err = b.WithDependent(dep, d.Dependents[dep]); err != nil {
				return nil, err
			}
		}
		scope = b
	}

	n, err := parser.ParseWith(d.Expr, scope)
	if err != nil {
		return nil, err
	}
	if len(d.Vars) > 0 {
		if n, err = n.Rebind(d.Vars...); err != nil {
			return nil, err
		}
	}

	if len(d.Compose) > 0 {
		subs := make(map[string]*expr.Node, len(d.Compose))
		for name, src := range d.Compose {
			if inner, ok := l.funcs[src]; ok {
				subs[name] = inner
				continue
			}
			inner, err := parser.Parse(src)
			if err != nil {
				return nil, fmt.Errorf("compose %s: %w", name, err)
			}
			subs[name] = inner
		}
		if n, err = expr.Compose(n, subs); err != nil {
			return nil, err
		}
	}

	if len(d.Active) > 0 {
		if n, err = n.Restrict(d.Active...); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// Get returns the function called name.
func (l *Library) Get(name string) (*expr.Node, error) {
	n, ok := l.funcs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return n, nil
}

// Definition returns the source definition of name.
func (l *Library) Definition(name string) (Definition, bool) {
	d, ok := l.defs[name]
	return d, ok
}

// Names returns the function names in definition order.
func (l *Library) Names() []string { return slices.Clone(l.order) }

// Len returns the number of functions.
func (l *Library) Len() int { return len(l.order) }

// Encode writes the library's definitions as YAML.
func (l *Library) Encode(w io.Writer) error {
	f := File{Functions: make([]Definition, 0, len(l.order))}
	for _, name := range l.order {
		f.Functions = append(f.Functions, l.defs[name])
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return fmt.Errorf("library: encode: %w", err)
	}
	return enc.Close()
}
