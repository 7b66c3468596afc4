package solver

import (
	"errors"
	"fmt"
	"log/slog"
	"plugin"
	"sort"
	"sync"
	"unsafe"
)

var (
	// ErrUnknownSolver is returned when no plugin is registered under a name.
	ErrUnknownSolver = errors.New("solver: unknown solver")

	// ErrPluginMismatch is returned when a plugin was built against a
	// different problem layout or constraints list type.
	ErrPluginMismatch = errors.New("solver: plugin does not match problem type")
)

// Plugin is the factory interface every solver plugin exports.
type Plugin struct {
	Name                    string
	SizeOfProblem           func() uintptr
	TypeIDOfConstraintsList func() string
	Create                  func(problem Problem) Solver
	Destroy                 func(s Solver)
}

// SizeOfProblem is the problem layout size of this build. Plugins report the
// size they were compiled with and the registry compares the two.
func SizeOfProblem() uintptr {
	return unsafe.Sizeof(Problem{})
}

// Registry maps solver names to plugins.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register adds or replaces a plugin.
func (r *Registry) Register(p Plugin) error {
	if p.Name == "" {
		return errors.New("solver: plugin name is required")
	}
	if p.SizeOfProblem == nil || p.TypeIDOfConstraintsList == nil || p.Create == nil || p.Destroy == nil {
		return fmt.Errorf("solver: plugin %s is missing exports", p.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[p.Name] = p
	return nil
}

// Lookup returns the plugin registered under name.
func (r *Registry) Lookup(name string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	if !ok {
		return Plugin{}, fmt.Errorf("%w: %s", ErrUnknownSolver, name)
	}
	return p, nil
}

// Names lists the registered solver names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New validates the problem against the plugin's exports and creates a solver.
// A panic inside the plugin's Create is returned as an error.
func (r *Registry) New(name string, problem Problem) (s Solver, err error) {
	p, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	if err := problem.Validate(); err != nil {
		return nil, err
	}
	if got, want := p.SizeOfProblem(), SizeOfProblem(); got != want {
		return nil, fmt.Errorf("%w: %s built with problem size %d, host uses %d", ErrPluginMismatch, name, got, want)
	}
	if got, want := p.TypeIDOfConstraintsList(), problem.ConstraintsTypeID(); got != want {
		return nil, fmt.Errorf("%w: %s accepts %s, problem has %s", ErrPluginMismatch, name, got, want)
	}

	defer func() {
		if rec := recover(); rec != nil {
			s = nil
			err = fmt.Errorf("solver: %s create: %v", name, rec)
		}
	}()
	s = p.Create(problem)
	slog.Debug("Solver created", "solver", name, "constraints", problem.ConstraintsTypeID())
	return s, nil
}

// Destroy releases a solver through the plugin that created it.
func (r *Registry) Destroy(s Solver) error {
	if s == nil {
		return nil
	}
	p, err := r.Lookup(s.Name())
	if err != nil {
		return err
	}
	p.Destroy(s)
	return nil
}

// Open loads a plugin built with -buildmode=plugin. The shared object must
// export Name, GetSizeOfProblem, GetTypeIDOfConstraintsList, Create and
// Destroy with the signatures of the Plugin fields.
func Open(path string) (Plugin, error) {
	so, err := plugin.Open(path)
	if err != nil {
		return Plugin{}, fmt.Errorf("failed to open solver plugin: %w", err)
	}

	var p Plugin
	lookup := func(symbol string, dst any) error {
		sym, err := so.Lookup(symbol)
		if err != nil {
			return fmt.Errorf("solver plugin %s: %w", path, err)
		}
		switch d := dst.(type) {
		case *string:
			v, ok := sym.(*string)
			if !ok {
				return fmt.Errorf("solver plugin %s: %s has type %T", path, symbol, sym)
			}
			*d = *v
		case *func() uintptr:
			v, ok := sym.(func() uintptr)
			if !ok {
				return fmt.Errorf("solver plugin %s: %s has type %T", path, symbol, sym)
			}
			*d = v
		case *func() string:
			v, ok := sym.(func() string)
			if !ok {
				return fmt.Errorf("solver plugin %s: %s has type %T", path, symbol, sym)
			}
			*d = v
		case *func(Problem) Solver:
			v, ok := sym.(func(Problem) Solver)
			if !ok {
				return fmt.Errorf("solver plugin %s: %s has type %T", path, symbol, sym)
			}
			*d = v
		case *func(Solver):
			v, ok := sym.(func(Solver))
			if !ok {
				return fmt.Errorf("solver plugin %s: %s has type %T", path, symbol, sym)
			}
			*d = v
		}
		return nil
	}

	if err := lookup("Name", &p.Name); err != nil {
		return Plugin{}, err
	}
	if err := lookup("GetSizeOfProblem", &p.SizeOfProblem); err != nil {
		return Plugin{}, err
	}
	if err := lookup("GetTypeIDOfConstraintsList", &p.TypeIDOfConstraintsList); err != nil {
		return Plugin{}, err
	}
	if err := lookup("Create", &p.Create); err != nil {
		return Plugin{}, err
	}
	if err := lookup("Destroy", &p.Destroy); err != nil {
		return Plugin{}, err
	}

	slog.Info("Solver plugin loaded", "path", path, "solver", p.Name)
	return p, nil
}
