// Package assembly holds the declarative half of the container: component
// definitions collected by a builder and frozen into an immutable Assembly.
// All graph-shape validation happens in Build, never during resolution.
package assembly

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/loomdi/loom/internal/graph"
	"github.com/loomdi/loom/internal/scope"
)

var (
	ErrDuplicate = errors.New("component already defined")
	ErrUnknown   = errors.New("unknown component")
)

// Resolver is the view of the container a constructor gets to see.
type Resolver interface {
	Resolve(ctx context.Context, key string) (any, error)
	Has(key string) bool
}

type ConstructFunc func(ctx context.Context, r Resolver) (any, error)

// Definition is one component's construction recipe. Definitions are
// created while building an assembly and never mutated afterwards.
type Definition struct {
	Key          string
	Type         reflect.Type
	Scope        scope.Scope
	Dependencies []string
	Construct    ConstructFunc
	Value        any
	HasValue     bool
}

type Builder struct {
	defs  map[string]*Definition
	order []string
}

func NewBuilder() *Builder {
	return &Builder{
		defs: make(map[string]*Definition),
	}
}

func (b *Builder) Add(def *Definition) error {
	if _, exists := b.defs[def.Key]; exists {
		return &DuplicateError{Key: def.Key}
	}

	deps := make([]string, len(def.Dependencies))
	copy(deps, def.Dependencies)
	def.Dependencies = deps

	b.defs[def.Key] = def
	b.order = append(b.order, def.Key)
	return nil
}

// Merge copies every definition of other into b. Keys already present in
// b fail exactly like local duplicates.
func (b *Builder) Merge(other *Builder) error {
	for _, key := range other.order {
		src := other.defs[key]
		def := *src
		if err := b.Add(&def); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) Size() int {
	return len(b.defs)
}

// Build validates the dependency graph and freezes the definitions into
// an Assembly. A dangling reference or a cycle means no Assembly is
// produced; resolution never has to re-check the graph shape.
func (b *Builder) Build() (*Assembly, error) {
	g := graph.New()
	for _, key := range b.order {
		g.Add(key, b.defs[key].Dependencies)
	}

	if missing := g.MissingDependencies(); len(missing) > 0 {
		return nil, &DanglingError{Missing: missing}
	}
	if cycle := g.FirstCycle(); cycle != nil {
		return nil, &CycleError{Path: cycle}
	}

	defs := make(map[string]*Definition, len(b.defs))
	for key, def := range b.defs {
		defs[key] = def
	}
	order := make([]string, len(b.order))
	copy(order, b.order)

	return &Assembly{defs: defs, order: order, graph: g}, nil
}

// Assembly is the frozen definition table. It is safe for concurrent use.
type Assembly struct {
	defs  map[string]*Definition
	order []string
	graph *graph.Graph
}

func (a *Assembly) Definition(key string) (*Definition, error) {
	def, exists := a.defs[key]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, key)
	}
	return def, nil
}

func (a *Assembly) Has(key string) bool {
	_, exists := a.defs[key]
	return exists
}

// Keys returns component keys in definition order.
func (a *Assembly) Keys() []string {
	keys := make([]string, len(a.order))
	copy(keys, a.order)
	return keys
}

func (a *Assembly) Size() int {
	return len(a.defs)
}

func (a *Assembly) Graph() *graph.Graph {
	return a.graph
}

// DuplicateError reports an Add or Merge against an already defined key.
// It matches ErrDuplicate under errors.Is.
type DuplicateError struct {
	Key string
}

func (e *DuplicateError) Error() string {
	return "component already defined: " + e.Key
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// DanglingError reports recipe references to keys that were never defined.
type DanglingError struct {
	Missing []string
}

func (e *DanglingError) Error() string {
	return "dangling dependencies: " + strings.Join(e.Missing, ", ")
}

// CycleError reports one dependency cycle as a path ending on its start.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "cyclic dependency: " + strings.Join(e.Path, " -> ")
}
