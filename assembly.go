package loom

import (
	"context"
	"errors"

	"github.com/loomdi/loom/internal/assembly"
	"github.com/loomdi/loom/internal/reflect"
	"github.com/loomdi/loom/internal/scope"
)

// Constructor builds one instance of T. Declared dependencies are already
// resolved when it runs, so pulling them through the Resolver is cheap.
type Constructor[T any] func(ctx context.Context, r Resolver) (T, error)

// AssemblyBuilder collects component definitions. Call Build to validate
// the dependency graph and freeze them into an Assembly.
type AssemblyBuilder struct {
	internal *assembly.Builder
}

func NewAssembly() *AssemblyBuilder {
	return &AssemblyBuilder{
		internal: assembly.NewBuilder(),
	}
}

type DefinitionOption func(*definitionConfig)

type definitionConfig struct {
	name         string
	scope        scope.Scope
	dependencies []string
}

func WithName(name string) DefinitionOption {
	return func(cfg *definitionConfig) {
		cfg.name = name
	}
}

func WithScope(s Scope) DefinitionOption {
	return func(cfg *definitionConfig) {
		cfg.scope = s
	}
}

// WithDependencies declares the recipe: the keys resolved, in order,
// before the constructor runs. Build validates every declared key.
func WithDependencies(keys ...string) DefinitionOption {
	return func(cfg *definitionConfig) {
		cfg.dependencies = append(cfg.dependencies, keys...)
	}
}

// Key returns the component key for T, for use in dependency recipes.
func Key[T any]() string {
	return reflect.TypeKey[T]()
}

// NamedKey returns the component key for T qualified with a name.
func NamedKey[T any](name string) string {
	return reflect.TypeKeyNamed[T](name)
}

// Define registers a constructor for T. Components default to Singleton
// scope. Defining the same key twice fails with DUPLICATE_COMPONENT.
func Define[T any](b *AssemblyBuilder, constructor Constructor[T], opts ...DefinitionOption) error {
	cfg := &definitionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	key := Key[T]()
	if cfg.name != "" {
		key = NamedKey[T](cfg.name)
	}

	construct := func(ctx context.Context, r assembly.Resolver) (any, error) {
		return constructor(ctx, resolverAdapter{r})
	}

	return addDefinition(b, &assembly.Definition{
		Key:          key,
		Type:         reflect.TypeOf[T](),
		Scope:        cfg.scope,
		Dependencies: cfg.dependencies,
		Construct:    construct,
	})
}

// DefineValue registers an already-built instance. Values have no recipe
// and behave like resolved singletons.
func DefineValue[T any](b *AssemblyBuilder, value T, opts ...DefinitionOption) error {
	cfg := &definitionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	key := Key[T]()
	if cfg.name != "" {
		key = NamedKey[T](cfg.name)
	}

	return addDefinition(b, &assembly.Definition{
		Key:      key,
		Type:     reflect.TypeOf[T](),
		Scope:    scope.Singleton,
		Value:    value,
		HasValue: true,
	})
}

func DefineNamed[T any](b *AssemblyBuilder, name string, constructor Constructor[T], opts ...DefinitionOption) error {
	opts = append(opts, WithName(name))
	return Define(b, constructor, opts...)
}

func DefineNamedValue[T any](b *AssemblyBuilder, name string, value T, opts ...DefinitionOption) error {
	opts = append(opts, WithName(name))
	return DefineValue(b, value, opts...)
}

// Bind registers interface I as an alias for implementation T. The
// implementation key is the alias's whole recipe, so Build catches binds
// against implementations that were never defined.
func Bind[I, T any](b *AssemblyBuilder, opts ...DefinitionOption) error {
	cfg := &definitionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	interfaceKey := Key[I]()
	if cfg.name != "" {
		interfaceKey = NamedKey[I](cfg.name)
	}
	implKey := Key[T]()

	construct := func(ctx context.Context, r assembly.Resolver) (any, error) {
		return r.Resolve(ctx, implKey)
	}

	return addDefinition(b, &assembly.Definition{
		Key:          interfaceKey,
		Type:         reflect.TypeOf[I](),
		Scope:        cfg.scope,
		Dependencies: []string{implKey},
		Construct:    construct,
	})
}

func BindNamed[I, T any](b *AssemblyBuilder, name string, opts ...DefinitionOption) error {
	opts = append(opts, WithName(name))
	return Bind[I, T](b, opts...)
}

func addDefinition(b *AssemblyBuilder, def *assembly.Definition) error {
	if err := b.internal.Add(def); err != nil {
		if errors.Is(err, assembly.ErrDuplicate) {
			return errDuplicateComponent(def.Key, err)
		}
		return err
	}
	return nil
}

// Merge copies every definition of other into b, failing with
// DUPLICATE_COMPONENT on key collisions. Use it to compose assemblies
// from per-subsystem builders.
func (b *AssemblyBuilder) Merge(other *AssemblyBuilder) error {
	if err := b.internal.Merge(other.internal); err != nil {
		var dup *assembly.DuplicateError
		if errors.As(err, &dup) {
			return errDuplicateComponent(dup.Key, err)
		}
		return err
	}
	return nil
}

func (b *AssemblyBuilder) Size() int {
	return b.internal.Size()
}

// Build runs the eager graph checks and freezes the definitions. A recipe
// naming an undefined component fails with DANGLING_DEPENDENCY, a cycle
// reachable from any defined key with CYCLIC_DEPENDENCY. On error no
// Assembly is produced.
func (b *AssemblyBuilder) Build() (*Assembly, error) {
	internal, err := b.internal.Build()
	if err != nil {
		var dangling *assembly.DanglingError
		if errors.As(err, &dangling) {
			return nil, errDanglingDependency(dangling.Missing, err)
		}
		var cycle *assembly.CycleError
		if errors.As(err, &cycle) {
			return nil, errCyclicDependency(cycle.Path, err)
		}
		return nil, err
	}
	return &Assembly{internal: internal}, nil
}

// MustBuild is Build for composition roots where a malformed assembly is
// a programming error worth crashing on.
func (b *AssemblyBuilder) MustBuild() *Assembly {
	asm, err := b.Build()
	if err != nil {
		panic(err)
	}
	return asm
}

// Assembly is an immutable, validated component registry. One Assembly
// can back any number of containers.
type Assembly struct {
	internal *assembly.Assembly
}

// Keys returns component keys in definition order.
func (a *Assembly) Keys() []string {
	return a.internal.Keys()
}

func (a *Assembly) Size() int {
	return a.internal.Size()
}

func (a *Assembly) Has(key string) bool {
	return a.internal.Has(key)
}

// Internal exposes the underlying definition table for the loomtest
// harness.
func (a *Assembly) Internal() *assembly.Assembly {
	return a.internal
}
