package loom

import (
	"context"

	"github.com/loomdi/loom/internal/assembly"
	"github.com/loomdi/loom/internal/reflect"
)

// Resolver is the view of the container handed to constructors. Outside
// of constructors and the composition root, components should receive
// their dependencies at construction time, not a Resolver.
type Resolver interface {
	Resolve(ctx context.Context, key string) (any, error)
	Has(key string) bool
}

type resolverAdapter struct {
	internal assembly.Resolver
}

func (r resolverAdapter) Resolve(ctx context.Context, key string) (any, error) {
	return r.internal.Resolve(ctx, key)
}

func (r resolverAdapter) Has(key string) bool {
	return r.internal.Has(key)
}

// From resolves T through a Resolver, for use inside constructors:
//
//	cfg, err := loom.From[*Config](ctx, r)
func From[T any](ctx context.Context, r Resolver) (T, error) {
	return fromKey[T](ctx, r, Key[T]())
}

// NamedFrom resolves a named T through a Resolver.
func NamedFrom[T any](ctx context.Context, r Resolver, name string) (T, error) {
	return fromKey[T](ctx, r, NamedKey[T](name))
}

func fromKey[T any](ctx context.Context, r Resolver, key string) (T, error) {
	var zero T

	instance, err := r.Resolve(ctx, key)
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, errResolutionFailed(key, nil)
	}
	return typed, nil
}

// Invoke resolves T from the container.
func Invoke[T any](c *Container) (T, error) {
	return InvokeCtx[T](context.Background(), c)
}

func InvokeCtx[T any](ctx context.Context, c *Container) (T, error) {
	var zero T

	instance, err := c.Resolve(ctx, Key[T]())
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, errResolutionFailed(reflect.TypeName[T](), nil)
	}
	return typed, nil
}

func InvokeNamed[T any](c *Container, name string) (T, error) {
	return InvokeNamedCtx[T](context.Background(), c, name)
}

func InvokeNamedCtx[T any](ctx context.Context, c *Container, name string) (T, error) {
	var zero T

	instance, err := c.Resolve(ctx, NamedKey[T](name))
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, errResolutionFailed(reflect.TypeName[T]()+"#"+name, nil)
	}
	return typed, nil
}

// MustInvoke resolves T or panics. For composition roots, not libraries.
func MustInvoke[T any](c *Container) T {
	v, err := Invoke[T](c)
	if err != nil {
		panic(err)
	}
	return v
}

func MustInvokeNamed[T any](c *Container, name string) T {
	v, err := InvokeNamed[T](c, name)
	if err != nil {
		panic(err)
	}
	return v
}

func TryInvoke[T any](c *Container) (T, bool) {
	v, err := Invoke[T](c)
	return v, err == nil
}

func Has[T any](c *Container) bool {
	return c.internal.Has(Key[T]())
}

func HasNamed[T any](c *Container, name string) bool {
	return c.internal.Has(NamedKey[T](name))
}
