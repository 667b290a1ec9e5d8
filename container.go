package loom

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/loomdi/loom/internal/assembly"
	"github.com/loomdi/loom/internal/container"
)

// Container resolves components against exactly one Assembly, memoizing
// singletons for its own lifetime. Containers are created at the
// composition root (or in test set-up) and discarded with the process
// (or at test tear-down).
type Container struct {
	internal *container.Container
	config   *containerConfig
}

type containerConfig struct {
	logger    *slog.Logger
	onResolve []ResolveHook
}

type Option func(*containerConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *containerConfig) {
		cfg.logger = logger
	}
}

// WithResolveObserver registers a hook invoked after every resolution
// with the key, elapsed time and outcome. Intended for metrics wiring.
func WithResolveObserver(hook ResolveHook) Option {
	return func(cfg *containerConfig) {
		cfg.onResolve = append(cfg.onResolve, hook)
	}
}

func NewContainer(asm *Assembly, opts ...Option) *Container {
	cfg := &containerConfig{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	hooks := make([]container.ResolveHook, len(cfg.onResolve))
	for i, hook := range cfg.onResolve {
		hooks[i] = container.ResolveHook(hook)
	}

	internal := container.New(asm.internal, &container.Config{
		Logger:    cfg.logger,
		OnResolve: hooks,
	})

	return &Container{
		internal: internal,
		config:   cfg,
	}
}

// Resolve returns the instance for key, constructing it and any declared
// dependencies as needed. Prefer the typed Invoke functions; Resolve is
// the string-keyed escape hatch.
func (c *Container) Resolve(ctx context.Context, key string) (any, error) {
	instance, err := c.internal.Resolve(ctx, key)
	if err != nil {
		return nil, wrapResolveError(key, err)
	}
	return instance, nil
}

func (c *Container) Has(key string) bool {
	return c.internal.Has(key)
}

func (c *Container) Keys() []string {
	return c.internal.Keys()
}

func (c *Container) Size() int {
	return c.internal.Size()
}

// Warm eagerly constructs every singleton in dependency order so that
// constructor failures surface at start-up rather than on first use.
func (c *Container) Warm(ctx context.Context) error {
	if err := c.internal.Warm(ctx); err != nil {
		return wrapResolveError("", err)
	}
	return nil
}

func wrapResolveError(key string, err error) *Error {
	var constructErr *container.ConstructError
	switch {
	case errors.Is(err, assembly.ErrUnknown):
		return errUnknownComponent(key, err)
	case errors.As(err, &constructErr):
		return errConstructorFailed(constructErr.Key, err)
	default:
		return errResolutionFailed(key, err)
	}
}

// ResolveHook observes one resolution: the requested key, how long it
// took and whether it failed.
type ResolveHook func(key string, duration time.Duration, err error)
