// Package container implements the runtime half: turning a frozen
// assembly into live instances while honoring scope policy.
package container

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/loomdi/loom/internal/assembly"
	"github.com/loomdi/loom/internal/scope"
)

type ResolveHook func(key string, duration time.Duration, err error)

type Config struct {
	Logger    *slog.Logger
	OnResolve []ResolveHook
}

// Container resolves component keys against exactly one assembly. The
// singleton cache is the only mutable state; it is guarded so that two
// concurrent first-resolutions of one key construct exactly once.
type Container struct {
	assembly  *assembly.Assembly
	logger    *slog.Logger
	onResolve []ResolveHook

	mu        sync.Mutex
	instances map[string]any
	inflight  map[string]*inflightCall
}

// inflightCall tracks a singleton construction in progress. Late callers
// block on done and pick up the first caller's result.
type inflightCall struct {
	done     chan struct{}
	instance any
	err      error
}

func New(asm *assembly.Assembly, cfg *Config) *Container {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Container{
		assembly:  asm,
		logger:    logger,
		onResolve: cfg.OnResolve,
		instances: make(map[string]any),
		inflight:  make(map[string]*inflightCall),
	}
}

func (c *Container) Resolve(ctx context.Context, key string) (any, error) {
	start := time.Now()
	instance, err := c.resolve(ctx, key)
	for _, hook := range c.onResolve {
		hook(key, time.Since(start), err)
	}
	return instance, err
}

func (c *Container) resolve(ctx context.Context, key string) (any, error) {
	def, err := c.assembly.Definition(key)
	if err != nil {
		return nil, err
	}

	if def.HasValue {
		return def.Value, nil
	}

	if def.Scope == scope.Transient {
		return c.construct(ctx, def)
	}
	return c.resolveSingleton(ctx, def)
}

func (c *Container) resolveSingleton(ctx context.Context, def *assembly.Definition) (any, error) {
	c.mu.Lock()
	if instance, ok := c.instances[def.Key]; ok {
		c.mu.Unlock()
		return instance, nil
	}
	if call, ok := c.inflight[def.Key]; ok {
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.instance, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &inflightCall{done: make(chan struct{})}
	c.inflight[def.Key] = call
	c.mu.Unlock()

	instance, err := c.construct(ctx, def)

	c.mu.Lock()
	if err == nil {
		c.instances[def.Key] = instance
	}
	delete(c.inflight, def.Key)
	c.mu.Unlock()

	call.instance, call.err = instance, err
	close(call.done)

	return instance, err
}

// construct resolves the declared dependencies depth-first in recipe
// order, then invokes the constructor with a resolver serving exactly
// those instances. Each declared dependency is constructed at most once
// per parent construction; transients are not resolved a second time
// when the constructor pulls them.
func (c *Container) construct(ctx context.Context, def *assembly.Definition) (any, error) {
	frame := &constructionFrame{container: c}
	if len(def.Dependencies) > 0 {
		frame.instances = make(map[string]any, len(def.Dependencies))
		for _, dep := range def.Dependencies {
			instance, err := c.Resolve(ctx, dep)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve dependency %s for %s: %w", dep, def.Key, err)
			}
			frame.instances[dep] = instance
		}
	}

	c.logger.Debug("constructing component", "key", def.Key, "scope", def.Scope.String())

	instance, err := def.Construct(ctx, frame)
	if err != nil {
		return nil, &ConstructError{Key: def.Key, Err: err}
	}
	return instance, nil
}

// constructionFrame hands one constructor its recipe-resolved instances.
// Keys outside the recipe fall back to the container.
type constructionFrame struct {
	container *Container
	instances map[string]any
}

func (f *constructionFrame) Resolve(ctx context.Context, key string) (any, error) {
	if instance, ok := f.instances[key]; ok {
		return instance, nil
	}
	return f.container.Resolve(ctx, key)
}

func (f *constructionFrame) Has(key string) bool {
	return f.container.Has(key)
}

func (c *Container) Assembly() *assembly.Assembly {
	return c.assembly
}

func (c *Container) Has(key string) bool {
	return c.assembly.Has(key)
}

func (c *Container) Keys() []string {
	return c.assembly.Keys()
}

func (c *Container) Size() int {
	return c.assembly.Size()
}

// Instantiated reports whether a singleton instance is already cached.
func (c *Container) Instantiated(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.instances[key]
	return ok
}

// Warm constructs every singleton in dependency order, surfacing
// constructor failures at the composition root instead of on first use.
// Transients and pre-built values are skipped.
func (c *Container) Warm(ctx context.Context) error {
	order, err := c.assembly.Graph().TopologicalOrder()
	if err != nil {
		return err
	}

	c.logger.Debug("warming container", "components", len(order))

	for _, key := range order {
		def, err := c.assembly.Definition(key)
		if err != nil {
			return err
		}
		if def.HasValue || def.Scope != scope.Singleton {
			continue
		}
		if _, err := c.Resolve(ctx, key); err != nil {
			return fmt.Errorf("warm-up stopped at %s: %w", key, err)
		}
	}
	return nil
}

// ConstructError marks a constructor returning an error, as opposed to a
// missing definition or a failed dependency.
type ConstructError struct {
	Key string
	Err error
}

func (e *ConstructError) Error() string {
	return fmt.Sprintf("constructor failed for %s: %v", e.Key, e.Err)
}

func (e *ConstructError) Unwrap() error {
	return e.Err
}
