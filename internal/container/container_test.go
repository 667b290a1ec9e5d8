package container

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/loomdi/loom/internal/assembly"
	"github.com/loomdi/loom/internal/scope"
)

type widget struct {
	id int
}

func buildAssembly(t *testing.T, defs ...*assembly.Definition) *assembly.Assembly {
	t.Helper()

	b := assembly.NewBuilder()
	for _, def := range defs {
		if err := b.Add(def); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	asm, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return asm
}

func counting(key string, s scope.Scope, counter *atomic.Int32, deps ...string) *assembly.Definition {
	return &assembly.Definition{
		Key:          key,
		Type:         reflect.TypeOf(&widget{}),
		Scope:        s,
		Dependencies: deps,
		Construct: func(ctx context.Context, r Resolver) (any, error) {
			return &widget{id: int(counter.Add(1))}, nil
		},
	}
}

// Resolver alias keeps the definitions above readable.
type Resolver = assembly.Resolver

func TestSingletonIdentity(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	asm := buildAssembly(t, counting("w", scope.Singleton, &calls))
	c := New(asm, &Config{})

	first, err := c.Resolve(context.Background(), "w")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	second, err := c.Resolve(context.Background(), "w")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if first != second {
		t.Fatal("singleton resolutions must return the identical instance")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one construction, got %d", calls.Load())
	}
}

func TestTransientDistinct(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	asm := buildAssembly(t, counting("w", scope.Transient, &calls))
	c := New(asm, &Config{})

	first, _ := c.Resolve(context.Background(), "w")
	second, _ := c.Resolve(context.Background(), "w")

	if first == second {
		t.Fatal("transient resolutions must return distinct instances")
	}
	if calls.Load() != 2 {
		t.Fatalf("expected two constructions, got %d", calls.Load())
	}
	if c.Instantiated("w") {
		t.Fatal("transient resolution must not populate the cache")
	}
}

func TestUnknownKey(t *testing.T) {
	t.Parallel()

	asm := buildAssembly(t)
	c := New(asm, &Config{})

	if _, err := c.Resolve(context.Background(), "ghost"); !errors.Is(err, assembly.ErrUnknown) {
		t.Fatalf("expected ErrUnknown, got %v", err)
	}
}

func TestValueDefinition(t *testing.T) {
	t.Parallel()

	w := &widget{id: 42}
	asm := buildAssembly(t, &assembly.Definition{
		Key:      "w",
		Type:     reflect.TypeOf(w),
		Scope:    scope.Singleton,
		Value:    w,
		HasValue: true,
	})
	c := New(asm, &Config{})

	got, err := c.Resolve(context.Background(), "w")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != w {
		t.Fatal("value definitions must resolve to the registered instance")
	}
}

func TestConstructorError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	asm := buildAssembly(t, &assembly.Definition{
		Key:   "w",
		Type:  reflect.TypeOf(&widget{}),
		Scope: scope.Singleton,
		Construct: func(ctx context.Context, r Resolver) (any, error) {
			return nil, boom
		},
	})
	c := New(asm, &Config{})

	_, err := c.Resolve(context.Background(), "w")

	var constructErr *ConstructError
	if !errors.As(err, &constructErr) {
		t.Fatalf("expected ConstructError, got %v", err)
	}
	if constructErr.Key != "w" || !errors.Is(err, boom) {
		t.Fatalf("unexpected error detail: %v", err)
	}

	// A failed construction must not be cached.
	if c.Instantiated("w") {
		t.Fatal("failed singleton must not be cached")
	}
}

func TestDependenciesResolvedInRecipeOrder(t *testing.T) {
	t.Parallel()

	var order []string
	var mu sync.Mutex
	record := func(key string) *assembly.Definition {
		return &assembly.Definition{
			Key:   key,
			Type:  reflect.TypeOf(&widget{}),
			Scope: scope.Singleton,
			Construct: func(ctx context.Context, r Resolver) (any, error) {
				mu.Lock()
				order = append(order, key)
				mu.Unlock()
				return &widget{}, nil
			},
		}
	}

	root := &assembly.Definition{
		Key:          "root",
		Type:         reflect.TypeOf(&widget{}),
		Scope:        scope.Singleton,
		Dependencies: []string{"left", "right"},
		Construct: func(ctx context.Context, r Resolver) (any, error) {
			mu.Lock()
			order = append(order, "root")
			mu.Unlock()
			return &widget{}, nil
		},
	}

	asm := buildAssembly(t, record("left"), record("right"), root)
	c := New(asm, &Config{})

	if _, err := c.Resolve(context.Background(), "root"); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(order) != 3 || order[0] != "left" || order[1] != "right" || order[2] != "root" {
		t.Fatalf("expected construction order [left right root], got %v", order)
	}
}

func TestSharedSingletonDependency(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	shared := counting("shared", scope.Singleton, &calls)

	type holder struct {
		dep any
	}
	holderDef := func(key string) *assembly.Definition {
		return &assembly.Definition{
			Key:          key,
			Type:         reflect.TypeOf(&holder{}),
			Scope:        scope.Singleton,
			Dependencies: []string{"shared"},
			Construct: func(ctx context.Context, r Resolver) (any, error) {
				dep, err := r.Resolve(ctx, "shared")
				if err != nil {
					return nil, err
				}
				return &holder{dep: dep}, nil
			},
		}
	}

	asm := buildAssembly(t, shared, holderDef("a"), holderDef("b"))
	c := New(asm, &Config{})

	a, _ := c.Resolve(context.Background(), "a")
	b, _ := c.Resolve(context.Background(), "b")

	if a.(*holder).dep != b.(*holder).dep {
		t.Fatal("siblings must share the singleton dependency instance")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one construction of shared, got %d", calls.Load())
	}
}

func TestTransientDependencyConstructedOncePerParent(t *testing.T) {
	t.Parallel()

	var depCalls atomic.Int32
	dep := counting("dep", scope.Transient, &depCalls)

	type parentWidget struct {
		dep any
	}
	parent := &assembly.Definition{
		Key:          "parent",
		Type:         reflect.TypeOf(&parentWidget{}),
		Scope:        scope.Transient,
		Dependencies: []string{"dep"},
		Construct: func(ctx context.Context, r Resolver) (any, error) {
			d, err := r.Resolve(ctx, "dep")
			if err != nil {
				return nil, err
			}
			return &parentWidget{dep: d}, nil
		},
	}

	asm := buildAssembly(t, dep, parent)

	var depObservations atomic.Int32
	c := New(asm, &Config{
		OnResolve: []ResolveHook{
			func(key string, duration time.Duration, err error) {
				if key == "dep" {
					depObservations.Add(1)
				}
			},
		},
	})

	first, err := c.Resolve(context.Background(), "parent")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if depCalls.Load() != 1 {
		t.Fatalf("expected one dependency construction per parent, got %d", depCalls.Load())
	}
	if depObservations.Load() != 1 {
		t.Fatalf("expected one observation of dep per parent, got %d", depObservations.Load())
	}

	second, err := c.Resolve(context.Background(), "parent")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if depCalls.Load() != 2 {
		t.Fatalf("expected a fresh dependency per parent, got %d constructions", depCalls.Load())
	}
	if first.(*parentWidget).dep == second.(*parentWidget).dep {
		t.Fatal("transient dependencies must be distinct across parent constructions")
	}
}

func TestConcurrentFirstResolutionConstructsOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	asm := buildAssembly(t, counting("w", scope.Singleton, &calls))
	c := New(asm, &Config{})

	const goroutines = 32
	results := make([]any, goroutines)

	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer done.Done()
			start.Wait()
			v, err := c.Resolve(context.Background(), "w")
			if err != nil {
				t.Errorf("Resolve failed: %v", err)
				return
			}
			results[i] = v
		}(i)
	}
	start.Done()
	done.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected exactly one construction under contention, got %d", calls.Load())
	}
	for i := 1; i < goroutines; i++ {
		if results[i] != results[0] {
			t.Fatal("all callers must receive the identical instance")
		}
	}
}

func TestWarmConstructsSingletonsOnly(t *testing.T) {
	t.Parallel()

	var singletons, transients atomic.Int32
	asm := buildAssembly(t,
		counting("s1", scope.Singleton, &singletons),
		counting("s2", scope.Singleton, &singletons),
		counting("t1", scope.Transient, &transients),
	)
	c := New(asm, &Config{})

	if err := c.Warm(context.Background()); err != nil {
		t.Fatalf("Warm failed: %v", err)
	}

	if singletons.Load() != 2 {
		t.Fatalf("expected both singletons constructed, got %d", singletons.Load())
	}
	if transients.Load() != 0 {
		t.Fatalf("transients must not be constructed during warm-up, got %d", transients.Load())
	}
	if !c.Instantiated("s1") || !c.Instantiated("s2") {
		t.Fatal("expected warmed singletons in the cache")
	}
}

func TestWarmStopsOnConstructorFailure(t *testing.T) {
	t.Parallel()

	asm := buildAssembly(t, &assembly.Definition{
		Key:   "bad",
		Type:  reflect.TypeOf(&widget{}),
		Scope: scope.Singleton,
		Construct: func(ctx context.Context, r Resolver) (any, error) {
			return nil, errors.New("boom")
		},
	})
	c := New(asm, &Config{})

	if err := c.Warm(context.Background()); err == nil {
		t.Fatal("expected warm-up failure")
	}
}

func TestResolveObserver(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	asm := buildAssembly(t, counting("w", scope.Singleton, &calls))

	type observation struct {
		key string
		err error
	}
	var mu sync.Mutex
	var observed []observation

	c := New(asm, &Config{
		OnResolve: []ResolveHook{
			func(key string, duration time.Duration, err error) {
				mu.Lock()
				observed = append(observed, observation{key: key, err: err})
				mu.Unlock()
			},
		},
	})

	if _, err := c.Resolve(context.Background(), "w"); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	_, _ = c.Resolve(context.Background(), "ghost")

	mu.Lock()
	defer mu.Unlock()
	if len(observed) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(observed))
	}
	if observed[0].key != "w" || observed[0].err != nil {
		t.Fatalf("unexpected first observation: %+v", observed[0])
	}
	if observed[1].key != "ghost" || observed[1].err == nil {
		t.Fatalf("unexpected second observation: %+v", observed[1])
	}
}
