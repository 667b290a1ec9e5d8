// Package loom is a small, strongly-typed dependency-injection library
// built around a strict two-phase design: an Assembly declares how
// components are constructed, a Container turns it into live, wired
// instances.
//
// # Quick Start
//
// Declare components on an assembly builder, build it, then resolve
// through a container:
//
//	b := loom.NewAssembly()
//
//	loom.Define(b, func(ctx context.Context, r loom.Resolver) (*Config, error) {
//	    return &Config{Port: 8080}, nil
//	})
//
//	loom.Define(b, func(ctx context.Context, r loom.Resolver) (*Server, error) {
//	    cfg, err := loom.From[*Config](ctx, r)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return &Server{config: cfg}, nil
//	}, loom.WithDependencies(loom.Key[*Config]()))
//
//	asm, err := b.Build()
//	if err != nil {
//	    log.Fatal(err) // dangling reference or cycle, caught at start-up
//	}
//
//	c := loom.NewContainer(asm)
//	srv, err := loom.Invoke[*Server](c)
//
// # Assemblies
//
// An assembly maps component keys to construction recipes. Build runs the
// graph checks eagerly: a recipe naming a key that was never defined
// fails with DANGLING_DEPENDENCY, a dependency cycle fails with
// CYCLIC_DEPENDENCY, and in either case no assembly is produced. A
// malformed composition therefore dies at start-up, not mid-request.
//
// Assemblies compose; build one per subsystem and merge them at the root:
//
//	app := loom.NewAssembly()
//	_ = app.Merge(storageAssembly)
//	_ = app.Merge(transportAssembly)
//
// # Scopes
//
// Singleton (the default) components are constructed at most once per
// container; every resolution returns the identical instance. Transient
// components are constructed freshly on every resolution and never touch
// the cache:
//
//	loom.Define(b, newSession, loom.WithScope(loom.Transient))
//
// # Resolution
//
//	v, err := loom.Invoke[*Service](c)    // typed resolve
//	v := loom.MustInvoke[*Service](c)     // panic on error
//	v, ok := loom.TryInvoke[*Service](c)
//	v, err := loom.InvokeNamed[*DB](c, "replica")
//
// Inside constructors, pull declared dependencies through the Resolver:
//
//	cfg, err := loom.From[*Config](ctx, r)
//
// Components themselves receive dependencies at construction time and
// never see the container; only the composition root and test set-up
// code hold one.
//
// # Interface Binding
//
//	loom.Bind[Store, *PostgresStore](b)
//
// binds the Store key to whatever *PostgresStore resolves to. The
// implementation key becomes the recipe, so binding against an undefined
// implementation is caught by Build.
//
// # Warm-up
//
// Warm constructs every singleton in dependency order so constructor
// failures surface at the composition root:
//
//	if err := c.Warm(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Testing
//
// The loomtest package builds a harness that substitutes a test double
// for every key the assembly knows, so constructing a system under test
// never runs a production collaborator's constructor:
//
//	h := loomtest.New(t, asm)
//	loomtest.Substitute(h, &fakeStore{})
//	svc := loomtest.Construct[*Service](h) // real Service, doubled deps
//
// # Observability
//
// Hooks observe resolutions for metrics integration:
//
//	c := loom.NewContainer(asm,
//	    loom.WithResolveObserver(func(key string, d time.Duration, err error) {
//	        metrics.RecordResolve(key, d, err)
//	    }),
//	)
//
// Debug renderings of the dependency graph are available as ASCII
// (PrintGraph) and Graphviz DOT (PrintGraphDOT).
package loom
