package loom_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/loomdi/loom"
)

type Config struct {
	Port int
	Host string
}

type Database struct {
	Config *Config
	Name   string
}

type Server struct {
	DB     *Database
	Config *Config
}

func appAssembly(t *testing.T) *loom.Assembly {
	t.Helper()

	b := loom.NewAssembly()

	if err := loom.DefineValue(b, &Config{Port: 8080, Host: "localhost"}); err != nil {
		t.Fatalf("DefineValue failed: %v", err)
	}

	err := loom.Define(b, func(ctx context.Context, r loom.Resolver) (*Database, error) {
		cfg, err := loom.From[*Config](ctx, r)
		if err != nil {
			return nil, err
		}
		return &Database{Config: cfg, Name: "main"}, nil
	}, loom.WithDependencies(loom.Key[*Config]()))
	if err != nil {
		t.Fatalf("Define failed: %v", err)
	}

	err = loom.Define(b, func(ctx context.Context, r loom.Resolver) (*Server, error) {
		db, err := loom.From[*Database](ctx, r)
		if err != nil {
			return nil, err
		}
		cfg, err := loom.From[*Config](ctx, r)
		if err != nil {
			return nil, err
		}
		return &Server{DB: db, Config: cfg}, nil
	}, loom.WithDependencies(loom.Key[*Database](), loom.Key[*Config]()))
	if err != nil {
		t.Fatalf("Define failed: %v", err)
	}

	asm, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return asm
}

func TestNewContainer(t *testing.T) {
	t.Parallel()

	c := loom.NewContainer(appAssembly(t))
	if c == nil {
		t.Fatal("NewContainer returned nil")
	}
	if c.Size() != 3 {
		t.Fatalf("expected 3 components, got %d", c.Size())
	}
}

func TestNewContainerWithLogger(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	c := loom.NewContainer(appAssembly(t), loom.WithLogger(logger))
	if c == nil {
		t.Fatal("NewContainer with logger returned nil")
	}
}

func TestInvokeChain(t *testing.T) {
	t.Parallel()

	c := loom.NewContainer(appAssembly(t))

	srv, err := loom.Invoke[*Server](c)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if srv.Config.Port != 8080 {
		t.Errorf("expected port 8080, got %d", srv.Config.Port)
	}
	if srv.DB == nil || srv.DB.Config != srv.Config {
		t.Error("expected server and database to share the config singleton")
	}
}

func TestInvokeValue(t *testing.T) {
	t.Parallel()

	c := loom.NewContainer(appAssembly(t))

	cfg, err := loom.Invoke[*Config](c)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if cfg.Host != "localhost" {
		t.Errorf("expected host localhost, got %s", cfg.Host)
	}
}

func TestInvokeUnknown(t *testing.T) {
	t.Parallel()

	c := loom.NewContainer(appAssembly(t))

	type unregistered struct{}
	_, err := loom.Invoke[*unregistered](c)
	if !loom.IsUnknownComponent(err) {
		t.Fatalf("expected UNKNOWN_COMPONENT, got %v", err)
	}
}

func TestInvokeNamed(t *testing.T) {
	t.Parallel()

	b := loom.NewAssembly()
	_ = loom.DefineNamedValue(b, "primary", &Database{Name: "primary"})
	_ = loom.DefineNamedValue(b, "replica", &Database{Name: "replica"})
	c := loom.NewContainer(b.MustBuild())

	primary, err := loom.InvokeNamed[*Database](c, "primary")
	if err != nil {
		t.Fatalf("InvokeNamed failed: %v", err)
	}
	replica, err := loom.InvokeNamed[*Database](c, "replica")
	if err != nil {
		t.Fatalf("InvokeNamed failed: %v", err)
	}

	if primary.Name != "primary" || replica.Name != "replica" {
		t.Fatalf("named resolution mixed up instances: %q, %q", primary.Name, replica.Name)
	}
}

func TestMustInvokePanics(t *testing.T) {
	t.Parallel()

	c := loom.NewContainer(appAssembly(t))

	defer func() {
		if recover() == nil {
			t.Fatal("expected MustInvoke to panic for an unknown component")
		}
	}()

	type unregistered struct{}
	_ = loom.MustInvoke[*unregistered](c)
}

func TestTryInvoke(t *testing.T) {
	t.Parallel()

	c := loom.NewContainer(appAssembly(t))

	if _, ok := loom.TryInvoke[*Server](c); !ok {
		t.Fatal("expected TryInvoke to succeed for a defined component")
	}

	type unregistered struct{}
	if _, ok := loom.TryInvoke[*unregistered](c); ok {
		t.Fatal("expected TryInvoke to fail for an unknown component")
	}
}

func TestHas(t *testing.T) {
	t.Parallel()

	c := loom.NewContainer(appAssembly(t))

	if !loom.Has[*Server](c) {
		t.Fatal("expected container to have *Server")
	}

	type unregistered struct{}
	if loom.Has[*unregistered](c) {
		t.Fatal("did not expect container to have *unregistered")
	}
}

func TestConstructorErrorCode(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")

	b := loom.NewAssembly()
	_ = loom.Define(b, func(ctx context.Context, r loom.Resolver) (*Database, error) {
		return nil, boom
	})
	c := loom.NewContainer(b.MustBuild())

	_, err := loom.Invoke[*Database](c)
	if !loom.IsConstructorFailed(err) {
		t.Fatalf("expected CONSTRUCTOR_FAILED, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
}

func TestWarm(t *testing.T) {
	t.Parallel()

	constructed := false

	b := loom.NewAssembly()
	_ = loom.Define(b, func(ctx context.Context, r loom.Resolver) (*Database, error) {
		constructed = true
		return &Database{Name: "warmed"}, nil
	})
	c := loom.NewContainer(b.MustBuild())

	if err := c.Warm(context.Background()); err != nil {
		t.Fatalf("Warm failed: %v", err)
	}
	if !constructed {
		t.Fatal("expected Warm to construct the singleton")
	}
}

func TestResolveObserver(t *testing.T) {
	t.Parallel()

	var keys []string
	c := loom.NewContainer(appAssembly(t),
		loom.WithResolveObserver(func(key string, duration time.Duration, err error) {
			keys = append(keys, key)
		}),
	)

	if _, err := loom.Invoke[*Config](c); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != loom.Key[*Config]() {
		t.Fatalf("unexpected observations: %v", keys)
	}
}

func TestOneAssemblyManyContainers(t *testing.T) {
	t.Parallel()

	asm := appAssembly(t)
	first := loom.NewContainer(asm)
	second := loom.NewContainer(asm)

	a := loom.MustInvoke[*Server](first)
	b := loom.MustInvoke[*Server](second)

	if a == b {
		t.Fatal("containers must not share singleton caches")
	}
}
