// Package loomtest is a test harness for loom assemblies. A Harness
// installs a test double for every key its assembly knows before any
// resolution happens, so building a system under test never runs a
// production collaborator's constructor, however deep the recipe.
package loomtest

import (
	"context"
	"fmt"

	"github.com/loomdi/loom"
)

// TB is the subset of testing.TB the harness needs.
type TB interface {
	Helper()
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Cleanup(f func())
}

type harnessState int

const (
	stateUninitialized harnessState = iota
	stateMocksInjected
	stateTornDown
)

// Harness pairs one assembly with a substitution map of test doubles.
// Each test case gets a fresh harness; Cleanup tears it down and no
// state crosses test cases.
type Harness struct {
	tb       TB
	assembly *loom.Assembly

	doubles map[string]any
	missing map[string]bool

	state             harnessState
	resolutionStarted bool
}

type Option func(*config)

type config struct {
	generate DoubleGenerator
}

// WithDoubleGenerator replaces the default zero-value double generator.
func WithDoubleGenerator(g DoubleGenerator) Option {
	return func(cfg *config) {
		cfg.generate = g
	}
}

// New builds a harness over a validated assembly. During set-up it
// installs a generated double for every defined key. Keys the generator
// cannot fabricate (interface and func types) fail the test on first use
// unless the test installs one with Substitute.
func New(tb TB, asm *loom.Assembly, opts ...Option) *Harness {
	tb.Helper()

	cfg := &config{generate: ZeroDouble}
	for _, opt := range opts {
		opt(cfg)
	}

	h := &Harness{
		tb:       tb,
		assembly: asm,
		doubles:  make(map[string]any, asm.Size()),
		missing:  make(map[string]bool),
		state:    stateUninitialized,
	}

	internal := asm.Internal()
	for _, key := range internal.Keys() {
		def, err := internal.Definition(key)
		if err != nil {
			tb.Fatalf("loomtest: assembly lost definition for %s: %v", key, err)
			return h
		}
		if double, ok := cfg.generate(key, def.Type); ok {
			h.doubles[key] = double
		} else {
			h.missing[key] = true
		}
	}
	h.state = stateMocksInjected

	tb.Cleanup(func() {
		h.state = stateTornDown
		h.doubles = nil
		h.missing = nil
	})

	return h
}

// Substitute installs a caller-supplied double for T, replacing the
// generated one. Substitutions are part of test set-up: installing one
// after resolution has begun fails the test.
func Substitute[T any](h *Harness, double T) {
	h.tb.Helper()
	h.substitute(loom.Key[T](), double)
}

// SubstituteNamed installs a double for a named T.
func SubstituteNamed[T any](h *Harness, name string, double T) {
	h.tb.Helper()
	h.substitute(loom.NamedKey[T](name), double)
}

func (h *Harness) substitute(key string, double any) {
	h.tb.Helper()
	h.ensureActive()

	if h.resolutionStarted {
		h.tb.Fatalf("loomtest: substitute %s after resolution began; install doubles during set-up", key)
		return
	}
	if !h.assembly.Has(key) {
		h.tb.Fatalf("loomtest: assembly has no component %s", key)
		return
	}

	h.doubles[key] = double
	delete(h.missing, key)
}

// Resolve returns the double installed for T. It never visits the real
// constructor or the dependency recipe.
func Resolve[T any](h *Harness) T {
	h.tb.Helper()
	return resolveKey[T](h, loom.Key[T]())
}

// ResolveNamed returns the double installed for a named T.
func ResolveNamed[T any](h *Harness, name string) T {
	h.tb.Helper()
	return resolveKey[T](h, loom.NamedKey[T](name))
}

func resolveKey[T any](h *Harness, key string) T {
	h.tb.Helper()

	var zero T
	instance, err := h.Resolve(context.Background(), key)
	if err != nil {
		h.tb.Fatalf("loomtest: %v", err)
		return zero
	}

	typed, ok := instance.(T)
	if !ok {
		h.tb.Fatalf("loomtest: double for %s is a %T, not the component type", key, instance)
		return zero
	}
	return typed
}

// Construct runs the real constructor for T against the substitution
// map: the system under test is genuinely built, every dependency it
// pulls is a double.
func Construct[T any](h *Harness) T {
	h.tb.Helper()
	return constructKey[T](h, loom.Key[T]())
}

// ConstructNamed is Construct for a named T.
func ConstructNamed[T any](h *Harness, name string) T {
	h.tb.Helper()
	return constructKey[T](h, loom.NamedKey[T](name))
}

func constructKey[T any](h *Harness, key string) T {
	h.tb.Helper()
	h.ensureActive()
	h.resolutionStarted = true

	var zero T

	def, err := h.assembly.Internal().Definition(key)
	if err != nil {
		h.tb.Fatalf("loomtest: %v", err)
		return zero
	}

	var instance any
	if def.HasValue {
		instance = def.Value
	} else {
		instance, err = def.Construct(context.Background(), h)
		if err != nil {
			h.tb.Fatalf("loomtest: constructor for %s failed: %v", key, err)
			return zero
		}
	}

	typed, ok := instance.(T)
	if !ok {
		h.tb.Fatalf("loomtest: constructor for %s built a %T, not the component type", key, instance)
		return zero
	}
	return typed
}

// Resolve implements the resolver handed to constructors: doubles only,
// never production construction.
func (h *Harness) Resolve(ctx context.Context, key string) (any, error) {
	h.ensureActive()
	h.resolutionStarted = true

	if double, ok := h.doubles[key]; ok {
		return double, nil
	}
	if h.missing[key] {
		return nil, &loom.Error{
			Code:      loom.ErrCodeDoubleMissing,
			Message:   fmt.Sprintf("no double for %s; its type cannot be fabricated, install one with Substitute", key),
			Component: key,
		}
	}
	return nil, &loom.Error{
		Code:      loom.ErrCodeUnknownComponent,
		Message:   fmt.Sprintf("no definition for %s", key),
		Component: key,
	}
}

func (h *Harness) Has(key string) bool {
	h.ensureActive()
	return h.assembly.Has(key)
}

func (h *Harness) ensureActive() {
	if h.state == stateTornDown {
		h.tb.Fatal("loomtest: harness used after teardown")
	}
	if h.state == stateUninitialized {
		h.tb.Fatal("loomtest: harness not initialized; use loomtest.New")
	}
}
