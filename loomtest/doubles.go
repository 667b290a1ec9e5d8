package loomtest

import (
	"reflect"

	loomreflect "github.com/loomdi/loom/internal/reflect"
)

// DoubleGenerator fabricates a test double for a component. Returning
// ok=false marks the key as needing an explicit Substitute.
type DoubleGenerator func(key string, t reflect.Type) (any, bool)

// ZeroDouble is the default generator: pointer components become
// pointers to zeroed values, maps, slices and channels become empty
// instances. Interface- and func-typed components are not fabricable.
func ZeroDouble(key string, t reflect.Type) (any, bool) {
	return loomreflect.Zero(t)
}
