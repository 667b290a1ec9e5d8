// Package reflect derives stable string keys from Go types. Keys identify
// components inside an assembly, so two distinct types must never map to
// the same key; named types therefore carry their full package path.
package reflect

import (
	"reflect"
	"strconv"
	"sync"
)

var keyCache sync.Map // reflect.Type -> string

// TypeOf returns the reflect.Type for T, working for interface types too.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// TypeKey returns the component key for T.
func TypeKey[T any]() string {
	return keyFor(TypeOf[T]())
}

// TypeKeyNamed returns the component key for T qualified with a name,
// allowing several components of the same type in one assembly.
func TypeKeyNamed[T any](name string) string {
	return TypeKey[T]() + "#" + name
}

// TypeName returns a short human-readable name for T, used in errors.
func TypeName[T any]() string {
	return TypeOf[T]().String()
}

func keyFor(t reflect.Type) string {
	if cached, ok := keyCache.Load(t); ok {
		return cached.(string)
	}
	key := buildKey(t)
	keyCache.Store(t, key)
	return key
}

func buildKey(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Pointer:
		return "*" + buildKey(t.Elem())
	case reflect.Slice:
		return "[]" + buildKey(t.Elem())
	case reflect.Array:
		return "[" + strconv.Itoa(t.Len()) + "]" + buildKey(t.Elem())
	case reflect.Map:
		return "map[" + buildKey(t.Key()) + "]" + buildKey(t.Elem())
	case reflect.Chan:
		return "chan " + buildKey(t.Elem())
	default:
		if t.PkgPath() != "" {
			return t.PkgPath() + "." + t.Name()
		}
		return t.String()
	}
}

// Zero fabricates an inert zero instance of t: pointers point at zeroed
// values, maps, slices and channels are empty but usable. Interface and
// func types have no fabricable instance and report ok=false.
func Zero(t reflect.Type) (any, bool) {
	if t == nil {
		return nil, false
	}

	switch t.Kind() {
	case reflect.Pointer:
		return reflect.New(t.Elem()).Interface(), true
	case reflect.Map:
		return reflect.MakeMap(t).Interface(), true
	case reflect.Slice:
		return reflect.MakeSlice(t, 0, 0).Interface(), true
	case reflect.Chan:
		return reflect.MakeChan(t, 0).Interface(), true
	case reflect.Interface, reflect.Func:
		return nil, false
	default:
		return reflect.Zero(t).Interface(), true
	}
}
