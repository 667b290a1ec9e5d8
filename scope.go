package loom

import "github.com/loomdi/loom/internal/scope"

// Scope selects the instance policy of a component: Singleton components
// are constructed at most once per container and reused, Transient ones
// are constructed freshly on every resolution and never cached.
type Scope = scope.Scope

const (
	Singleton = scope.Singleton
	Transient = scope.Transient
)
