package scope

// Scope controls whether a resolved instance is cached and reused or
// freshly constructed on every resolution.
type Scope int

const (
	Singleton Scope = iota
	Transient
)

func (s Scope) String() string {
	switch s {
	case Singleton:
		return "singleton"
	case Transient:
		return "transient"
	default:
		return "unknown"
	}
}
