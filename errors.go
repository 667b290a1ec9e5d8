package loom

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorCode uint16

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeUnknownComponent
	ErrCodeDuplicateComponent
	ErrCodeDanglingDependency
	ErrCodeCyclicDependency
	ErrCodeConstructorFailed
	ErrCodeResolutionFailed
	ErrCodeDoubleMissing
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:            "UNKNOWN",
	ErrCodeUnknownComponent:   "UNKNOWN_COMPONENT",
	ErrCodeDuplicateComponent: "DUPLICATE_COMPONENT",
	ErrCodeDanglingDependency: "DANGLING_DEPENDENCY",
	ErrCodeCyclicDependency:   "CYCLIC_DEPENDENCY",
	ErrCodeConstructorFailed:  "CONSTRUCTOR_FAILED",
	ErrCodeResolutionFailed:   "RESOLUTION_FAILED",
	ErrCodeDoubleMissing:      "DOUBLE_MISSING",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", c)
}

// Error is the coded error type for assembly and resolution failures.
// Path carries the offending keys for graph-shape errors: the cycle for
// CYCLIC_DEPENDENCY, the unresolvable references for DANGLING_DEPENDENCY.
type Error struct {
	Code      ErrorCode
	Message   string
	Component string
	Path      []string
	Cause     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s]", e.Code))

	if e.Component != "" {
		b.WriteString(fmt.Sprintf(" component=%q:", e.Component))
	}

	b.WriteString(" ")
	b.WriteString(e.Message)

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func newError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func errUnknownComponent(key string, cause error) *Error {
	err := newError(
		ErrCodeUnknownComponent,
		fmt.Sprintf("no definition for %s", key),
		cause,
	)
	err.Component = key
	return err
}

func errDuplicateComponent(key string, cause error) *Error {
	err := newError(
		ErrCodeDuplicateComponent,
		fmt.Sprintf("component %s defined twice", key),
		cause,
	)
	err.Component = key
	return err
}

func errDanglingDependency(missing []string, cause error) *Error {
	err := newError(
		ErrCodeDanglingDependency,
		fmt.Sprintf("recipes reference undefined components: %s", strings.Join(missing, ", ")),
		cause,
	)
	err.Path = missing
	return err
}

func errCyclicDependency(path []string, cause error) *Error {
	err := newError(
		ErrCodeCyclicDependency,
		fmt.Sprintf("dependency cycle: %s", strings.Join(path, " -> ")),
		cause,
	)
	err.Path = path
	return err
}

func errConstructorFailed(key string, cause error) *Error {
	err := newError(
		ErrCodeConstructorFailed,
		fmt.Sprintf("constructor for %s returned error", key),
		cause,
	)
	err.Component = key
	return err
}

func errResolutionFailed(key string, cause error) *Error {
	err := newError(
		ErrCodeResolutionFailed,
		fmt.Sprintf("failed to resolve %s", key),
		cause,
	)
	err.Component = key
	return err
}

func IsUnknownComponent(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeUnknownComponent
}

func IsDuplicateComponent(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeDuplicateComponent
}

func IsDanglingDependency(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeDanglingDependency
}

func IsCyclicDependency(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeCyclicDependency
}

func IsConstructorFailed(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeConstructorFailed
}

func IsResolutionFailed(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeResolutionFailed
}

// IsDoubleMissing reports a loomtest resolution of a component whose type
// has no fabricable default double and no Substitute installed.
func IsDoubleMissing(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeDoubleMissing
}
