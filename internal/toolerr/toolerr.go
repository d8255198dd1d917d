package toolerr

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrRange       = errors.New("value out of range")
	ErrCardinality = errors.New("invalid amount of items")
	ErrDependency  = errors.New("dependency not met")
	ErrSchema      = errors.New("schema validation failed")
	ErrStartValue  = errors.New("no starting value found")
	ErrDuration    = errors.New("duration too short")
	ErrInvalid     = errors.New("invalid argument")
)

// Error is a recipe tool failure carrying a human readable message.
// Param is empty when the failure is not tied to one parameter.
type Error struct {
	Kind  error
	Param string
	Msg   string
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// New builds an Error of the given kind.
func New(kind error, param, format string, args ...any) error {
	return &Error{Kind: kind, Param: param, Msg: fmt.Sprintf(format, args...)}
}

// Range reports a value outside of [lo, hi]. Open bounds print as "..".
func Range(param string, value any, lo, hi string) error {
	return New(ErrRange, param, "%s: value out of range '%v' (min: %s | max: %s)", param, value, lo, hi)
}

// Amount reports a list with the wrong number of items.
func Amount(param string, n int, lo, hi string) error {
	return New(ErrCardinality, param, "%s: invalid amount of items (%d) (min: %s | max: %s)", param, n, lo, hi)
}

// Depends reports a parameter set without one of its companions.
func Depends(param, dep string) error {
	return New(ErrDependency, param, "'%s' depends on '%s'", param, dep)
}
