package suffixtree

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports a build range that does not fit the input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotBuilt reports a query against a tree that was never built.
	ErrNotBuilt = errors.New("suffix tree not built")
	// ErrIndexOutOfRange reports a buffer index outside the built tree.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// ArgumentError carries the parameter responsible for a failed call.  It
// unwraps to one of the package's sentinel errors.
type ArgumentError struct {
	Name  string
	Value int
	Err   error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Name, e.Value, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

func argumentError(name string, value int, err error) error {
	return &ArgumentError{Name: name, Value: value, Err: err}
}
