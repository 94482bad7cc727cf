package expr

import (
	"errors"
	"fmt"

	"github.com/mathlib-go/mathlib/internal/binding"
)

// Common errors. Test with errors.Is.
var (
	ErrUnknownVariable     = binding.ErrUnknownVariable
	ErrInconsistentBinding = binding.ErrInconsistentBinding
	ErrUnsupportedOperator = errors.New("unsupported operator")
)

// Error provides detailed information about a failed expression operation.
type Error struct {
	Op      string // Operation that failed (e.g., "diff", "compose")
	Name    string // Variable involved, if any
	Details string // Additional details
	Err     error  // One of the sentinel errors above
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Op + ": " + e.Err.Error()
	if e.Name != "" {
		msg += fmt.Sprintf(" %q", e.Name)
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

// Unwrap returns the sentinel error.
func (e *Error) Unwrap() error {
	return e.Err
}
