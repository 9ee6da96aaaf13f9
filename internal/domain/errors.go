package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvariant marks fatal precondition violations: the caller was expected
// to have prevented the situation, so there is nothing a user can do about it.
// Match with errors.Is(err, ErrInvariant).
var ErrInvariant = errors.New("invariant violated")

// RuleError is a recoverable business-rule failure. Its message is safe to
// show to the user who triggered it.
type RuleError struct {
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

func NewRuleError(msg string) error {
	return &RuleError{Message: msg}
}

// IsRuleError reports whether err is a recoverable business-rule failure.
func IsRuleError(err error) bool {
	var re *RuleError
	return errors.As(err, &re)
}

// InvariantErrorf builds a fatal error wrapping ErrInvariant.
func InvariantErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvariant}, args...)...)
}
