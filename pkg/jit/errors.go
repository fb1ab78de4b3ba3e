package jit

import "fmt"

// InvariantError reports a violated compiler invariant: a stack underflow the
// verified bytecode should have made impossible, or an accessor called against
// a closed or absent context. It is never recoverable; callers abort the
// compilation pass when they see one.
type InvariantError struct {
	msg string
}

func (e *InvariantError) Error() string {
	return "jit: invariant violation: " + e.msg
}

func invariantf(format string, args ...any) *InvariantError {
	return &InvariantError{msg: fmt.Sprintf(format, args...)}
}
