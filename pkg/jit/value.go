package jit

import "stackjit/pkg/asm"

// CacheState tracks how a cached slot relates to its memory-resident
// counterpart in the call frame.
type CacheState int

const (
	// CacheOk: the cached operands are authoritative and memory agrees.
	CacheOk CacheState = iota

	// CacheStale: the value has not been fetched from the frame yet.
	CacheStale

	// CacheModified: the cached operands are authoritative but memory is
	// stale; the slot must be flushed before anything observes memory or
	// before the procedure may suspend.
	CacheModified
)

// String returns the state name.
func (s CacheState) String() string {
	switch s {
	case CacheOk:
		return "ok"
	case CacheStale:
		return "stale"
	case CacheModified:
		return "modified"
	default:
		return "unknown"
	}
}

// Variable references one dynamically-typed VM value through a pair of
// operands supplied by the code-generation engine. Two Variables are the same
// value exactly when both operand pairs compare equal.
type Variable struct {
	Type  asm.Operand
	Value asm.Operand
}

// NullVariable is the null-typed value every slot starts out holding.
func NullVariable() Variable {
	return Variable{Type: asm.Imm(0), Value: asm.Imm(0)}
}

// Slot is one cached local or argument entry.
type Slot struct {
	State CacheState
	Var   Variable
}
