package interpreter

import (
	"fmt"

	"stackjit/pkg/bytecode"
)

// Value is one dynamically-typed VM value: a type tag and a payload word.
// This is the memory-resident shape the generated code commits into.
type Value struct {
	Type    int32
	Payload int32
}

// Null returns the null value.
func Null() Value {
	return Value{Type: bytecode.TypeNull}
}

// Number returns a numeric value.
func Number(n int32) Value {
	return Value{Type: bytecode.TypeNumber, Payload: n}
}

// IsTrue reports the VM truthiness of the value: null and zero numbers are
// false, everything else is true.
func (v Value) IsTrue() bool {
	switch v.Type {
	case bytecode.TypeNull:
		return false
	case bytecode.TypeNumber:
		return v.Payload != 0
	default:
		return true
	}
}

// String renders the value for traces and program output.
func (v Value) String() string {
	switch v.Type {
	case bytecode.TypeNull:
		return "null"
	case bytecode.TypeNumber:
		return fmt.Sprintf("%d", v.Payload)
	default:
		return fmt.Sprintf("<%d:%d>", v.Type, v.Payload)
	}
}
