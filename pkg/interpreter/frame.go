package interpreter

import "stackjit/pkg/bytecode"

// Frame is one call frame: the durable state that survives a suspension.
// Registers of generated code have no counterpart here on purpose.
type Frame struct {
	Proc   *bytecode.Proc
	IP     int // next instruction index
	Args   []Value
	Locals []Value
	Stack  []Value
	Dot    Value
	Src    Value
	Usr    Value
	Iter   *iterator
}

func newFrame(p *bytecode.Proc, args []Value) *Frame {
	f := &Frame{
		Proc:   p,
		Args:   make([]Value, p.Args),
		Locals: make([]Value, int(p.Locals)),
	}
	copy(f.Args, args)
	for i := range f.Locals {
		f.Locals[i] = Null()
	}
	return f
}

func (f *Frame) push(v Value) {
	f.Stack = append(f.Stack, v)
}

func (f *Frame) pop() (Value, bool) {
	if len(f.Stack) == 0 {
		return Value{}, false
	}
	v := f.Stack[len(f.Stack)-1]
	f.Stack = f.Stack[:len(f.Stack)-1]
	return v, true
}

// iterator counts 1..limit; the VM's list model is out of scope and a
// counting iterator is enough to exercise the iterator register. Exhaustion
// yields null so generated code can test for it.
type iterator struct {
	next, limit int32
}

func (it *iterator) advance() (Value, bool) {
	if it == nil || it.next >= it.limit {
		return Null(), false
	}
	it.next++
	return Number(it.next), true
}
