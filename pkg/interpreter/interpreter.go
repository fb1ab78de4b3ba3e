package interpreter

import (
	"fmt"

	"stackjit/pkg/bytecode"
)

// Status reports how a Run or Resume ended.
type Status int

const (
	// Done: the outermost procedure returned.
	Done Status = iota
	// Suspended: a sleep was reached; only frame state is retained and the
	// caller may Resume later.
	Suspended
)

// Interpreter is the reference evaluator for a module. It exists to document
// the semantics the JIT output must preserve: everything it keeps between
// suspensions lives in frames, never in Go locals.
type Interpreter struct {
	m      *bytecode.Module
	frames []*Frame
	result Value
}

// New creates an interpreter for the module.
func New(m *bytecode.Module) *Interpreter {
	return &Interpreter{m: m}
}

// Run starts the named procedure with the given arguments and executes until
// it returns or suspends.
func (in *Interpreter) Run(procName string, args []Value) (Value, Status, error) {
	p := in.m.ProcByName(procName)
	if p == nil {
		return Value{}, Done, fmt.Errorf("no such proc %q", procName)
	}
	in.frames = []*Frame{newFrame(p, args)}
	return in.loop()
}

// Resume continues a suspended run.
func (in *Interpreter) Resume() (Value, Status, error) {
	if len(in.frames) == 0 {
		return Value{}, Done, fmt.Errorf("nothing to resume")
	}
	return in.loop()
}

func (in *Interpreter) loop() (Value, Status, error) {
	for len(in.frames) > 0 {
		f := in.frames[len(in.frames)-1]
		if f.IP >= len(f.Proc.Code) {
			in.ret(Null())
			continue
		}
		instr := f.Proc.Code[f.IP]
		f.IP++

		suspended, err := in.step(f, instr)
		if err != nil {
			return Value{}, Done, fmt.Errorf("%s@%d: %w", f.Proc.Name, f.IP-1, err)
		}
		if suspended {
			return Value{}, Suspended, nil
		}
	}
	return in.result, Done, nil
}

func (in *Interpreter) step(f *Frame, instr bytecode.Instruction) (bool, error) {
	switch instr.Op {
	case bytecode.OpNop:

	case bytecode.OpPushImm:
		f.push(Value{Type: instr.A, Payload: instr.B})

	case bytecode.OpPushLocal:
		if int(instr.A) >= len(f.Locals) {
			return false, fmt.Errorf("local %d out of range", instr.A)
		}
		f.push(f.Locals[instr.A])

	case bytecode.OpSetLocal:
		v, ok := f.pop()
		if !ok {
			return false, errUnderflow
		}
		if int(instr.A) >= len(f.Locals) {
			return false, fmt.Errorf("local %d out of range", instr.A)
		}
		f.Locals[instr.A] = v

	case bytecode.OpPushArg:
		if int(instr.A) >= len(f.Args) {
			return false, fmt.Errorf("arg %d out of range", instr.A)
		}
		f.push(f.Args[instr.A])

	case bytecode.OpPushSrc:
		f.push(f.Src)

	case bytecode.OpPushUsr:
		f.push(f.Usr)

	case bytecode.OpPushDot:
		f.push(f.Dot)

	case bytecode.OpSetDot:
		v, ok := f.pop()
		if !ok {
			return false, errUnderflow
		}
		f.Dot = v

	case bytecode.OpPop:
		if _, ok := f.pop(); !ok {
			return false, errUnderflow
		}

	case bytecode.OpAdd, bytecode.OpSub:
		rhs, ok1 := f.pop()
		lhs, ok2 := f.pop()
		if !ok1 || !ok2 {
			return false, errUnderflow
		}
		if instr.Op == bytecode.OpAdd {
			f.push(Number(lhs.Payload + rhs.Payload))
		} else {
			f.push(Number(lhs.Payload - rhs.Payload))
		}

	case bytecode.OpTeq:
		rhs, ok1 := f.pop()
		lhs, ok2 := f.pop()
		if !ok1 || !ok2 {
			return false, errUnderflow
		}
		if lhs == rhs {
			f.push(Number(1))
		} else {
			f.push(Number(0))
		}

	case bytecode.OpJmp:
		f.IP = int(instr.A)

	case bytecode.OpJz:
		v, ok := f.pop()
		if !ok {
			return false, errUnderflow
		}
		if !v.IsTrue() {
			f.IP = int(instr.A)
		}

	case bytecode.OpSleep:
		return true, nil

	case bytecode.OpCall:
		if int(instr.A) >= len(in.m.Procs) {
			return false, fmt.Errorf("call target %d out of range", instr.A)
		}
		callee := &in.m.Procs[instr.A]
		argc := int(instr.B)
		if len(f.Stack) < argc {
			return false, errUnderflow
		}
		args := make([]Value, argc)
		copy(args, f.Stack[len(f.Stack)-argc:])
		f.Stack = f.Stack[:len(f.Stack)-argc]
		in.frames = append(in.frames, newFrame(callee, args))

	case bytecode.OpIterLoad:
		v, ok := f.pop()
		if !ok {
			return false, errUnderflow
		}
		f.Iter = &iterator{limit: v.Payload}

	case bytecode.OpIterNext:
		v, _ := f.Iter.advance()
		f.push(v)

	case bytecode.OpIterFree:
		f.Iter = nil

	case bytecode.OpRet:
		v, ok := f.pop()
		if !ok {
			return false, errUnderflow
		}
		in.ret(v)

	case bytecode.OpEnd:
		in.ret(Null())

	default:
		return false, fmt.Errorf("unhandled opcode %s", instr.Op)
	}
	return false, nil
}

// ret pops the current frame, delivering the return value to the caller's
// stack, or to the final result when the outermost frame returns.
func (in *Interpreter) ret(v Value) {
	in.frames = in.frames[:len(in.frames)-1]
	if len(in.frames) == 0 {
		in.result = v
		return
	}
	caller := in.frames[len(in.frames)-1]
	caller.push(v)
	caller.Dot = v
}

var errUnderflow = fmt.Errorf("stack underflow")
