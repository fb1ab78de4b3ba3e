package bytecode

import "fmt"

// Instruction is one bytecode operation with up to two immediate operands.
type Instruction struct {
	Op Opcode
	A  int32
	B  int32
}

// String renders the instruction in listing syntax.
func (i Instruction) String() string {
	switch i.Op.Arity() {
	case 2:
		return fmt.Sprintf("%s %d %d", i.Op, i.A, i.B)
	case 1:
		return fmt.Sprintf("%s %d", i.Op, i.A)
	default:
		return i.Op.String()
	}
}

// Proc is one procedure of a module. Locals and Args size the call frame's
// slot arrays; the verifier guarantees Code never under-runs the stack.
type Proc struct {
	Name   string
	Locals uint16
	Args   uint16
	Code   []Instruction
}

// Module is a compiled unit of procedures.
type Module struct {
	Procs []Proc
}

// ProcByName returns the named procedure, or nil.
func (m *Module) ProcByName(name string) *Proc {
	for i := range m.Procs {
		if m.Procs[i].Name == name {
			return &m.Procs[i]
		}
	}
	return nil
}
