package asm

import "fmt"

// Reg is a virtual integer register handle. Registers are allocated by the
// assembler and only ever compared, never inspected.
type Reg uint32

// NoReg is the zero register handle; it never names an allocated register.
const NoReg Reg = 0

// Label is a code label handle. Labels are created unbound and bound to a
// position in the node stream exactly once.
type Label uint32

// NoLabel is the zero label handle.
const NoLabel Label = 0

type OperandKind int

const (
	OperandNone OperandKind = iota
	OperandReg
	OperandImm
	OperandMem
)

// Operand is a register, immediate or memory reference used by emitted
// instructions. Operands are plain values and compare with ==.
type Operand struct {
	Kind  OperandKind
	Reg   Reg
	Imm   int64
	Base  Reg   // memory base register
	Disp  int32 // memory displacement in bytes
	Width uint8 // access width in bytes for memory operands
}

// RegOp wraps a register as an operand.
func RegOp(r Reg) Operand {
	return Operand{Kind: OperandReg, Reg: r}
}

// Imm wraps an immediate as an operand.
func Imm(v int64) Operand {
	return Operand{Kind: OperandImm, Imm: v}
}

// Mem builds a memory reference operand [base + disp] with the given width.
func Mem(base Reg, disp int32, width uint8) Operand {
	return Operand{Kind: OperandMem, Base: base, Disp: disp, Width: width}
}

// IsNone reports whether the operand is unset.
func (o Operand) IsNone() bool {
	return o.Kind == OperandNone
}

// String renders the operand in the textual assembly syntax.
func (o Operand) String() string {
	switch o.Kind {
	case OperandReg:
		return fmt.Sprintf("v%d", o.Reg)
	case OperandImm:
		return fmt.Sprintf("#%d", o.Imm)
	case OperandMem:
		if o.Disp < 0 {
			return fmt.Sprintf("[v%d - %d]", o.Base, -o.Disp)
		}
		return fmt.Sprintf("[v%d + %d]", o.Base, o.Disp)
	default:
		return "<none>"
	}
}
