package asm

// NodeKind discriminates the entries of the instruction stream. Structural
// markers (proc/block boundaries) share the one Node type with real
// instructions so consumers can switch exhaustively on the kind instead of
// type-asserting a hierarchy.
type NodeKind int

const (
	NodeInst NodeKind = iota
	NodeLabel
	NodeComment
	NodeProc
	NodeProcEnd
	NodeBlock
	NodeBlockEnd
)

// String returns the node kind mnemonic.
func (k NodeKind) String() string {
	switch k {
	case NodeInst:
		return "inst"
	case NodeLabel:
		return "label"
	case NodeComment:
		return "comment"
	case NodeProc:
		return "proc"
	case NodeProcEnd:
		return "proc_end"
	case NodeBlock:
		return "block"
	case NodeBlockEnd:
		return "block_end"
	default:
		return "unknown"
	}
}

// Node is one entry of the assembler's stream: an instruction, a bound label,
// an inline comment, or a proc/block boundary marker.
type Node struct {
	Kind    NodeKind
	Op      Mnemonic  // NodeInst
	Args    []Operand // NodeInst
	Label   Label     // NodeLabel, and branch targets on NodeInst
	Comment string    // NodeComment, or inline comment on NodeInst
}

// Mnemonic is an instruction opcode understood by the rendering backend.
type Mnemonic string

const (
	OpMov  Mnemonic = "mov"
	OpLea  Mnemonic = "lea"
	OpAdd  Mnemonic = "add"
	OpSub  Mnemonic = "sub"
	OpXor  Mnemonic = "xor"
	OpAnd  Mnemonic = "and"
	OpCmp  Mnemonic = "cmp"
	OpTest Mnemonic = "test"
	OpSetz Mnemonic = "setz"
	OpJmp  Mnemonic = "jmp"
	OpJz   Mnemonic = "jz"
	OpCall Mnemonic = "call"
	OpRet  Mnemonic = "ret"
)
