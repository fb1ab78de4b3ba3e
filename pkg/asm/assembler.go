package asm

// Assembler collects virtual registers, labels and a linear node stream, and
// renders the stream to a textual listing once emission is finished. It plays
// the role of the general-purpose code-generation engine: callers allocate
// registers and labels, emit instructions, and never look inside.
type Assembler struct {
	nodes    []Node
	nextReg  Reg
	nextLbl  Label
	pending  string // inline comment attached to the next emitted node
	labelPos map[Label]int
}

// New creates an empty assembler.
func New() *Assembler {
	return &Assembler{
		nodes:    make([]Node, 0, 64),
		labelPos: make(map[Label]int),
	}
}

// NewReg allocates a fresh virtual integer register.
func (a *Assembler) NewReg() Reg {
	a.nextReg++
	return a.nextReg
}

// NewLabel creates a new unbound label.
func (a *Assembler) NewLabel() Label {
	a.nextLbl++
	return a.nextLbl
}

// Bind places the label at the current position in the stream.
func (a *Assembler) Bind(l Label) {
	a.labelPos[l] = len(a.nodes)
	a.append(Node{Kind: NodeLabel, Label: l})
}

// Insert appends a structural marker node (proc/block boundaries).
func (a *Assembler) Insert(kind NodeKind) {
	a.append(Node{Kind: kind})
}

// Emit appends an instruction node.
func (a *Assembler) Emit(op Mnemonic, args ...Operand) {
	a.append(Node{Kind: NodeInst, Op: op, Args: args})
}

// EmitBranch appends a branch instruction targeting the given label.
func (a *Assembler) EmitBranch(op Mnemonic, target Label) {
	a.append(Node{Kind: NodeInst, Op: op, Label: target})
}

// Comment appends a standalone comment node.
func (a *Assembler) Comment(text string) {
	a.append(Node{Kind: NodeComment, Comment: text})
}

// SetInlineComment attaches a comment to the next appended node.
func (a *Assembler) SetInlineComment(text string) {
	a.pending = text
}

// Nodes returns the node stream emitted so far.
func (a *Assembler) Nodes() []Node {
	return a.nodes
}

func (a *Assembler) append(n Node) {
	if a.pending != "" && n.Kind == NodeInst {
		n.Comment = a.pending
		a.pending = ""
	}
	a.nodes = append(a.nodes, n)
}
