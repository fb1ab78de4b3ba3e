package jit

import "stackjit/pkg/asm"

// Compiler threads the caching layer through an assembler. At most one
// procedure and one block are under compilation at any instant; the current
// pointers exist only to assert that, all operations go through the explicit
// context handles returned by OpenProc and OpenBlock.
type Compiler struct {
	asm   *asm.Assembler
	proc  *ProcContext
	block *BlockContext
}

// NewCompiler wraps an assembler.
func NewCompiler(a *asm.Assembler) *Compiler {
	return &Compiler{asm: a}
}

// Assembler exposes the underlying code-generation engine.
func (c *Compiler) Assembler() *asm.Assembler {
	return c.asm
}
