package jit

import "stackjit/pkg/asm"

// Jump commits the stack and locals, then emits an unconditional branch. A
// branch target can be reached from several predecessor blocks whose caches
// are independent and discarded at block boundaries, so memory is the only
// state consistent across the edge.
func (b *BlockContext) Jump(target asm.Label) error {
	if err := b.commitForTransfer(); err != nil {
		return err
	}
	b.c.asm.EmitBranch(asm.OpJmp, target)
	return nil
}

// JumpZero commits the stack and locals, then branches to target if the
// condition payload is zero.
func (b *BlockContext) JumpZero(cond Variable, target asm.Label) error {
	if err := b.commitForTransfer(); err != nil {
		return err
	}
	a := b.c.asm
	a.Emit(asm.OpCmp, cond.Value, asm.Imm(0))
	a.EmitBranch(asm.OpJz, target)
	return nil
}

// DoReturn pops the return value off the stack, commits all cached state and
// emits the return sequence through the frame's return slot.
func (b *BlockContext) DoReturn() error {
	v, err := b.Pop()
	if err != nil {
		return err
	}
	if err := b.commitForTransfer(); err != nil {
		return err
	}
	a := b.c.asm
	a.Emit(asm.OpMov, asm.Mem(b.p.frame, FrameOffRet, WordSize), v.Type)
	a.Emit(asm.OpMov, asm.Mem(b.p.frame, FrameOffRet+PayloadOffset, WordSize), v.Value)
	a.Emit(asm.OpRet)
	return nil
}

func (b *BlockContext) commitForTransfer() error {
	if err := b.Commit(); err != nil {
		return err
	}
	return b.p.CommitLocals()
}
