package jit

import "stackjit/pkg/asm"

// CommitLocals flushes every Modified local, argument and dot slot to the
// call frame and moves it to Ok. Slots already Ok or Stale are untouched.
//
// Callers MUST invoke this before emitting any operation through which the VM
// might suspend the procedure: only the driver knows which operations those
// are, and after suspension only memory-resident state survives.
func (p *ProcContext) CommitLocals() error {
	if err := p.ensure(); err != nil {
		return err
	}

	for i := range p.locals {
		p.flush(&p.locals[i], p.localsBase+int32(i)*ValueSize)
	}
	for i := range p.args {
		p.flush(&p.args[i], FrameOffArgs+int32(i)*ValueSize)
	}
	p.flush(&p.dot, FrameOffDot)
	return nil
}

// flush writes one dirty slot back to its frame location.
func (p *ProcContext) flush(s *Slot, offset int32) {
	if s.State != CacheModified {
		return
	}
	a := p.c.asm
	a.Emit(asm.OpMov, asm.Mem(p.frame, offset, WordSize), s.Var.Type)
	a.Emit(asm.OpMov, asm.Mem(p.frame, offset+PayloadOffset, WordSize), s.Var.Value)
	s.State = CacheOk
}
