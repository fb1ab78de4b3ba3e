package jit

import "stackjit/pkg/asm"

// ProcContext is the per-procedure scope: the local and argument slot caches,
// the frame and iterator registers, the entry points and the continuation
// points the runtime dispatcher may later resume at.
type ProcContext struct {
	c *Compiler

	frame    asm.Reg
	iterator asm.Reg

	entry  asm.Label
	prolog asm.Label
	conts  []asm.Label

	locals []Slot
	args   []Slot
	dot    Slot

	src *Variable
	usr *Variable

	localsBase int32
	closed     bool
}

// OpenProc begins compilation of a procedure with the given slot counts. The
// previous procedure must have been closed. Every slot starts out Modified
// holding null, so the first CommitLocals writes a fully-initialized frame
// even though nothing was fetched.
func (c *Compiler) OpenProc(localsCount, argsCount int) (*ProcContext, error) {
	if c.proc != nil {
		return nil, invariantf("OpenProc: procedure already open")
	}
	if localsCount < 0 || argsCount < 0 {
		return nil, invariantf("OpenProc: negative slot count")
	}

	c.asm.Insert(asm.NodeProc)

	p := &ProcContext{
		c:          c,
		frame:      c.asm.NewReg(),
		iterator:   c.asm.NewReg(),
		entry:      c.asm.NewLabel(),
		prolog:     c.asm.NewLabel(),
		locals:     make([]Slot, localsCount),
		args:       make([]Slot, argsCount),
		localsBase: FrameOffArgs + int32(argsCount)*ValueSize,
	}

	seed := Slot{State: CacheModified, Var: NullVariable()}
	for i := range p.locals {
		p.locals[i] = seed
	}
	for i := range p.args {
		p.args[i] = seed
	}
	// dot lives in the frame and is nulled by the dispatcher; fetch on demand
	p.dot = Slot{State: CacheStale}

	c.asm.Bind(p.entry)
	c.asm.Bind(p.prolog)
	// iterator starts as a null handle
	c.asm.Emit(asm.OpXor, asm.RegOp(p.iterator), asm.RegOp(p.iterator))

	c.proc = p
	return p, nil
}

// Close ends the procedure. It does not commit: the caller is responsible for
// committing at every point where the generated code may suspend. Any further
// accessor call against this context is an invariant violation.
func (p *ProcContext) Close() error {
	if err := p.ensure(); err != nil {
		return err
	}
	if p.c.block != nil {
		return invariantf("Close: block still open")
	}
	p.c.asm.Insert(asm.NodeProcEnd)
	p.c.proc = nil
	p.closed = true
	return nil
}

func (p *ProcContext) ensure() error {
	if p == nil || p.closed || p.c.proc != p {
		return invariantf("no current procedure context")
	}
	return nil
}

// Entry returns the procedure entry label.
func (p *ProcContext) Entry() asm.Label {
	return p.entry
}

// Prolog returns the prologue label.
func (p *ProcContext) Prolog() asm.Label {
	return p.prolog
}

// StackFrame returns the register holding the call frame pointer.
func (p *ProcContext) StackFrame() asm.Reg {
	return p.frame
}

// AddContinuationPoint records a label where execution may resume after the
// VM suspends this procedure. The dispatcher indexes this list.
func (p *ProcContext) AddContinuationPoint(l asm.Label) {
	p.conts = append(p.conts, l)
}

// ContinuationPoints returns the recorded resume labels in order.
func (p *ProcContext) ContinuationPoints() []asm.Label {
	return p.conts
}

// GetLocal returns the cached local, fetching it from the frame first if the
// slot is stale.
func (p *ProcContext) GetLocal(index int) (Variable, error) {
	if err := p.ensure(); err != nil {
		return Variable{}, err
	}
	if index < 0 || index >= len(p.locals) {
		return Variable{}, invariantf("GetLocal: index %d out of range", index)
	}
	return p.fetch(&p.locals[index], p.localsBase+int32(index)*ValueSize), nil
}

// SetLocal replaces the cached local and marks it dirty.
func (p *ProcContext) SetLocal(index int, v Variable) error {
	if err := p.ensure(); err != nil {
		return err
	}
	if index < 0 || index >= len(p.locals) {
		return invariantf("SetLocal: index %d out of range", index)
	}
	p.locals[index] = Slot{State: CacheModified, Var: v}
	return nil
}

// GetArg returns the cached argument, fetching it from the frame first if the
// slot is stale. Arguments are read-only.
func (p *ProcContext) GetArg(index int) (Variable, error) {
	if err := p.ensure(); err != nil {
		return Variable{}, err
	}
	if index < 0 || index >= len(p.args) {
		return Variable{}, invariantf("GetArg: index %d out of range", index)
	}
	return p.fetch(&p.args[index], FrameOffArgs+int32(index)*ValueSize), nil
}

// GetFrameValue reads a fixed-layout frame field directly, bypassing the
// cache.
func (p *ProcContext) GetFrameValue(offset int32) (Variable, error) {
	if err := p.ensure(); err != nil {
		return Variable{}, err
	}
	return p.load(offset), nil
}

// GetSrc returns the procedure's src reference, materialized from the frame
// once per procedure.
func (p *ProcContext) GetSrc() (Variable, error) {
	if err := p.ensure(); err != nil {
		return Variable{}, err
	}
	if p.src == nil {
		v := p.load(FrameOffSrc)
		p.src = &v
	}
	return *p.src, nil
}

// GetUsr returns the procedure's usr reference, materialized from the frame
// once per procedure.
func (p *ProcContext) GetUsr() (Variable, error) {
	if err := p.ensure(); err != nil {
		return Variable{}, err
	}
	if p.usr == nil {
		v := p.load(FrameOffUsr)
		p.usr = &v
	}
	return *p.usr, nil
}

// GetDot returns the implicit last-expression-result slot.
func (p *ProcContext) GetDot() (Variable, error) {
	if err := p.ensure(); err != nil {
		return Variable{}, err
	}
	return p.fetch(&p.dot, FrameOffDot), nil
}

// SetDot replaces the dot slot and marks it dirty.
func (p *ProcContext) SetDot(v Variable) error {
	if err := p.ensure(); err != nil {
		return err
	}
	p.dot = Slot{State: CacheModified, Var: v}
	return nil
}

// CurrentIterator returns the register holding the active iterator handle.
// Iterators bypass the tagged-value cache entirely.
func (p *ProcContext) CurrentIterator() asm.Reg {
	return p.iterator
}

// SetCurrentIterator loads a new iterator handle into the iterator register.
func (p *ProcContext) SetCurrentIterator(iter asm.Operand) error {
	if err := p.ensure(); err != nil {
		return err
	}
	p.c.asm.Emit(asm.OpMov, asm.RegOp(p.iterator), iter)
	return nil
}

// fetch returns the slot's variable, loading it from the frame and moving the
// slot to Ok first if it is stale.
func (p *ProcContext) fetch(s *Slot, offset int32) Variable {
	if s.State == CacheStale {
		s.Var = p.load(offset)
		s.State = CacheOk
	}
	return s.Var
}

// load reads a tagged value from the frame into fresh registers.
func (p *ProcContext) load(offset int32) Variable {
	a := p.c.asm
	t := a.NewReg()
	v := a.NewReg()
	a.Emit(asm.OpMov, asm.RegOp(t), asm.Mem(p.frame, offset, WordSize))
	a.Emit(asm.OpMov, asm.RegOp(v), asm.Mem(p.frame, offset+PayloadOffset, WordSize))
	return Variable{Type: asm.RegOp(t), Value: asm.RegOp(v)}
}
