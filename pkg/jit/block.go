package jit

import "stackjit/pkg/asm"

// BlockContext is the per-basic-block scope: a bounded cache of evaluation
// stack entries plus the drift between that cache and the memory-resident
// stack. The cache only ever reflects pushes made in this block; values from
// predecessor blocks are reachable through memory alone.
type BlockContext struct {
	c *Compiler
	p *ProcContext

	label asm.Label
	top   asm.Reg // address of the top of the memory-resident stack at block entry

	cache []Variable

	// offset counts how many more (or fewer) logical slots this block
	// represents relative to the stack height published at block entry.
	offset    int32
	published int32

	closed bool
}

// OpenBlock begins a basic block at the given label. The previous block must
// have been closed. The cache starts empty and the offset at zero regardless
// of what the memory-resident stack holds at this program point.
func (p *ProcContext) OpenBlock(label asm.Label) (*BlockContext, error) {
	if err := p.ensure(); err != nil {
		return nil, err
	}
	if p.c.block != nil {
		return nil, invariantf("OpenBlock: block already open")
	}

	a := p.c.asm
	a.Insert(asm.NodeBlock)
	a.Bind(label)

	b := &BlockContext{
		c:     p.c,
		p:     p,
		label: label,
		top:   a.NewReg(),
	}
	a.Emit(asm.OpMov, asm.RegOp(b.top), asm.Mem(p.frame, FrameOffStackTop, ValueSize))

	p.c.block = b
	return b, nil
}

// Close commits the cache and ends the block.
func (b *BlockContext) Close() error {
	if err := b.Commit(); err != nil {
		return err
	}
	b.c.asm.Insert(asm.NodeBlockEnd)
	b.c.block = nil
	b.closed = true
	return nil
}

func (b *BlockContext) ensure() error {
	if b == nil || b.closed || b.c.block != b {
		return invariantf("no current block context")
	}
	return nil
}

// Label returns the label this block was opened at.
func (b *BlockContext) Label() asm.Label {
	return b.label
}

// Push appends a value to the stack cache.
func (b *BlockContext) Push(v Variable) error {
	if err := b.ensure(); err != nil {
		return err
	}
	b.cache = append(b.cache, v)
	b.offset++
	return nil
}

// Pop removes and returns the top of the stack.
func (b *BlockContext) Pop() (Variable, error) {
	res, err := b.PopN(1)
	if err != nil {
		return Variable{}, err
	}
	return res[0], nil
}

// PopN removes n values and returns them in push order: the most recently
// pushed value is last. The cache is drained first; any remainder is read
// directly from the memory-resident stack in descending offset order. Running
// out of addressable memory as well is a fatal compiler-invariant violation.
func (b *BlockContext) PopN(n int) ([]Variable, error) {
	if err := b.ensure(); err != nil {
		return nil, err
	}

	res := make([]Variable, n)
	popped := 0

	// The cache can be empty if the values were pushed before a jump into
	// this block.
	for popped < n && len(b.cache) > 0 {
		last := len(b.cache) - 1
		res[n-popped-1] = b.cache[last]
		b.cache = b.cache[:last]
		popped++
	}
	before := b.offset
	b.offset -= int32(popped)

	if popped == n {
		return res, nil
	}

	a := b.c.asm
	a.SetInlineComment("pop (overpopped)")

	for ; popped < n; popped++ {
		slot := before - int32(popped) - 1
		if slot < -1 {
			return nil, invariantf("stack underflow: popping %d with block offset %d", n, before)
		}
		t := a.NewReg()
		v := a.NewReg()
		a.Emit(asm.OpMov, asm.RegOp(t), asm.Mem(b.top, slot*ValueSize, WordSize))
		a.Emit(asm.OpMov, asm.RegOp(v), asm.Mem(b.top, slot*ValueSize+PayloadOffset, WordSize))
		res[n-popped-1] = Variable{Type: asm.RegOp(t), Value: asm.RegOp(v)}
		b.offset--
	}

	return res, nil
}

// Clear discards the cache without flushing. Only valid when the
// memory-resident stack is already known to be authoritative.
func (b *BlockContext) Clear() error {
	if err := b.ensure(); err != nil {
		return err
	}
	b.offset -= int32(len(b.cache))
	b.cache = b.cache[:0]
	return nil
}

// Commit flushes every cached entry to the memory-resident stack at its
// logical offset, publishes the new stack height to the frame, and clears the
// cache. The offset keeps describing the committed height above the
// block-entry top pointer, so later pops in this block fall through to the
// memory the commit just wrote.
func (b *BlockContext) Commit() error {
	if err := b.ensure(); err != nil {
		return err
	}

	a := b.c.asm
	base := b.offset - int32(len(b.cache))
	for i, v := range b.cache {
		slot := base + int32(i)
		a.Emit(asm.OpMov, asm.Mem(b.top, slot*ValueSize, WordSize), v.Type)
		a.Emit(asm.OpMov, asm.Mem(b.top, slot*ValueSize+PayloadOffset, WordSize), v.Value)
	}
	b.cache = b.cache[:0]

	if b.offset != b.published {
		tmp := a.NewReg()
		a.Emit(asm.OpLea, asm.RegOp(tmp), asm.Mem(b.top, b.offset*ValueSize, ValueSize))
		a.Emit(asm.OpMov, asm.Mem(b.p.frame, FrameOffStackTop, ValueSize), asm.RegOp(tmp))
		b.published = b.offset
	}
	return nil
}
