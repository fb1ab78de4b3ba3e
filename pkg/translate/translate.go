package translate

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"stackjit/pkg/asm"
	"stackjit/pkg/bytecode"
	"stackjit/pkg/jit"
)

// Runtime call-out identifiers used as call operands in the rendered code.
const (
	rtSleep = iota
	rtCall
	rtIterLoad
	rtIterNext
)

// CompiledProc is what the runtime dispatcher needs to install a procedure:
// where to enter it, where its prologue starts, and where it can be resumed
// after each suspension point.
type CompiledProc struct {
	Name          string
	Entry         asm.Label
	Prolog        asm.Label
	Continuations []asm.Label
}

// Translator drives the jit caching layer over a bytecode procedure. It owns
// the caller obligations the layer documents: committing cached state before
// every operation that can suspend, and closing blocks at control-flow edges.
type Translator struct {
	c *jit.Compiler
}

// New creates a translator emitting through the given assembler.
func New(a *asm.Assembler) *Translator {
	return &Translator{c: jit.NewCompiler(a)}
}

// TranslateModule translates every procedure of the module.
func (t *Translator) TranslateModule(m *bytecode.Module) ([]CompiledProc, error) {
	out := make([]CompiledProc, 0, len(m.Procs))
	for i := range m.Procs {
		cp, err := t.TranslateProc(&m.Procs[i])
		if err != nil {
			return nil, fmt.Errorf("proc %s: %w", m.Procs[i].Name, err)
		}
		out = append(out, *cp)
	}
	return out, nil
}

// TranslateProc translates one procedure.
func (t *Translator) TranslateProc(bp *bytecode.Proc) (*CompiledProc, error) {
	log.Debug("translating", "proc", bp.Name, "locals", bp.Locals, "args", bp.Args, "code", len(bp.Code))

	a := t.c.Assembler()
	p, err := t.c.OpenProc(int(bp.Locals), int(bp.Args))
	if err != nil {
		return nil, err
	}

	leaders := blockLeaders(bp.Code)
	labels := make(map[int]asm.Label, len(leaders))
	for _, idx := range leaders {
		labels[idx] = a.NewLabel()
	}

	var b *jit.BlockContext
	for idx := 0; idx < len(bp.Code); idx++ {
		if lbl, ok := labels[idx]; ok {
			if b != nil {
				if err := b.Jump(lbl); err != nil {
					return nil, err
				}
				if err := b.Close(); err != nil {
					return nil, err
				}
			}
			if b, err = p.OpenBlock(lbl); err != nil {
				return nil, err
			}
		}
		if b == nil {
			log.Debug("skipping unreachable instruction", "proc", bp.Name, "index", idx)
			continue
		}

		in := bp.Code[idx]
		done, err := t.translateInstr(p, &b, in, labels)
		if err != nil {
			return nil, fmt.Errorf("index %d (%s): %w", idx, in.Op, err)
		}
		if done {
			b = nil
		}
	}

	if b != nil {
		if err := b.Close(); err != nil {
			return nil, err
		}
	}
	cp := &CompiledProc{
		Name:          bp.Name,
		Entry:         p.Entry(),
		Prolog:        p.Prolog(),
		Continuations: p.ContinuationPoints(),
	}
	return cp, p.Close()
}

// translateInstr emits one instruction. It returns true when the instruction
// terminated the current block.
func (t *Translator) translateInstr(p *jit.ProcContext, bp **jit.BlockContext, in bytecode.Instruction, labels map[int]asm.Label) (bool, error) {
	a := t.c.Assembler()
	b := *bp

	switch in.Op {
	case bytecode.OpNop:

	case bytecode.OpPushImm:
		return false, b.Push(jit.Variable{Type: asm.Imm(int64(in.A)), Value: asm.Imm(int64(in.B))})

	case bytecode.OpPushLocal:
		v, err := p.GetLocal(int(in.A))
		if err != nil {
			return false, err
		}
		return false, b.Push(v)

	case bytecode.OpSetLocal:
		v, err := b.Pop()
		if err != nil {
			return false, err
		}
		return false, p.SetLocal(int(in.A), v)

	case bytecode.OpPushArg:
		v, err := p.GetArg(int(in.A))
		if err != nil {
			return false, err
		}
		return false, b.Push(v)

	case bytecode.OpPushSrc:
		v, err := p.GetSrc()
		if err != nil {
			return false, err
		}
		return false, b.Push(v)

	case bytecode.OpPushUsr:
		v, err := p.GetUsr()
		if err != nil {
			return false, err
		}
		return false, b.Push(v)

	case bytecode.OpPushDot:
		v, err := p.GetDot()
		if err != nil {
			return false, err
		}
		return false, b.Push(v)

	case bytecode.OpSetDot:
		v, err := b.Pop()
		if err != nil {
			return false, err
		}
		return false, p.SetDot(v)

	case bytecode.OpPop:
		_, err := b.Pop()
		return false, err

	case bytecode.OpAdd, bytecode.OpSub:
		ops, err := b.PopN(2)
		if err != nil {
			return false, err
		}
		r := a.NewReg()
		a.Emit(asm.OpMov, asm.RegOp(r), ops[0].Value)
		mn := asm.OpAdd
		if in.Op == bytecode.OpSub {
			mn = asm.OpSub
		}
		a.Emit(mn, asm.RegOp(r), ops[1].Value)
		return false, b.Push(jit.Variable{Type: asm.Imm(int64(bytecode.TypeNumber)), Value: asm.RegOp(r)})

	case bytecode.OpTeq:
		ops, err := b.PopN(2)
		if err != nil {
			return false, err
		}
		// tagged equality: both the type and the payload sub-word must match
		rt := a.NewReg()
		a.Emit(asm.OpCmp, ops[0].Type, ops[1].Type)
		a.Emit(asm.OpSetz, asm.RegOp(rt))
		rv := a.NewReg()
		a.Emit(asm.OpCmp, ops[0].Value, ops[1].Value)
		a.Emit(asm.OpSetz, asm.RegOp(rv))
		a.Emit(asm.OpAnd, asm.RegOp(rt), asm.RegOp(rv))
		return false, b.Push(jit.Variable{Type: asm.Imm(int64(bytecode.TypeNumber)), Value: asm.RegOp(rt)})

	case bytecode.OpJmp:
		target, ok := labels[int(in.A)]
		if !ok {
			return false, fmt.Errorf("jmp target %d is not a block leader", in.A)
		}
		if err := b.Jump(target); err != nil {
			return false, err
		}
		return true, b.Close()

	case bytecode.OpJz:
		cond, err := b.Pop()
		if err != nil {
			return false, err
		}
		target, ok := labels[int(in.A)]
		if !ok {
			return false, fmt.Errorf("jz target %d is not a block leader", in.A)
		}
		return false, b.JumpZero(cond, target)

	case bytecode.OpSleep:
		return false, t.suspend(p, bp, func() {
			a.SetInlineComment("runtime yield")
			a.Emit(asm.OpCall, asm.Imm(rtSleep))
		}, false)

	case bytecode.OpCall:
		return false, t.suspend(p, bp, func() {
			a.SetInlineComment("runtime proc call")
			a.Emit(asm.OpCall, asm.Imm(rtCall), asm.Imm(int64(in.A)), asm.Imm(int64(in.B)))
		}, true)

	case bytecode.OpIterLoad:
		v, err := b.Pop()
		if err != nil {
			return false, err
		}
		if err := t.commitAll(p, b); err != nil {
			return false, err
		}
		a.SetInlineComment("runtime iterator create")
		a.Emit(asm.OpCall, asm.Imm(rtIterLoad), v.Value)
		return false, p.SetCurrentIterator(asm.Mem(p.StackFrame(), jit.FrameOffRet+jit.PayloadOffset, jit.WordSize))

	case bytecode.OpIterNext:
		if err := t.commitAll(p, b); err != nil {
			return false, err
		}
		a.SetInlineComment("runtime iterator advance")
		a.Emit(asm.OpCall, asm.Imm(rtIterNext), asm.RegOp(p.CurrentIterator()))
		v, err := p.GetFrameValue(jit.FrameOffRet)
		if err != nil {
			return false, err
		}
		return false, b.Push(v)

	case bytecode.OpIterFree:
		return false, p.SetCurrentIterator(asm.Imm(0))

	case bytecode.OpRet:
		if err := b.DoReturn(); err != nil {
			return false, err
		}
		return true, b.Close()

	case bytecode.OpEnd:
		return true, b.Close()

	default:
		return false, fmt.Errorf("unhandled opcode %s", in.Op)
	}

	return false, nil
}

// suspend commits all cached state, emits the runtime call-out, then starts a
// fresh block at a new continuation point: after a suspension only the memory
// frame survives, so nothing cached may flow across.
func (t *Translator) suspend(p *jit.ProcContext, bp **jit.BlockContext, emit func(), pushResult bool) error {
	b := *bp
	if err := t.commitAll(p, b); err != nil {
		return err
	}
	emit()

	cont := t.c.Assembler().NewLabel()
	p.AddContinuationPoint(cont)
	if err := b.Close(); err != nil {
		return err
	}
	nb, err := p.OpenBlock(cont)
	if err != nil {
		return err
	}
	*bp = nb

	if pushResult {
		v, err := p.GetFrameValue(jit.FrameOffRet)
		if err != nil {
			return err
		}
		return nb.Push(v)
	}
	return nil
}

func (t *Translator) commitAll(p *jit.ProcContext, b *jit.BlockContext) error {
	if err := b.Commit(); err != nil {
		return err
	}
	return p.CommitLocals()
}

// blockLeaders returns the sorted instruction indices that start a reachable
// basic block: the entry, every branch target, and the fallthrough successor
// of every conditional branch. Indices following an unconditional transfer are
// reachable only when something branches to them, so they are leaders only as
// branch targets.
func blockLeaders(code []bytecode.Instruction) []int {
	seen := map[int]bool{0: true}
	for i, in := range code {
		if in.Op.IsBranch() {
			seen[int(in.A)] = true
		}
		if in.Op == bytecode.OpJz {
			seen[i+1] = true
		}
	}
	out := make([]int, 0, len(seen))
	for idx := range seen {
		if idx < len(code) {
			out = append(out, idx)
		}
	}
	sort.Ints(out)
	return out
}
