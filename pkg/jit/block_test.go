package jit_test

import (
	"errors"
	"testing"

	"stackjit/pkg/asm"
	"stackjit/pkg/jit"
)

func num(n int64) jit.Variable {
	return jit.Variable{Type: asm.Imm(1), Value: asm.Imm(n)}
}

func openBlock(t *testing.T, locals, args int) (*asm.Assembler, *jit.ProcContext, *jit.BlockContext) {
	t.Helper()
	a := asm.New()
	c := jit.NewCompiler(a)
	p, err := c.OpenProc(locals, args)
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.OpenBlock(a.NewLabel())
	if err != nil {
		t.Fatal(err)
	}
	return a, p, b
}

// memLoads returns the (disp) sequence of mov-from-memory instructions.
func memLoads(nodes []asm.Node) []int32 {
	var out []int32
	for _, n := range nodes {
		if n.Kind == asm.NodeInst && n.Op == asm.OpMov && len(n.Args) == 2 && n.Args[1].Kind == asm.OperandMem {
			out = append(out, n.Args[1].Disp)
		}
	}
	return out
}

func memStores(nodes []asm.Node) []int32 {
	var out []int32
	for _, n := range nodes {
		if n.Kind == asm.NodeInst && n.Op == asm.OpMov && len(n.Args) == 2 && n.Args[0].Kind == asm.OperandMem {
			out = append(out, n.Args[0].Disp)
		}
	}
	return out
}

func TestPushPopRoundTrip(t *testing.T) {
	_, _, b := openBlock(t, 0, 0)

	want := []jit.Variable{num(10), num(20), num(30), num(40)}
	for _, v := range want {
		if err := b.Push(v); err != nil {
			t.Fatal(err)
		}
	}

	got, err := b.PopN(len(want))
	if err != nil {
		t.Fatal(err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pop[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPopFallbackOrdering(t *testing.T) {
	a, _, b := openBlock(t, 0, 0)

	// three entries committed to memory, two still cached
	for _, v := range []jit.Variable{num(1), num(2), num(3)} {
		if err := b.Push(v); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.Commit(); err != nil {
		t.Fatal(err)
	}
	d, e := num(4), num(5)
	if err := b.Push(d); err != nil {
		t.Fatal(err)
	}
	if err := b.Push(e); err != nil {
		t.Fatal(err)
	}

	mark := len(a.Nodes())
	got, err := b.PopN(5)
	if err != nil {
		t.Fatal(err)
	}

	// cached entries land in the most-recent positions unchanged
	if got[3] != d || got[4] != e {
		t.Errorf("cached entries misplaced: %v", got)
	}
	// the rest are loads in strictly descending slot order: C, B, A
	wantDisps := []int32{
		2 * jit.ValueSize, 2*jit.ValueSize + jit.PayloadOffset,
		1 * jit.ValueSize, 1*jit.ValueSize + jit.PayloadOffset,
		0, jit.PayloadOffset,
	}
	disps := memLoads(a.Nodes()[mark:])
	if len(disps) != len(wantDisps) {
		t.Fatalf("fallback emitted %d loads, want %d", len(disps), len(wantDisps))
	}
	for i := range disps {
		if disps[i] != wantDisps[i] {
			t.Errorf("load %d at disp %d, want %d", i, disps[i], wantDisps[i])
		}
	}
	for i := 0; i < 3; i++ {
		if got[i].Type.Kind != asm.OperandReg || got[i].Value.Kind != asm.OperandReg {
			t.Errorf("fallback entry %d not register-backed: %v", i, got[i])
		}
	}
}

func TestRoundTripAcrossCommit(t *testing.T) {
	a, _, b := openBlock(t, 0, 0)

	for _, v := range []jit.Variable{num(7), num(8)} {
		if err := b.Push(v); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.Commit(); err != nil {
		t.Fatal(err)
	}

	mark := len(a.Nodes())
	got, err := b.PopN(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("popped %d entries", len(got))
	}
	// both entries come back from the slots the commit wrote, deepest first
	disps := memLoads(a.Nodes()[mark:])
	want := []int32{jit.ValueSize, jit.ValueSize + jit.PayloadOffset, 0, jit.PayloadOffset}
	if len(disps) != len(want) {
		t.Fatalf("%d loads, want %d", len(disps), len(want))
	}
	for i := range disps {
		if disps[i] != want[i] {
			t.Errorf("load %d at disp %d, want %d", i, disps[i], want[i])
		}
	}
}

func TestBlockIsolation(t *testing.T) {
	a := asm.New()
	c := jit.NewCompiler(a)
	p, err := c.OpenProc(0, 0)
	if err != nil {
		t.Fatal(err)
	}

	blockA, err := p.OpenBlock(a.NewLabel())
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []jit.Variable{num(1), num(2), num(3)} {
		if err := blockA.Push(v); err != nil {
			t.Fatal(err)
		}
	}
	if err := blockA.Close(); err != nil {
		t.Fatal(err)
	}

	blockB, err := p.OpenBlock(a.NewLabel())
	if err != nil {
		t.Fatal(err)
	}

	// B's cache is empty: the pop must come back from memory, one slot
	// below B's entry top
	mark := len(a.Nodes())
	v, err := blockB.Pop()
	if err != nil {
		t.Fatal(err)
	}
	if v.Type.Kind != asm.OperandReg {
		t.Errorf("fresh-block pop returned cached entry %v", v)
	}
	disps := memLoads(a.Nodes()[mark:])
	want := []int32{-jit.ValueSize, -jit.ValueSize + jit.PayloadOffset}
	if len(disps) != 2 || disps[0] != want[0] || disps[1] != want[1] {
		t.Errorf("fresh-block pop loads %v, want %v", disps, want)
	}
}

func TestPopUnderflow(t *testing.T) {
	_, _, b := openBlock(t, 0, 0)

	_, err := b.PopN(2)
	var inv *jit.InvariantError
	if !errors.As(err, &inv) {
		t.Fatalf("overpop past addressable memory: got %v, want InvariantError", err)
	}
}

func TestClearDiscardsWithoutFlush(t *testing.T) {
	a, _, b := openBlock(t, 0, 0)

	if err := b.Push(num(1)); err != nil {
		t.Fatal(err)
	}
	mark := len(a.Nodes())
	if err := b.Clear(); err != nil {
		t.Fatal(err)
	}
	if got := len(memStores(a.Nodes()[mark:])); got != 0 {
		t.Errorf("clear flushed %d stores", got)
	}

	// offset is back at zero: the next pop reads below the entry top
	v, err := b.Pop()
	if err != nil {
		t.Fatal(err)
	}
	if v.Type.Kind != asm.OperandReg {
		t.Errorf("pop after clear returned %v", v)
	}
}

func TestCommitWritesInOrderAndPublishesHeight(t *testing.T) {
	a, _, b := openBlock(t, 0, 0)

	for _, v := range []jit.Variable{num(1), num(2)} {
		if err := b.Push(v); err != nil {
			t.Fatal(err)
		}
	}
	mark := len(a.Nodes())
	if err := b.Commit(); err != nil {
		t.Fatal(err)
	}
	stores := memStores(a.Nodes()[mark:])
	// two slots bottom-up, then the stack-top field update
	want := []int32{0, jit.PayloadOffset, jit.ValueSize, jit.ValueSize + jit.PayloadOffset, jit.FrameOffStackTop}
	if len(stores) != len(want) {
		t.Fatalf("commit emitted %d stores, want %d", len(stores), len(want))
	}
	for i := range stores {
		if stores[i] != want[i] {
			t.Errorf("store %d at disp %d, want %d", i, stores[i], want[i])
		}
	}

	// committing again with nothing cached is silent
	mark = len(a.Nodes())
	if err := b.Commit(); err != nil {
		t.Fatal(err)
	}
	if got := len(memStores(a.Nodes()[mark:])); got != 0 {
		t.Errorf("idle commit emitted %d stores", got)
	}
}

func TestScenarioLocalsAndStack(t *testing.T) {
	a := asm.New()
	c := jit.NewCompiler(a)
	p, err := c.OpenProc(2, 0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.OpenBlock(a.NewLabel())
	if err != nil {
		t.Fatal(err)
	}

	va, vb := num(100), num(200)
	if err := b.Push(va); err != nil {
		t.Fatal(err)
	}
	if err := b.Push(vb); err != nil {
		t.Fatal(err)
	}
	got, err := b.PopN(2)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != va || got[1] != vb {
		t.Fatalf("PopN(2) = %v, want [%v %v]", got, va, vb)
	}

	if err := p.SetLocal(0, vb); err != nil {
		t.Fatal(err)
	}
	if err := p.CommitLocals(); err != nil {
		t.Fatal(err)
	}

	mark := len(a.Nodes())
	back, err := p.GetLocal(0)
	if err != nil {
		t.Fatal(err)
	}
	if back != vb {
		t.Errorf("GetLocal(0) = %v, want %v", back, vb)
	}
	if got := len(memLoads(a.Nodes()[mark:])); got != 0 {
		t.Errorf("GetLocal after commit read memory %d times", got)
	}
}
