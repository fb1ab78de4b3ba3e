package bytecode_test

import (
	"strings"
	"testing"

	"stackjit/pkg/bytecode"
)

const countdown = `
; counts a local down to zero, sleeping each iteration
proc main locals=1 args=0
	pushimm 1 3
	setlocal 0
loop:
	pushlocal 0
	jz done
	sleep
	pushlocal 0
	pushimm 1 1
	sub
	setlocal 0
	jmp loop
done:
	pushlocal 0
	ret
end
`

func TestParseListing(t *testing.T) {
	m, err := bytecode.ParseListing(strings.NewReader(countdown))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Procs) != 1 {
		t.Fatalf("parsed %d procs, want 1", len(m.Procs))
	}
	p := m.Procs[0]
	if p.Name != "main" || p.Locals != 1 || p.Args != 0 {
		t.Fatalf("proc header = %q locals=%d args=%d", p.Name, p.Locals, p.Args)
	}

	want := []bytecode.Instruction{
		{Op: bytecode.OpPushImm, A: 1, B: 3},
		{Op: bytecode.OpSetLocal, A: 0},
		{Op: bytecode.OpPushLocal, A: 0},
		{Op: bytecode.OpJz, A: 10},
		{Op: bytecode.OpSleep},
		{Op: bytecode.OpPushLocal, A: 0},
		{Op: bytecode.OpPushImm, A: 1, B: 1},
		{Op: bytecode.OpSub},
		{Op: bytecode.OpSetLocal, A: 0},
		{Op: bytecode.OpJmp, A: 2},
		{Op: bytecode.OpPushLocal, A: 0},
		{Op: bytecode.OpRet},
		{Op: bytecode.OpEnd},
	}
	if len(p.Code) != len(want) {
		t.Fatalf("parsed %d instructions, want %d", len(p.Code), len(want))
	}
	for i, in := range want {
		if p.Code[i] != in {
			t.Errorf("instr %d: %v, want %v", i, p.Code[i], in)
		}
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"undefined label", "proc p locals=0 args=0\n\tjmp nowhere\nend\n"},
		{"unknown opcode", "proc p locals=0 args=0\n\tfly 1\nend\n"},
		{"bad arity", "proc p locals=0 args=0\n\tpushimm 1\nend\n"},
		{"missing end", "proc p locals=0 args=0\n\tret\n"},
		{"instruction outside proc", "\tret\n"},
		{"duplicate label", "proc p locals=0 args=0\nx:\nx:\nend\n"},
		{"negative count", "proc p locals=-1 args=0\nend\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := bytecode.ParseListing(strings.NewReader(tc.input)); err == nil {
				t.Errorf("parse accepted %q", tc.input)
			}
		})
	}
}

func TestContainerRoundTrip(t *testing.T) {
	m, err := bytecode.ParseListing(strings.NewReader(countdown))
	if err != nil {
		t.Fatal(err)
	}

	path := t.TempDir() + "/out.svmc"
	if err := bytecode.Save(path, m); err != nil {
		t.Fatal(err)
	}
	back, err := bytecode.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(back.Procs) != len(m.Procs) {
		t.Fatalf("loaded %d procs, want %d", len(back.Procs), len(m.Procs))
	}
	if got, want := back.Procs[0], m.Procs[0]; got.Name != want.Name || len(got.Code) != len(want.Code) {
		t.Errorf("loaded proc differs: %v vs %v", got, want)
	}
}
