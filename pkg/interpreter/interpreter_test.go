package interpreter_test

import (
	"strings"
	"testing"

	"stackjit/pkg/bytecode"
	"stackjit/pkg/interpreter"
)

func parse(t *testing.T, src string) *bytecode.Module {
	t.Helper()
	m, err := bytecode.ParseListing(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestArithmeticLoop(t *testing.T) {
	m := parse(t, `
proc main locals=2 args=0
	pushimm 1 0
	setlocal 0
	pushimm 1 5
	setlocal 1
loop:
	pushlocal 1
	jz done
	pushlocal 0
	pushlocal 1
	add
	setlocal 0
	pushlocal 1
	pushimm 1 1
	sub
	setlocal 1
	jmp loop
done:
	pushlocal 0
	ret
end
`)
	v, status, err := interpreter.New(m).Run("main", nil)
	if err != nil {
		t.Fatal(err)
	}
	if status != interpreter.Done {
		t.Fatalf("status = %v, want Done", status)
	}
	if v != interpreter.Number(15) {
		t.Errorf("result = %v, want 15", v)
	}
}

func TestSleepSuspendsAndResumes(t *testing.T) {
	m := parse(t, `
proc main locals=1 args=0
	pushimm 1 41
	setlocal 0
	sleep
	pushlocal 0
	pushimm 1 1
	add
	ret
end
`)
	in := interpreter.New(m)
	_, status, err := in.Run("main", nil)
	if err != nil {
		t.Fatal(err)
	}
	if status != interpreter.Suspended {
		t.Fatalf("status = %v, want Suspended", status)
	}

	v, status, err := in.Resume()
	if err != nil {
		t.Fatal(err)
	}
	if status != interpreter.Done {
		t.Fatalf("status after resume = %v, want Done", status)
	}
	if v != interpreter.Number(42) {
		t.Errorf("result = %v, want 42", v)
	}
}

func TestCallPassesArgsAndReturns(t *testing.T) {
	m := parse(t, `
proc main locals=0 args=0
	pushimm 1 20
	pushimm 1 22
	call 1 2
	ret
end
proc sum locals=0 args=2
	pusharg 0
	pusharg 1
	add
	ret
end
`)
	v, _, err := interpreter.New(m).Run("main", nil)
	if err != nil {
		t.Fatal(err)
	}
	if v != interpreter.Number(42) {
		t.Errorf("result = %v, want 42", v)
	}
}

func TestDotTracksReturnValues(t *testing.T) {
	m := parse(t, `
proc main locals=0 args=0
	pushimm 1 7
	call 1 1
	pop
	pushdot
	ret
end
proc id locals=0 args=1
	pusharg 0
	ret
end
`)
	v, _, err := interpreter.New(m).Run("main", nil)
	if err != nil {
		t.Fatal(err)
	}
	if v != interpreter.Number(7) {
		t.Errorf("dot = %v, want 7", v)
	}
}

func TestIteratorDrains(t *testing.T) {
	m := parse(t, `
proc main locals=1 args=0
	pushimm 1 3
	iterload
	pushimm 1 0
	setlocal 0
loop:
	iternext
	jz done
	pushlocal 0
	pushimm 1 1
	add
	setlocal 0
	jmp loop
done:
	iterfree
	pushlocal 0
	ret
end
`)
	v, _, err := interpreter.New(m).Run("main", nil)
	if err != nil {
		t.Fatal(err)
	}
	if v != interpreter.Number(3) {
		t.Errorf("iterations = %v, want 3", v)
	}
}

func TestUnderflowIsAnError(t *testing.T) {
	m := parse(t, `
proc main locals=0 args=0
	pop
end
`)
	if _, _, err := interpreter.New(m).Run("main", nil); err == nil {
		t.Error("underflow not reported")
	}
}
