package bytecode

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// ParseListing reads the text listing format:
//
//	proc main locals=2 args=0
//	    pushimm 1 5
//	    setlocal 0
//	L1:
//	    pushlocal 0
//	    jz L2
//	    jmp L1
//	L2:
//	    ret
//	end
//
// Branch operands name labels; labels resolve to instruction indices within
// the enclosing proc. Lines starting with ';' are comments.
func ParseListing(r io.Reader) (*Module, error) {
	m := &Module{}
	var cur *Proc
	labels := make(map[string]int32)
	type fixup struct {
		instr int
		label string
		line  int
	}
	var fixups []fixup

	finish := func() error {
		for _, f := range fixups {
			target, ok := labels[f.label]
			if !ok {
				return fmt.Errorf("line %d: undefined label %q", f.line, f.label)
			}
			cur.Code[f.instr].A = target
		}
		m.Procs = append(m.Procs, *cur)
		cur = nil
		labels = make(map[string]int32)
		fixups = fixups[:0]
		return nil
	}

	sc := bufio.NewScanner(r)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := sc.Text()
		if i := strings.IndexByte(line, ';'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch {
		case fields[0] == "proc":
			if cur != nil {
				return nil, fmt.Errorf("line %d: proc without closing end", lineno)
			}
			p, err := parseProcHeader(fields)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineno, err)
			}
			cur = p
		case strings.HasSuffix(fields[0], ":"):
			if cur == nil {
				return nil, fmt.Errorf("line %d: label outside proc", lineno)
			}
			name := strings.TrimSuffix(fields[0], ":")
			if _, dup := labels[name]; dup {
				return nil, fmt.Errorf("line %d: duplicate label %q", lineno, name)
			}
			labels[name] = int32(len(cur.Code))
		case fields[0] == "end":
			if cur == nil {
				return nil, fmt.Errorf("line %d: end outside proc", lineno)
			}
			cur.Code = append(cur.Code, Instruction{Op: OpEnd})
			if err := finish(); err != nil {
				return nil, err
			}
		default:
			if cur == nil {
				return nil, fmt.Errorf("line %d: instruction outside proc", lineno)
			}
			op, ok := opByName[fields[0]]
			if !ok {
				return nil, fmt.Errorf("line %d: unknown opcode %q", lineno, fields[0])
			}
			if len(fields)-1 != op.Arity() {
				return nil, fmt.Errorf("line %d: %s wants %d operands, got %d", lineno, op, op.Arity(), len(fields)-1)
			}
			in := Instruction{Op: op}
			if op.IsBranch() {
				fixups = append(fixups, fixup{instr: len(cur.Code), label: fields[1], line: lineno})
			} else {
				for i, f := range fields[1:] {
					v, err := strconv.ParseInt(f, 10, 32)
					if err != nil {
						return nil, fmt.Errorf("line %d: bad operand %q: %w", lineno, f, err)
					}
					if i == 0 {
						in.A = int32(v)
					} else {
						in.B = int32(v)
					}
				}
			}
			cur.Code = append(cur.Code, in)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if cur != nil {
		return nil, fmt.Errorf("proc %q missing end", cur.Name)
	}
	if len(m.Procs) == 0 {
		return nil, fmt.Errorf("empty module")
	}
	return m, nil
}

func parseProcHeader(fields []string) (*Proc, error) {
	if len(fields) < 2 {
		return nil, fmt.Errorf("proc needs a name")
	}
	p := &Proc{Name: fields[1]}
	for _, f := range fields[2:] {
		key, val, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("bad proc attribute %q", f)
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("bad proc attribute %q: %w", f, err)
		}
		count, err := safecast.Conv[uint16](n)
		if err != nil {
			return nil, fmt.Errorf("proc attribute %q: %w", f, err)
		}
		switch key {
		case "locals":
			p.Locals = count
		case "args":
			p.Args = count
		default:
			return nil, fmt.Errorf("unknown proc attribute %q", key)
		}
	}
	return p, nil
}
