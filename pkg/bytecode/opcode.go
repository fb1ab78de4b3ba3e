package bytecode

type Opcode uint8

// The instruction set of the stack VM. One operand slot A, one operand slot B;
// arity below says how many are meaningful.
const (
	OpNop Opcode = iota
	OpPushImm
	OpPushLocal
	OpSetLocal
	OpPushArg
	OpPushSrc
	OpPushUsr
	OpPushDot
	OpSetDot
	OpPop
	OpAdd
	OpSub
	OpTeq
	OpJmp
	OpJz
	OpCall
	OpSleep
	OpIterLoad
	OpIterNext
	OpIterFree
	OpRet
	OpEnd
)

// Value type tags shared by the interpreter and the generated code.
const (
	TypeNull   int32 = 0
	TypeNumber int32 = 1
	TypeString int32 = 2
	TypeList   int32 = 3
	TypeProc   int32 = 4
)

type opInfo struct {
	name  string
	arity int
}

var opTable = map[Opcode]opInfo{
	OpNop:       {"nop", 0},
	OpPushImm:   {"pushimm", 2},
	OpPushLocal: {"pushlocal", 1},
	OpSetLocal:  {"setlocal", 1},
	OpPushArg:   {"pusharg", 1},
	OpPushSrc:   {"pushsrc", 0},
	OpPushUsr:   {"pushusr", 0},
	OpPushDot:   {"pushdot", 0},
	OpSetDot:    {"setdot", 0},
	OpPop:       {"pop", 0},
	OpAdd:       {"add", 0},
	OpSub:       {"sub", 0},
	OpTeq:       {"teq", 0},
	OpJmp:       {"jmp", 1},
	OpJz:        {"jz", 1},
	OpCall:      {"call", 2},
	OpSleep:     {"sleep", 0},
	OpIterLoad:  {"iterload", 0},
	OpIterNext:  {"iternext", 0},
	OpIterFree:  {"iterfree", 0},
	OpRet:       {"ret", 0},
	OpEnd:       {"end", 0},
}

var opByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opTable))
	for op, info := range opTable {
		m[info.name] = op
	}
	return m
}()

// String returns the opcode mnemonic.
func (op Opcode) String() string {
	if info, ok := opTable[op]; ok {
		return info.name
	}
	return "unknown"
}

// Arity returns how many operands the opcode carries.
func (op Opcode) Arity() int {
	return opTable[op].arity
}

// IsBranch reports whether operand A is a code target.
func (op Opcode) IsBranch() bool {
	return op == OpJmp || op == OpJz
}

// CanSuspend reports whether the generated code for this opcode may suspend
// the procedure. The translator must commit all cached state before emitting
// such an operation.
func (op Opcode) CanSuspend() bool {
	return op == OpSleep || op == OpCall
}
