package bytecode

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Disassemble writes a readable listing of the module.
func Disassemble(w io.Writer, m *Module) {
	header := color.New(color.FgGreen).SprintfFunc()
	index := color.New(color.FgCyan).SprintfFunc()
	mnemonic := color.New(color.FgYellow).SprintFunc()
	operand := color.New(color.FgBlue).SprintfFunc()

	for pi := range m.Procs {
		p := &m.Procs[pi]
		fmt.Fprintln(w, header("proc %s locals=%d args=%d", p.Name, p.Locals, p.Args))
		for i, in := range p.Code {
			fmt.Fprintf(w, "%s\t%s", index("%4d", i), mnemonic(in.Op.String()))
			switch in.Op.Arity() {
			case 2:
				fmt.Fprintf(w, "\t%s %s", operand("%d", in.A), operand("%d", in.B))
			case 1:
				fmt.Fprintf(w, "\t%s", operand("%d", in.A))
			}
			fmt.Fprintln(w)
		}
	}
}
