package asm

import (
	"fmt"
	"strings"
)

// Render produces the final textual listing for the emitted stream. Virtual
// registers are printed as-is; lowering to physical registers is a backend
// concern and out of scope here.
func (a *Assembler) Render() string {
	var b strings.Builder

	for _, n := range a.nodes {
		switch n.Kind {
		case NodeInst:
			a.renderInst(&b, n)
		case NodeLabel:
			fmt.Fprintf(&b, "L%d:\n", n.Label)
		case NodeComment:
			fmt.Fprintf(&b, "\t; %s\n", n.Comment)
		case NodeProc:
			b.WriteString("; ---- proc ----\n")
		case NodeProcEnd:
			b.WriteString("; ---- proc end ----\n")
		case NodeBlock:
			b.WriteString("\t; block\n")
		case NodeBlockEnd:
			b.WriteString("\t; block end\n")
		}
	}

	return b.String()
}

func (a *Assembler) renderInst(b *strings.Builder, n Node) {
	b.WriteByte('\t')
	b.WriteString(string(n.Op))

	if n.Label != NoLabel {
		fmt.Fprintf(b, "\tL%d", n.Label)
	} else {
		for i, arg := range n.Args {
			if i == 0 {
				b.WriteByte('\t')
			} else {
				b.WriteString(", ")
			}
			b.WriteString(arg.String())
		}
	}

	if n.Comment != "" {
		fmt.Fprintf(b, "\t; %s", n.Comment)
	}
	b.WriteByte('\n')
}
