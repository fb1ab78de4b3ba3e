package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stackjit/internal/compiler"
	"stackjit/internal/logger"
	"stackjit/pkg/bytecode"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <file>",
	Short: "Print a readable listing of a bytecode module",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := optionsFor(cmd, args[0])

		logger.Init(opts.Verbose, opts.NoColor)
		if opts.NoColor {
			color.NoColor = true
		}

		m, err := compiler.LoadModule(opts.SourceFile)
		if err != nil {
			log.Fatal("Failed to load module", "file", opts.SourceFile, "error", err)
		}
		bytecode.Disassemble(os.Stdout, m)
	},
}
