package main

import (
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stackjit/internal/compiler"
	"stackjit/internal/config"
	"stackjit/internal/logger"
)

var buildCmd = &cobra.Command{
	Use:   "build <file>",
	Short: "Translate a bytecode module to a native code listing",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := optionsFor(cmd, args[0])
		opts.OutputFile, _ = cmd.Flags().GetString("output")
		opts.DumpAsm, _ = cmd.Flags().GetBool("dump-asm")

		cfg, err := config.Load(filepath.Join(filepath.Dir(args[0]), config.DefaultFile))
		if err != nil {
			log.Fatal("Bad config file", "error", err)
		}
		applyConfig(&opts, cfg.Build)

		logger.Init(opts.Verbose, opts.NoColor)
		if opts.NoColor {
			color.NoColor = true
		}

		if err := opts.Compile(); err != nil {
			log.Fatal("Compilation failed", "error", err)
		}
	},
}

func init() {
	buildCmd.Flags().StringP("output", "o", "", "output artifact path (.svmc packs the container)")
	buildCmd.Flags().Bool("dump-asm", false, "print the generated code")
}

func optionsFor(cmd *cobra.Command, input string) compiler.Compiler {
	verbose, _ := cmd.Flags().GetBool("verbose")
	noColor, _ := cmd.Flags().GetBool("no-color")
	return compiler.Compiler{
		Verbose:    verbose,
		NoColor:    noColor,
		SourceFile: input,
	}
}

// applyConfig fills options not set on the command line from the config file.
func applyConfig(opts *compiler.Compiler, b config.BuildConfig) {
	if opts.OutputFile == "" {
		opts.OutputFile = b.Output
	}
	opts.DumpAsm = opts.DumpAsm || b.DumpAsm
	opts.Verbose = opts.Verbose || b.Verbose
	opts.NoColor = opts.NoColor || b.NoColor
}
