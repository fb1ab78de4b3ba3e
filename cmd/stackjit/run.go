package main

import (
	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stackjit/internal/logger"
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Execute a bytecode module through the reference interpreter",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := optionsFor(cmd, args[0])
		entry, _ := cmd.Flags().GetString("entry")

		logger.Init(opts.Verbose, opts.NoColor)
		if opts.NoColor {
			color.NoColor = true
		}

		if err := opts.Run(entry); err != nil {
			log.Fatal("Run failed", "error", err)
		}
	},
}

func init() {
	runCmd.Flags().String("entry", "main", "entry procedure name")
}
