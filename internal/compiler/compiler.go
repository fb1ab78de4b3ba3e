package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"

	"stackjit/pkg/asm"
	"stackjit/pkg/bytecode"
	"stackjit/pkg/interpreter"
	"stackjit/pkg/translate"
)

// Compiler carries the driver options for one invocation.
type Compiler struct {
	Verbose    bool   // Enable verbose output
	NoColor    bool   // Disable colored output
	DumpAsm    bool   // Print the rendered native listing
	SourceFile string // Path to the input (.svm listing or .svmc container)
	OutputFile string // Path to the output artifact
}

// LoadModule reads a bytecode module, picking the format by extension.
func LoadModule(path string) (*bytecode.Module, error) {
	if strings.HasSuffix(path, ".svmc") {
		return bytecode.Load(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := bytecode.ParseListing(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// Compile translates every procedure of the input to native code and writes
// the artifact. An output ending in .svmc packs the bytecode container
// instead.
func (opts *Compiler) Compile() error {
	log.Info("Processing file", "file", opts.SourceFile)

	m, err := LoadModule(opts.SourceFile)
	if err != nil {
		return err
	}

	if strings.HasSuffix(opts.OutputFile, ".svmc") {
		if err := bytecode.Save(opts.OutputFile, m); err != nil {
			return fmt.Errorf("packing container: %w", err)
		}
		log.Info("Packed container", "file", opts.OutputFile)
		return nil
	}

	a := asm.New()
	t := translate.New(a)
	procs, err := t.TranslateModule(m)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}

	if opts.Verbose {
		fmt.Println(color.GreenString("\n=== Compiled procedures ==="))
		for _, p := range procs {
			fmt.Printf("%s: entry=L%d prolog=L%d continuations=%d\n",
				color.CyanString(p.Name), p.Entry, p.Prolog, len(p.Continuations))
		}
	}

	code := a.Render()
	if opts.DumpAsm {
		fmt.Println(color.GreenString("\n=== Generated code ==="))
		fmt.Println(code)
	}

	if opts.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.OutputFile), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(opts.OutputFile, []byte(code), 0o644); err != nil {
			return fmt.Errorf("writing artifact: %w", err)
		}
		log.Info("Wrote artifact", "file", opts.OutputFile, "procs", len(procs))
	}

	return nil
}

// Run executes the module's entry procedure through the reference
// interpreter, resuming across sleeps until it finishes.
func (opts *Compiler) Run(entry string) error {
	m, err := LoadModule(opts.SourceFile)
	if err != nil {
		return err
	}

	in := interpreter.New(m)
	v, status, err := in.Run(entry, nil)
	for err == nil && status == interpreter.Suspended {
		log.Debug("proc suspended, resuming", "proc", entry)
		v, status, err = in.Resume()
	}
	if err != nil {
		return fmt.Errorf("interpretation failed: %w", err)
	}

	fmt.Println(color.GreenString("\n=== Program Result ==="))
	fmt.Println(v)
	return nil
}
