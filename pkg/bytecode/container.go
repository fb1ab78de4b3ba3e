package bytecode

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// Container schema version - increment when the on-disk format changes.
const containerSchemaVersion uint16 = 1

type container struct {
	Schema uint16
	Procs  []Proc
}

// Save writes the module to path as a msgpack container, atomically.
func Save(path string, m *Module) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(container{Schema: containerSchemaVersion, Procs: m.Procs}); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// Load reads a msgpack container written by Save.
func Load(path string) (*Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var c container
	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if c.Schema != containerSchemaVersion {
		return nil, fmt.Errorf("%s: unsupported container schema %d", path, c.Schema)
	}
	return &Module{Procs: c.Procs}, nil
}
