package config

import (
	"errors"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds build defaults read from an optional stackjit.toml next to the
// input. Flags override everything here.
type Config struct {
	Build BuildConfig `toml:"build"`
}

type BuildConfig struct {
	Output  string `toml:"output"`
	DumpAsm bool   `toml:"dump_asm"`
	Verbose bool   `toml:"verbose"`
	NoColor bool   `toml:"no_color"`
}

// DefaultFile is the config file name looked up beside the input.
const DefaultFile = "stackjit.toml"

// Load reads the config from path. A missing file is not an error and yields
// the zero config.
func Load(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	return cfg, nil
}
