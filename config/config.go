// Package config loads the simulator's ambient, non-architectural settings
// from an optional TOML file. It never changes the CLI's accepted argument
// shapes (spec §6) — it only tunes the execution guard (instruction budget
// and unsupported-opcode policy), diagnostics and display color described in
// SPEC_FULL.md §4.10.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config is the simulator's optional configuration.
type Config struct {
	Execution struct {
		MaxInstructions       uint64 `toml:"max_instructions"`
		TrapUnsupportedOpcode bool   `toml:"trap_unsupported_opcode"`
	} `toml:"execution"`

	Diagnostics struct {
		Verbose   bool   `toml:"verbose"`
		TraceFile string `toml:"trace_file"`
	} `toml:"diagnostics"`

	Display struct {
		ColorOutput bool `toml:"color_output"`
	} `toml:"display"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Execution.MaxInstructions = 50_000_000
	cfg.Execution.TrapUnsupportedOpcode = true
	cfg.Diagnostics.Verbose = false
	cfg.Diagnostics.TraceFile = ""
	cfg.Display.ColorOutput = true
	return cfg
}

// Path returns the platform-specific config file path, mirroring where a
// well-behaved CLI tool keeps its config: next to the user's other app
// config on each platform.
func Path() string {
	var dir string
	switch runtime.GOOS {
	case "windows":
		dir = os.Getenv("APPDATA")
		if dir == "" {
			dir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		dir = filepath.Join(dir, "rv32-cachesim")
	case "darwin", "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return "cachesim.toml"
		}
		dir = filepath.Join(home, ".config", "rv32-cachesim")
	default:
		return "cachesim.toml"
	}
	return filepath.Join(dir, "config.toml")
}

// Load reads configuration from ./cachesim.toml if present, else from
// Path(), else returns Default(). A malformed config file is a fatal error;
// a missing one is not.
func Load() (*Config, error) {
	if _, err := os.Stat("cachesim.toml"); err == nil {
		return LoadFrom("cachesim.toml")
	}
	return LoadFrom(Path())
}

// LoadFrom reads configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
