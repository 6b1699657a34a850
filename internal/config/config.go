// Package config loads Hydra's ~/.hydra/config.yaml: a missing file is
// not an error (defaults apply), and a single `command:` string splits
// into argv when `args:` is omitted.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/shlex"
	"gopkg.in/yaml.v3"
)

// Config is Hydra's ~/.hydra/config.yaml shape.
type Config struct {
	Command         string   `yaml:"command"`
	Args            []string `yaml:"args,omitempty"`
	BranchFrom      string   `yaml:"branch_from"`
	Scrollback      int      `yaml:"scrollback"`
	SilenceMs       int      `yaml:"silence_ms"`
	PrefixTimeoutMs int      `yaml:"prefix_timeout_ms"`
	BatchMs         int      `yaml:"batch_ms"`
	DebugKeys       bool     `yaml:"debug_keys"`
}

// defaults returns Config's zero-value-safe defaults.
func defaults() Config {
	return Config{
		Command:         "claude",
		BranchFrom:      "main",
		Scrollback:      5000,
		SilenceMs:       3000,
		PrefixTimeoutMs: 500,
		BatchMs:         8,
	}
}

// Template returns the commented config.yaml scaffold written by
// `hydra init`.
func Template() string {
	return `# Hydra configuration — see https://github.com/ (adjust to your fork)
# command: the agent command to launch in each session's PTY.
command: claude

# branch_from: the base ref new session branches are created from.
branch_from: main

# scrollback: passed to each session's emulator; lines that scroll off
# the top are counted but not retained.
scrollback: 5000

# silence_ms: PTY quiet period before a Working session becomes Waiting.
silence_ms: 3000

# prefix_timeout_ms: how long CTRL_B stays armed waiting for a command.
prefix_timeout_ms: 500

# batch_ms: PTY-to-emulator coalescing window.
batch_ms: 8

# debug_keys: write session lifecycle and error events to ~/.hydra/hydra.log.
debug_keys: false
`
}

// Dir returns Hydra's configuration directory (~/.hydra/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".hydra")
	}
	return filepath.Join(home, ".hydra")
}

// Load reads the config from ~/.hydra/config.yaml. A missing file is not
// an error; it returns the defaults.
func Load() (*Config, error) {
	return LoadFrom(filepath.Join(Dir(), "config.yaml"))
}

// LoadFrom reads the config from the given path. A missing file is not an
// error; it returns the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.resolveArgs(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveArgs splits Command into a program plus argv when Args wasn't
// given explicitly, so "claude --dangerously-skip-permissions" in the
// command field works without a separate args list.
func (c *Config) resolveArgs() error {
	if len(c.Args) > 0 {
		return nil
	}
	parts, err := shlex.Split(c.Command)
	if err != nil {
		return fmt.Errorf("split command %q: %w", c.Command, err)
	}
	if len(parts) == 0 {
		return fmt.Errorf("command must not be empty")
	}
	c.Command = parts[0]
	c.Args = parts[1:]
	return nil
}
