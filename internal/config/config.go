package config

import "time"

// Config is the complete server configuration.
// It can be loaded from .function-map/config.yaml with environment variable overrides.
type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Outline   OutlineConfig   `yaml:"outline" mapstructure:"outline"`
	Symbols   SymbolsConfig   `yaml:"symbols" mapstructure:"symbols"`
	Workspace WorkspaceConfig `yaml:"workspace" mapstructure:"workspace"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"` // debug, info, warn or error
}

// OutlineConfig controls how and when document outlines are rebuilt.
type OutlineConfig struct {
	Debounce        time.Duration `yaml:"debounce" mapstructure:"debounce"`                   // quiet period before a rebuild
	RebuildOnChange bool          `yaml:"rebuild_on_change" mapstructure:"rebuild_on_change"` // false rebuilds on open and save only
	Source          string        `yaml:"source" mapstructure:"source"`                       // "treesitter" or "symbols"
	MemoSize        int           `yaml:"memo_size" mapstructure:"memo_size"`                 // memoized outlines, 0 disables
}

// SymbolsConfig names the external language server used when
// outline.source is "symbols".
type SymbolsConfig struct {
	Command string   `yaml:"command" mapstructure:"command"`
	Args    []string `yaml:"args" mapstructure:"args"`
}

// WorkspaceConfig controls the workspace function index.
type WorkspaceConfig struct {
	Index  bool     `yaml:"index" mapstructure:"index"`
	Ignore []string `yaml:"ignore" mapstructure:"ignore"` // glob patterns relative to the root
}

const (
	SourceTreeSitter = "treesitter"
	SourceSymbols    = "symbols"
)

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Outline: OutlineConfig{
			Debounce:        300 * time.Millisecond,
			RebuildOnChange: true,
			Source:          SourceTreeSitter,
			MemoSize:        256,
		},
		Symbols: SymbolsConfig{
			Command: "typescript-language-server",
			Args:    []string{"--stdio"},
		},
		Workspace: WorkspaceConfig{
			Index: true,
			Ignore: []string{
				"**/*.min.js",
				"**/*.d.ts",
			},
		},
	}
}
