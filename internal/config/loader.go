package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Dir is the per-project folder holding config.yaml.
const Dir = ".function-map"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a loader reading <rootDir>/.function-map/config.yaml.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// NewFileLoader creates a loader reading an explicit config file, which
// must exist.
func NewFileLoader(configFile string) Loader {
	return &loader{configFile: configFile}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (FUNCMAP_*)
// 2. Config file
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, Dir))
	}

	v.SetEnvPrefix("FUNCMAP")
	v.AutomaticEnv()
	// FUNCMAP_OUTLINE_DEBOUNCE sets outline.debounce
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can see it on Unmarshal.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("log.level", defaults.Log.Level)

	v.SetDefault("outline.debounce", defaults.Outline.Debounce)
	v.SetDefault("outline.rebuild_on_change", defaults.Outline.RebuildOnChange)
	v.SetDefault("outline.source", defaults.Outline.Source)
	v.SetDefault("outline.memo_size", defaults.Outline.MemoSize)

	v.SetDefault("symbols.command", defaults.Symbols.Command)
	v.SetDefault("symbols.args", defaults.Symbols.Args)

	v.SetDefault("workspace.index", defaults.Workspace.Index)
	v.SetDefault("workspace.ignore", defaults.Workspace.Ignore)
}
