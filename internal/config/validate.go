package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidLevel indicates an unknown log level
	ErrInvalidLevel = errors.New("invalid log level")

	// ErrInvalidSource indicates an unsupported outline source
	ErrInvalidSource = errors.New("invalid outline source")

	// ErrInvalidDebounce indicates a negative debounce window
	ErrInvalidDebounce = errors.New("invalid debounce")

	// ErrEmptyCommand indicates the symbols source has no command to run
	ErrEmptyCommand = errors.New("empty symbols command")

	// ErrInvalidPattern indicates an ignore glob that does not compile
	ErrInvalidPattern = errors.New("invalid ignore pattern")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level)); err != nil || cfg.Log.Level == "" {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLevel, cfg.Log.Level))
	}

	switch cfg.Outline.Source {
	case SourceTreeSitter:
	case SourceSymbols:
		if strings.TrimSpace(cfg.Symbols.Command) == "" {
			errs = append(errs, fmt.Errorf("%w: required when outline.source is %q", ErrEmptyCommand, SourceSymbols))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: must be %q or %q, got %q", ErrInvalidSource, SourceTreeSitter, SourceSymbols, cfg.Outline.Source))
	}

	if cfg.Outline.Debounce < 0 {
		errs = append(errs, fmt.Errorf("%w: must not be negative, got %s", ErrInvalidDebounce, cfg.Outline.Debounce))
	}

	for _, pattern := range cfg.Workspace.Ignore {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err))
		}
	}

	return errors.Join(errs...)
}
