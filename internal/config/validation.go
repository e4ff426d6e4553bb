package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

// validate performs configuration validation using domain-specific methods.
func (cv *configurationValidator) validate() error {
	if err := cv.validateDirs(); err != nil {
		return err
	}
	if err := cv.validateServer(); err != nil {
		return err
	}
	return nil
}

// validateDirs checks the source/output directory layout.
func (cv *configurationValidator) validateDirs() error {
	dirs := cv.config.Dirs

	named := map[string]string{
		"pages":     dirs.Pages,
		"templates": dirs.Templates,
		"assets":    dirs.Assets,
		"output":    dirs.Output,
	}
	for name, dir := range named {
		if dir == "" {
			return fmt.Errorf("dirs.%s cannot be empty", name)
		}
	}

	// The output tree is deleted on every build; aliasing it with a source
	// directory would destroy sources.
	out := filepath.Clean(dirs.Output)
	for _, src := range []string{dirs.Pages, dirs.Templates, dirs.Assets} {
		if filepath.Clean(src) == out {
			return fmt.Errorf("dirs.output %q must not equal a source directory", dirs.Output)
		}
	}

	return nil
}

// validateServer checks listener and watch settings.
func (cv *configurationValidator) validateServer() error {
	srv := cv.config.Server

	if srv.Port < 1 || srv.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", srv.Port)
	}

	if srv.Debounce != "" {
		d, err := time.ParseDuration(srv.Debounce)
		if err != nil {
			return fmt.Errorf("server.debounce: %w", err)
		}
		if d <= 0 {
			return errors.New("server.debounce must be positive")
		}
	}

	if srv.PollInterval != "" {
		d, err := time.ParseDuration(srv.PollInterval)
		if err != nil {
			return fmt.Errorf("server.poll_interval: %w", err)
		}
		if d < 0 {
			return errors.New("server.poll_interval cannot be negative")
		}
		if d > 0 && d < time.Second {
			return errors.New("server.poll_interval below 1s would busy-rebuild")
		}
	}

	return nil
}
