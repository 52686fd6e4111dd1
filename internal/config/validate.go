package config

import (
	"fmt"

	"github.com/lainproliant/runtests/internal/discover"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a configuration for semantic errors the schema cannot
// express.
func Validate(cfg *Config) error {
	if err := discover.ValidatePattern(cfg.Pattern); err != nil {
		return &ValidationError{Field: "pattern", Message: err.Error()}
	}

	if cfg.Timeout < 0 {
		return &ValidationError{Field: "timeout", Message: "must not be negative"}
	}

	for i, e := range cfg.Exclude {
		if e == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("exclude[%d]", i),
				Message: "must not be empty",
			}
		}
	}

	return nil
}
