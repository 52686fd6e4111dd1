// Package config provides configuration loading and validation for the
// harness configuration file (.runtests.yaml).
package config

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete harness configuration.
type Config struct {
	// Pattern is the glob matched against entry names in the test directory.
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`

	// Exclude lists candidate identifiers that are never executed.
	// nil means "not configured" and receives the default set; an empty
	// list disables exclusions.
	Exclude []string `yaml:"exclude" json:"exclude"`

	// Timeout bounds each module's run time. Zero disables it.
	Timeout Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	Report      string `yaml:"report,omitempty" json:"report,omitempty"`
	MetricsFile string `yaml:"metrics_file,omitempty" json:"metrics_file,omitempty"`
}

// Duration is a time.Duration that decodes from either a Go duration string
// ("90s", "5m") or a whole number of seconds.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: timeout must be a duration string or seconds", value.Line)
	}
	parsed, err := parseDuration(value.Value, value.Tag == "!!int")
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = parsed
	return nil
}

func parseDuration(s string, seconds bool) (Duration, error) {
	if seconds {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timeout %q: %w", s, err)
		}
		return Duration(time.Duration(n) * time.Second), nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", s, err)
	}
	return Duration(v), nil
}
