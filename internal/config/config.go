package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lainproliant/runtests/internal/discover"
	"github.com/lainproliant/runtests/internal/schema"
)

// LoadAndValidate reads a config file, validates it against the embedded
// schema, applies defaults, validates the result, and returns warnings for
// unknown fields.
func LoadAndValidate(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, warnings, err := LoadWithWarnings(path, data)
	if err != nil {
		return nil, warnings, err
	}

	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, warnings, err
	}

	return cfg, warnings, nil
}

// LoadWithWarnings parses and schema-validates config data and returns any
// unknown field warnings. Defaults are not applied.
func LoadWithWarnings(path string, data []byte) (*Config, []string, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if doc == nil {
		// Empty file: everything takes its default.
		return &Config{}, nil, nil
	}

	root, ok := doc.(map[string]interface{})
	if !ok {
		return nil, nil, fmt.Errorf("config file %s: top level must be a mapping", path)
	}

	if err := schema.ValidateConfigValue(root); err != nil {
		return nil, nil, fmt.Errorf("config file %s: %w", path, err)
	}

	var cfg Config
	if err := decode(data, &cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &cfg, detectUnknownFields(root), nil
}

func decode(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return yaml.Unmarshal(data, cfg)
}

// Find returns the path of the first default config file present in dir, or
// the empty string if there is none.
func Find(dir string) string {
	for _, name := range DefaultFileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Overrides holds values supplied on the command line or through the
// environment. Zero values leave the configuration unchanged.
type Overrides struct {
	Pattern     string
	Exclude     []string
	Timeout     *time.Duration
	Report      string
	MetricsFile string
}

// Apply merges overrides into cfg. Exclusions are added to the configured set
// rather than replacing it.
func (cfg *Config) Apply(o Overrides) {
	if o.Pattern != "" {
		cfg.Pattern = o.Pattern
	}
	if len(o.Exclude) > 0 {
		merged := append(append([]string{}, cfg.Exclude...), o.Exclude...)
		cfg.Exclude = discover.NormalizeExclusions(merged)
	}
	if o.Timeout != nil {
		cfg.Timeout = Duration(*o.Timeout)
	}
	if o.Report != "" {
		cfg.Report = o.Report
	}
	if o.MetricsFile != "" {
		cfg.MetricsFile = o.MetricsFile
	}
}

// ParseExcludeList splits a comma-separated exclusion list, dropping blanks.
func ParseExcludeList(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
