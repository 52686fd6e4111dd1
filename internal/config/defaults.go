package config

import "github.com/lainproliant/runtests/internal/discover"

// Default configuration values.
const (
	DefaultPattern = discover.DefaultPattern
	DefaultEnvVar  = "RUNTESTS_CONFIG"
	ExcludeEnvVar  = "RUNTESTS_EXCLUDE"
)

// DefaultFileNames are the config files looked up in the test directory,
// in order.
var DefaultFileNames = []string{".runtests.yaml", ".runtests.yml", ".runtests.json"}

// DefaultExclude is the exclusion set used when the configuration does not
// provide one. The ANSI module drives a terminal and cannot pass unattended.
func DefaultExclude() []string {
	return []string{"./ansi.test"}
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills in default values for unset configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Pattern == "" {
		cfg.Pattern = DefaultPattern
	}
	if cfg.Exclude == nil {
		cfg.Exclude = DefaultExclude()
	}
	cfg.Exclude = discover.NormalizeExclusions(cfg.Exclude)
}
