package checker

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Severity of a diagnostic. Checks default to SeverityError; a config file
// can downgrade individual checks.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityIgnore  Severity = "ignore"
)

func (s Severity) valid() bool {
	switch s {
	case SeverityError, SeverityWarning, SeverityIgnore:
		return true
	}
	return false
}

// Config controls which checks run, at what severity, and where the
// suppressions and cache files live. Paths are resolved relative to the
// config file location.
type Config struct {
	Checks           map[string]Severity `yaml:"checks"`
	SuppressionsFile string              `yaml:"suppressions"`
	CacheFile        string              `yaml:"cache"`

	Suppressions []Suppression `yaml:"-"`
}

// Suppression mutes one check for files matching a glob.
type Suppression struct {
	Path   string `yaml:"path"`
	Check  string `yaml:"check"`
	Reason string `yaml:"reason"`
}

// DefaultConfig runs every check at error severity with no suppressions and
// no cache.
func DefaultConfig() Config {
	return Config{Checks: map[string]Severity{}}
}

// LoadConfig reads a YAML config file and its suppressions file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("checker: reading config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("checker: parsing config %s: %w", path, err)
	}
	for check, sev := range cfg.Checks {
		if !sev.valid() {
			return cfg, fmt.Errorf("checker: config %s: bad severity %q for check %q", path, sev, check)
		}
	}
	dir := filepath.Dir(path)
	if cfg.SuppressionsFile != "" && !filepath.IsAbs(cfg.SuppressionsFile) {
		cfg.SuppressionsFile = filepath.Join(dir, cfg.SuppressionsFile)
	}
	if cfg.CacheFile != "" && !filepath.IsAbs(cfg.CacheFile) {
		cfg.CacheFile = filepath.Join(dir, cfg.CacheFile)
	}
	if cfg.SuppressionsFile != "" {
		sup, err := loadSuppressions(cfg.SuppressionsFile)
		if err != nil {
			return cfg, err
		}
		cfg.Suppressions = sup
	}
	return cfg, nil
}

func loadSuppressions(path string) ([]Suppression, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("checker: reading suppressions: %w", err)
	}
	var out []Suppression
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("checker: parsing suppressions %s: %w", path, err)
	}
	for i, s := range out {
		if s.Path == "" {
			return nil, fmt.Errorf("checker: suppressions %s: entry %d has no path", path, i)
		}
	}
	return out, nil
}

// severityFor returns the configured severity of a check.
func (c Config) severityFor(check string) Severity {
	if s, ok := c.Checks[check]; ok {
		return s
	}
	return SeverityError
}

// suppressed reports whether a diagnostic for check in file is muted.
func (c Config) suppressed(file, check string) bool {
	for _, s := range c.Suppressions {
		if s.Check != "" && s.Check != check {
			continue
		}
		if ok, _ := filepath.Match(s.Path, file); ok {
			return true
		}
		if ok, _ := filepath.Match(s.Path, filepath.Base(file)); ok {
			return true
		}
	}
	return false
}
