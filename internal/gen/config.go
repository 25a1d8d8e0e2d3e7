// Package gen applies the fallible rewrite to Go files.
//
// It handles:
//   - Parsing and validating fallible.yaml
//   - Expanding command-line paths (files, directories, dir/...) into files
//   - Rewriting every //fallible:system declaration in a file
//   - Adding the runtime import and formatting the result
//   - Processing many files concurrently
package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	fconfig "github.com/funvibe/fallible/internal/config"
)

// Config represents the fallible.yaml configuration. Every field is optional.
type Config struct {
	// RuntimeImport is the import path of the package providing Events and
	// ErrorReport. Defaults to github.com/funvibe/fallible/pkg/fallible.
	RuntimeImport string `yaml:"runtime_import,omitempty"`

	// Workers bounds how many files are processed at once.
	// Defaults to GOMAXPROCS.
	Workers int `yaml:"workers,omitempty"`

	// Exclude lists glob patterns matched against file and directory base
	// names while expanding paths. Defaults to [vendor, testdata].
	Exclude []string `yaml:"exclude,omitempty"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose,omitempty"`
}

// DefaultConfig is used when no fallible.yaml is found.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses a fallible.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses fallible.yaml content from bytes.
// The path argument is used only for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// FindConfig searches for fallible.yaml starting from dir and walking up
// to parent directories. Returns an empty path and nil error if none exists.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range fconfig.ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// validate checks the configuration for semantic errors.
func (c *Config) validate(path string) error {
	if c.Workers < 0 {
		return fmt.Errorf("%s: workers must not be negative, got %d", path, c.Workers)
	}

	if c.RuntimeImport != "" {
		imp := c.RuntimeImport
		if strings.ContainsAny(imp, " \t\"\\") || strings.HasPrefix(imp, "/") || strings.HasSuffix(imp, "/") {
			return fmt.Errorf("%s: runtime_import %q is not a valid import path", path, imp)
		}
	}

	for i, pattern := range c.Exclude {
		if pattern == "" {
			return fmt.Errorf("%s: exclude[%d]: empty pattern", path, i)
		}
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("%s: exclude[%d]: bad pattern %q: %w", path, i, pattern, err)
		}
	}

	return nil
}

// setDefaults fills in default values for omitted fields.
func (c *Config) setDefaults() {
	if c.RuntimeImport == "" {
		c.RuntimeImport = fconfig.RuntimeImportPath
	}
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Exclude == nil {
		c.Exclude = []string{"vendor", "testdata"}
	}
}

// excluded reports whether a file or directory base name matches an
// exclude pattern.
func (c *Config) excluded(name string) bool {
	for _, pattern := range c.Exclude {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
