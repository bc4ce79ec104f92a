package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".classver.yaml"

// xdgConfigFile is the configuration file name inside XDGConfigDir.
const xdgConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the configuration file. Every field is
// optional; CLI flags override the values found here.
type File struct {
	// Extensions are the container extensions, e.g. [jar, war, ear].
	Extensions []string `yaml:"extensions,omitempty"`

	// Verbosity is 1 or 2.
	Verbosity int `yaml:"verbosity,omitempty"`

	// GroupBy is "container" or "version".
	GroupBy string `yaml:"groupBy,omitempty"`

	// Format is "text", "markdown" or "json".
	Format string `yaml:"format,omitempty"`

	// PollInterval is a Go duration string such as "450ms".
	PollInterval time.Duration `yaml:"pollInterval,omitempty"`

	// NoProgress disables the live progress line.
	NoProgress bool `yaml:"noProgress,omitempty"`

	// Locale is the BCP 47 tag for digit grouping.
	Locale string `yaml:"locale,omitempty"`

	// LogFile is the path of the rotated log file.
	LogFile string `yaml:"logFile,omitempty"`
}

// LoadConfigFile loads options from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .classver.yaml in the current directory
// 3. Look for config.yaml in the XDG config directory (see XDGConfigDir)
// 4. Look for .classver.yaml in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), xdgConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}
