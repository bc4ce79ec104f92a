package config

import (
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "classver"

	// DefaultVerbosity groups classes instead of listing each one.
	DefaultVerbosity = 1

	// DefaultPollInterval is the delay between two progress updates.
	// 450ms keeps the progress line lively without flooding the terminal.
	DefaultPollInterval = 450 * time.Millisecond
)

// Report layout and format names.
const (
	// GroupByContainer lists each container with its class versions.
	GroupByContainer = "container"

	// GroupByVersion lists each class version with its containers.
	GroupByVersion = "version"

	// FormatText is the column layout for terminals.
	FormatText = "text"

	// FormatMarkdown is a GitHub Flavored Markdown document.
	FormatMarkdown = "markdown"

	// FormatJSON is a JSON document for tool integration.
	FormatJSON = "json"
)

// DefaultExtensions returns the container extensions scanned by default.
// A fresh slice is returned so callers may modify it.
func DefaultExtensions() []string {
	return []string{"jar"}
}

// Config holds all configuration options for classver.
// This struct is populated from the configuration file and CLI flags and
// passed through the application rather than kept in global state.
//
// Design decision: We use a single flat struct for the same reason the
// scan itself is flat: the number of options is small and nesting would
// only add indirection.
type Config struct {
	// Targets are the files and directories to scan.
	Targets []string

	// Extensions are the file extensions, without the dot, of files and
	// archive entries that are opened as containers. Matching ignores case.
	// Class files are always read, and .class files inside directories are
	// read only when "class" is listed here.
	Extensions []string

	// Verbosity is 1 for grouped output and 2 for one line per class.
	Verbosity int

	// GroupBy selects the grouping of verbosity 1 output: "container" or
	// "version".
	GroupBy string

	// Format is the report format: "text", "markdown" or "json".
	Format string

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// PollInterval is the delay between two progress updates.
	PollInterval time.Duration

	// NoProgress disables the live progress line on stderr.
	NoProgress bool

	// Locale is the BCP 47 tag used to group digits in the progress line,
	// e.g. "en-US" or "hi-IN". Empty means English.
	Locale string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// LogFile additionally writes logs to this file, rotated by size.
	LogFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches the default locations (see FindConfigFile).
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (verbosity, interval).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Extensions:   DefaultExtensions(),
		Verbosity:    DefaultVerbosity,
		GroupBy:      GroupByContainer,
		Format:       FormatText,
		PollInterval: DefaultPollInterval,
	}
}

// ApplyFile copies every value set in f over c. Zero values in f leave c
// unchanged.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	if len(f.Extensions) > 0 {
		c.Extensions = slices.Clone(f.Extensions)
	}
	if f.Verbosity != 0 {
		c.Verbosity = f.Verbosity
	}
	if f.GroupBy != "" {
		c.GroupBy = f.GroupBy
	}
	if f.Format != "" {
		c.Format = f.Format
	}
	if f.PollInterval != 0 {
		c.PollInterval = f.PollInterval
	}
	if f.Locale != "" {
		c.Locale = f.Locale
	}
	if f.LogFile != "" {
		c.LogFile = f.LogFile
	}
	if f.NoProgress {
		c.NoProgress = true
	}
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if !slices.ContainsFunc(c.Extensions, func(ext string) bool {
		return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(ext), ".")) != ""
	}) {
		return ErrNoExtensions
	}

	if c.Verbosity != 1 && c.Verbosity != 2 {
		return ErrInvalidVerbosity
	}

	if c.GroupBy != GroupByContainer && c.GroupBy != GroupByVersion {
		return ErrInvalidGroupBy
	}

	switch c.Format {
	case FormatText, FormatMarkdown, FormatJSON:
	default:
		return ErrInvalidFormat
	}

	if c.PollInterval <= 0 {
		return ErrInvalidPollInterval
	}

	return nil
}

// XDGConfigDir returns the XDG config directory for classver.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/classver
// On macOS: ~/Library/Application Support/classver
// On Windows: %APPDATA%\classver
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGStateDir returns the XDG state directory for classver, the default
// home of the log file.
// On Linux: ~/.local/state/classver
// On macOS: ~/Library/Application Support/classver
// On Windows: %LOCALAPPDATA%\classver
func XDGStateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// LocaleFromEnv derives a BCP 47 tag from the POSIX locale variables, in
// the order LC_ALL, LC_NUMERIC, LANG. The encoding and modifier parts are
// dropped, so "en_IN.UTF-8" becomes "en-IN". It returns "" for the C and
// POSIX locales or when nothing is set.
func LocaleFromEnv(getenv func(string) string) string {
	for _, key := range []string{"LC_ALL", "LC_NUMERIC", "LANG"} {
		value := getenv(key)
		if value == "" {
			continue
		}
		if i := strings.IndexAny(value, ".@"); i != -1 {
			value = value[:i]
		}
		if value == "C" || value == "POSIX" || value == "" {
			return ""
		}
		return strings.ReplaceAll(value, "_", "-")
	}
	return ""
}
