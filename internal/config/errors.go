package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no file or directory to scan is given.
	ErrNoTarget = errors.New("no target specified: provide one or more files or directories")

	// ErrNoExtensions is returned when the extension list is empty.
	// Without extensions only loose class files could be scanned, which is
	// almost certainly a mistake in the --extensions flag.
	ErrNoExtensions = errors.New("no container extensions specified")

	// ErrInvalidVerbosity is returned when the verbosity is not 1 or 2.
	ErrInvalidVerbosity = errors.New("invalid verbosity: must be 1 or 2")

	// ErrInvalidGroupBy is returned when the grouping is neither
	// "container" nor "version".
	ErrInvalidGroupBy = errors.New("invalid group-by: must be container or version")

	// ErrInvalidFormat is returned when the report format is unknown.
	ErrInvalidFormat = errors.New("invalid report format: must be text, markdown or json")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidPollInterval is returned when the poll interval is not positive.
	ErrInvalidPollInterval = errors.New("invalid poll interval: must be positive")
)
