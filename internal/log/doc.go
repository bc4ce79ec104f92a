// Package log provides the slog setup shared by every classver command.
//
// This package extends slog to provide:
//   - Masking of the user's home directory in path attributes
//   - Configurable log levels with verbose mode support
//   - Optional size-rotated log files alongside stderr output
//
// # Path Masking
//
// Scan logs are full of absolute paths. The PathHandler rewrites every
// string attribute that starts with the home directory to start with "~"
// instead, so logs can be attached to bug reports without leaking the user
// name or directory layout.
//
// # Usage
//
//	// Log to stderr only
//	logger := log.NewLogger(os.Stderr, verbose)
//
//	// Log to stderr and a rotated file
//	file := log.NewFileWriter(path)
//	defer file.Close()
//	logger := log.NewLogger(io.MultiWriter(os.Stderr, file), verbose)
package log
