// Package config provides configuration structures and utilities for classver.
// It defines the options of a scan: the targets, the container extensions,
// the report layout and format, and the logging preferences, together with
// the optional YAML configuration file they can be read from.
package config
