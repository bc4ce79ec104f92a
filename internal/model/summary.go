package model

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/classver/internal/classfile"
)

// Progress is a snapshot of the scan counters taken by a poller.
// Counter values may lag behind the scan but are never torn.
type Progress struct {
	// Files is the number of filesystem files (class files and
	// containers) scanned so far.
	Files int64 `json:"files"`

	// Classes is the number of class file versions read so far.
	Classes int64 `json:"classes"`

	// Elapsed is the time since the scan started.
	Elapsed time.Duration `json:"elapsed"`
}

// VersionCount is the number of classes of one version in a container.
type VersionCount struct {
	Version classfile.Version `json:"version"`
	Count   int               `json:"count"`
}

// ContainerSummary groups the classes of one container by version.
type ContainerSummary struct {
	// Path is the container path as reported in Success.ContainerPath.
	Path string `json:"path"`

	// Versions are ordered by class version.
	Versions []VersionCount `json:"versions"`
}

// Name returns the last element of the container path.
func (c ContainerSummary) Name() string {
	return ContainerName(c.Path)
}

// Parent returns the container path without its last element.
func (c ContainerSummary) Parent() string {
	return ContainerParent(c.Path)
}

// VersionSummary lists the containers holding classes of one version.
type VersionSummary struct {
	Version classfile.Version `json:"version"`

	// Containers are in the order they were first seen.
	Containers []string `json:"containers"`
}

// Summary is the aggregated result of a finished scan, ready for output.
type Summary struct {
	// ScanID identifies the scan run.
	ScanID string `json:"scanId"`

	// StartedAt is when the scan started.
	StartedAt time.Time `json:"startedAt"`

	// Progress holds the final counters.
	Progress Progress `json:"progress"`

	// Extensions are the container extensions that were opened.
	Extensions []string `json:"extensions"`

	// Containers groups class counts by container, in first-seen order.
	Containers []ContainerSummary `json:"containers,omitempty"`

	// Versions groups containers by version, ordered by version.
	Versions []VersionSummary `json:"versions,omitempty"`

	// Classes lists every class, ordered by version. Only filled in for
	// detailed output.
	Classes []Success `json:"classes,omitempty"`

	// Failures are the messages of every Failure result.
	Failures []string `json:"failures,omitempty"`

	// Error is the fatal error that ended the scan, if any.
	Error string `json:"error,omitempty"`
}

// Empty reports whether the scan found no class at all.
func (s *Summary) Empty() bool {
	return s.Progress.Classes == 0 && len(s.Containers) == 0 && len(s.Versions) == 0 && len(s.Classes) == 0
}

// ContainerName returns the last separator-delimited element of path.
func ContainerName(path string) string {
	return path[strings.LastIndexByte(path, filepath.Separator)+1:]
}

// ContainerParent returns path up to its last separator. A path without a
// separator is returned unchanged.
func ContainerParent(path string) string {
	i := strings.LastIndexByte(path, filepath.Separator)
	if i == -1 {
		return path
	}
	return path[:i]
}
