package report

import (
	"io"

	"github.com/nao1215/classver/internal/model"
)

// GroupBy selects how the verbosity 1 layouts group classes.
type GroupBy string

const (
	// GroupByContainer lists each container with its versions.
	GroupByContainer GroupBy = "container"

	// GroupByVersion lists each version with its containers.
	GroupByVersion GroupBy = "version"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the summary to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(summary *model.Summary) (int, error)
}

// Layout holds the options shared by the human readable writers.
type Layout struct {
	// Verbosity is 1 for grouped output, 2 for one line per class.
	Verbosity int

	// GroupBy selects the grouping at verbosity 1.
	GroupBy GroupBy
}

// DefaultLayout returns verbosity 1 grouped by container.
func DefaultLayout() Layout {
	return Layout{
		Verbosity: 1,
		GroupBy:   GroupByContainer,
	}
}

// detailed reports whether the layout lists every class.
func (l Layout) detailed() bool {
	return l.Verbosity >= 2
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// versionCounts totals the classes per version across all containers,
// keeping the order of first appearance in summary.Versions.
func versionCounts(summary *model.Summary) []model.VersionCount {
	counts := make([]model.VersionCount, 0, len(summary.Versions))
	index := make(map[[2]uint16]int, len(summary.Versions))

	for _, v := range summary.Versions {
		index[[2]uint16{v.Version.ClassMajor, v.Version.ClassMinor}] = len(counts)
		counts = append(counts, model.VersionCount{Version: v.Version})
	}
	for _, c := range summary.Containers {
		for _, vc := range c.Versions {
			key := [2]uint16{vc.Version.ClassMajor, vc.Version.ClassMinor}
			i, ok := index[key]
			if !ok {
				index[key] = len(counts)
				counts = append(counts, model.VersionCount{Version: vc.Version})
				i = len(counts) - 1
			}
			counts[i].Count += vc.Count
		}
	}
	return counts
}
