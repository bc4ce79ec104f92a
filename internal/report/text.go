package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/classver/internal/model"
)

const (
	// maxNameWidth caps the container name column.
	maxNameWidth = 35

	// versionWidth is the version column width when every container holds
	// a single version. It doubles when any container holds more.
	versionWidth = 8

	// emptyMessage is printed when the scan found no class.
	emptyMessage = "No files/classes found"
)

// TextWriter outputs the column layout meant for a terminal.
//
// At verbosity 1 grouped by container each line is
//
//	<container name> <version(count),...> <parent path>
//
// and grouped by version
//
//	<version> <container name> <parent path>
//
// At verbosity 2 each line is one class: <version> <container path>/<class>.
type TextWriter struct {
	baseWriter
	layout Layout
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithLayout sets the verbosity and grouping.
func WithLayout(layout Layout) TextWriterOption {
	return func(w *TextWriter) {
		w.layout = layout
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
		layout:     DefaultLayout(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write implements Writer.
func (w *TextWriter) Write(summary *model.Summary) (int, error) {
	var sb strings.Builder

	switch {
	case w.layout.detailed():
		w.writeClasses(&sb, summary)
	case w.layout.GroupBy == GroupByVersion:
		w.writeByVersion(&sb, summary)
	default:
		w.writeByContainer(&sb, summary)
	}

	return io.WriteString(w.output, sb.String())
}

// writeByContainer writes one line per container.
func (w *TextWriter) writeByContainer(sb *strings.Builder, summary *model.Summary) {
	if len(summary.Containers) == 0 {
		sb.WriteString(emptyMessage + "\n")
		return
	}

	nameWidth := 0
	multiVersion := false
	for _, c := range summary.Containers {
		nameWidth = max(nameWidth, len(c.Name()))
		multiVersion = multiVersion || len(c.Versions) > 1
	}
	nameWidth = min(nameWidth, maxNameWidth)

	width := versionWidth
	if multiVersion {
		width = 2 * versionWidth
	}

	for _, c := range summary.Containers {
		fmt.Fprintf(sb, "%-*s %-*s %s\n", nameWidth, c.Name(), width, VersionList(c.Versions), c.Parent())
	}
}

// writeByVersion writes one line per container of every version.
func (w *TextWriter) writeByVersion(sb *strings.Builder, summary *model.Summary) {
	if len(summary.Versions) == 0 {
		sb.WriteString(emptyMessage + "\n")
		return
	}

	nameWidth := 0
	for _, v := range summary.Versions {
		for _, path := range v.Containers {
			nameWidth = max(nameWidth, len(model.ContainerName(path)))
		}
	}
	nameWidth = min(nameWidth, maxNameWidth)

	for _, v := range summary.Versions {
		version := v.Version.String()
		for _, path := range v.Containers {
			fmt.Fprintf(sb, "%3s %-*s %s\n", version, nameWidth, model.ContainerName(path), model.ContainerParent(path))
		}
	}
}

// writeClasses writes one line per class.
func (w *TextWriter) writeClasses(sb *strings.Builder, summary *model.Summary) {
	if len(summary.Classes) == 0 {
		sb.WriteString(emptyMessage + "\n")
		return
	}

	for _, s := range summary.Classes {
		sb.WriteString(s.String())
		sb.WriteByte('\n')
	}
}

// VersionList formats counts as 1.7(3),1.8(12).
func VersionList(counts []model.VersionCount) string {
	parts := make([]string, len(counts))
	for i, vc := range counts {
		parts[i] = vc.Version.String() + "(" + strconv.Itoa(vc.Count) + ")"
	}
	return strings.Join(parts, ",")
}
