package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/classver/internal/model"
)

// MarkdownWriter outputs summaries in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
	layout Layout
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMarkdownLayout sets the verbosity and grouping.
func WithMarkdownLayout(layout Layout) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.layout = layout
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		layout:     DefaultLayout(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write implements Writer.
func (w *MarkdownWriter) Write(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)

	if summary.Empty() {
		md.Note(emptyMessage)
		md.PlainText("")
	} else {
		w.writeVersionChart(md, summary)
		switch {
		case w.layout.detailed():
			w.writeClasses(md, summary)
		case w.layout.GroupBy == GroupByVersion:
			w.writeByVersion(md, summary)
		default:
			w.writeByContainer(md, summary)
		}
	}

	w.writeFailures(md, summary)

	return len(md.String()), md.Build()
}

// writeHeader writes the title and the scan properties.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.Summary) {
	md.H1("Class Version Report")
	md.PlainText("")

	rows := [][]string{
		{"Scan ID", "`" + summary.ScanID + "`"},
	}
	if !summary.StartedAt.IsZero() {
		rows = append(rows, []string{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")})
	}
	rows = append(rows,
		[]string{"Elapsed", FormatElapsed(summary.Progress.Elapsed)},
		[]string{"Files Scanned", strconv.FormatInt(summary.Progress.Files, 10)},
		[]string{"Classes Scanned", strconv.FormatInt(summary.Progress.Classes, 10)},
		[]string{"Extensions", strings.Join(summary.Extensions, ", ")},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if summary.Error != "" {
		md.Cautionf("The scan ended early: %s", summary.Error)
		md.PlainText("")
	}
}

// writeVersionChart writes a mermaid pie chart of classes per version.
func (w *MarkdownWriter) writeVersionChart(md *markdown.Markdown, summary *model.Summary) {
	counts := versionCounts(summary)
	if len(counts) == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Classes by Java Version"),
		piechart.WithShowData(true),
	)
	for _, vc := range counts {
		if vc.Count > 0 {
			chart.LabelAndIntValue(vc.Version.Label(), uint64(vc.Count))
		}
	}

	md.H2("Versions")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeByContainer writes one table row per container.
func (w *MarkdownWriter) writeByContainer(md *markdown.Markdown, summary *model.Summary) {
	rows := make([][]string, len(summary.Containers))
	for i, c := range summary.Containers {
		rows[i] = []string{"`" + c.Name() + "`", VersionList(c.Versions), "`" + c.Parent() + "`"}
	}

	md.H2("Containers")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Container", "Versions", "Location"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeByVersion writes one table row per container of every version.
func (w *MarkdownWriter) writeByVersion(md *markdown.Markdown, summary *model.Summary) {
	var rows [][]string
	for _, v := range summary.Versions {
		for _, path := range v.Containers {
			rows = append(rows, []string{
				v.Version.String(),
				"`" + model.ContainerName(path) + "`",
				"`" + model.ContainerParent(path) + "`",
			})
		}
	}

	md.H2("Containers by Version")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Version", "Container", "Location"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeClasses writes one table row per class.
func (w *MarkdownWriter) writeClasses(md *markdown.Markdown, summary *model.Summary) {
	rows := make([][]string, len(summary.Classes))
	for i, s := range summary.Classes {
		rows[i] = []string{s.Version.String(), "`" + s.Path() + "`"}
	}

	md.H2("Classes")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Version", "Class"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures lists the items that could not be scanned.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, summary *model.Summary) {
	if len(summary.Failures) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")
	md.Warningf("%d item(s) could not be scanned.", len(summary.Failures))
	md.PlainText("")
	md.BulletList(summary.Failures...)
	md.PlainText("")
}
