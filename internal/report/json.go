package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/classver/internal/model"
)

// JSONWriter outputs summaries in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string. Empty means compact output.
	indentString string

	// version is the classver version recorded in the document.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithToolVersion records the version of the tool that produced the output.
func WithToolVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport wraps a summary with metadata about the producing tool.
type JSONReport struct {
	// Version is the classver version that generated this report.
	Version string `json:"version,omitempty"`

	// Summary is the aggregated scan result.
	Summary *model.Summary `json:"summary"`
}

// Write implements Writer.
func (w *JSONWriter) Write(summary *model.Summary) (int, error) {
	var (
		data []byte
		err  error
	)

	doc := JSONReport{Version: w.version, Summary: summary}
	if w.indentString != "" || w.indentPrefix != "" {
		data, err = json.MarshalIndent(doc, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
