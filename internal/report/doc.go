// Package report renders scan summaries and live progress.
//
// This package contains writers for different output formats:
//   - TextWriter: the column layout printed to a terminal
//   - MarkdownWriter: a document for sharing, with a version chart
//   - JSONWriter: structured output for tool integration
//
// Design decision: Writers consume a model.Summary that was aggregated
// elsewhere (internal/database). They only lay out data, so adding a format
// never touches the scan or the aggregation.
package report
