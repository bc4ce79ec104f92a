package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/classver/internal/classfile"
	"github.com/nao1215/classver/internal/model"
	"github.com/nao1215/classver/internal/report"
)

// Constants for the direction of a container's version change.
const (
	changeRaised    = "raised"
	changeLowered   = "lowered"
	changeRebuilt   = "rebuilt"
	noChangeMessage = "No container changed"
)

// errNotReport is returned when a file holds no classver JSON summary.
var errNotReport = errors.New("not a classver JSON report")

// NewCompareCmd creates the compare command.
// This command compares two JSON reports written by 'classver scan --json'.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <previous.json> <current.json>",
		Short: "Compare two JSON scan reports",
		Long: `Compare displays the differences between two JSON reports written by
'classver scan --json'.

It shows:
- Containers that appeared or disappeared
- Containers whose class versions changed, and whether the newest class
  version was raised or lowered

A raised version is the usual sign that a dependency upgrade now needs a
newer Java runtime.

Examples:
  # Compare two reports
  classver scan -j -o before.json /opt/app
  classver scan -j -o after.json /opt/app
  classver compare before.json after.json

  # Output comparison in JSON format
  classver compare --json before.json after.json`,
		Args: cobra.ExactArgs(2),
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return errors.New("--json and --markdown cannot be used together")
	}

	previous, err := loadReport(args[0])
	if err != nil {
		return err
	}
	current, err := loadReport(args[1])
	if err != nil {
		return err
	}

	result := compareSummaries(previous, current)

	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		return outputComparisonJSON(out, result)
	case markdownOutput:
		return outputComparisonMarkdown(out, result)
	default:
		return outputComparisonText(out, result)
	}
}

// loadReport reads the summary of a JSON report.
func loadReport(path string) (*model.Summary, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided report path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var doc report.JSONReport
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	if doc.Summary == nil {
		return nil, fmt.Errorf("%s: %w", path, errNotReport)
	}
	return doc.Summary, nil
}

// ComparisonResult holds the result of comparing two scan summaries.
type ComparisonResult struct {
	// PreviousScan contains metadata about the previous scan.
	PreviousScan ScanMetadata `json:"previousScan"`

	// CurrentScan contains metadata about the current scan.
	CurrentScan ScanMetadata `json:"currentScan"`

	// Added are containers found only in the current scan.
	Added []model.ContainerSummary `json:"added,omitempty"`

	// Removed are containers found only in the previous scan.
	Removed []model.ContainerSummary `json:"removed,omitempty"`

	// Changed are containers whose version counts differ.
	Changed []ContainerChange `json:"changed,omitempty"`

	// UnchangedCount is the number of containers with identical counts.
	UnchangedCount int `json:"unchangedCount"`
}

// ScanMetadata contains metadata about a scan for comparison display.
type ScanMetadata struct {
	ScanID     string    `json:"scanId"`
	StartedAt  time.Time `json:"startedAt"`
	Files      int64     `json:"files"`
	Classes    int64     `json:"classes"`
	Containers int       `json:"containers"`
	Failures   int       `json:"failures"`
}

// ContainerChange describes one container present in both scans.
type ContainerChange struct {
	// Path is the container path.
	Path string `json:"path"`

	// Previous and Current are the version counts of each scan.
	Previous []model.VersionCount `json:"previous"`
	Current  []model.VersionCount `json:"current"`

	// Direction is "raised", "lowered" or "rebuilt", from the newest class
	// version of each scan.
	Direction string `json:"direction"`
}

// compareSummaries compares two summaries container by container. Output
// follows the order containers appear in the current scan, then the
// previous one.
func compareSummaries(previous, current *model.Summary) *ComparisonResult {
	result := &ComparisonResult{
		PreviousScan: scanMetadata(previous),
		CurrentScan:  scanMetadata(current),
	}

	previousByPath := make(map[string]model.ContainerSummary, len(previous.Containers))
	for _, c := range previous.Containers {
		previousByPath[c.Path] = c
	}

	seen := make(map[string]bool, len(current.Containers))
	for _, c := range current.Containers {
		seen[c.Path] = true

		prev, ok := previousByPath[c.Path]
		switch {
		case !ok:
			result.Added = append(result.Added, c)
		case sameCounts(prev.Versions, c.Versions):
			result.UnchangedCount++
		default:
			result.Changed = append(result.Changed, ContainerChange{
				Path:      c.Path,
				Previous:  prev.Versions,
				Current:   c.Versions,
				Direction: changeDirection(prev.Versions, c.Versions),
			})
		}
	}

	for _, c := range previous.Containers {
		if !seen[c.Path] {
			result.Removed = append(result.Removed, c)
		}
	}

	return result
}

// scanMetadata extracts the comparison header of a summary.
func scanMetadata(s *model.Summary) ScanMetadata {
	return ScanMetadata{
		ScanID:     s.ScanID,
		StartedAt:  s.StartedAt,
		Files:      s.Progress.Files,
		Classes:    s.Progress.Classes,
		Containers: len(s.Containers),
		Failures:   len(s.Failures),
	}
}

// sameCounts reports whether two count lists hold the same versions with
// the same counts.
func sameCounts(a, b []model.VersionCount) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Version.Equal(b[i].Version) || a[i].Count != b[i].Count {
			return false
		}
	}
	return true
}

// changeDirection compares the newest class version of two count lists.
func changeDirection(previous, current []model.VersionCount) string {
	switch c := classfile.Compare(newest(current), newest(previous)); {
	case c > 0:
		return changeRaised
	case c < 0:
		return changeLowered
	default:
		return changeRebuilt
	}
}

// newest returns the highest version in counts.
func newest(counts []model.VersionCount) classfile.Version {
	var v classfile.Version
	for _, vc := range counts {
		if classfile.Compare(vc.Version, v) > 0 {
			v = vc.Version
		}
	}
	return v
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(w io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(w io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(w)

	md.H1("Scan Comparison")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"Scan ID", "`" + result.PreviousScan.ScanID + "`", "`" + result.CurrentScan.ScanID + "`", "-"},
			{"Started", formatStarted(result.PreviousScan.StartedAt), formatStarted(result.CurrentScan.StartedAt), "-"},
			countRow("Files", result.PreviousScan.Files, result.CurrentScan.Files),
			countRow("Classes", result.PreviousScan.Classes, result.CurrentScan.Classes),
			countRow("Containers", int64(result.PreviousScan.Containers), int64(result.CurrentScan.Containers)),
			countRow("Failures", int64(result.PreviousScan.Failures), int64(result.CurrentScan.Failures)),
		},
	})
	md.PlainText("")

	if len(result.Changed) > 0 {
		rows := make([][]string, len(result.Changed))
		for i, c := range result.Changed {
			rows[i] = []string{
				"`" + c.Path + "`",
				report.VersionList(c.Previous),
				report.VersionList(c.Current),
				c.Direction,
			}
		}
		md.H2(fmt.Sprintf("Changed Containers (%d)", len(result.Changed)))
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Container", "Previous", "Current", "Newest Version"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if len(result.Added) > 0 {
		md.H2(fmt.Sprintf("Added Containers (%d)", len(result.Added)))
		md.PlainText("")
		md.BulletList(containerItems(result.Added, "`%s` %s")...)
		md.PlainText("")
	}

	if len(result.Removed) > 0 {
		md.H2(fmt.Sprintf("Removed Containers (%d)", len(result.Removed)))
		md.PlainText("")
		md.BulletList(containerItems(result.Removed, "~~`%s` %s~~")...)
		md.PlainText("")
	}

	if len(result.Changed)+len(result.Added)+len(result.Removed) == 0 {
		md.Note(noChangeMessage)
		md.PlainText("")
	}

	if result.UnchangedCount > 0 {
		md.HorizontalRule()
		md.PlainText("")
		md.PlainTextf("*%d containers unchanged*", result.UnchangedCount)
	}

	return md.Build()
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(w io.Writer, result *ComparisonResult) error {
	var sb strings.Builder

	sb.WriteString("Scan Comparison\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n")

	fmt.Fprintf(&sb, "\nPrevious scan: %s (%s)\n", formatStarted(result.PreviousScan.StartedAt), result.PreviousScan.ScanID)
	fmt.Fprintf(&sb, "Current scan:  %s (%s)\n", formatStarted(result.CurrentScan.StartedAt), result.CurrentScan.ScanID)

	sb.WriteString("\nSummary:\n")
	fmt.Fprintf(&sb, "  %-10s  %-10s  %-10s  %-10s\n", "Metric", "Previous", "Current", "Change")
	sb.WriteString("  " + strings.Repeat("-", 45) + "\n")
	for _, row := range [][]string{
		countRow("Files", result.PreviousScan.Files, result.CurrentScan.Files),
		countRow("Classes", result.PreviousScan.Classes, result.CurrentScan.Classes),
		countRow("Containers", int64(result.PreviousScan.Containers), int64(result.CurrentScan.Containers)),
		countRow("Failures", int64(result.PreviousScan.Failures), int64(result.CurrentScan.Failures)),
	} {
		fmt.Fprintf(&sb, "  %-10s  %-10s  %-10s  %-10s\n", row[0], row[1], row[2], row[3])
	}

	if len(result.Changed) > 0 {
		fmt.Fprintf(&sb, "\nChanged Containers (%d):\n", len(result.Changed))
		for _, c := range result.Changed {
			fmt.Fprintf(&sb, "  [*] %s (%s)\n", c.Path, c.Direction)
			fmt.Fprintf(&sb, "      %s -> %s\n", report.VersionList(c.Previous), report.VersionList(c.Current))
		}
	}

	if len(result.Added) > 0 {
		fmt.Fprintf(&sb, "\nAdded Containers (%d):\n", len(result.Added))
		for _, item := range containerItems(result.Added, "  [+] %s %s") {
			sb.WriteString(item + "\n")
		}
	}

	if len(result.Removed) > 0 {
		fmt.Fprintf(&sb, "\nRemoved Containers (%d):\n", len(result.Removed))
		for _, item := range containerItems(result.Removed, "  [-] %s %s") {
			sb.WriteString(item + "\n")
		}
	}

	if len(result.Changed)+len(result.Added)+len(result.Removed) == 0 {
		sb.WriteString("\n" + noChangeMessage + "\n")
	}

	if result.UnchangedCount > 0 {
		fmt.Fprintf(&sb, "\nUnchanged: %d containers\n", result.UnchangedCount)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// containerItems formats each container with its version list.
func containerItems(containers []model.ContainerSummary, format string) []string {
	items := make([]string, len(containers))
	for i, c := range containers {
		items[i] = fmt.Sprintf(format, c.Path, report.VersionList(c.Versions))
	}
	return items
}

// countRow returns a metric row with both values and their delta.
func countRow(name string, previous, current int64) []string {
	return []string{
		name,
		strconv.FormatInt(previous, 10),
		strconv.FormatInt(current, 10),
		formatDelta(current - previous),
	}
}

// formatStarted formats a scan start time, or "-" when unknown.
func formatStarted(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int64) string {
	if delta > 0 {
		return "+" + strconv.FormatInt(delta, 10)
	}
	return strconv.FormatInt(delta, 10)
}
