package report

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nao1215/classver/internal/model"
)

// ClearLine blanks a progress line written earlier on the same terminal row
// and returns the cursor to its start.
var ClearLine = strings.Repeat(" ", 48) + "\r"

// ProgressPrinter formats progress snapshots with locale aware digit
// grouping, e.g. 1,234,567 in English or 1.234.567 in German.
type ProgressPrinter struct {
	printer *message.Printer
}

// NewProgressPrinter creates a ProgressPrinter for a BCP 47 locale such as
// "en-US" or "hi-IN". An empty or unparsable locale falls back to English.
func NewProgressPrinter(locale string) *ProgressPrinter {
	tag := language.English
	if locale != "" {
		if parsed, err := language.Parse(locale); err == nil {
			tag = parsed
		}
	}
	return &ProgressPrinter{printer: message.NewPrinter(tag)}
}

// Line formats p as "<elapsed>, N files, M classes".
func (pp *ProgressPrinter) Line(p model.Progress) string {
	return fmt.Sprintf("%s, %s, %s",
		FormatElapsed(p.Elapsed),
		pp.count(p.Files, "file", "files"),
		pp.count(p.Classes, "class", "classes"),
	)
}

// count formats n followed by the singular or plural noun.
func (pp *ProgressPrinter) count(n int64, singular, plural string) string {
	noun := plural
	if n == 1 {
		noun = singular
	}
	return pp.printer.Sprintf("%d %s", n, noun)
}

// FormatElapsed renders d in whole seconds: 05s, 01m:05s or 1h:02m:03s.
// Larger units appear only once reached.
func FormatElapsed(d time.Duration) string {
	seconds := int64(d / time.Second)
	if seconds < 0 {
		seconds = 0
	}

	var sb strings.Builder
	hours := seconds >= 3600
	if hours {
		fmt.Fprintf(&sb, "%dh:", seconds/3600)
		seconds %= 3600
	}
	if hours || seconds >= 60 {
		fmt.Fprintf(&sb, "%02dm:", seconds/60)
		seconds %= 60
	}
	fmt.Fprintf(&sb, "%02ds", seconds)

	return sb.String()
}
