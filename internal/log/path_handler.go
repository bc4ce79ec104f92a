package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// HomeMask replaces the home directory prefix in logged paths.
const HomeMask = "~"

// Rotation limits of the log file written by NewFileWriter.
const (
	// MaxLogSizeMB is the size at which the log file is rotated.
	MaxLogSizeMB = 10

	// MaxLogBackups is the number of rotated files kept.
	MaxLogBackups = 3

	// MaxLogAgeDays is the age after which rotated files are removed.
	MaxLogAgeDays = 28
)

// PathHandler wraps an slog.Handler to mask the home directory in string
// attributes before passing records to the underlying handler.
//
// Design decision: We use a handler wrapper rather than masking at each
// call site so the scanner, pipeline and CLI can log raw paths and still
// produce shareable output.
type PathHandler struct {
	// handler is the underlying slog handler that receives masked records.
	handler slog.Handler

	// home is the prefix to mask. Empty disables masking.
	home string
}

// NewPathHandler creates a PathHandler masking home in every string
// attribute. If handler is nil, slog.Default().Handler() is used.
func NewPathHandler(handler slog.Handler, home string) *PathHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &PathHandler{handler: handler, home: filepath.Clean(home)}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *PathHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's attributes and passes it to the underlying handler.
func (h *PathHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(h.maskAttr(a))
		return true
	})

	return h.handler.Handle(ctx, masked)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are masked before being added.
func (h *PathHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.maskAttr(a)
	}
	return &PathHandler{handler: h.handler.WithAttrs(masked), home: h.home}
}

// WithGroup returns a new handler with the given group name.
func (h *PathHandler) WithGroup(name string) slog.Handler {
	return &PathHandler{handler: h.handler.WithGroup(name), home: h.home}
}

// maskAttr masks a single attribute, recursively handling groups.
func (h *PathHandler) maskAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		masked := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			masked[i] = h.maskAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(masked...)}
	}

	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, h.MaskPath(a.Value.String()))
	}
	if a.Value.Kind() == slog.KindAny {
		if err, ok := a.Value.Any().(error); ok && err != nil {
			return slog.String(a.Key, h.MaskPath(err.Error()))
		}
	}

	return a
}

// MaskPath replaces every occurrence of the home directory in s with
// HomeMask. Only whole path prefixes are replaced, so "/home/al" does not
// mask "/home/alice".
func (h *PathHandler) MaskPath(s string) string {
	if h.home == "" || h.home == "." || h.home == string(filepath.Separator) {
		return s
	}

	var b strings.Builder
	for {
		i := strings.Index(s, h.home)
		if i == -1 {
			b.WriteString(s)
			return b.String()
		}
		end := i + len(h.home)
		b.WriteString(s[:i])
		if end == len(s) || s[end] == filepath.Separator {
			b.WriteString(HomeMask)
		} else {
			b.WriteString(h.home)
		}
		s = s[end:]
	}
}

// NewLogger creates a new slog.Logger that masks the home directory.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	textHandler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	home, _ := os.UserHomeDir() //nolint:errcheck // no home means nothing to mask

	return slog.New(NewPathHandler(textHandler, home))
}

// NewFileWriter returns a size-rotated log file at path. The caller must
// close it. Parent directories are created on first write.
func NewFileWriter(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    MaxLogSizeMB,
		MaxBackups: MaxLogBackups,
		MaxAge:     MaxLogAgeDays,
		Compress:   true,
	}
}
