package log

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// newTestLogger returns a logger masking home that writes to buf.
func newTestLogger(buf *bytes.Buffer, home string) *slog.Logger {
	return slog.New(NewPathHandler(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}), home))
}

// TestPathHandler_MasksHome tests that home prefixes are masked in string attributes.
func TestPathHandler_MasksHome(t *testing.T) {
	t.Parallel()

	home := filepath.FromSlash("/home/alice")

	tests := []struct {
		name    string
		value   string
		want    string
		notWant string
	}{
		{
			name:    "path under home is masked",
			value:   filepath.FromSlash("/home/alice/lib/a.jar"),
			want:    filepath.FromSlash("~/lib/a.jar"),
			notWant: "alice",
		},
		{
			name:    "home itself is masked",
			value:   home,
			want:    "~",
			notWant: "alice",
		},
		{
			name:  "sibling directory is NOT masked",
			value: filepath.FromSlash("/home/alice2/a.jar"),
			want:  filepath.FromSlash("/home/alice2/a.jar"),
		},
		{
			name:  "unrelated path is NOT masked",
			value: filepath.FromSlash("/opt/app/a.jar"),
			want:  filepath.FromSlash("/opt/app/a.jar"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			newTestLogger(&buf, home).Info("scanned", "path", tt.value)

			output := buf.String()
			if !strings.Contains(output, tt.want) {
				t.Errorf("expected %q in output, got: %s", tt.want, output)
			}
			if tt.notWant != "" && strings.Contains(output, tt.notWant) {
				t.Errorf("expected %q to be masked, got: %s", tt.notWant, output)
			}
		})
	}
}

// TestPathHandler_MaskPath tests masking of embedded and repeated paths.
func TestPathHandler_MaskPath(t *testing.T) {
	t.Parallel()

	h := NewPathHandler(slog.NewTextHandler(&bytes.Buffer{}, nil), filepath.FromSlash("/home/alice"))

	in := "copy " + filepath.FromSlash("/home/alice/a.jar") + " to " + filepath.FromSlash("/home/alice/b.jar")
	want := "copy " + filepath.FromSlash("~/a.jar") + " to " + filepath.FromSlash("~/b.jar")
	if got := h.MaskPath(in); got != want {
		t.Errorf("MaskPath() = %q, want %q", got, want)
	}

	t.Run("empty home disables masking", func(t *testing.T) {
		t.Parallel()

		h := NewPathHandler(slog.NewTextHandler(&bytes.Buffer{}, nil), "")
		path := filepath.FromSlash("/home/alice/a.jar")
		if got := h.MaskPath(path); got != path {
			t.Errorf("MaskPath() = %q, want %q", got, path)
		}
	})
}

// TestPathHandler_Errors tests that error attributes are masked.
func TestPathHandler_Errors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := errors.New("open " + filepath.FromSlash("/home/alice/a.jar") + ": permission denied")
	newTestLogger(&buf, filepath.FromSlash("/home/alice")).Error("scan failed", "error", err)

	if strings.Contains(buf.String(), "alice") {
		t.Errorf("expected the error to be masked, got: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "permission denied") {
		t.Errorf("expected the error text to be kept, got: %s", buf.String())
	}
}

// TestPathHandler_GroupsAndWith tests masking through groups and With.
func TestPathHandler_GroupsAndWith(t *testing.T) {
	t.Parallel()

	home := filepath.FromSlash("/home/alice")

	t.Run("group attributes are masked", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		newTestLogger(&buf, home).Info("scan",
			slog.Group("target", slog.String("path", filepath.FromSlash("/home/alice/x.jar"))))

		if strings.Contains(buf.String(), "alice") {
			t.Errorf("expected group value to be masked, got: %s", buf.String())
		}
	})

	t.Run("With attributes are masked", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := newTestLogger(&buf, home).With("target", filepath.FromSlash("/home/alice/x.jar"))
		logger.Info("scan")

		if strings.Contains(buf.String(), "alice") {
			t.Errorf("expected With value to be masked, got: %s", buf.String())
		}
	})

	t.Run("WithGroup keeps masking", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := newTestLogger(&buf, home).WithGroup("scan")
		logger.Info("entry", "path", filepath.FromSlash("/home/alice/x.jar"))

		if strings.Contains(buf.String(), "alice") {
			t.Errorf("expected value to be masked, got: %s", buf.String())
		}
		if !strings.Contains(buf.String(), "scan.path=") {
			t.Errorf("expected grouped key, got: %s", buf.String())
		}
	})

	t.Run("non-string values pass through", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		newTestLogger(&buf, home).Info("progress", "files", 42)

		if !strings.Contains(buf.String(), "files=42") {
			t.Errorf("expected files=42, got: %s", buf.String())
		}
	})
}

// TestNewLogger tests the log level selection.
func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("verbose logs debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		NewLogger(&buf, true).Debug("debug message")
		if !strings.Contains(buf.String(), "debug message") {
			t.Errorf("expected debug output, got: %s", buf.String())
		}
	})

	t.Run("non-verbose drops info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, false)
		logger.Info("info message")
		logger.Warn("warn message")

		if strings.Contains(buf.String(), "info message") {
			t.Errorf("expected info to be dropped, got: %s", buf.String())
		}
		if !strings.Contains(buf.String(), "warn message") {
			t.Errorf("expected warn output, got: %s", buf.String())
		}
	})

	t.Run("nil handler falls back to default", func(t *testing.T) {
		t.Parallel()

		if h := NewPathHandler(nil, ""); h.handler == nil {
			t.Error("expected a default handler")
		}
	})
}

// TestNewFileWriter tests the rotated log file.
func TestNewFileWriter(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "classver.log")
	w := NewFileWriter(path)
	t.Cleanup(func() { _ = w.Close() })

	if w.MaxSize != MaxLogSizeMB || w.MaxBackups != MaxLogBackups || w.MaxAge != MaxLogAgeDays {
		t.Errorf("unexpected rotation limits %d/%d/%d", w.MaxSize, w.MaxBackups, w.MaxAge)
	}

	logger := NewLogger(w, true)
	logger.Info("written to file")
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close log file: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("expected log line in file, got: %s", data)
	}
}
