package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/nao1215/classver/internal/classfile"
	"github.com/nao1215/classver/internal/config"
	"github.com/nao1215/classver/internal/report"
)

// classBytes returns a class file header for the given version.
func classBytes(major, minor byte) []byte {
	return []byte{0xCA, 0xFE, 0xBA, 0xBE, 0x00, minor, 0x00, major, 0x00, 0x10}
}

// writeJar writes a jar at path holding the given name/content pairs.
func writeJar(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to create entry %s: %v", name, err)
		}
		if _, err := w.Write(entries[name]); err != nil {
			t.Fatalf("failed to write entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// createTestTree creates lib/app.jar with three classes and a corrupt
// lib/broken.jar under a fresh directory.
func createTestTree(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	writeJar(t, filepath.Join(dir, "lib", "app.jar"), map[string][]byte{
		"com/a/A.class":        classBytes(52, 0),
		"com/a/B.class":        classBytes(61, 0),
		"com/a/C.class":        classBytes(52, 0),
		"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n"),
	})
	if err := os.WriteFile(filepath.Join(dir, "lib", "broken.jar"), []byte("not a zip"), 0600); err != nil {
		t.Fatalf("failed to write broken jar: %v", err)
	}
	return dir
}

// testConfig returns a valid configuration scanning targets quietly.
func testConfig(targets ...string) *config.Config {
	cfg := config.NewConfig()
	cfg.Targets = targets
	cfg.NoProgress = true
	cfg.PollInterval = 10 * time.Millisecond
	return cfg
}

// discardLogger returns a logger that drops everything.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestNewScanCmd tests the scan command creation.
func TestNewScanCmd(t *testing.T) {
	t.Parallel()

	cmd := NewScanCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Name() != "scan" {
			t.Errorf("expected name 'scan', got %q", cmd.Name())
		}
	})

	flags := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"extensions", "e", "[jar]"},
		{"verbosity", "", "1"},
		{"group-by", "g", "container"},
		{"interval", "", "450ms"},
		{"no-progress", "", "false"},
		{"locale", "", ""},
		{"config", "c", ""},
		{"log-file", "", ""},
		{"json", "j", "false"},
		{"markdown", "m", "false"},
		{"output", "o", ""},
	}
	for _, f := range flags {
		t.Run("has "+f.name+" flag", func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(f.name)
			if flag == nil {
				t.Fatalf("expected %s flag", f.name)
			}
			if flag.Shorthand != f.shorthand {
				t.Errorf("expected shorthand %q, got %q", f.shorthand, flag.Shorthand)
			}
			if flag.DefValue != f.defValue {
				t.Errorf("expected default %q, got %q", f.defValue, flag.DefValue)
			}
		})
	}
}

// parseScanFlags builds a Config from command line arguments.
func parseScanFlags(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()

	cmd := NewScanCmd()
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return buildConfig(cmd, cmd.Flags().Args())
}

// writeConfig writes a configuration file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), config.DefaultConfigFile)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// TestBuildConfig tests the precedence of defaults, file and flags.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("file values apply", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "extensions: [war]\nverbosity: 2\ngroupBy: version\nformat: markdown\nlocale: de-DE\n")
		cfg, err := parseScanFlags(t, "-c", path, "/opt/app")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !slices.Equal(cfg.Extensions, []string{"war"}) {
			t.Errorf("unexpected extensions %v", cfg.Extensions)
		}
		if cfg.Verbosity != 2 || cfg.GroupBy != config.GroupByVersion || cfg.Format != config.FormatMarkdown {
			t.Errorf("unexpected layout %d/%s/%s", cfg.Verbosity, cfg.GroupBy, cfg.Format)
		}
		if cfg.Locale != "de-DE" {
			t.Errorf("expected locale de-DE, got %q", cfg.Locale)
		}
		if !slices.Equal(cfg.Targets, []string{"/opt/app"}) {
			t.Errorf("unexpected targets %v", cfg.Targets)
		}
	})

	t.Run("flags override file", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "extensions: [war]\nverbosity: 2\ngroupBy: version\npollInterval: 2s\n")
		cfg, err := parseScanFlags(t, "-c", path,
			"-e", "jar,ear", "--verbosity", "1", "-g", "container",
			"--interval", "100ms", "--no-progress", "--locale", "hi-IN", "--log-file", "/tmp/c.log",
			"/opt/app")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !slices.Equal(cfg.Extensions, []string{"jar", "ear"}) {
			t.Errorf("unexpected extensions %v", cfg.Extensions)
		}
		if cfg.Verbosity != 1 || cfg.GroupBy != config.GroupByContainer {
			t.Errorf("unexpected layout %d/%s", cfg.Verbosity, cfg.GroupBy)
		}
		if cfg.PollInterval != 100*time.Millisecond || !cfg.NoProgress {
			t.Errorf("unexpected progress settings %v/%v", cfg.PollInterval, cfg.NoProgress)
		}
		if cfg.Locale != "hi-IN" || cfg.LogFile != "/tmp/c.log" {
			t.Errorf("unexpected locale or log file %q/%q", cfg.Locale, cfg.LogFile)
		}
	})

	t.Run("unchanged flags keep file values", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "extensions: [war]\n")
		cfg, err := parseScanFlags(t, "-c", path, "/opt/app")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(cfg.Extensions, []string{"war"}) {
			t.Errorf("expected the file value, got %v", cfg.Extensions)
		}
	})

	t.Run("json flag selects json", func(t *testing.T) {
		t.Parallel()

		cfg, err := parseScanFlags(t, "-c", writeConfig(t, "verbosity: 1\n"), "-j", "-o", "out.json", "/opt/app")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Format != config.FormatJSON || cfg.ReportFile != "out.json" {
			t.Errorf("unexpected report settings %s/%s", cfg.Format, cfg.ReportFile)
		}
	})

	t.Run("json and markdown conflict", func(t *testing.T) {
		t.Parallel()

		_, err := parseScanFlags(t, "-c", writeConfig(t, "verbosity: 1\n"), "-j", "-m", "/opt/app")
		if !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		_, err := parseScanFlags(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), "/opt/app")
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected not found error, got %v", err)
		}
	})

	t.Run("invalid config file", func(t *testing.T) {
		t.Parallel()

		_, err := parseScanFlags(t, "-c", writeConfig(t, "verbosity: [}\n"), "/opt/app")
		if err == nil || !strings.Contains(err.Error(), "failed to load config file") {
			t.Errorf("expected load error, got %v", err)
		}
	})
}

// TestRunScan tests complete scans through the result database.
func TestRunScan(t *testing.T) {
	t.Parallel()

	t.Run("json report aggregates classes and failures", func(t *testing.T) {
		t.Parallel()

		dir := createTestTree(t)
		cfg := testConfig(dir)
		cfg.Format = config.FormatJSON

		var stdout, stderr bytes.Buffer
		if err := runScan(context.Background(), cfg, discardLogger(), &stdout, &stderr); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var doc report.JSONReport
		if err := json.Unmarshal(stdout.Bytes(), &doc); err != nil {
			t.Fatalf("output is not valid JSON: %v\n%s", err, stdout.String())
		}
		summary := doc.Summary
		if summary == nil {
			t.Fatal("expected a summary")
		}

		if summary.ScanID == "" {
			t.Error("expected a scan ID")
		}
		if summary.Progress.Classes != 3 {
			t.Errorf("expected 3 classes, got %d", summary.Progress.Classes)
		}
		if len(summary.Containers) != 1 {
			t.Fatalf("expected 1 container, got %+v", summary.Containers)
		}

		c := summary.Containers[0]
		if filepath.Base(c.Path) != "app.jar" {
			t.Errorf("unexpected container %q", c.Path)
		}
		if len(c.Versions) != 2 {
			t.Fatalf("expected 2 versions, got %+v", c.Versions)
		}
		if !c.Versions[0].Version.Equal(classfile.Classify(52, 0)) || c.Versions[0].Count != 2 {
			t.Errorf("unexpected first version %+v", c.Versions[0])
		}
		if !c.Versions[1].Version.Equal(classfile.Classify(61, 0)) || c.Versions[1].Count != 1 {
			t.Errorf("unexpected second version %+v", c.Versions[1])
		}

		if len(summary.Failures) != 1 || !strings.Contains(summary.Failures[0], "broken.jar") {
			t.Errorf("expected the broken jar failure, got %v", summary.Failures)
		}
		if !strings.Contains(stderr.String(), "broken.jar") {
			t.Errorf("expected the failure on stderr, got %q", stderr.String())
		}
		if summary.Error != "" {
			t.Errorf("expected no scan error, got %q", summary.Error)
		}
	})

	t.Run("text report grouped by version", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(createTestTree(t))
		cfg.GroupBy = config.GroupByVersion

		var stdout, stderr bytes.Buffer
		if err := runScan(context.Background(), cfg, discardLogger(), &stdout, &stderr); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		lines := strings.Split(strings.TrimSuffix(stdout.String(), "\n"), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %q", stdout.String())
		}
		if !strings.HasPrefix(lines[0], "1.8 app.jar") {
			t.Errorf("unexpected first line %q", lines[0])
		}
		if !strings.HasPrefix(lines[1], "Unknown. Class version: 61.0 app.jar") {
			t.Errorf("unexpected second line %q", lines[1])
		}
	})

	t.Run("verbosity 2 lists every class", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(createTestTree(t))
		cfg.Verbosity = 2

		var stdout, stderr bytes.Buffer
		if err := runScan(context.Background(), cfg, discardLogger(), &stdout, &stderr); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := strings.Count(stdout.String(), "\n"); got != 3 {
			t.Errorf("expected 3 lines, got %d: %q", got, stdout.String())
		}
		if !strings.Contains(stdout.String(), filepath.Join("app.jar", "com", "a", "B.class")) {
			t.Errorf("expected the B class, got %q", stdout.String())
		}
	})

	t.Run("markdown report to file", func(t *testing.T) {
		t.Parallel()

		dir := createTestTree(t)
		cfg := testConfig(dir)
		cfg.Format = config.FormatMarkdown
		cfg.ReportFile = filepath.Join(t.TempDir(), "out", "report.md")

		var stdout, stderr bytes.Buffer
		if err := runScan(context.Background(), cfg, discardLogger(), &stdout, &stderr); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if stdout.Len() != 0 {
			t.Errorf("expected nothing on stdout, got %q", stdout.String())
		}
		content, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if !strings.Contains(string(content), "# Class Version Report") {
			t.Errorf("unexpected report %s", content)
		}

		if runtime.GOOS != "windows" {
			info, err := os.Stat(cfg.ReportFile)
			if err != nil {
				t.Fatalf("failed to stat report: %v", err)
			}
			if perm := info.Mode().Perm(); perm != 0600 {
				t.Errorf("expected permissions 0600, got %o", perm)
			}
		}
	})

	t.Run("progress line ends with completion", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(createTestTree(t))
		cfg.NoProgress = false
		cfg.Locale = "en-US"

		var stdout, stderr bytes.Buffer
		if err := runScan(context.Background(), cfg, discardLogger(), &stdout, &stderr); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(stderr.String(), "3 classes") {
			t.Errorf("expected the class count on stderr, got %q", stderr.String())
		}
		if !strings.HasSuffix(stderr.String(), "\nCompleted\n") {
			t.Errorf("expected the completion line, got %q", stderr.String())
		}
	})

	t.Run("missing target is reported, not fatal", func(t *testing.T) {
		t.Parallel()

		missing := filepath.Join(t.TempDir(), "missing")
		var stdout, stderr bytes.Buffer
		if err := runScan(context.Background(), testConfig(missing), discardLogger(), &stdout, &stderr); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(stderr.String(), "Unable to find file") {
			t.Errorf("expected the failure on stderr, got %q", stderr.String())
		}
		if stdout.String() != "No files/classes found\n" {
			t.Errorf("expected the empty message, got %q", stdout.String())
		}
	})

	t.Run("no targets", func(t *testing.T) {
		t.Parallel()

		var stdout, stderr bytes.Buffer
		if err := runScan(context.Background(), testConfig(), discardLogger(), &stdout, &stderr); err == nil {
			t.Error("expected error without targets")
		}
	})
}

// lockedBuffer is a bytes.Buffer safe for concurrent writers.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// TestScanCommand runs the scan command through the root command.
func TestScanCommand(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	dir := createTestTree(t)
	configPath := writeConfig(t, "verbosity: 1\n")
	logPath := filepath.Join(t.TempDir(), "logs", "classver.log")

	var stdout bytes.Buffer
	var stderr lockedBuffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"scan", "-v", "-c", configPath, "--no-progress", "--log-file", logPath, dir})

	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(stdout.String(), "app.jar") {
		t.Errorf("expected the container line, got %q", stdout.String())
	}

	logContent, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(logContent), "starting scan") {
		t.Errorf("expected the verbose log in the file, got %q", logContent)
	}
	if !strings.Contains(stderr.String(), "starting scan") {
		t.Errorf("expected the verbose log on stderr, got %q", stderr.String())
	}
}

// TestScanCommandInvalidConfig tests validation before scanning.
func TestScanCommandInvalidConfig(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"scan", "-c", writeConfig(t, "verbosity: 1\n"), "--verbosity", "3", "/opt/app"})

	err := root.Execute()
	if !errors.Is(err, config.ErrInvalidVerbosity) {
		t.Errorf("expected ErrInvalidVerbosity, got %v", err)
	}
}
