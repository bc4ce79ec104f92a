package main

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/nao1215/classver/internal/config"
)

// TestNewInitCmd tests the init command creation.
func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "init" {
			t.Errorf("expected use 'init', got %q", cmd.Use)
		}
	})

	t.Run("has output flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
		if flag.DefValue != config.DefaultConfigFile {
			t.Errorf("expected default %q, got %q", config.DefaultConfigFile, flag.DefValue)
		}
	})

	t.Run("has force flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("force")
		if flag == nil {
			t.Fatal("expected force flag")
		}
		if flag.Shorthand != "f" {
			t.Errorf("expected shorthand 'f', got %q", flag.Shorthand)
		}
	})
}

// runInit executes the init command with args and returns its output.
func runInit(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	cmd := NewInitCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// TestRunInitCmd tests the init command execution.
func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates a loadable config file", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), config.DefaultConfigFile)
		output, err := runInit(t, "-o", outputPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output, "Created configuration file") {
			t.Errorf("unexpected output %q", output)
		}

		file, err := config.LoadConfigFile(outputPath)
		if err != nil {
			t.Fatalf("failed to load generated config: %v", err)
		}

		cfg := config.NewConfig()
		cfg.ApplyFile(file)
		cfg.Targets = []string{"."}
		if err := cfg.Validate(); err != nil {
			t.Errorf("generated config is invalid: %v", err)
		}
		if !slices.Equal(cfg.Extensions, []string{"jar", "war", "ear"}) {
			t.Errorf("unexpected extensions %v", cfg.Extensions)
		}
		if cfg.PollInterval != config.DefaultPollInterval {
			t.Errorf("expected poll interval %v, got %v", config.DefaultPollInterval, cfg.PollInterval)
		}
	})

	t.Run("fails if file exists without force", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), config.DefaultConfigFile)
		if err := os.WriteFile(outputPath, []byte("existing"), 0600); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		_, err := runInit(t, "-o", outputPath)
		if err == nil {
			t.Fatal("expected error when file exists")
		}
		if !strings.Contains(err.Error(), "already exists") {
			t.Errorf("expected 'already exists' error, got %v", err)
		}
	})

	t.Run("overwrites file with force flag", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), config.DefaultConfigFile)
		if err := os.WriteFile(outputPath, []byte("existing"), 0600); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		if _, err := runInit(t, "-o", outputPath, "-f"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		if string(content) == "existing" {
			t.Error("expected file to be overwritten")
		}
	})

	t.Run("creates parent directories", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), "nested", "dir", "classver.yaml")
		if _, err := runInit(t, "-o", outputPath); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(outputPath); err != nil {
			t.Errorf("expected config file to be created: %v", err)
		}
	})
}
