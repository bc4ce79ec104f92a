package main

import (
	"testing"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "classver" {
			t.Errorf("expected use 'classver', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" || cmd.Long == "" {
			t.Error("expected non-empty short and long descriptions")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()

		want := map[string]bool{"scan": false, "compare": false, "init": false, "version": false}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Name()]; ok {
				want[sub.Name()] = true
			}
		}
		for name, found := range want {
			if !found {
				t.Errorf("expected %s subcommand", name)
			}
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage {
			t.Error("expected SilenceUsage to be true")
		}
		if !cmd.SilenceErrors {
			t.Error("expected SilenceErrors to be true")
		}
	})
}
