package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nao1215/classver/internal/config"
)

//go:embed templates/classver.yaml
var configTemplate embed.FS

// templatePath is the embedded configuration template.
const templatePath = "templates/classver.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new classver configuration file",
		Long: `Initialize creates a new .classver.yaml configuration file in the current directory.

The generated file includes:
- Default container extensions and report layout
- Documentation for all available options

Examples:
  # Create .classver.yaml in current directory
  classver init

  # Create config file at a specific path
  classver init -o myconfig.yaml

  # Force overwrite existing file
  classver init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	// The template must load the same way the scan command loads it.
	var probe config.File
	if err := yaml.Unmarshal(content, &probe); err != nil {
		return fmt.Errorf("invalid config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to change defaults such as:")
	fmt.Fprintln(out, "  - Container extensions to open")
	fmt.Fprintln(out, "  - Report grouping and format")
	fmt.Fprintln(out, "  - Progress and log settings")

	return nil
}
