package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for classver.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classver",
		Short: "Report the Java versions of class files",
		Long: `classver scans class files, directories and archives and reports the
Java release each class file was compiled for.

Archives are opened by extension (jar by default) and archives nested inside
them are scanned too, so a war holding jars is reported class by class.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
