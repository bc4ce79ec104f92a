package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/classver/internal/archive"
	"github.com/nao1215/classver/internal/config"
	"github.com/nao1215/classver/internal/database"
	"github.com/nao1215/classver/internal/log"
	"github.com/nao1215/classver/internal/model"
	"github.com/nao1215/classver/internal/pipeline"
	"github.com/nao1215/classver/internal/report"
	"github.com/nao1215/classver/internal/scanner"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [file-or-directory...]",
		Short: "Scan class files, directories and archives for class versions",
		Long: `Scan reads the version of every class file found in the given targets.

Targets may be class files, containers (files whose extension is listed with
--extensions) or directories, which are searched recursively. Containers
nested inside containers are opened when their extension is listed too.

Problems such as unreadable files or corrupt archives are printed to stderr
as they are found and do not stop the scan.

Examples:
  # Scan a directory of jars
  classver scan /opt/app/lib

  # Scan wars and the jars inside them, grouped by version
  classver scan -e war,jar --group-by version app.war

  # List every class
  classver scan --verbosity 2 app.jar

  # Write a Markdown report
  classver scan -m -o report.md /opt/app

  # Use a custom configuration file
  classver scan -c myconfig.yaml /opt/app`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Scan behavior flags
	cmd.Flags().StringSliceP("extensions", "e", config.DefaultExtensions(),
		"Comma separated extensions of files opened as containers")
	cmd.Flags().Int("verbosity", config.DefaultVerbosity,
		"1 groups classes, 2 prints one line per class")
	cmd.Flags().StringP("group-by", "g", config.GroupByContainer,
		"Grouping at verbosity 1: container or version")

	// Progress flags
	cmd.Flags().Duration("interval", config.DefaultPollInterval,
		"Delay between two progress updates")
	cmd.Flags().Bool("no-progress", false,
		"Disable the progress line on stderr")
	cmd.Flags().String("locale", "",
		"BCP 47 tag for digit grouping in the progress line (default: from LC_ALL, LC_NUMERIC or LANG)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .classver.yaml in current, config or home directory)")

	// Logging flags
	cmd.Flags().String("log-file", "",
		"Also write logs to this file, rotated by size (e.g. "+
			filepath.Join(config.XDGStateDir(), "classver.log")+")")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, closeLog := setupLogger(cfg, cmd.ErrOrStderr())
	defer closeLog()
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runScan(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from defaults, the configuration file and
// the command flags, in that order of precedence.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Locale = config.LocaleFromEnv(os.Getenv)

	var err error

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently keep the defaults if no file found.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	flags := cmd.Flags()

	if flags.Changed("extensions") {
		if cfg.Extensions, err = flags.GetStringSlice("extensions"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("verbosity") {
		if cfg.Verbosity, err = flags.GetInt("verbosity"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("group-by") {
		if cfg.GroupBy, err = flags.GetString("group-by"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("interval") {
		if cfg.PollInterval, err = flags.GetDuration("interval"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("no-progress") {
		if cfg.NoProgress, err = flags.GetBool("no-progress"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("locale") {
		if cfg.Locale, err = flags.GetString("locale"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("log-file") {
		if cfg.LogFile, err = flags.GetString("log-file"); err != nil {
			return nil, err
		}
	}

	jsonReport, err := flags.GetBool("json")
	if err != nil {
		return nil, err
	}
	markdownReport, err := flags.GetBool("markdown")
	if err != nil {
		return nil, err
	}
	switch {
	case jsonReport && markdownReport:
		return nil, config.ErrConflictingReportFormats
	case jsonReport:
		cfg.Format = config.FormatJSON
	case markdownReport:
		cfg.Format = config.FormatMarkdown
	}

	cfg.ReportFile, err = flags.GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Targets = args

	return cfg, nil
}

// setupLogger creates the logger for a scan. When a log file is configured
// logs go to both stderr and the file; the returned function closes the file.
func setupLogger(cfg *config.Config, stderr io.Writer) (*slog.Logger, func()) {
	if cfg.LogFile == "" {
		return log.NewLogger(stderr, cfg.Verbose), func() {}
	}

	file := log.NewFileWriter(cfg.LogFile)
	logger := log.NewLogger(io.MultiWriter(stderr, file), cfg.Verbose)
	return logger, func() {
		if err := file.Close(); err != nil {
			fmt.Fprintf(stderr, "failed to close log file: %v\n", err)
		}
	}
}

// runScan executes the scan and writes the report.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	if len(cfg.Targets) == 0 {
		return errors.New("no targets provided (specify one or more files or directories as arguments)")
	}

	targets := make([]model.ScanTarget, len(cfg.Targets))
	for i, target := range cfg.Targets {
		targets[i] = model.ScanTarget(target)
	}
	exts := archive.NewExtensionSet(cfg.Extensions...)

	engine := scanner.New(targets, exts, scanner.WithLogger(logger))
	ctrl := pipeline.NewController(engine, pipeline.WithLogger(logger))
	logger = logger.With("scan_id", ctrl.ID())

	logger.Info("starting scan",
		"targets", cfg.Targets,
		"extensions", exts.Strings(),
		"verbosity", cfg.Verbosity,
	)

	db, err := database.Open(ctx, ctrl.ID())
	if err != nil {
		return fmt.Errorf("failed to open result database: %w", err)
	}
	defer db.Close()

	sink := newCLISink(ctx, db, stderr, !cfg.NoProgress, report.NewProgressPrinter(cfg.Locale), logger)

	if err := ctrl.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scan: %w", err)
	}

	poller := pipeline.NewPoller(ctrl, engine, sink,
		pipeline.WithInterval(cfg.PollInterval),
		pipeline.WithPollerLogger(logger),
	)
	scanErr := poller.Run(ctx)
	sink.finish()

	if err := sink.Err(); err != nil {
		return fmt.Errorf("failed to store results: %w", err)
	}

	summary := &model.Summary{
		ScanID:     ctrl.ID(),
		StartedAt:  ctrl.StartedAt(),
		Progress:   sink.Last(),
		Extensions: exts.Strings(),
	}
	if scanErr != nil {
		summary.Error = scanErr.Error()
	}

	// The scan context may be cancelled already; partial results are still
	// aggregated and reported.
	if err := db.Summarize(context.WithoutCancel(ctx), summary, cfg.Verbosity >= 2); err != nil {
		return fmt.Errorf("failed to aggregate results: %w", err)
	}

	if err := outputReport(cfg, summary, stdout); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if scanErr != nil {
		return fmt.Errorf("scan failed: %w", scanErr)
	}
	return nil
}

// outputReport writes the summary in the configured format, to the report
// file when one is set and to stdout otherwise.
func outputReport(cfg *config.Config, summary *model.Summary, stdout io.Writer) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	_, err := newReportWriter(cfg, output).Write(summary)
	return err
}

// newReportWriter returns the writer for the configured format.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	layout := report.Layout{
		Verbosity: cfg.Verbosity,
		GroupBy:   report.GroupBy(cfg.GroupBy),
	}

	switch cfg.Format {
	case config.FormatJSON:
		return report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithToolVersion(getVersion()))
	case config.FormatMarkdown:
		return report.NewMarkdownWriter(output, report.WithMarkdownLayout(layout))
	default:
		return report.NewTextWriter(output, report.WithLayout(layout))
	}
}
