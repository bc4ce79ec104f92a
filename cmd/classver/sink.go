package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nao1215/classver/internal/database"
	"github.com/nao1215/classver/internal/model"
	"github.com/nao1215/classver/internal/report"
)

// cliSink receives drained results and progress snapshots from the poller.
// Failures are printed to stderr as they arrive, every result is stored in
// the result database, and the progress line is redrawn in place.
//
// The poller calls a sink from a single goroutine, so cliSink needs no
// locking.
type cliSink struct {
	ctx      context.Context
	db       *database.ResultDB
	stderr   io.Writer
	progress bool
	printer  *report.ProgressPrinter
	logger   *slog.Logger

	// last is the latest progress snapshot.
	last model.Progress

	// drawn reports whether a progress line is on screen.
	drawn bool

	// err is the first storage error. Later batches are dropped once set.
	err error
}

// newCLISink creates a cliSink. When progress is false no progress line is
// drawn, but snapshots are still recorded.
func newCLISink(ctx context.Context, db *database.ResultDB, stderr io.Writer, progress bool,
	printer *report.ProgressPrinter, logger *slog.Logger) *cliSink {
	return &cliSink{
		ctx:      ctx,
		db:       db,
		stderr:   stderr,
		progress: progress,
		printer:  printer,
		logger:   logger,
	}
}

// OnResults implements pipeline.Sink.
func (s *cliSink) OnResults(results []model.Result) {
	for _, r := range results {
		if f, ok := r.(model.Failure); ok {
			s.clear()
			fmt.Fprintln(s.stderr, f.Message)
		}
	}

	if s.err != nil {
		return
	}
	// Storing must finish even after cancellation so that partial results
	// are reported.
	if err := s.db.Insert(context.WithoutCancel(s.ctx), results); err != nil {
		s.logger.Error("failed to store results", "count", len(results), "error", err)
		s.err = err
	}
}

// OnProgress implements pipeline.Sink.
func (s *cliSink) OnProgress(p model.Progress) {
	s.last = p
	if !s.progress {
		return
	}
	fmt.Fprint(s.stderr, report.ClearLine+s.printer.Line(p)+"\r")
	s.drawn = true
}

// finish replaces the progress line with the final counters.
func (s *cliSink) finish() {
	if !s.progress {
		return
	}
	s.clear()
	fmt.Fprintf(s.stderr, "%s\nCompleted\n", s.printer.Line(s.last))
}

// clear blanks the progress line if one is drawn.
func (s *cliSink) clear() {
	if s.drawn {
		fmt.Fprint(s.stderr, report.ClearLine)
		s.drawn = false
	}
}

// Last returns the latest progress snapshot.
func (s *cliSink) Last() model.Progress {
	return s.last
}

// Err returns the first error raised while storing results.
func (s *cliSink) Err() error {
	return s.err
}
