package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/classver/internal/model"
)

const (
	// DefaultInitialDelay is the wait before the first poll.
	DefaultInitialDelay = 100 * time.Millisecond

	// DefaultInterval is the wait between the end of one poll and the start
	// of the next.
	DefaultInterval = 450 * time.Millisecond
)

// Source is the read side of a running scan. *scanner.Engine implements it.
type Source interface {
	// Drain removes and returns the results published since the last call.
	Drain() []model.Result

	// FilesScanned returns the number of files scanned so far.
	FilesScanned() int64

	// ClassFilesScanned returns the number of class versions read so far.
	ClassFilesScanned() int64
}

// Sink consumes what the poller collects. Its methods are called from the
// goroutine running Poller.Run, one call at a time.
type Sink interface {
	// OnResults receives a non-empty batch of results in publication order.
	OnResults(results []model.Result)

	// OnProgress receives a counter snapshot after every poll.
	OnProgress(p model.Progress)
}

// Poller periodically moves results from a Source to a Sink while a
// Controller's scan runs.
type Poller struct {
	ctrl   *Controller
	source Source
	sink   Sink
	logger *slog.Logger

	initialDelay time.Duration
	interval     time.Duration
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInitialDelay sets the wait before the first poll.
func WithInitialDelay(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d >= 0 {
			p.initialDelay = d
		}
	}
}

// WithInterval sets the fixed delay between polls. Non-positive values are
// ignored.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithPollerLogger sets a custom logger for the poller.
func WithPollerLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = logger
	}
}

// NewPoller creates a Poller that reads source while ctrl's scan runs and
// reports to sink.
func NewPoller(ctrl *Controller, source Source, sink Sink, opts ...PollerOption) *Poller {
	p := &Poller{
		ctrl:         ctrl,
		source:       source,
		sink:         sink,
		initialDelay: DefaultInitialDelay,
		interval:     DefaultInterval,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// Run polls until the scan completes, then returns the scan's outcome as
// Controller.Result does. It returns ErrNotStarted if the controller was
// never started.
//
// Each poll reads the completion flag first, then drains the source and
// reports progress. The poll that observed completion is the last one, so
// every published result reaches the sink exactly once.
//
// Cancelling ctx stops the waiting between polls but not the final drain:
// Run still waits for the scan to complete, which a scan sharing ctx does
// after the item in progress.
func (p *Poller) Run(ctx context.Context) error {
	if p.ctrl.StartedAt().IsZero() {
		return ErrNotStarted
	}

	wait := p.initialDelay
	polls := 0

	for {
		if !p.sleep(ctx, wait) {
			<-p.ctrl.Done()
		}

		done := p.ctrl.IsDone()
		p.poll()
		polls++

		if done {
			break
		}
		wait = p.interval
	}

	p.logger.Debug("polling finished", "scan_id", p.ctrl.ID(), "polls", polls)
	return p.ctrl.Result()
}

// poll drains the source and reports a progress snapshot.
func (p *Poller) poll() {
	if results := p.source.Drain(); len(results) > 0 {
		p.sink.OnResults(results)
	}
	p.sink.OnProgress(p.progress())
}

// progress snapshots the counters, classes first.
func (p *Poller) progress() model.Progress {
	classes := p.source.ClassFilesScanned()
	files := p.source.FilesScanned()

	var elapsed time.Duration
	if started := p.ctrl.StartedAt(); !started.IsZero() {
		elapsed = time.Since(started)
	}

	return model.Progress{
		Files:   files,
		Classes: classes,
		Elapsed: elapsed,
	}
}

// sleep waits for d, returning early when the scan completes. It returns
// false when ctx is cancelled first.
func (p *Poller) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-p.ctrl.Done():
		return true
	case <-ctx.Done():
		return false
	}
}
