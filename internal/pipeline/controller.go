package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Scanner is the work a Controller runs. *scanner.Engine implements it.
type Scanner interface {
	Scan(ctx context.Context) error
}

// Controller runs one scan on a background goroutine and exposes its
// completion.
//
// The outcome is nil when the scan finished, ctx.Err() when it was
// cancelled, ErrScanPanicked (wrapped) when it panicked, or whatever other
// error the Scanner returned.
type Controller struct {
	// id identifies the run in logs and reports.
	id string

	scanner Scanner
	logger  *slog.Logger

	group errgroup.Group
	done  chan struct{}

	// err is written before done is closed and read only after.
	err error

	startedAt atomic.Pointer[time.Time]
	started   atomic.Bool
	taken     atomic.Bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets a custom logger for the controller. Every line it logs
// carries the scan ID.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithScanID overrides the generated scan ID.
func WithScanID(id string) Option {
	return func(c *Controller) {
		c.id = id
	}
}

// NewController creates a Controller for s. The scan does not run until
// Start is called.
func NewController(s Scanner, opts ...Option) *Controller {
	c := &Controller{
		scanner: s,
		done:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.id == "" {
		c.id = uuid.NewString()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("scan_id", c.id)

	return c
}

// ID returns the scan ID.
func (c *Controller) ID() string {
	return c.id
}

// StartedAt returns the time Start was called, or the zero time before.
func (c *Controller) StartedAt() time.Time {
	if t := c.startedAt.Load(); t != nil {
		return *t
	}
	return time.Time{}
}

// Start launches the scan and returns immediately. It returns
// ErrAlreadyStarted if the controller was started before.
func (c *Controller) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	start := time.Now()
	c.startedAt.Store(&start)

	c.logger.Info("scan started")

	c.group.Go(func() error {
		err := c.run(ctx)
		c.err = err
		close(c.done)

		if err != nil {
			c.logger.Error("scan ended with error",
				"error", err,
				"elapsed", time.Since(start),
			)
		} else {
			c.logger.Info("scan completed", "elapsed", time.Since(start))
		}
		return err
	})

	return nil
}

// run calls the scanner, turning a panic into an error.
func (c *Controller) run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("scan panicked", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", ErrScanPanicked, r)
		}
	}()

	return c.scanner.Scan(ctx)
}

// Done returns a channel that is closed when the scan completes.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// IsDone reports whether the scan has completed. It never blocks.
func (c *Controller) IsDone() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Err returns the outcome of a completed scan, or nil while it is running.
// Unlike Result it can be called any number of times.
func (c *Controller) Err() error {
	if !c.IsDone() {
		return nil
	}
	return c.err
}

// Result waits for the scan to complete and returns its outcome. The
// outcome is handed out once: later calls return ErrOutcomeTaken.
func (c *Controller) Result() error {
	if !c.started.Load() {
		return ErrNotStarted
	}
	if !c.taken.CompareAndSwap(false, true) {
		return ErrOutcomeTaken
	}
	return c.group.Wait()
}
