package pipeline

import "errors"

var (
	// ErrAlreadyStarted is returned when Start is called more than once.
	ErrAlreadyStarted = errors.New("scan already started")

	// ErrNotStarted is returned when the outcome of a scan that was never
	// started is requested.
	ErrNotStarted = errors.New("scan not started")

	// ErrOutcomeTaken is returned by Result after the outcome has been
	// consumed.
	ErrOutcomeTaken = errors.New("scan outcome already taken")

	// ErrScanPanicked is returned when the scan goroutine panics.
	ErrScanPanicked = errors.New("scan panicked")
)
