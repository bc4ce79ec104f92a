package scanner

import (
	"sync"

	"github.com/nao1215/classver/internal/model"
)

// Queue is an unbounded FIFO of results handed from the scan goroutine to
// pollers. It has no back pressure: results accumulate until drained.
type Queue struct {
	mu    sync.Mutex
	items []model.Result
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends a result.
func (q *Queue) Push(r model.Result) {
	q.mu.Lock()
	q.items = append(q.items, r)
	q.mu.Unlock()
}

// Drain removes and returns every queued result in FIFO order. It returns
// nil when the queue is empty and never waits for new results. A result is
// returned by exactly one Drain call.
func (q *Queue) Drain() []model.Result {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	items := q.items
	q.items = nil
	return items
}

// Len returns the number of queued results.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
