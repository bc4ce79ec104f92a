package scanner

import (
	"fmt"
	"sync"
	"testing"

	"github.com/nao1215/classver/internal/model"
)

func TestQueue(t *testing.T) {
	t.Parallel()

	t.Run("drain of an empty queue returns nil", func(t *testing.T) {
		t.Parallel()

		q := NewQueue()
		if got := q.Drain(); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("drain keeps FIFO order and empties the queue", func(t *testing.T) {
		t.Parallel()

		q := NewQueue()
		q.Push(model.NewFailure("first"))
		q.Push(model.NewFailure("second"))

		if q.Len() != 2 {
			t.Fatalf("expected 2 items, got %d", q.Len())
		}

		got := q.Drain()
		if len(got) != 2 || got[0].String() != "first" || got[1].String() != "second" {
			t.Errorf("unexpected drain result %v", got)
		}
		if q.Len() != 0 {
			t.Errorf("expected empty queue, got %d items", q.Len())
		}
		if again := q.Drain(); again != nil {
			t.Errorf("expected nil on second drain, got %v", again)
		}
	})

	t.Run("concurrent push and drain deliver every item once", func(t *testing.T) {
		t.Parallel()

		const producers = 4
		const perProducer = 500

		q := NewQueue()
		var wg sync.WaitGroup
		for i := range producers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := range perProducer {
					q.Push(model.NewFailure("%d-%d", i, j))
				}
			}()
		}

		seen := make(map[string]int)
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

	loop:
		for {
			for _, r := range q.Drain() {
				seen[r.String()]++
			}
			select {
			case <-done:
				break loop
			default:
			}
		}
		for _, r := range q.Drain() {
			seen[r.String()]++
		}

		if len(seen) != producers*perProducer {
			t.Fatalf("expected %d distinct items, got %d", producers*perProducer, len(seen))
		}
		for i := range producers {
			for j := range perProducer {
				key := fmt.Sprintf("%d-%d", i, j)
				if seen[key] != 1 {
					t.Errorf("item %s delivered %d times", key, seen[key])
				}
			}
		}
	})
}
