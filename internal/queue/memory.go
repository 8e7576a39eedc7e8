package queue

import (
	"context"
	"sync"
)

// MemoryQueue is a channel-backed Queue for single-process deployments.
// The channel gives the single-delivery guarantee by construction.
type MemoryQueue struct {
	ch   chan string
	done chan struct{}
	once sync.Once
}

// NewMemoryQueue creates a queue holding at most buffer pending ids.
func NewMemoryQueue(buffer int) *MemoryQueue {
	if buffer <= 0 {
		buffer = 100
	}
	return &MemoryQueue{
		ch:   make(chan string, buffer),
		done: make(chan struct{}),
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, jobID string) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}

	select {
	case q.ch <- jobID:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (string, error) {
	// Drain pending ids before reporting closure.
	select {
	case jobID := <-q.ch:
		return jobID, nil
	default:
	}

	select {
	case jobID := <-q.ch:
		return jobID, nil
	case <-q.done:
		return "", ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (q *MemoryQueue) Close() error {
	q.once.Do(func() { close(q.done) })
	return nil
}
