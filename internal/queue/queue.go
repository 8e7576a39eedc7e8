package queue

import (
	"context"
	"errors"
)

// ErrClosed is returned once the queue has been shut down.
var ErrClosed = errors.New("queue closed")

// Queue decouples job submission from processing. Each enqueued id is
// delivered to exactly one concurrent consumer; FIFO order is best-effort
// and not load-bearing, since jobs are independent.
type Queue interface {
	// Enqueue makes the job id available to one consumer.
	Enqueue(ctx context.Context, jobID string) error

	// Dequeue blocks until an id is available or ctx is cancelled, in
	// which case it returns ctx.Err().
	Dequeue(ctx context.Context) (string, error)

	Close() error
}
