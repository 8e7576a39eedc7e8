package store

import (
	"context"
	"errors"

	"media-analyzer/internal/model"
)

// ErrNotFound is returned when a job id is unknown to the store.
var ErrNotFound = errors.New("job not found")

// ErrInvalidTransition is returned when a status update would regress the
// job or leave a terminal state.
var ErrInvalidTransition = errors.New("invalid status transition")

// ListOptions configures job listing. Jobs are always returned
// most-recent-first.
type ListOptions struct {
	Limit  int
	Offset int
	Status *model.Status
}

// JobStore is the single source of truth for job state. All mutators are
// atomic with respect to one job id. Implementations must be safe for
// concurrent use by the intake API and the worker pool.
type JobStore interface {
	// Create records a new job in pending status and returns it.
	Create(ctx context.Context, sourceRef string) (*model.Job, error)

	// Get returns a snapshot of the job, or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Job, error)

	// UpdateStatus advances the job to a non-terminal status, refreshing
	// updated_at. Returns ErrInvalidTransition if the move is not a legal
	// forward step.
	UpdateStatus(ctx context.Context, id string, status model.Status) error

	// SetTitle records the source title as soon as the fetch stage learns
	// it, so status polls can show it before completion.
	SetTitle(ctx context.Context, id, title string) error

	// CompleteWithResult moves the job to completed and stores the
	// aggregate result.
	CompleteWithResult(ctx context.Context, id string, result *model.Result) error

	// CompleteWithError moves the job to failed, recording the originating
	// stage and a human-readable message.
	CompleteWithError(ctx context.Context, id string, stage model.Stage, message string) error

	// List returns job snapshots ordered most-recent-first.
	List(ctx context.Context, opts ListOptions) ([]model.Job, error)

	Close() error
}
