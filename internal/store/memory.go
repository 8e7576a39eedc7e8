package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"media-analyzer/internal/model"
)

// MemoryStore is the reference JobStore: a mutex-guarded map. It satisfies
// the full contract but loses state on restart; production deployments use
// SQLiteStore.
type MemoryStore struct {
	mu    sync.RWMutex
	jobs  map[string]*model.Job
	order []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*model.Job)}
}

func (s *MemoryStore) Create(ctx context.Context, sourceRef string) (*model.Job, error) {
	now := time.Now().UTC()
	job := &model.Job{
		ID:        uuid.New().String(),
		SourceRef: sourceRef,
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)
	s.mu.Unlock()

	snapshot := *job
	return &snapshot, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	snapshot := *job
	return &snapshot, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if status.Terminal() {
		return fmt.Errorf("%w: %s -> %s must go through a terminal mutator", ErrInvalidTransition, job.Status, status)
	}
	if !model.CanTransition(job.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, status)
	}

	job.Status = status
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) SetTitle(ctx context.Context, id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	job.Title = title
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) CompleteWithResult(ctx context.Context, id string, result *model.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if !model.CanTransition(job.Status, model.StatusCompleted) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, model.StatusCompleted)
	}

	now := time.Now().UTC()
	job.Status = model.StatusCompleted
	job.Result = result
	job.FailedStage = ""
	job.ErrorMessage = ""
	job.UpdatedAt = now
	job.CompletedAt = &now
	return nil
}

func (s *MemoryStore) CompleteWithError(ctx context.Context, id string, stage model.Stage, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if !model.CanTransition(job.Status, model.StatusFailed) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, model.StatusFailed)
	}

	now := time.Now().UTC()
	job.Status = model.StatusFailed
	job.Result = nil
	job.FailedStage = stage
	job.ErrorMessage = message
	job.UpdatedAt = now
	job.CompletedAt = &now
	return nil
}

func (s *MemoryStore) List(ctx context.Context, opts ListOptions) ([]model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := opts.Limit
	if limit <= 0 {
		limit = len(s.order)
	}

	jobs := make([]model.Job, 0, limit)
	skipped := 0
	for i := len(s.order) - 1; i >= 0 && len(jobs) < limit; i-- {
		job := s.jobs[s.order[i]]
		if opts.Status != nil && job.Status != *opts.Status {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
