package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"media-analyzer/internal/model"
)

// SQLiteStore is the durable JobStore. Jobs survive process restart; WAL
// mode keeps readers (the intake API) from blocking the writing worker.
type SQLiteStore struct {
	db *sql.DB
}

const createJobsTable = `
CREATE TABLE IF NOT EXISTS jobs (
	id            TEXT PRIMARY KEY,
	source_url    TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'pending',
	result        TEXT,
	failed_stage  TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL,
	completed_at  TEXT
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
`

// NewSQLiteStore opens (creating if needed) the job database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(createJobsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create jobs table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, sourceRef string) (*model.Job, error) {
	now := time.Now().UTC()
	job := &model.Job{
		ID:        uuid.New().String(),
		SourceRef: sourceRef,
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `INSERT INTO jobs (id, source_url, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query,
		job.ID, job.SourceRef, job.Status, formatTime(now), formatTime(now),
	); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return job, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source_url, title, status, result, failed_stage, error_message, created_at, updated_at, completed_at
		FROM jobs WHERE id = ?`, id)
	return scanJob(row)
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	if status.Terminal() {
		return fmt.Errorf("%w: %s must go through a terminal mutator", ErrInvalidTransition, status)
	}
	return s.transition(ctx, id, status, func(tx *sql.Tx, now string) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?`,
			status, now, id)
		return err
	})
}

func (s *SQLiteStore) SetTitle(ctx context.Context, id, title string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET title = ?, updated_at = ? WHERE id = ?`,
		title, formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("set title: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) CompleteWithResult(ctx context.Context, id string, result *model.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return s.transition(ctx, id, model.StatusCompleted, func(tx *sql.Tx, now string) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE jobs SET status = ?, result = ?, failed_stage = '', error_message = '',
				updated_at = ?, completed_at = ?
			WHERE id = ?`,
			model.StatusCompleted, string(payload), now, now, id)
		return err
	})
}

func (s *SQLiteStore) CompleteWithError(ctx context.Context, id string, stage model.Stage, message string) error {
	return s.transition(ctx, id, model.StatusFailed, func(tx *sql.Tx, now string) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE jobs SET status = ?, result = NULL, failed_stage = ?, error_message = ?,
				updated_at = ?, completed_at = ?
			WHERE id = ?`,
			model.StatusFailed, stage, message, now, now, id)
		return err
	})
}

// transition checks the current status inside a transaction so concurrent
// mutators cannot produce a regression, then applies the update.
func (s *SQLiteStore) transition(ctx context.Context, id string, to model.Status, apply func(tx *sql.Tx, now string) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback()

	var current model.Status
	err = tx.QueryRowContext(ctx, `SELECT status FROM jobs WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read status: %w", err)
	}
	if !model.CanTransition(current, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, to)
	}

	if err := apply(tx, formatTime(time.Now().UTC())); err != nil {
		return fmt.Errorf("apply transition: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) List(ctx context.Context, opts ListOptions) ([]model.Job, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}

	query := `
		SELECT id, source_url, title, status, result, failed_stage, error_message, created_at, updated_at, completed_at
		FROM jobs`
	args := []interface{}{}
	if opts.Status != nil {
		query += ` WHERE status = ?`
		args = append(args, *opts.Status)
	}
	// rowid order is insertion order, which tracks created_at exactly and
	// sorts reliably, unlike variable-precision timestamp strings.
	query += ` ORDER BY rowid DESC LIMIT ? OFFSET ?`
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	var job model.Job
	var result sql.NullString
	var createdAt, updatedAt string
	var completedAt sql.NullString

	err := row.Scan(
		&job.ID,
		&job.SourceRef,
		&job.Title,
		&job.Status,
		&result,
		&job.FailedStage,
		&job.ErrorMessage,
		&createdAt,
		&updatedAt,
		&completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}

	if result.Valid && result.String != "" {
		var r model.Result
		if err := json.Unmarshal([]byte(result.String), &r); err != nil {
			return nil, fmt.Errorf("unmarshal result for job %s: %w", job.ID, err)
		}
		job.Result = &r
	}

	if job.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if job.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		job.CompletedAt = &t
	}
	return &job, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}
