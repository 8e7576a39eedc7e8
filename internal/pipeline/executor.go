// Package pipeline sequences the four analysis stages for one job and owns
// the translation of stage failures into the job's terminal state.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"media-analyzer/internal/model"
	"media-analyzer/internal/stage"
	"media-analyzer/internal/store"
)

// Executor runs the fetch -> extract -> transcribe -> classify sequence for
// one job at a time. Intermediate stage outputs live only on the executing
// goroutine's stack; nothing partial is ever persisted.
type Executor struct {
	store        store.JobStore
	fetcher      stage.Fetcher
	extractor    stage.AudioExtractor
	transcriber  stage.Transcriber
	classifier   stage.Classifier
	stageTimeout time.Duration
	retry        stage.RetryPolicy
	logger       *slog.Logger
}

// Options bundles the executor's collaborators.
type Options struct {
	Store        store.JobStore
	Fetcher      stage.Fetcher
	Extractor    stage.AudioExtractor
	Transcriber  stage.Transcriber
	Classifier   stage.Classifier
	StageTimeout time.Duration
	Retry        stage.RetryPolicy
	Logger       *slog.Logger
}

func New(opts Options) *Executor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		store:        opts.Store,
		fetcher:      opts.Fetcher,
		extractor:    opts.Extractor,
		transcriber:  opts.Transcriber,
		classifier:   opts.Classifier,
		stageTimeout: opts.StageTimeout,
		retry:        opts.Retry,
		logger:       logger,
	}
}

// Run drives the job to a terminal state. The returned error reports
// infrastructure faults (store unavailable) only; a stage failure is
// recorded on the job and is not an error of Run itself.
func (e *Executor) Run(ctx context.Context, job *model.Job) error {
	var fetched stage.FetchOutput
	if err := e.runStage(ctx, job, model.StageFetch, func(ctx context.Context) error {
		out, err := e.fetcher.Fetch(ctx, job.SourceRef)
		if err != nil {
			return err
		}
		fetched = out
		return nil
	}); err != nil {
		return e.finishFailed(ctx, job, model.StageFetch, err)
	}

	if fetched.Source.Title != "" {
		if err := e.store.SetTitle(ctx, job.ID, fetched.Source.Title); err != nil {
			e.logger.Warn("failed to record source title", "job_id", job.ID, "error", err)
		}
	}

	var audioHandle string
	if err := e.runStage(ctx, job, model.StageExtract, func(ctx context.Context) error {
		handle, err := e.extractor.Extract(ctx, fetched.Media)
		if err != nil {
			return err
		}
		audioHandle = handle
		return nil
	}); err != nil {
		return e.finishFailed(ctx, job, model.StageExtract, err)
	}

	var transcript model.Transcript
	if err := e.runStage(ctx, job, model.StageTranscribe, func(ctx context.Context) error {
		t, err := e.transcriber.Transcribe(ctx, audioHandle)
		if err != nil {
			return err
		}
		transcript = t
		return nil
	}); err != nil {
		return e.finishFailed(ctx, job, model.StageTranscribe, err)
	}

	var analysis model.Analysis
	if err := e.runStage(ctx, job, model.StageClassify, func(ctx context.Context) error {
		a, err := e.classifier.Classify(ctx, transcript.Text)
		if err != nil {
			return err
		}
		analysis = a
		return nil
	}); err != nil {
		return e.finishFailed(ctx, job, model.StageClassify, err)
	}

	result := &model.Result{
		Source:      fetched.Source,
		Transcript:  transcript,
		Analysis:    analysis,
		ProcessedAt: time.Now().UTC(),
	}
	if err := e.store.CompleteWithResult(ctx, job.ID, result); err != nil {
		return err
	}

	e.logger.Info("job completed", "job_id", job.ID, "ai_score", analysis.AIGeneratedScore)
	return nil
}

// runStage marks the job with the stage's in-progress status, then invokes
// the adapter under the per-stage timeout and retry policy.
func (e *Executor) runStage(ctx context.Context, job *model.Job, s model.Stage, fn func(ctx context.Context) error) error {
	if err := e.store.UpdateStatus(ctx, job.ID, s.Status()); err != nil {
		return err
	}

	e.logger.Debug("stage starting", "job_id", job.ID, "stage", s)
	return e.retry.Do(ctx, func(ctx context.Context) error {
		if e.stageTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.stageTimeout)
			defer cancel()
		}
		return fn(ctx)
	})
}

// finishFailed records the stage failure as the job's terminal state. A
// store transition error here is an infrastructure fault and propagates.
func (e *Executor) finishFailed(ctx context.Context, job *model.Job, s model.Stage, cause error) error {
	failure := stage.Fail(s, cause)
	e.logger.Error("job failed", "job_id", job.ID, "stage", failure.Stage, "error", cause)

	if err := e.store.CompleteWithError(ctx, job.ID, failure.Stage, failure.Error()); err != nil {
		return err
	}
	return nil
}
