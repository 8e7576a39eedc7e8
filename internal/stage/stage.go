// Package stage defines the adapter boundary around the four external
// capabilities the pipeline drives, plus the concrete adapters used in
// production. The orchestrator sees every adapter through one uniform
// call/fail contract.
package stage

import (
	"context"
	"fmt"

	"media-analyzer/internal/artifact"
	"media-analyzer/internal/model"
)

// ArtifactStore is the slice of artifact storage the adapters use.
// Satisfied by *artifact.Store.
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, object, contentType string) (artifact.Handle, error)
	Download(ctx context.Context, h artifact.Handle, destDir string) (string, error)
}

// FetchOutput is the fetch stage result: an opaque handle to the retrieved
// media plus its metadata.
type FetchOutput struct {
	Media  string
	Source model.SourceInfo
}

// Fetcher retrieves the remote media named by sourceRef.
type Fetcher interface {
	Fetch(ctx context.Context, sourceRef string) (FetchOutput, error)
}

// AudioExtractor produces an audio artifact from fetched media.
type AudioExtractor interface {
	Extract(ctx context.Context, mediaHandle string) (string, error)
}

// Transcriber converts an audio artifact into a transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audioHandle string) (model.Transcript, error)
}

// Classifier analyzes transcript text for AI-generated and dangerous
// content.
type Classifier interface {
	Classify(ctx context.Context, transcript string) (model.Analysis, error)
}

// Error is the uniform stage failure: the originating stage plus the
// underlying cause. The orchestrator treats all causes alike.
type Error struct {
	Stage model.Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fail wraps err as a failure of the given stage. Already-wrapped errors
// pass through unchanged so the originating stage is preserved.
func Fail(s model.Stage, err error) *Error {
	if stageErr, ok := err.(*Error); ok {
		return stageErr
	}
	return &Error{Stage: s, Err: err}
}

// Failf wraps a formatted cause as a failure of the given stage.
func Failf(s model.Stage, format string, args ...interface{}) *Error {
	return &Error{Stage: s, Err: fmt.Errorf(format, args...)}
}
