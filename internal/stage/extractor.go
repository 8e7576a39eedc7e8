package stage

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"media-analyzer/internal/artifact"
	"media-analyzer/internal/model"
)

// FFmpegExtractor converts fetched media into 16 kHz mono WAV, the format
// the transcriber works best with.
type FFmpegExtractor struct {
	runner    CommandRunner
	artifacts ArtifactStore
	binPath   string
	tempDir   string
}

func NewFFmpegExtractor(runner CommandRunner, artifacts ArtifactStore, binPath, tempDir string) *FFmpegExtractor {
	return &FFmpegExtractor{runner: runner, artifacts: artifacts, binPath: binPath, tempDir: tempDir}
}

func (e *FFmpegExtractor) Extract(ctx context.Context, mediaHandle string) (string, error) {
	handle, err := artifact.ParseHandle(mediaHandle)
	if err != nil {
		return "", Fail(model.StageExtract, err)
	}

	inputPath, err := e.artifacts.Download(ctx, handle, e.tempDir)
	if err != nil {
		return "", Fail(model.StageExtract, err)
	}
	defer os.Remove(inputPath)

	wavPath := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".wav"
	defer os.Remove(wavPath)

	res, err := e.runner.Run(ctx, e.binPath,
		"-y",
		"-i", inputPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		wavPath,
	)
	if err != nil {
		return "", Failf(model.StageExtract, "ffmpeg: %v: %s", err, trimmedStderr(res))
	}

	uploaded, err := e.artifacts.Upload(ctx, wavPath, "audio/"+filepath.Base(wavPath), "audio/wav")
	if err != nil {
		return "", Fail(model.StageExtract, err)
	}
	return uploaded.String(), nil
}
