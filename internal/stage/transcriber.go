package stage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"media-analyzer/internal/artifact"
	"media-analyzer/internal/model"
)

// WhisperTranscriber shells out to a whisper.cpp CLI with JSON output and
// turns its segments into a Transcript.
type WhisperTranscriber struct {
	runner    CommandRunner
	artifacts ArtifactStore
	binPath   string
	modelPath string
	tempDir   string
}

func NewWhisperTranscriber(runner CommandRunner, artifacts ArtifactStore, binPath, modelPath, tempDir string) *WhisperTranscriber {
	return &WhisperTranscriber{
		runner:    runner,
		artifacts: artifacts,
		binPath:   binPath,
		modelPath: modelPath,
		tempDir:   tempDir,
	}
}

// whisperOutput mirrors the whisper.cpp -oj JSON file.
type whisperOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, audioHandle string) (model.Transcript, error) {
	handle, err := artifact.ParseHandle(audioHandle)
	if err != nil {
		return model.Transcript{}, Fail(model.StageTranscribe, err)
	}

	audioPath, err := t.artifacts.Download(ctx, handle, t.tempDir)
	if err != nil {
		return model.Transcript{}, Fail(model.StageTranscribe, err)
	}
	defer os.Remove(audioPath)

	outPrefix := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	jsonPath := outPrefix + ".json"
	defer os.Remove(jsonPath)

	res, err := t.runner.Run(ctx, t.binPath,
		"-m", t.modelPath,
		"-f", audioPath,
		"-l", "auto",
		"-oj",
		"-of", outPrefix,
	)
	if err != nil {
		return model.Transcript{}, Failf(model.StageTranscribe, "whisper: %v: %s", err, trimmedStderr(res))
	}

	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return model.Transcript{}, Failf(model.StageTranscribe, "read transcript output: %v", err)
	}

	var out whisperOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return model.Transcript{}, Failf(model.StageTranscribe, "parse transcript output: %v", err)
	}

	transcript := model.Transcript{Language: out.Result.Language}
	var text strings.Builder
	for _, seg := range out.Transcription {
		segText := strings.TrimSpace(seg.Text)
		if segText == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteByte(' ')
		}
		text.WriteString(segText)
		transcript.Segments = append(transcript.Segments, model.Segment{
			StartSec: float64(seg.Offsets.From) / 1000,
			EndSec:   float64(seg.Offsets.To) / 1000,
			Text:     segText,
		})
	}
	transcript.Text = text.String()

	if transcript.Text == "" {
		return model.Transcript{}, Failf(model.StageTranscribe, "empty transcript for %s", audioHandle)
	}
	return transcript, nil
}
