package stage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"media-analyzer/internal/artifact"
	"media-analyzer/internal/model"
)

// fakeRunner replays canned behavior per invocation and records every call.
type fakeRunner struct {
	calls [][]string
	run   func(call int, name string, args []string) (CommandResult, error)
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	call := len(r.calls)
	r.calls = append(r.calls, append([]string{name}, args...))
	if r.run == nil {
		return CommandResult{}, nil
	}
	return r.run(call, name, args)
}

// fakeArtifacts stands in for object storage: Download materializes a file,
// Upload records what was stored.
type fakeArtifacts struct {
	uploads []string
}

func (a *fakeArtifacts) Upload(ctx context.Context, localPath, object, contentType string) (artifact.Handle, error) {
	a.uploads = append(a.uploads, object)
	return artifact.Handle{Bucket: "test", Object: object}, nil
}

func (a *fakeArtifacts) Download(ctx context.Context, h artifact.Handle, destDir string) (string, error) {
	localPath := filepath.Join(destDir, filepath.Base(h.Object))
	if err := os.WriteFile(localPath, []byte("media bytes"), 0o644); err != nil {
		return "", err
	}
	return localPath, nil
}

func TestParseHandle(t *testing.T) {
	h, err := artifact.ParseHandle("bucket/media/file.m4a")
	if err != nil {
		t.Fatalf("ParseHandle() error = %v", err)
	}
	if h.Bucket != "bucket" || h.Object != "media/file.m4a" {
		t.Errorf("handle = %+v", h)
	}

	for _, bad := range []string{"", "nobucket", "/leading"} {
		if _, err := artifact.ParseHandle(bad); err == nil {
			t.Errorf("ParseHandle(%q) accepted malformed handle", bad)
		}
	}
}

func TestYTDLPFetcher(t *testing.T) {
	meta := map[string]interface{}{
		"id":          "valid-id-1",
		"title":       "A Video",
		"uploader":    "someone",
		"duration":    321.5,
		"thumbnail":   "https://img.example.com/t.jpg",
		"description": strings.Repeat("d", 600),
	}
	metaJSON, _ := json.Marshal(meta)

	t.Run("success", func(t *testing.T) {
		runner := &fakeRunner{run: func(call int, name string, args []string) (CommandResult, error) {
			if call == 0 {
				return CommandResult{Stdout: string(metaJSON)}, nil
			}
			return CommandResult{}, nil
		}}
		artifacts := &fakeArtifacts{}
		f := NewYTDLPFetcher(runner, artifacts, "yt-dlp", t.TempDir())

		out, err := f.Fetch(context.Background(), "https://example.com/watch?v=valid-id-1")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if out.Source.Title != "A Video" || out.Source.DurationSeconds != 321.5 {
			t.Errorf("source = %+v", out.Source)
		}
		if len(out.Source.Description) != 500 {
			t.Errorf("description length = %d, want truncation to 500", len(out.Source.Description))
		}
		if !strings.HasPrefix(out.Media, "test/media/") {
			t.Errorf("media handle = %q, want test/media/ prefix", out.Media)
		}
		if len(runner.calls) != 2 {
			t.Fatalf("yt-dlp invoked %d times, want 2", len(runner.calls))
		}
		if runner.calls[0][1] != "--dump-json" {
			t.Errorf("first call args = %v, want metadata probe", runner.calls[0])
		}
		if len(artifacts.uploads) != 1 {
			t.Errorf("uploads = %v, want exactly one", artifacts.uploads)
		}
	})

	t.Run("probe failure", func(t *testing.T) {
		runner := &fakeRunner{run: func(call int, name string, args []string) (CommandResult, error) {
			return CommandResult{Stderr: "ERROR: video unavailable", ExitCode: 1}, errors.New("exit status 1")
		}}
		f := NewYTDLPFetcher(runner, &fakeArtifacts{}, "yt-dlp", t.TempDir())

		_, err := f.Fetch(context.Background(), "https://example.com/watch?v=gone")
		var stageErr *Error
		if !errors.As(err, &stageErr) {
			t.Fatalf("Fetch() error = %T, want *stage.Error", err)
		}
		if stageErr.Stage != model.StageFetch {
			t.Errorf("stage = %s, want fetch", stageErr.Stage)
		}
		if !strings.Contains(stageErr.Error(), "video unavailable") {
			t.Errorf("error %q does not carry the tool's stderr", stageErr.Error())
		}
	})
}

func TestFFmpegExtractor(t *testing.T) {
	runner := &fakeRunner{}
	artifacts := &fakeArtifacts{}
	e := NewFFmpegExtractor(runner, artifacts, "ffmpeg", t.TempDir())

	handle, err := e.Extract(context.Background(), "test/media/clip.m4a")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.HasSuffix(handle, ".wav") {
		t.Errorf("audio handle = %q, want .wav artifact", handle)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("ffmpeg invoked %d times, want 1", len(runner.calls))
	}
	args := strings.Join(runner.calls[0], " ")
	for _, want := range []string{"-vn", "-acodec pcm_s16le", "-ar 16000", "-ac 1"} {
		if !strings.Contains(args, want) {
			t.Errorf("ffmpeg args %q missing %q", args, want)
		}
	}

	t.Run("malformed handle", func(t *testing.T) {
		_, err := e.Extract(context.Background(), "nobucket")
		var stageErr *Error
		if !errors.As(err, &stageErr) || stageErr.Stage != model.StageExtract {
			t.Errorf("error = %v, want extract stage error", err)
		}
	})
}

func TestWhisperTranscriber(t *testing.T) {
	whisperJSON := `{
		"result": {"language": "en"},
		"transcription": [
			{"offsets": {"from": 0, "to": 2500}, "text": " hello there "},
			{"offsets": {"from": 2500, "to": 5000}, "text": " general listener"},
			{"offsets": {"from": 5000, "to": 5100}, "text": "  "}
		]
	}`

	tempDir := t.TempDir()
	runner := &fakeRunner{run: func(call int, name string, args []string) (CommandResult, error) {
		// The CLI writes its JSON next to the -of prefix.
		var prefix string
		for i, a := range args {
			if a == "-of" && i+1 < len(args) {
				prefix = args[i+1]
			}
		}
		if prefix == "" {
			return CommandResult{}, errors.New("missing -of")
		}
		return CommandResult{}, os.WriteFile(prefix+".json", []byte(whisperJSON), 0o644)
	}}

	tr := NewWhisperTranscriber(runner, &fakeArtifacts{}, "whisper-cli", "models/ggml-base.bin", tempDir)

	transcript, err := tr.Transcribe(context.Background(), "test/audio/clip.wav")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if transcript.Language != "en" {
		t.Errorf("language = %q, want en", transcript.Language)
	}
	if transcript.Text != "hello there general listener" {
		t.Errorf("text = %q", transcript.Text)
	}
	if len(transcript.Segments) != 2 {
		t.Fatalf("segments = %d, want 2 (blank dropped)", len(transcript.Segments))
	}
	if transcript.Segments[0].EndSec != 2.5 {
		t.Errorf("segment end = %v, want 2.5s", transcript.Segments[0].EndSec)
	}
}

func TestStageErrorWrapping(t *testing.T) {
	cause := errors.New("root cause")
	err := Fail(model.StageTranscribe, cause)

	if !errors.Is(err, cause) {
		t.Error("stage error does not unwrap to cause")
	}
	if !strings.Contains(err.Error(), "transcribe") {
		t.Errorf("error %q does not name its stage", err.Error())
	}

	// Wrapping an already-wrapped error keeps the original stage.
	rewrapped := Fail(model.StageClassify, err)
	if rewrapped.Stage != model.StageTranscribe {
		t.Errorf("rewrapped stage = %s, want original transcribe", rewrapped.Stage)
	}
}
