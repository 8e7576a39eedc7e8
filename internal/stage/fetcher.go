package stage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"media-analyzer/internal/model"
)

// YTDLPFetcher retrieves remote media with yt-dlp. It downloads the best
// audio-only format, which is all later stages need, and parks the file in
// object storage.
type YTDLPFetcher struct {
	runner    CommandRunner
	artifacts ArtifactStore
	binPath   string
	tempDir   string
}

func NewYTDLPFetcher(runner CommandRunner, artifacts ArtifactStore, binPath, tempDir string) *YTDLPFetcher {
	return &YTDLPFetcher{runner: runner, artifacts: artifacts, binPath: binPath, tempDir: tempDir}
}

// ytdlpInfo is the subset of yt-dlp --dump-json output the pipeline keeps.
type ytdlpInfo struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Uploader    string  `json:"uploader"`
	Duration    float64 `json:"duration"`
	Thumbnail   string  `json:"thumbnail"`
	Description string  `json:"description"`
}

func (f *YTDLPFetcher) Fetch(ctx context.Context, sourceRef string) (FetchOutput, error) {
	res, err := f.runner.Run(ctx, f.binPath,
		"--dump-json", "--no-warnings", "--no-playlist", sourceRef)
	if err != nil {
		return FetchOutput{}, Failf(model.StageFetch, "probe source: %v: %s", err, trimmedStderr(res))
	}

	var info ytdlpInfo
	if err := json.Unmarshal([]byte(res.Stdout), &info); err != nil {
		return FetchOutput{}, Failf(model.StageFetch, "parse source metadata: %v", err)
	}
	if len(info.Description) > 500 {
		info.Description = info.Description[:500]
	}

	localPath := filepath.Join(f.tempDir, uuid.New().String()+".m4a")
	defer os.Remove(localPath)

	res, err = f.runner.Run(ctx, f.binPath,
		"-f", "bestaudio", "--no-warnings", "--no-playlist",
		"-o", localPath, sourceRef)
	if err != nil {
		return FetchOutput{}, Failf(model.StageFetch, "download media: %v: %s", err, trimmedStderr(res))
	}

	handle, err := f.artifacts.Upload(ctx, localPath, "media/"+filepath.Base(localPath), "audio/mp4")
	if err != nil {
		return FetchOutput{}, Fail(model.StageFetch, err)
	}

	return FetchOutput{
		Media: handle.String(),
		Source: model.SourceInfo{
			ID:              info.ID,
			Title:           info.Title,
			Uploader:        info.Uploader,
			DurationSeconds: info.Duration,
			Thumbnail:       info.Thumbnail,
			Description:     info.Description,
		},
	}, nil
}

// trimmedStderr keeps failure messages short enough for job records.
func trimmedStderr(res CommandResult) string {
	s := strings.TrimSpace(res.Stderr)
	if len(s) > 1024 {
		s = s[:1024]
	}
	return s
}
