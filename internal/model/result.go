package model

import "time"

// Result is the aggregate payload of a completed job, folding the output of
// every pipeline stage. It is assembled once, after the final stage
// succeeds, and never partially persisted.
type Result struct {
	Source      SourceInfo `json:"source"`
	Transcript  Transcript `json:"transcript"`
	Analysis    Analysis   `json:"analysis"`
	ProcessedAt time.Time  `json:"processed_at"`
}

// SourceInfo is the metadata reported by the fetch stage.
type SourceInfo struct {
	ID              string  `json:"id,omitempty"`
	Title           string  `json:"title"`
	Uploader        string  `json:"uploader,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
	Thumbnail       string  `json:"thumbnail,omitempty"`
	Description     string  `json:"description,omitempty"`
}

// Segment is one timestamped span of the transcript.
type Segment struct {
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
	Text     string  `json:"text"`
}

// Transcript is the output of the transcribe stage.
type Transcript struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments,omitempty"`
}

// Analysis is the classifier verdict on the transcript.
type Analysis struct {
	AIGeneratedScore int      `json:"ai_generated_score"`
	Confidence       int      `json:"confidence"`
	AIIndicators     []string `json:"ai_indicators,omitempty"`
	DangerousContent bool     `json:"dangerous_content"`
	DangerSeverity   string   `json:"danger_severity,omitempty"`
	DangerCategories []string `json:"danger_categories,omitempty"`
	Explanation      string   `json:"explanation"`
}
