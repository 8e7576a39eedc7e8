package model

import "time"

// Status is the lifecycle state of a job. A job moves forward through the
// pipeline order and never regresses; failed is reachable from any
// non-terminal status.
type Status string

const (
	StatusPending      Status = "pending"
	StatusFetching     Status = "fetching"
	StatusExtracting   Status = "extracting"
	StatusTranscribing Status = "transcribing"
	StatusAnalyzing    Status = "analyzing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// statusRank gives the forward pipeline order. Terminal states are not
// ranked; they are handled explicitly in CanTransition.
var statusRank = map[Status]int{
	StatusPending:      0,
	StatusFetching:     1,
	StatusExtracting:   2,
	StatusTranscribing: 3,
	StatusAnalyzing:    4,
}

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusFetching, StatusExtracting, StatusTranscribing,
		StatusAnalyzing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transitions can occur from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether a job may move from one status to the next.
// Only single forward steps are allowed; completed is reachable only from
// analyzing, failed from any non-terminal status.
func CanTransition(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusFailed {
		return true
	}
	if to == StatusCompleted {
		return from == StatusAnalyzing
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank == fromRank+1
}

// Stage names one unit of the pipeline. Stage names appear in failure
// messages and in the failed job record.
type Stage string

const (
	StageFetch      Stage = "fetch"
	StageExtract    Stage = "extract"
	StageTranscribe Stage = "transcribe"
	StageClassify   Stage = "classify"
)

// Stages lists the pipeline stages in execution order.
var Stages = []Stage{StageFetch, StageExtract, StageTranscribe, StageClassify}

// Status returns the in-progress status a job carries while the stage runs.
func (s Stage) Status() Status {
	switch s {
	case StageFetch:
		return StatusFetching
	case StageExtract:
		return StatusExtracting
	case StageTranscribe:
		return StatusTranscribing
	case StageClassify:
		return StatusAnalyzing
	default:
		return StatusPending
	}
}

// StageForStatus maps an in-progress status back to its stage. For pending
// it returns the first stage, since that is what would have run next.
func StageForStatus(s Status) Stage {
	switch s {
	case StatusExtracting:
		return StageExtract
	case StatusTranscribing:
		return StageTranscribe
	case StatusAnalyzing:
		return StageClassify
	default:
		return StageFetch
	}
}

// Job tracks one analysis request from submission to terminal outcome.
// Result and ErrorMessage are mutually exclusive; each is set only by the
// corresponding terminal transition.
type Job struct {
	ID           string     `json:"job_id"`
	SourceRef    string     `json:"source_url"`
	Title        string     `json:"title,omitempty"`
	Status       Status     `json:"status"`
	Result       *Result    `json:"result,omitempty"`
	FailedStage  Stage      `json:"failed_stage,omitempty"`
	ErrorMessage string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Terminal reports whether the job has reached completed or failed.
func (j *Job) Terminal() bool {
	return j.Status.Terminal()
}
