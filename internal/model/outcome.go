package model

// Outcome is a tagged view of a job keyed by its status, so consumers switch
// on the variant instead of probing optional fields.
type Outcome interface {
	isOutcome()
}

// InProgress covers pending and every in-flight stage status.
type InProgress struct {
	Status Status
}

// Completed carries the aggregate result.
type Completed struct {
	Result *Result
}

// Failed carries the originating stage and cause text.
type Failed struct {
	Stage   Stage
	Message string
}

func (InProgress) isOutcome() {}
func (Completed) isOutcome()  {}
func (Failed) isOutcome()     {}

// Outcome derives the variant matching the job's current status.
func (j *Job) Outcome() Outcome {
	switch j.Status {
	case StatusCompleted:
		return Completed{Result: j.Result}
	case StatusFailed:
		return Failed{Stage: j.FailedStage, Message: j.ErrorMessage}
	default:
		return InProgress{Status: j.Status}
	}
}
