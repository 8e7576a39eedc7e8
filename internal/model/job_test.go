package model

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"pending to fetching", StatusPending, StatusFetching, true},
		{"fetching to extracting", StatusFetching, StatusExtracting, true},
		{"extracting to transcribing", StatusExtracting, StatusTranscribing, true},
		{"transcribing to analyzing", StatusTranscribing, StatusAnalyzing, true},
		{"analyzing to completed", StatusAnalyzing, StatusCompleted, true},
		{"pending to failed", StatusPending, StatusFailed, true},
		{"transcribing to failed", StatusTranscribing, StatusFailed, true},
		{"skip a stage", StatusPending, StatusExtracting, false},
		{"regress", StatusTranscribing, StatusFetching, false},
		{"completed early", StatusFetching, StatusCompleted, false},
		{"leave completed", StatusCompleted, StatusFailed, false},
		{"leave failed", StatusFailed, StatusFetching, false},
		{"unknown from", Status("bogus"), StatusFetching, false},
		{"unknown to", StatusPending, Status("bogus"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestStageStatusRoundTrip(t *testing.T) {
	for _, s := range Stages {
		if got := StageForStatus(s.Status()); got != s {
			t.Errorf("StageForStatus(%s.Status()) = %s, want %s", s, got, s)
		}
	}
}

func TestOutcome(t *testing.T) {
	t.Run("in progress", func(t *testing.T) {
		job := &Job{Status: StatusTranscribing}
		outcome, ok := job.Outcome().(InProgress)
		if !ok {
			t.Fatalf("Outcome() = %T, want InProgress", job.Outcome())
		}
		if outcome.Status != StatusTranscribing {
			t.Errorf("Status = %s, want %s", outcome.Status, StatusTranscribing)
		}
	})

	t.Run("completed", func(t *testing.T) {
		result := &Result{Analysis: Analysis{AIGeneratedScore: 42}}
		job := &Job{Status: StatusCompleted, Result: result}
		outcome, ok := job.Outcome().(Completed)
		if !ok {
			t.Fatalf("Outcome() = %T, want Completed", job.Outcome())
		}
		if outcome.Result != result {
			t.Error("Completed outcome does not carry the job result")
		}
	})

	t.Run("failed", func(t *testing.T) {
		job := &Job{Status: StatusFailed, FailedStage: StageTranscribe, ErrorMessage: "boom"}
		outcome, ok := job.Outcome().(Failed)
		if !ok {
			t.Fatalf("Outcome() = %T, want Failed", job.Outcome())
		}
		if outcome.Stage != StageTranscribe || outcome.Message != "boom" {
			t.Errorf("Failed outcome = %+v, want transcribe/boom", outcome)
		}
	})
}
