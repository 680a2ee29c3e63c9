package diagnosisdto

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/awmpietro/golang-vehicle-diagnosis/internal/app"
	"github.com/awmpietro/golang-vehicle-diagnosis/internal/diagnosis"
	"github.com/awmpietro/golang-vehicle-diagnosis/internal/rules"
)

func TestNewDiagnoseResponse(t *testing.T) {
	d := &app.Diagnosis{
		Ranked:       []diagnosis.IssueProbability{{Issue: "battery_issue", Probability: 0.4}, {Issue: "engine_mount_issue", Probability: 0.28}},
		Diagnoses:    []string{"La batería está descargada o desconectada"},
		MostProbable: diagnosis.TopIssue{Issue: "battery_issue", Probability: 0.4},
		Trace: &rules.ExecutionTrace{
			Passes:     2,
			Fired:      []rules.FiredRule{{Pass: 1, Rule: "symptom_difficulty_starting", Declared: []string{`symptom="difficulty_starting"`}}},
			Terminated: rules.TerminatedFixpoint,
		},
	}

	want := DiagnoseResponse{
		Ranked:       []IssueProbability{{"battery_issue", 0.4}, {"engine_mount_issue", 0.28}},
		Diagnoses:    []string{"La batería está descargada o desconectada"},
		MostProbable: IssueProbability{"battery_issue", 0.4},
		Trace: &Trace{
			Passes:     2,
			Fired:      []FiredRule{{Pass: 1, Rule: "symptom_difficulty_starting", Declared: []string{`symptom="difficulty_starting"`}}},
			Terminated: "fixpoint",
		},
	}
	if diff := cmp.Diff(want, NewDiagnoseResponse(d)); diff != "" {
		t.Fatalf("unexpected response (-want +got):\n%s", diff)
	}
}

func TestNewDiagnoseResponse_EmptyListsAreNotNull(t *testing.T) {
	resp := NewDiagnoseResponse(&app.Diagnosis{MostProbable: diagnosis.TopIssue{Issue: diagnosis.Unknown}})
	if resp.Ranked == nil || resp.Diagnoses == nil {
		t.Fatalf("expected empty, non-nil lists")
	}
	if resp.Trace != nil {
		t.Fatalf("expected no trace")
	}
}

func TestErrorStatus(t *testing.T) {
	if got := ErrorStatus(&app.InvalidEvidenceError{Keys: []string{"battery_ok"}}); got != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", got)
	}
	if got := ErrorStatus(errors.New("boom")); got != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", got)
	}
}
