package lambdatransport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/awmpietro/golang-vehicle-diagnosis/internal/app"
	"github.com/awmpietro/golang-vehicle-diagnosis/internal/diagnosis"
	"github.com/awmpietro/golang-vehicle-diagnosis/internal/rules"
)

type svcStub struct {
	diagnoseFn func(evidence map[string]int, opts app.DiagnoseOptions) (*app.Diagnosis, error)
}

func (s *svcStub) Diagnose(evidence map[string]int, opts app.DiagnoseOptions) (*app.Diagnosis, error) {
	return s.diagnoseFn(evidence, opts)
}

func stub() *svcStub {
	return &svcStub{diagnoseFn: func(evidence map[string]int, opts app.DiagnoseOptions) (*app.Diagnosis, error) {
		d := &app.Diagnosis{
			Ranked:       []diagnosis.IssueProbability{{Issue: "ignition_issue", Probability: 0.5105}},
			MostProbable: diagnosis.TopIssue{Issue: "ignition_issue", Probability: 0.5105},
		}
		if opts.Debug {
			d.Trace = &rules.ExecutionTrace{Passes: 1, Terminated: rules.TerminatedFixpoint}
		}
		return d, nil
	}}
}

func TestHandler_Diagnose_InvalidJSON(t *testing.T) {
	resp, err := NewHandler(stub(), nil).Diagnose(context.Background(), events.APIGatewayV2HTTPRequest{Body: "{"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
}

func TestHandler_Diagnose_InvalidBase64(t *testing.T) {
	resp, err := NewHandler(stub(), nil).Diagnose(context.Background(), events.APIGatewayV2HTTPRequest{Body: "%%%", IsBase64Encoded: true})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
}

func TestHandler_Diagnose_DebugResponseIncludesTrace(t *testing.T) {
	body := base64.StdEncoding.EncodeToString([]byte(`{"evidence":{"vibrations":1},"debug":true}`))
	resp, err := NewHandler(stub(), nil).Diagnose(context.Background(), events.APIGatewayV2HTTPRequest{Body: body, IsBase64Encoded: true})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(resp.Body), &out); err != nil {
		t.Fatal(err)
	}
	if out["trace"] == nil {
		t.Fatalf("expected trace in response")
	}
	diagnoses, ok := out["diagnoses"].([]any)
	if !ok || len(diagnoses) != 0 {
		t.Fatalf("expected empty diagnoses list, got %#v", out["diagnoses"])
	}
}

func TestHandler_Diagnose_InvalidEvidence(t *testing.T) {
	h := NewHandler(&svcStub{diagnoseFn: func(map[string]int, app.DiagnoseOptions) (*app.Diagnosis, error) {
		return nil, &app.InvalidEvidenceError{Keys: []string{"overheating"}}
	}}, nil)

	resp, err := h.Diagnose(context.Background(), events.APIGatewayV2HTTPRequest{Body: `{"evidence":{"overheating":3}}`})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
}
