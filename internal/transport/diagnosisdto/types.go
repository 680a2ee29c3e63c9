package diagnosisdto

import (
	"errors"
	"net/http"

	"github.com/awmpietro/golang-vehicle-diagnosis/internal/app"
)

type DiagnoseRequest struct {
	Evidence map[string]int `json:"evidence"`
	TopN     int            `json:"top_n,omitempty"`
	Debug    bool           `json:"debug,omitempty"`
}

func (r DiagnoseRequest) Options() app.DiagnoseOptions {
	return app.DiagnoseOptions{TopN: r.TopN, Debug: r.Debug}
}

type IssueProbability struct {
	Issue       string  `json:"issue"`
	Probability float64 `json:"probability"`
}

type FiredRule struct {
	Pass     int      `json:"pass"`
	Rule     string   `json:"rule"`
	Declared []string `json:"declared"`
}

type Trace struct {
	Passes     int         `json:"passes"`
	Fired      []FiredRule `json:"fired"`
	Terminated string      `json:"terminated"`
}

type DiagnoseResponse struct {
	Ranked       []IssueProbability `json:"ranked"`
	Diagnoses    []string           `json:"diagnoses"`
	MostProbable IssueProbability   `json:"most_probable"`
	Trace        *Trace             `json:"trace,omitempty"`
}

func NewDiagnoseResponse(d *app.Diagnosis) DiagnoseResponse {
	resp := DiagnoseResponse{
		Ranked:    make([]IssueProbability, 0, len(d.Ranked)),
		Diagnoses: append([]string{}, d.Diagnoses...),
		MostProbable: IssueProbability{
			Issue:       d.MostProbable.Issue,
			Probability: d.MostProbable.Probability,
		},
		Trace: newTrace(d.Trace),
	}
	for _, r := range d.Ranked {
		resp.Ranked = append(resp.Ranked, IssueProbability{Issue: r.Issue, Probability: r.Probability})
	}
	return resp
}

func newTrace(t *app.DiagnoseTrace) *Trace {
	if t == nil {
		return nil
	}
	out := &Trace{Passes: t.Passes, Terminated: t.Terminated, Fired: make([]FiredRule, 0, len(t.Fired))}
	for _, f := range t.Fired {
		out.Fired = append(out.Fired, FiredRule{Pass: f.Pass, Rule: f.Rule, Declared: f.Declared})
	}
	return out
}

// ErrorStatus maps a service error to an HTTP status.
func ErrorStatus(err error) int {
	var invalid *app.InvalidEvidenceError
	if errors.As(err, &invalid) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func ErrorBody(err error, d *app.Diagnosis) map[string]any {
	body := map[string]any{
		"error":   "diagnose failed",
		"details": err.Error(),
	}
	if d != nil && d.Trace != nil {
		body["trace"] = newTrace(d.Trace)
	}
	return body
}
