// internal/app/service.go
package app

import (
	"fmt"
	"sort"

	"github.com/awmpietro/golang-vehicle-diagnosis/internal/bayes"
	"github.com/awmpietro/golang-vehicle-diagnosis/internal/diagnosis"
	"github.com/awmpietro/golang-vehicle-diagnosis/internal/rules"
)

type Diagnoser interface {
	Infer(evidence bayes.Evidence) map[string]float64
	Combine(evidence bayes.Evidence, posteriors map[string]float64, topN int, withTrace bool) (diagnosis.Result, error)
}

type Cache interface {
	GetOrCompute(evidence map[string]int, fn func() (map[string]float64, error)) (map[string]float64, error)
}

type DiagnoseOptions struct {
	TopN  int
	Debug bool
}

type DiagnoseTrace = rules.ExecutionTrace

// Diagnosis is the session output handed to transports.
type Diagnosis struct {
	Ranked       []diagnosis.IssueProbability
	Diagnoses    []string
	MostProbable diagnosis.TopIssue
	Trace        *DiagnoseTrace
}

// InvalidEvidenceError reports evidence values outside {0, 1}.
type InvalidEvidenceError struct {
	Keys []string
}

func (e *InvalidEvidenceError) Error() string {
	return fmt.Sprintf("evidence values must be 0 or 1: %v", e.Keys)
}

type Service struct {
	diagnoser   Diagnoser
	cache       Cache
	defaultTopN int
}

type ServiceOption func(*Service)

func WithDefaultTopN(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.defaultTopN = n
		}
	}
}

func NewService(d Diagnoser, cache Cache, opts ...ServiceOption) *Service {
	s := &Service{diagnoser: d, cache: cache, defaultTopN: 3}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Diagnose valida a evidência, calcula (cacheado) os posteriors e roda o
// motor de regras. Não muta o mapa de entrada.
func (s *Service) Diagnose(evidence map[string]int, opts DiagnoseOptions) (*Diagnosis, error) {
	if err := validateEvidence(evidence); err != nil {
		return nil, err
	}
	ev := cloneEvidence(evidence)

	posteriors, err := s.cache.GetOrCompute(ev, func() (map[string]float64, error) {
		return s.diagnoser.Infer(ev), nil
	})
	if err != nil {
		return nil, err
	}

	topN := opts.TopN
	if topN <= 0 {
		topN = s.defaultTopN
	}

	res, err := s.diagnoser.Combine(ev, posteriors, topN, opts.Debug)
	if err != nil {
		return &Diagnosis{Trace: res.Trace}, err
	}
	return &Diagnosis{
		Ranked:       res.Ranked,
		Diagnoses:    res.Diagnoses,
		MostProbable: res.MostProbable,
		Trace:        res.Trace,
	}, nil
}

func validateEvidence(evidence map[string]int) error {
	var bad []string
	for k, v := range evidence {
		if v != 0 && v != 1 {
			bad = append(bad, k)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	sort.Strings(bad)
	return &InvalidEvidenceError{Keys: bad}
}

func cloneEvidence(m map[string]int) bayes.Evidence {
	n := make(bayes.Evidence, len(m))
	for k, v := range m {
		n[k] = v
	}
	return n
}
