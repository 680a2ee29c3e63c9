// Package diagnosis bridges exact inference and the rule engine for one
// diagnosis session.
package diagnosis

import (
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/awmpietro/golang-vehicle-diagnosis/internal/bayes"
	"github.com/awmpietro/golang-vehicle-diagnosis/internal/rules"
	"github.com/awmpietro/golang-vehicle-diagnosis/internal/vehicle"
)

// Unknown names the top issue when no query succeeded.
const Unknown = "Unknown"

type Querier interface {
	Query(target string, evidence bayes.Evidence) (bayes.Distribution, error)
}

type IssueProbability struct {
	Issue       string
	Probability float64
}

type TopIssue = IssueProbability

// Result is the combined session output.
type Result struct {
	Ranked       []IssueProbability
	Diagnoses    []string
	MostProbable TopIssue
	Trace        *rules.ExecutionTrace
}

type Diagnoser struct {
	querier   Querier
	issues    []string
	rules     []rules.Rule
	maxPasses int
	logger    *zap.Logger
}

type Option func(*Diagnoser)

// WithIssues replaces the issue variables queried per session. Their order
// breaks probability ties.
func WithIssues(issues ...string) Option {
	return func(d *Diagnoser) {
		d.issues = slices.Clone(issues)
	}
}

// WithExtraRules appends rules to the built-in rulebase.
func WithExtraRules(extra ...rules.Rule) Option {
	return func(d *Diagnoser) {
		d.rules = append(d.rules, extra...)
	}
}

func WithMaxPasses(n int) Option {
	return func(d *Diagnoser) {
		d.maxPasses = n
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(d *Diagnoser) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New builds a Diagnoser over querier with the vehicle rulebase. The rule
// set is validated once here.
func New(querier Querier, opts ...Option) (*Diagnoser, error) {
	d := &Diagnoser{
		querier: querier,
		issues:  slices.Clone(vehicle.Issues),
		rules:   vehicle.Rulebase(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if _, err := d.newEngine(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Diagnoser) Issues() []string { return slices.Clone(d.issues) }

func (d *Diagnoser) newEngine() (*rules.Engine, error) {
	return rules.NewEngine(d.rules, rules.WithMaxPasses(d.maxPasses), rules.WithLogger(d.logger))
}

// Infer returns P(issue=1 | evidence) for every issue whose query succeeds.
// Failed queries are logged and left out.
func (d *Diagnoser) Infer(evidence bayes.Evidence) map[string]float64 {
	out := make(map[string]float64, len(d.issues))
	for _, issue := range d.issues {
		dist, err := d.querier.Query(issue, evidence)
		if err != nil {
			d.logger.Debug("inference query failed", zap.String("variable", issue), zap.Error(err))
			continue
		}
		out[issue] = dist[1]
	}
	return out
}

// DiagnoseVehicle returns the most probable issue. Ties go to the issue
// queried first.
func (d *Diagnoser) DiagnoseVehicle(evidence bayes.Evidence) TopIssue {
	return d.top(d.Infer(evidence))
}

func (d *Diagnoser) top(posteriors map[string]float64) TopIssue {
	best := TopIssue{Issue: Unknown}
	found := false
	for _, issue := range d.issues {
		p, ok := posteriors[issue]
		if !ok {
			continue
		}
		if !found || p > best.Probability {
			best = TopIssue{Issue: issue, Probability: p}
			found = true
		}
	}
	return best
}

// PassEvidenceToEngine runs a fresh rule engine over the evidence and the
// posteriors, the latter declared as <issue>_prob facts, and returns the
// diagnoses in declaration order.
func (d *Diagnoser) PassEvidenceToEngine(evidence bayes.Evidence, posteriors map[string]float64) ([]string, error) {
	diagnoses, _, err := d.pass(evidence, posteriors, false)
	return diagnoses, err
}

// PassEvidenceToEngineWithTrace is PassEvidenceToEngine plus the rules that
// fired.
func (d *Diagnoser) PassEvidenceToEngineWithTrace(evidence bayes.Evidence, posteriors map[string]float64) ([]string, *rules.ExecutionTrace, error) {
	return d.pass(evidence, posteriors, true)
}

func (d *Diagnoser) pass(evidence bayes.Evidence, posteriors map[string]float64, withTrace bool) ([]string, *rules.ExecutionTrace, error) {
	engine, err := d.newEngine()
	if err != nil {
		return nil, nil, err
	}
	engine.Reset()

	for _, key := range sortedKeys(evidence) {
		engine.Declare(rules.F(key, rules.Int(evidence[key])))
	}
	for _, issue := range sortedKeys(posteriors) {
		engine.Declare(rules.F(vehicle.ProbKey(issue), rules.Float(posteriors[issue])))
	}

	var trace *rules.ExecutionTrace
	if withTrace {
		trace, err = engine.RunWithTrace()
	} else {
		err = engine.Run()
	}
	if err != nil {
		return nil, trace, err
	}
	return engine.Diagnoses(), trace, nil
}

// Diagnose runs one full session: inference, then the rule engine.
func (d *Diagnoser) Diagnose(evidence bayes.Evidence, topN int) (Result, error) {
	return d.Combine(evidence, d.Infer(evidence), topN, false)
}

// Combine builds the session output from posteriors computed elsewhere.
func (d *Diagnoser) Combine(evidence bayes.Evidence, posteriors map[string]float64, topN int, withTrace bool) (Result, error) {
	diagnoses, trace, err := d.pass(evidence, posteriors, withTrace)
	if err != nil {
		return Result{Trace: trace}, err
	}
	return Result{
		Ranked:       d.Rank(posteriors, topN),
		Diagnoses:    diagnoses,
		MostProbable: d.top(posteriors),
		Trace:        trace,
	}, nil
}

// Rank sorts posteriors by probability, highest first, and keeps the first
// topN; topN <= 0 keeps all. Equal probabilities keep the issue order.
func (d *Diagnoser) Rank(posteriors map[string]float64, topN int) []IssueProbability {
	rank := make(map[string]int, len(d.issues))
	for i, issue := range d.issues {
		rank[issue] = i
	}
	out := make([]IssueProbability, 0, len(posteriors))
	for _, issue := range sortedKeys(posteriors) {
		out = append(out, IssueProbability{Issue: issue, Probability: posteriors[issue]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Probability != out[j].Probability {
			return out[i].Probability > out[j].Probability
		}
		ri, iok := rank[out[i].Issue]
		rj, jok := rank[out[j].Issue]
		if iok != jok {
			return iok
		}
		return ri < rj
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
