package rules

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

const defaultMaxPasses = 1000

// Engine forward-chains a fixed rule set over its own working memory until
// no rule adds a fact. An Engine belongs to one diagnosis session.
type Engine struct {
	rules     []Rule
	wm        *WorkingMemory
	maxPasses int
	logger    *zap.Logger
}

type EngineOption func(*Engine)

func WithMaxPasses(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxPasses = n
		}
	}
}

func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewEngine(rules []Rule, opts ...EngineOption) (*Engine, error) {
	if err := validateRules(rules); err != nil {
		return nil, err
	}
	e := &Engine{
		rules:     slices.Clone(rules),
		wm:        NewWorkingMemory(),
		maxPasses: defaultMaxPasses,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Declare adds f unless it is already present or malformed.
func (e *Engine) Declare(f Fact) bool {
	return e.wm.Declare(f)
}

// Reset clears working memory.
func (e *Engine) Reset() { e.wm.Reset() }

func (e *Engine) Run() error {
	return e.run(nil)
}

func (e *Engine) RunWithTrace() (*ExecutionTrace, error) {
	trace := &ExecutionTrace{}
	err := e.run(trace)
	return trace, err
}

func (e *Engine) run(trace *ExecutionTrace) error {
	for pass := 1; pass <= e.maxPasses; pass++ {
		added := 0
		for _, r := range e.rules {
			if !r.matches(e.wm) {
				continue
			}
			var declared []string
			for _, f := range r.Then {
				if e.wm.Declare(f) {
					declared = append(declared, f.String())
				}
			}
			if len(declared) == 0 {
				continue
			}
			added += len(declared)
			e.logger.Debug("rule fired",
				zap.String("rule", r.Name),
				zap.Int("pass", pass),
				zap.Strings("declared", declared),
			)
			if trace != nil {
				trace.Fired = append(trace.Fired, FiredRule{Pass: pass, Rule: r.Name, Declared: declared})
			}
		}
		if trace != nil {
			trace.Passes = pass
		}
		if added == 0 {
			if trace != nil {
				trace.Terminated = TerminatedFixpoint
			}
			return nil
		}
	}

	if trace != nil {
		trace.Terminated = TerminatedMaxPasses
	}
	return &RuleError{Reason: fmt.Sprintf("no fixpoint after %d passes", e.maxPasses)}
}

// Diagnoses returns every declared diagnosis string in declaration order.
func (e *Engine) Diagnoses() []string {
	var out []string
	for _, v := range e.wm.Values(DiagnosisKey) {
		if s, ok := v.Text(); ok {
			out = append(out, s)
		}
	}
	return out
}

func (e *Engine) Facts() []Fact { return e.wm.Facts() }

func (e *Engine) Len() int { return e.wm.Len() }
