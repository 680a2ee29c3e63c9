package bayes

import (
	"fmt"
	"slices"
	"time"
)

// Evidence maps variable names to observed states. Names the network does
// not know are ignored.
type Evidence map[string]int

// Distribution holds P(var=0) and P(var=1).
type Distribution [2]float64

type QueryError struct {
	Variable string
	Reason   string
	Err      error
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("query %q: %s: %v", e.Variable, e.Reason, e.Err)
	}
	return fmt.Sprintf("query %q: %s", e.Variable, e.Reason)
}

func (e *QueryError) Unwrap() error { return e.Err }

// VariableElimination answers marginal queries exactly. It holds no per-query
// state, so one instance can serve concurrent sessions.
type VariableElimination struct {
	net             *Network
	latencyObserver QueryLatencyObserver
}

type Option func(*VariableElimination)

func WithQueryLatencyObserver(observer QueryLatencyObserver) Option {
	return func(ve *VariableElimination) {
		ve.latencyObserver = observer
	}
}

func NewVariableElimination(net *Network, opts ...Option) *VariableElimination {
	ve := &VariableElimination{net: net}
	for _, opt := range opts {
		opt(ve)
	}
	return ve
}

// Query returns P(target | evidence).
func (ve *VariableElimination) Query(target string, evidence Evidence) (Distribution, error) {
	start := time.Now()
	defer func() {
		if ve.latencyObserver != nil {
			ve.latencyObserver.ObserveQueryLatency(target, time.Since(start))
		}
	}()

	if ve.net == nil {
		return Distribution{}, &QueryError{Variable: target, Reason: "network is nil"}
	}
	if !ve.net.Has(target) {
		return Distribution{}, &QueryError{Variable: target, Reason: "unknown variable"}
	}
	if _, observed := evidence[target]; observed {
		return Distribution{}, &QueryError{Variable: target, Reason: "variable is also observed as evidence"}
	}
	for name, value := range evidence {
		if ve.net.Has(name) && value != 0 && value != 1 {
			return Distribution{}, &QueryError{Variable: target, Reason: fmt.Sprintf("evidence %s=%d is not binary", name, value)}
		}
	}

	factors := make([]*Factor, 0, len(ve.net.order))
	for _, v := range ve.net.order {
		f := ve.net.factor(v)
		for _, s := range f.scope {
			value, ok := evidence[s]
			if !ok {
				continue
			}
			var err error
			if f, err = Restrict(f, s, value); err != nil {
				return Distribution{}, &QueryError{Variable: target, Reason: "applying evidence", Err: err}
			}
		}
		factors = append(factors, f)
	}

	for _, v := range ve.net.order {
		if v == target {
			continue
		}
		var err error
		if factors, err = eliminate(factors, v); err != nil {
			return Distribution{}, &QueryError{Variable: target, Reason: fmt.Sprintf("eliminating %q", v), Err: err}
		}
	}

	joint := scalar(1)
	for _, f := range factors {
		var err error
		if joint, err = Product(joint, f); err != nil {
			return Distribution{}, &QueryError{Variable: target, Reason: "combining factors", Err: err}
		}
	}
	if !slices.Equal(joint.scope, []string{target}) {
		return Distribution{}, &QueryError{Variable: target, Reason: fmt.Sprintf("final scope is %v", joint.scope)}
	}

	total := joint.values[0] + joint.values[1]
	if total <= 0 {
		return Distribution{}, &QueryError{Variable: target, Reason: "evidence has zero probability"}
	}
	return Distribution{joint.values[0] / total, joint.values[1] / total}, nil
}

// eliminate multiplies every factor mentioning v and sums v out. Untouched
// factors keep their relative order; the new factor goes last.
func eliminate(factors []*Factor, v string) ([]*Factor, error) {
	var product *Factor
	rest := factors[:0:0]
	for _, f := range factors {
		if !f.Contains(v) {
			rest = append(rest, f)
			continue
		}
		if product == nil {
			product = f
			continue
		}
		var err error
		if product, err = Product(product, f); err != nil {
			return nil, err
		}
	}
	if product == nil {
		return factors, nil
	}

	summed, err := Marginalize(product, v)
	if err != nil {
		return nil, err
	}
	return append(rest, summed), nil
}
