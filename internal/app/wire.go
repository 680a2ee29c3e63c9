package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/awmpietro/golang-vehicle-diagnosis/internal/bayes"
	"github.com/awmpietro/golang-vehicle-diagnosis/internal/config"
	"github.com/awmpietro/golang-vehicle-diagnosis/internal/diagnosis"
	"github.com/awmpietro/golang-vehicle-diagnosis/internal/diagnosis/cache"
	"github.com/awmpietro/golang-vehicle-diagnosis/internal/rules"
	"github.com/awmpietro/golang-vehicle-diagnosis/internal/vehicle"
)

// Build wires the vehicle network, the rulebase (plus cfg.RulesFile) and the
// posterior cache into a Service. The returned func flushes the latency
// observer and must be called on shutdown.
func Build(cfg config.Runtime, logger *zap.Logger) (*Service, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	net, err := vehicle.Network()
	if err != nil {
		return nil, nil, fmt.Errorf("load vehicle network: %w", err)
	}

	var extra []rules.Rule
	if cfg.RulesFile != "" {
		if extra, err = rules.LoadRuleFile(cfg.RulesFile); err != nil {
			return nil, nil, fmt.Errorf("load rules file: %w", err)
		}
		logger.Info("loaded extra rules", zap.String("file", cfg.RulesFile), zap.Int("count", len(extra)))
	}

	observer := bayes.NewAsyncQueryLatencyObserver(bayes.NewQueryLatencyLogger(logger), cfg.ObsBuffer)
	ve := bayes.NewVariableElimination(net, bayes.WithQueryLatencyObserver(observer))

	d, err := diagnosis.New(ve,
		diagnosis.WithExtraRules(extra...),
		diagnosis.WithMaxPasses(cfg.RuleMaxPasses),
		diagnosis.WithLogger(logger),
	)
	if err != nil {
		observer.Close()
		return nil, nil, fmt.Errorf("build diagnoser: %w", err)
	}

	svc := NewService(d, cache.NewInMemory(cfg.CacheMaxItems), WithDefaultTopN(cfg.TopN))
	closeFn := func() {
		observer.Close()
		if n := observer.Dropped(); n > 0 {
			logger.Warn("dropped latency observations", zap.Uint64("count", n))
		}
	}
	return svc, closeFn, nil
}
