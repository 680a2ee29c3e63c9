package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/awmpietro/golang-vehicle-diagnosis/internal/app"
	"github.com/awmpietro/golang-vehicle-diagnosis/internal/config"
	"github.com/awmpietro/golang-vehicle-diagnosis/internal/logging"
	"github.com/awmpietro/golang-vehicle-diagnosis/internal/transport/diagnosisdto"
)

type cli struct {
	cfg    config.Runtime
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{cfg: config.Load()}

	root := &cobra.Command{
		Use:           "vehiclediag",
		Short:         "Hybrid vehicle fault diagnosis (Bayesian network + rules)",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New(c.cfg.LogLevel)
			if err != nil {
				return err
			}
			c.logger = logger
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&c.cfg.RulesFile, "rules-file", c.cfg.RulesFile, "YAML file with additional rules")
	pf.IntVar(&c.cfg.TopN, "top-n", c.cfg.TopN, "number of ranked issues to show")
	pf.IntVar(&c.cfg.RuleMaxPasses, "max-passes", c.cfg.RuleMaxPasses, "rule engine pass limit")

	root.AddCommand(c.newRunCmd(), c.newAskCmd(), newNetworkCmd())
	return root
}

// diagnose builds a one-shot service and runs a single session.
func (c *cli) diagnose(evidence map[string]int, debug bool) (*app.Diagnosis, error) {
	svc, closeFn, err := app.Build(c.cfg, c.logger)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return svc.Diagnose(evidence, app.DiagnoseOptions{TopN: c.cfg.TopN, Debug: debug})
}

func printJSON(w io.Writer, d *app.Diagnosis) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(diagnosisdto.NewDiagnoseResponse(d))
}

func printText(w io.Writer, d *app.Diagnosis) {
	fmt.Fprintln(w, "Resultados del diagnóstico:")
	if len(d.Diagnoses) == 0 {
		fmt.Fprintln(w, "- Diagnóstico basado en reglas: (ninguno)")
	} else {
		fmt.Fprintf(w, "- Diagnóstico basado en reglas: %s\n", strings.Join(d.Diagnoses, "; "))
	}
	fmt.Fprintln(w, "- Diagnóstico basado en modelo bayesiano:")
	for _, r := range d.Ranked {
		fmt.Fprintf(w, "  - %s: %.2f\n", r.Issue, r.Probability)
	}
	if d.Trace != nil {
		fmt.Fprintf(w, "- Reglas disparadas (%d pasadas, %s):\n", d.Trace.Passes, d.Trace.Terminated)
		for _, f := range d.Trace.Fired {
			fmt.Fprintf(w, "  - [%d] %s: %s\n", f.Pass, f.Rule, strings.Join(f.Declared, ", "))
		}
	}
}
