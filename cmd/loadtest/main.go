package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "loadtest:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "loadtest",
		Short:         "Drive POST /diagnose at a fixed rate and report latency percentiles",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.rps <= 0 || opts.duration <= 0 || opts.workers <= 0 {
				return fmt.Errorf("rps, duration and workers must be > 0")
			}
			results, err := run(opts)
			if err != nil {
				return err
			}
			rep, err := summarize(results, opts.duration)
			if err != nil {
				return err
			}
			rep.print(cmd.OutOrStdout(), opts.rps)
			if !rep.meets(opts.rps, opts.p90Target) {
				fmt.Fprintln(cmd.OutOrStdout(), "FAIL: does not meet target (or has request errors)")
				return fmt.Errorf("target not met")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "PASS: meets %d RPS and P90 < %s\n", opts.rps, opts.p90Target)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.url, "url", "http://localhost:8080/diagnose", "diagnose endpoint URL")
	f.IntVar(&opts.rps, "rps", 50, "target requests per second")
	f.DurationVar(&opts.duration, "duration", 60*time.Second, "test duration")
	f.IntVar(&opts.workers, "workers", 50, "number of concurrent workers")
	f.DurationVar(&opts.timeout, "timeout", 5*time.Second, "HTTP client timeout")
	f.DurationVar(&opts.p90Target, "p90", 30*time.Millisecond, "P90 latency target")
	return cmd
}
