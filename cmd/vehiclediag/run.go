package main

import (
	"github.com/spf13/cobra"
)

func (c *cli) newRunCmd() *cobra.Command {
	var (
		evidence map[string]int
		debug    bool
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Diagnose from evidence given as flags",
		Example: `  vehiclediag run --evidence difficulty_starting=1,battery_ok=0,starter_sound=0,fuel_smell=0
  vehiclediag run --evidence overheating=0 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := c.diagnose(evidence, debug)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), d)
			}
			printText(cmd.OutOrStdout(), d)
			return nil
		},
	}
	cmd.Flags().StringToIntVar(&evidence, "evidence", map[string]int{}, "observed symptoms as name=0|1 pairs")
	cmd.Flags().BoolVar(&debug, "debug", false, "include the fired rules")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the response as JSON")
	return cmd
}
