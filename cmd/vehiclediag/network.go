package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/awmpietro/golang-vehicle-diagnosis/internal/vehicle"
)

func newNetworkCmd() *cobra.Command {
	var cpt string
	cmd := &cobra.Command{
		Use:   "network",
		Short: "Print the network structure as DOT, or one CPT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			net, err := vehicle.Network()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if cpt == "" {
				dot, err := net.DOT("vehicle")
				if err != nil {
					return err
				}
				fmt.Fprint(out, dot)
				return nil
			}

			table, ok := net.CPT(cpt)
			if !ok {
				return fmt.Errorf("unknown variable %q", cpt)
			}
			fmt.Fprintf(out, "P(%s | %s)\n", table.Variable, strings.Join(table.Evidence, ", "))
			for j := range table.Values[0] {
				fmt.Fprintf(out, "%s  %.4f  %.4f\n", assignment(table.Evidence, j), table.Values[0][j], table.Values[1][j])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cpt, "cpt", "", "print the CPT of this variable instead of the DOT graph")
	return cmd
}

// assignment renders column j with the first evidence variable as the most
// significant bit.
func assignment(evidence []string, j int) string {
	if len(evidence) == 0 {
		return "()"
	}
	parts := make([]string, len(evidence))
	for i, e := range evidence {
		bit := (j >> (len(evidence) - 1 - i)) & 1
		parts[i] = fmt.Sprintf("%s=%d", e, bit)
	}
	return strings.Join(parts, ",")
}
