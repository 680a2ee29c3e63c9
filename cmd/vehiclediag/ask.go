package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/awmpietro/golang-vehicle-diagnosis/internal/vehicle"
)

func (c *cli) newAskCmd() *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Interview the driver on the terminal, then diagnose",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Bienvenido al Chatbot de Diagnóstico de Vehículos.")
			fmt.Fprintln(out, "Respondamos algunas preguntas relacionadas con los síntomas.")

			evidence, err := vehicle.Interview(vehicle.Questions, newPrompter(cmd.InOrStdin(), out))
			if err != nil {
				return err
			}

			d, err := c.diagnose(evidence, debug)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			printText(out, d)
			return nil
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "include the fired rules")
	return cmd
}

// prompter answers questions from a line-oriented reader, re-asking until
// it reads si or no.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

func (p *prompter) Answer(q vehicle.Question) (bool, error) {
	for {
		fmt.Fprintf(p.out, "%s (si/no): ", q.Prompt)
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return false, err
			}
			return false, io.ErrUnexpectedEOF
		}
		switch strings.ToLower(strings.TrimSpace(p.in.Text())) {
		case "si", "sí", "s":
			return true, nil
		case "no", "n":
			return false, nil
		}
		fmt.Fprintln(p.out, "Por favor, responde con una de las siguientes opciones: si, no.")
	}
}
