package main

import (
	"errors"
	"fmt"

	"statement_engine/pkg/core/assumption"
	"statement_engine/pkg/core/validate"

	"github.com/spf13/cobra"
)

var errAssuranceFailed = errors.New("one or more scenarios failed assurance")

func newValidateCmd(a *app) *cobra.Command {
	var casePath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a case's history and assure every scenario",
		Long: `Check the historical periods for internal consistency, then build each
scenario and run the balance / linkage quality gate on it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := assumption.LoadCase(casePath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if err := validate.ValidateHistory(c.Historical, a.cfg.Engine.HistoryTolerance); err != nil {
				fmt.Fprintf(out, "history: FAILED\n%v\n", err)
				return err
			}
			fmt.Fprintf(out, "history: ok (%d periods)\n", len(c.Historical))

			engine := a.engine()
			failed := 0
			for _, name := range c.ScenarioNames() {
				drivers, _ := c.Drivers(name)
				result, err := engine.BuildModel(c.Historical, drivers, c.Horizon(drivers))
				if err == nil {
					err = validate.Assure(result, a.cfg.Engine.AcceptableBalanceError)
				}
				if err != nil {
					failed++
					fmt.Fprintf(out, "%s: FAILED %v\n", name, err)
					continue
				}
				fmt.Fprintf(out, "%s: balanced (max error %.6f)\n", name, result.MaxBalanceError)
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d", errAssuranceFailed, failed, len(c.Scenarios))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&casePath, "case", "", "case file (.yaml, .hjson, .json)")
	_ = cmd.MarkFlagRequired("case")
	return cmd
}
