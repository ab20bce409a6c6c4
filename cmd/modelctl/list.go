package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var caseName string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved model builds, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, release, err := a.repo(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			infos, err := repo.List(cmd.Context(), caseName)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN ID\tCASE\tSCENARIO\tBALANCED\tCREATED")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n",
					info.RunID, info.CaseName, info.Scenario, info.Balanced, info.CreatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&caseName, "case-name", "", "only list builds of this case")
	return cmd
}
