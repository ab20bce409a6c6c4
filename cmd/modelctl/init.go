package main

import (
	"fmt"
	"os"

	"statement_engine/pkg/core/assumption"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init <case-file>",
		Short: "Write a sample case file to start from",
		Long: `Write a balanced two-year sample history with a five-year "base" driver
set. The format follows the extension: .yaml, .hjson or .json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := assumption.WriteCase(path, assumption.SampleCase()); err != nil {
				return err
			}
			a.log.WithField("path", path).Info("Sample case written")
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
