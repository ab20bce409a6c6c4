package main

import (
	"context"
	"fmt"

	"statement_engine/pkg/core/config"
	"statement_engine/pkg/core/projection"
	"statement_engine/pkg/core/store"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app is the state shared by every subcommand once the root has run.
type app struct {
	cfgFile  string
	logLevel string

	cfg *config.Config
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: logrus.New()}

	root := &cobra.Command{
		Use:   "modelctl",
		Short: "Integrated three-statement forecast engine",
		Long: `modelctl validates audited history, rolls it forward with per-year
driver assumptions into balanced income statement, balance sheet and cash
flow forecasts, and compares scenarios side by side.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (YAML); defaults and STATEMENT_ENGINE_* variables apply without one")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (trace, debug, info, warn, error)")

	root.AddCommand(
		newInitCmd(a),
		newValidateCmd(a),
		newBuildCmd(a),
		newSweepCmd(a),
		newListCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.log.SetOutput(cmd.ErrOrStderr())
	if cfg.App.LogFormat == "json" {
		a.log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		a.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	levelName := cfg.App.LogLevel
	if a.logLevel != "" {
		levelName = a.logLevel
	}
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		a.log.WithError(err).Warn("Invalid log level, defaulting to info")
		level = logrus.InfoLevel
	}
	a.log.SetLevel(level)
	return nil
}

func (a *app) engine() *projection.ProjectionEngine {
	return projection.NewProjectionEngine(a.cfg.Engine.Settings(), a.log)
}

// repo opens the model store. The returned func releases it.
func (a *app) repo(ctx context.Context) (*store.ModelRepo, func(), error) {
	if !a.cfg.Store.UsesDatabase() {
		return store.NewModelRepo(nil, a.cfg.Store.Dir), func() {}, nil
	}
	if err := store.InitDB(ctx, a.cfg.Store.DSN); err != nil {
		return nil, nil, fmt.Errorf("failed to open model store: %w", err)
	}
	return store.NewModelRepo(store.GetPool(), a.cfg.Store.Dir), store.Close, nil
}
