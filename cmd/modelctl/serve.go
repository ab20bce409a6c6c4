package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	apimodel "statement_engine/pkg/api/model"
	"statement_engine/pkg/core/scenario"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve model builds over HTTP",
		Long: `Serve the build, validate and sweep endpoints, saved models from the model
store, and Prometheus metrics on /metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			handler, release, err := a.newAPI(ctx)
			if err != nil {
				return err
			}
			defer release()

			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			errCh := make(chan error, 1)
			go func() {
				a.log.WithField("addr", addr).Info("API server starting")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			a.log.Info("Shutting down API server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

// newAPI wires the HTTP handler: engine, scenario runner with metrics,
// model store and /metrics.
func (a *app) newAPI(ctx context.Context) (http.Handler, func(), error) {
	repo, release, err := a.repo(ctx)
	if err != nil {
		return nil, nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []scenario.Option{
		scenario.WithConcurrency(a.cfg.Scenarios.Concurrency),
		scenario.WithCache(a.cfg.Scenarios.CacheTTL),
		scenario.WithLogger(a.log),
	}
	if a.cfg.Scenarios.MetricsEnabled {
		opts = append(opts, scenario.WithMetrics(scenario.NewMetrics(reg)))
	}

	engine := a.engine()
	api := apimodel.NewHandler(engine, scenario.NewRunner(engine, opts...), repo, a.cfg.Engine.AcceptableBalanceError, a.log)

	mux := http.NewServeMux()
	api.Register(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux, release, nil
}
