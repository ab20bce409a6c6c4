// Package scenario runs independent model builds (bull / base / bear
// driver sets, what-if sweeps) concurrently against one history.
package scenario

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"statement_engine/pkg/core/projection"
	"statement_engine/pkg/models"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel builds when no option is given.
const DefaultConcurrency = 4

// Scenario is one named driver set. ForecastYears of 0 builds one year per
// driver record.
type Scenario struct {
	Name          string                     `json:"name"`
	Drivers       []models.DriverAssumptions `json:"drivers"`
	ForecastYears int                        `json:"forecast_years,omitempty"`
}

func (s Scenario) horizon() int {
	if s.ForecastYears > 0 {
		return s.ForecastYears
	}
	return len(s.Drivers)
}

// Run is the outcome of building one scenario.
type Run struct {
	ID       uuid.UUID           `json:"id"`
	Scenario string              `json:"scenario"`
	Result   *models.ModelResult `json:"result,omitempty"`
	Err      error               `json:"-"`
	Duration time.Duration       `json:"duration"`
	Cached   bool                `json:"cached"`
}

// Runner builds scenarios in parallel. Builds share no mutable state, so
// the only coordination is the concurrency limit.
type Runner struct {
	engine      *projection.ProjectionEngine
	concurrency int
	cache       *cache.Cache
	metrics     *Metrics
	log         logrus.FieldLogger
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency bounds the number of builds in flight.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithCache memoises results of identical inputs for ttl. Cached results
// are shared between runs and must be treated as read-only.
func WithCache(ttl time.Duration) Option {
	return func(r *Runner) {
		if ttl > 0 {
			r.cache = cache.New(ttl, ttl*2)
		}
	}
}

// WithMetrics records every run on m.
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRunner creates a runner around engine.
func NewRunner(engine *projection.ProjectionEngine, opts ...Option) *Runner {
	r := &Runner{
		engine:      engine,
		concurrency: DefaultConcurrency,
		log:         logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.WithField("component", "scenario")
	return r
}

// Run builds every scenario on top of hist. Runs come back in input order;
// a failed build is reported on its Run and does not stop the others.
// Cancellation is observed between builds, never inside one.
func (r *Runner) Run(ctx context.Context, hist models.HistoricalInput, scenarios []Scenario) ([]Run, error) {
	runs := make([]Run, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, sc := range scenarios {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			runs[i] = r.runOne(hist, sc)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return runs, err
	}
	return runs, nil
}

func (r *Runner) runOne(hist models.HistoricalInput, sc Scenario) Run {
	run := Run{ID: uuid.New(), Scenario: sc.Name}
	log := r.log.WithFields(logrus.Fields{"scenario": sc.Name, "run_id": run.ID})

	key, keyed := r.cacheKey(hist, sc)
	if keyed {
		if cached, found := r.cache.Get(key); found {
			run.Result = cached.(*models.ModelResult).Clone()
			run.Cached = true
			r.metrics.recordRun(run)
			log.Debug("scenario served from cache")
			return run
		}
	}

	start := time.Now()
	run.Result, run.Err = r.engine.BuildModel(hist, sc.Drivers, sc.horizon())
	run.Duration = time.Since(start)
	r.metrics.recordRun(run)

	if run.Err != nil {
		log.WithError(run.Err).Error("scenario build failed")
		return run
	}
	if keyed {
		r.cache.Set(key, run.Result.Clone(), cache.DefaultExpiration)
	}

	log.WithFields(logrus.Fields{
		"balanced":          run.Result.AllPeriodsBalanced,
		"max_balance_error": run.Result.MaxBalanceError,
		"duration":          run.Duration,
	}).Info("scenario built")
	return run
}

// cacheKey hashes everything a build depends on. Inputs that cannot be
// encoded (NaN drivers) are simply not cached.
func (r *Runner) cacheKey(hist models.HistoricalInput, sc Scenario) (string, bool) {
	if r.cache == nil {
		return "", false
	}
	payload, err := json.Marshal(struct {
		Settings projection.Settings
		Hist     models.HistoricalInput
		Drivers  []models.DriverAssumptions
		Years    int
	}{r.engine.Settings(), hist, sc.Drivers, sc.horizon()})
	if err != nil {
		return "", false
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), true
}
