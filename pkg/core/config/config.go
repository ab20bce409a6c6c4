// Package config provides configuration management for the statement engine.
package config

import (
	"time"

	"statement_engine/pkg/core/projection"
)

// Config is the root configuration.
type Config struct {
	App       AppConfig      `mapstructure:"app" yaml:"app"`
	Engine    EngineConfig   `mapstructure:"engine" yaml:"engine"`
	Scenarios ScenarioConfig `mapstructure:"scenarios" yaml:"scenarios"`
	Store     StoreConfig    `mapstructure:"store" yaml:"store"`
}

// AppConfig holds process-wide settings.
type AppConfig struct {
	Name      string `mapstructure:"name" yaml:"name" default:"statement-engine" validate:"required"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" default:"info" validate:"oneof=panic fatal error warn info debug trace"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" default:"text" validate:"oneof=text json"`
}

// EngineConfig tunes the period solver and the balance diagnostics.
type EngineConfig struct {
	ConvergenceTolerance   float64 `mapstructure:"convergence_tolerance" yaml:"convergence_tolerance" default:"0.000001" validate:"gt=0"`
	MaxIterations          int     `mapstructure:"max_iterations" yaml:"max_iterations" default:"100" validate:"gte=1"`
	BalanceTolerance       float64 `mapstructure:"balance_tolerance" yaml:"balance_tolerance" default:"0.01" validate:"gt=0"`
	HistoryTolerance       float64 `mapstructure:"history_tolerance" yaml:"history_tolerance" default:"1" validate:"gt=0"`
	AcceptableBalanceError float64 `mapstructure:"acceptable_balance_error" yaml:"acceptable_balance_error" default:"1" validate:"gt=0"`
}

// ScenarioConfig controls concurrent scenario runs.
type ScenarioConfig struct {
	Concurrency    int           `mapstructure:"concurrency" yaml:"concurrency" default:"4" validate:"gte=1,lte=256"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl" default:"10m" validate:"gte=0"`
	MetricsEnabled bool          `mapstructure:"metrics_enabled" yaml:"metrics_enabled" default:"true"`
}

// StoreConfig selects where built models are saved. A DSN selects
// PostgreSQL; otherwise snapshots are written as JSON under Dir.
type StoreConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"`
	Dir string `mapstructure:"dir" yaml:"dir" default:"data/models" validate:"required"`
}

// Settings maps the engine section onto projection settings.
func (e EngineConfig) Settings() projection.Settings {
	return projection.Settings{
		ConvergenceTolerance: e.ConvergenceTolerance,
		MaxIterations:        e.MaxIterations,
		BalanceTolerance:     e.BalanceTolerance,
		HistoryTolerance:     e.HistoryTolerance,
	}
}

// UsesDatabase reports whether a PostgreSQL DSN is configured.
func (s StoreConfig) UsesDatabase() bool {
	return s.DSN != ""
}
