package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// STATEMENT_ENGINE_ENGINE_MAX_ITERATIONS.
const EnvPrefix = "STATEMENT_ENGINE"

// Load builds the configuration in layers: struct defaults, then the YAML
// file at path (optional; ${VAR} placeholders are expanded), then
// STATEMENT_ENGINE_* environment variables. A .env file in the working
// directory is loaded first if present. The result is validated.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Every key must be known to viper for AutomaticEnv to consult it
	registerDefaults(v, cfg)

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a validated configuration built from struct defaults only.
func Default() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		panic(err)
	}
	return cfg
}

func registerDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("app.name", cfg.App.Name)
	v.SetDefault("app.log_level", cfg.App.LogLevel)
	v.SetDefault("app.log_format", cfg.App.LogFormat)

	v.SetDefault("engine.convergence_tolerance", cfg.Engine.ConvergenceTolerance)
	v.SetDefault("engine.max_iterations", cfg.Engine.MaxIterations)
	v.SetDefault("engine.balance_tolerance", cfg.Engine.BalanceTolerance)
	v.SetDefault("engine.history_tolerance", cfg.Engine.HistoryTolerance)
	v.SetDefault("engine.acceptable_balance_error", cfg.Engine.AcceptableBalanceError)

	v.SetDefault("scenarios.concurrency", cfg.Scenarios.Concurrency)
	v.SetDefault("scenarios.cache_ttl", cfg.Scenarios.CacheTTL)
	v.SetDefault("scenarios.metrics_enabled", cfg.Scenarios.MetricsEnabled)

	v.SetDefault("store.dsn", cfg.Store.DSN)
	v.SetDefault("store.dir", cfg.Store.Dir)
}
