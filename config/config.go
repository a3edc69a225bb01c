// Package config loads environment-driven tuning for the promotion
// engine: the default solve deadline and the size-regime guardrails
// used to log a warning when a graph or basket exceeds the envelope
// the solver is sized for.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the engine's tunable parameters.
type Config struct {
	App    AppConfig
	Solver SolverConfig
}

// AppConfig holds process-level configuration.
type AppConfig struct {
	Environment string // development, staging, production
	LogLevel    string
}

// SolverConfig holds the defaults and guardrails the engine applies
// when a caller does not override them explicitly.
type SolverConfig struct {
	// DefaultDeadline is used when Solve is called with a context that
	// carries no deadline of its own and with SolveOptions.Deadline
	// zero. Zero means "no default" (run to optimality).
	DefaultDeadline time.Duration

	// MaxItemsPerBasket and MaxPromotionsPerLayer are the recommended
	// sizing regime. Exceeding them does not fail a solve; the engine
	// logs a warning, since the regime is a performance recommendation,
	// not a hard limit.
	MaxItemsPerBasket     int
	MaxPromotionsPerLayer int
	MaxLayers             int
}

// Load loads configuration from an optional file and environment
// variables prefixed PROMOENGINE_.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("PROMOENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.loglevel", "info")

	v.SetDefault("solver.defaultdeadline", "0s")
	v.SetDefault("solver.maxitemsperbasket", 60)
	v.SetDefault("solver.maxpromotionsperlayer", 20)
	v.SetDefault("solver.maxlayers", 8)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{"development": true, "staging": true, "production": true}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}
	if c.Solver.MaxItemsPerBasket <= 0 {
		return fmt.Errorf("solver.maxitemsperbasket must be positive")
	}
	if c.Solver.MaxPromotionsPerLayer <= 0 {
		return fmt.Errorf("solver.maxpromotionsperlayer must be positive")
	}
	if c.Solver.MaxLayers <= 0 {
		return fmt.Errorf("solver.maxlayers must be positive")
	}
	return nil
}

// IsProduction returns true if running in the production environment.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Default returns the built-in defaults without reading any file or
// environment variable, for library callers that embed the engine
// without a surrounding application config.
func Default() *Config {
	return &Config{
		App: AppConfig{Environment: "development", LogLevel: "info"},
		Solver: SolverConfig{
			DefaultDeadline:       0,
			MaxItemsPerBasket:     60,
			MaxPromotionsPerLayer: 20,
			MaxLayers:             8,
		},
	}
}
