// Package config loads the vestibule configuration from a YAML file and
// VESTIBULE_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/vestibule"
	"github.com/aretw0/vestibule/internal/coordinator"
	"github.com/aretw0/vestibule/internal/logging"
	"github.com/aretw0/vestibule/internal/runtime"
	"github.com/aretw0/vestibule/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/vestibule/pkg/adapters/redis"
	"github.com/aretw0/vestibule/pkg/domain"
	"github.com/aretw0/vestibule/pkg/metrics"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "VESTIBULE_"

// Config is the full configuration of the CLI and servers.
type Config struct {
	HomeRoute       string        `yaml:"home_route" env:"HOME_ROUTE"`
	StartRoute      string        `yaml:"start_route" env:"START_ROUTE"`
	Debounce        time.Duration `yaml:"debounce" env:"DEBOUNCE"`
	BootDelay       time.Duration `yaml:"boot_delay" env:"BOOT_DELAY"`
	SequenceTimeout time.Duration `yaml:"sequence_timeout" env:"SEQUENCE_TIMEOUT"`
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL"`
	Debug           []string      `yaml:"debug" env:"DEBUG" envSeparator:","`

	Timings coordinator.Timings   `yaml:"timings" envPrefix:"TIMING_"`
	Scene   memory.SceneDurations `yaml:"scene" envPrefix:"SCENE_"`
	HTTP    HTTPConfig            `yaml:"http" envPrefix:"HTTP_"`
	Redis   RedisConfig           `yaml:"redis" envPrefix:"REDIS_"`
	Metrics MetricsConfig         `yaml:"metrics" envPrefix:"METRICS_"`
}

// HTTPConfig configures the debug API server.
type HTTPConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

// RedisConfig configures the transition recorder. An empty Addr disables it.
type RedisConfig struct {
	Addr    string        `yaml:"addr" env:"ADDR"`
	Prefix  string        `yaml:"prefix" env:"PREFIX"`
	Channel string        `yaml:"channel" env:"CHANNEL"`
	TTL     time.Duration `yaml:"ttl" env:"TTL"`
}

// MetricsConfig configures the Prometheus collector.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// Default returns the production defaults.
func Default() Config {
	return Config{
		HomeRoute:       domain.DefaultHomeRoute,
		StartRoute:      domain.DefaultHomeRoute,
		Debounce:        runtime.DefaultDebounce,
		BootDelay:       runtime.DefaultBootDelay,
		SequenceTimeout: coordinator.DefaultTimeout,
		LogLevel:        "info",
		Timings:         coordinator.DefaultTimings,
		Scene:           memory.DefaultSceneDurations,
		HTTP:            HTTPConfig{Addr: ":8080"},
		Redis: RedisConfig{
			Prefix:  redisAdapter.DefaultPrefix,
			Channel: redisAdapter.DefaultChannel,
			TTL:     redisAdapter.DefaultTTL,
		},
		Metrics: MetricsConfig{Enabled: true, Namespace: metrics.DefaultNamespace},
	}
}

// Load reads path (if not empty) over the defaults, then applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var knownSubsystems = map[string]bool{
	"*":                          true,
	logging.SubsystemMachine:     true,
	logging.SubsystemCoordinator: true,
	logging.SubsystemProjector:   true,
	logging.SubsystemRegistry:    true,
	logging.SubsystemScene:       true,
}

// Validate checks the configuration for values the core cannot run with.
func (c Config) Validate() error {
	var errs []error
	if !strings.HasPrefix(c.HomeRoute, "/") {
		errs = append(errs, fmt.Errorf("home_route must start with '/': %q", c.HomeRoute))
	}
	if c.StartRoute == "" {
		errs = append(errs, errors.New("start_route is required"))
	}
	for name, d := range map[string]time.Duration{
		"debounce":         c.Debounce,
		"boot_delay":       c.BootDelay,
		"sequence_timeout": c.SequenceTimeout,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative: %s", name, d))
		}
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	for _, s := range c.Debug {
		if !knownSubsystems[s] {
			errs = append(errs, fmt.Errorf("unknown debug subsystem %q", s))
		}
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// AppOptions translates the configuration into vestibule options.
func (c Config) AppOptions() []vestibule.Option {
	return []vestibule.Option{
		vestibule.WithHomeRoute(c.HomeRoute),
		vestibule.WithDebounce(c.Debounce),
		vestibule.WithBootDelay(c.BootDelay),
		vestibule.WithSequenceTimeout(c.SequenceTimeout),
		vestibule.WithTimings(c.Timings),
		vestibule.WithDebug(c.Debug...),
	}
}
