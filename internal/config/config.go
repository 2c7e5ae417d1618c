// ============================================================================
// Config — task-pool server configuration
// ============================================================================
//
// Package: internal/config
// File: config.go
//
// Config is loaded from a YAML file (if present) and overlaid with
// TASKPOOL_-prefixed environment variables via spf13/viper, the way
// akumar23/fleet and emptyset-io/cloudsift load their own service config.
// Every field has a sane zero-config default so `taskpool serve` with no
// flags at all still boots.
//
// ============================================================================

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable of the server.
type Config struct {
	// InitialWorkers is the roster size the pool starts with.
	InitialWorkers int `mapstructure:"initial_workers" yaml:"initial_workers"`
	// MaxWorkers caps elastic growth. Defaults to pool.MaxWorkers (100)
	// if zero or unset; kept here as a knob for tests that want a lower
	// cap to exercise ExpansionRefused without spinning up 100 goroutines.
	MaxWorkers int `mapstructure:"max_workers" yaml:"max_workers"`
	// ControllerInterval is how often the controller samples the roster
	// for a simultaneous-stall condition.
	ControllerInterval time.Duration `mapstructure:"controller_interval" yaml:"controller_interval"`
	// AuditLogPath is where the append-only event log is written.
	AuditLogPath string `mapstructure:"audit_log_path" yaml:"audit_log_path"`
	// MetricsEnabled turns on the /metrics HTTP server.
	MetricsEnabled bool `mapstructure:"metrics_enabled" yaml:"metrics_enabled"`
	// MetricsPort is the port the /metrics server listens on.
	MetricsPort int `mapstructure:"metrics_port" yaml:"metrics_port"`
}

// Default returns the zero-config defaults.
func Default() Config {
	return Config{
		InitialWorkers:     4,
		MaxWorkers:         100,
		ControllerInterval: 100 * time.Millisecond,
		AuditLogPath:       "../log_file.txt",
		MetricsEnabled:     false,
		MetricsPort:        9090,
	}
}

// Load reads path (if non-empty and present) and env overrides on top of
// Default(). An empty or missing path is not an error: the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TASKPOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("initial_workers", cfg.InitialWorkers)
	v.SetDefault("max_workers", cfg.MaxWorkers)
	v.SetDefault("controller_interval", cfg.ControllerInterval)
	v.SetDefault("audit_log_path", cfg.AuditLogPath)
	v.SetDefault("metrics_enabled", cfg.MetricsEnabled)
	v.SetDefault("metrics_port", cfg.MetricsPort)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
