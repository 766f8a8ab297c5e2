// Package config loads smppsimd configuration with koanf/v2: built-in
// defaults, overlaid by a YAML file for the selected run mode, overlaid by
// SMPPSIM_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds the complete smppsimd configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Smpp       SmppConfig       `koanf:"smpp"`
	Log        LogConfig        `koanf:"log"`
	Lifecycle  LifecycleConfig  `koanf:"lifecycle"`
	MoService  MoServiceConfig  `koanf:"mo_service"`
}

// ServerConfig holds the web API listen configuration.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// Account is one system_id/password pair allowed to bind, beyond the
// default smpp.system_id/smpp.password account.
type Account struct {
	SystemID string `koanf:"system_id"`
	Password string `koanf:"password"`
}

// SmppConfig holds the SMPP listener configuration.
type SmppConfig struct {
	Port        int       `koanf:"port"`
	SystemID    string    `koanf:"system_id"`
	Password    string    `koanf:"password"`
	MaxSessions int       `koanf:"max_sessions"`
	Accounts    []Account `koanf:"accounts"`
	Version     string    `koanf:"version"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	Level string `koanf:"level"`
}

// LifecycleConfig holds the delivery-receipt engine's tick and outcome
// distribution parameters.
type LifecycleConfig struct {
	MessageStateCheckFrequencyMs int `koanf:"message_state_check_frequency_ms"`
	MaxTimeEnrouteMs             int `koanf:"max_time_enroute_ms"`
	PercentDelivered             int `koanf:"percent_delivered"`
	PercentUndeliverable         int `koanf:"percent_undeliverable"`
	PercentAccepted              int `koanf:"percent_accepted"`
	PercentRejected              int `koanf:"percent_rejected"`
}

// MoServiceConfig holds the mobile-originated traffic injection settings.
type MoServiceConfig struct {
	Enabled                 bool   `koanf:"enabled"`
	DeliveryMessagesPerMinute int  `koanf:"delivery_messages_per_minute"`
	FilePath                string `koanf:"file_path"`
}

// envPrefix is the environment variable prefix for smppsimd configuration.
// Variables are named SMPPSIM_<section>_<key>, e.g. SMPPSIM_SMPP_PORT.
const envPrefix = "SMPPSIM_"

// DefaultConfig returns a Config populated with the simulator's documented
// defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Smpp: SmppConfig{
			Port:        2775,
			SystemID:    "smppclient1",
			Password:    "password",
			MaxSessions: 50,
			Version:     "5.0",
		},
		Log: LogConfig{
			Level: "info",
		},
		Lifecycle: LifecycleConfig{
			MessageStateCheckFrequencyMs: 5000,
			MaxTimeEnrouteMs:             10000,
			PercentDelivered:             90,
			PercentUndeliverable:         6,
			PercentAccepted:              2,
			PercentRejected:              2,
		},
		MoService: MoServiceConfig{
			Enabled:  false,
			FilePath: "deliver_messages.csv",
		},
	}
}

// Load reads config.<runMode>.yaml, if present, over DefaultConfig(), then
// applies SMPPSIM_-prefixed environment variable overrides.
func Load(runMode string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k, DefaultConfig()); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	path := fmt.Sprintf("config.%s.yaml", runMode)
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// A missing run-mode file is not fatal: defaults plus env still apply.
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("config: load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return cfg, nil
}

func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	for _, section := range []string{"mo_service", "server", "smpp", "log", "lifecycle"} {
		if strings.HasPrefix(s, section+"_") {
			return section + "." + strings.TrimPrefix(s, section+"_")
		}
	}
	return strings.ReplaceAll(s, "_", ".")
}

func loadDefaults(k *koanf.Koanf, d *Config) error {
	defaults := map[string]any{
		"server.host":                               d.Server.Host,
		"server.port":                                d.Server.Port,
		"smpp.port":                                  d.Smpp.Port,
		"smpp.system_id":                             d.Smpp.SystemID,
		"smpp.password":                              d.Smpp.Password,
		"smpp.max_sessions":                          d.Smpp.MaxSessions,
		"smpp.version":                               d.Smpp.Version,
		"log.level":                                  d.Log.Level,
		"lifecycle.message_state_check_frequency_ms": d.Lifecycle.MessageStateCheckFrequencyMs,
		"lifecycle.max_time_enroute_ms":               d.Lifecycle.MaxTimeEnrouteMs,
		"lifecycle.percent_delivered":                 d.Lifecycle.PercentDelivered,
		"lifecycle.percent_undeliverable":             d.Lifecycle.PercentUndeliverable,
		"lifecycle.percent_accepted":                  d.Lifecycle.PercentAccepted,
		"lifecycle.percent_rejected":                  d.Lifecycle.PercentRejected,
		"mo_service.enabled":                          d.MoService.Enabled,
		"mo_service.delivery_messages_per_minute":      d.MoService.DeliveryMessagesPerMinute,
		"mo_service.file_path":                        d.MoService.FilePath,
	}
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}
	return nil
}

// Validation errors.
var (
	// ErrPercentagesOverflow indicates the lifecycle outcome percentages
	// sum to more than 100.
	ErrPercentagesOverflow = errors.New("lifecycle percentages must sum to <= 100")
	// ErrInvalidSmppVersion indicates smpp.version is neither 3.4 nor 5.0.
	ErrInvalidSmppVersion = errors.New("smpp.version must be \"3.4\" or \"5.0\"")
)

// Validate checks the configuration for logical errors, rejecting a
// lifecycle percentage sum over 100 at load time.
func Validate(cfg *Config) error {
	sum := cfg.Lifecycle.PercentDelivered + cfg.Lifecycle.PercentUndeliverable +
		cfg.Lifecycle.PercentAccepted + cfg.Lifecycle.PercentRejected
	if sum > 100 {
		return ErrPercentagesOverflow
	}
	switch cfg.Smpp.Version {
	case "3.4", "5.0":
	default:
		return ErrInvalidSmppVersion
	}
	return nil
}
