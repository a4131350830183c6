// Package config holds the study-buddy service configuration.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	AI      AIConfig      `yaml:"ai"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`             // default: ":8080"
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 180s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"` // default: 20 MiB
}

type AIConfig struct {
	APIKey      string        `yaml:"api_key"`
	APIKeyFile  string        `yaml:"api_key_file"` // _file variant for api_key
	Model       string        `yaml:"model"`        // default: gemini-2.5-flash
	Timeout     time.Duration `yaml:"timeout"`      // default: 120s
	Temperature *float32      `yaml:"temperature"`  // unset leaves the model default
}

type SessionConfig struct {
	MaxSessions int           `yaml:"max_sessions"` // default: 1000
	TTL         time.Duration `yaml:"ttl"`          // default: 2h
}

type LogConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config populated with default values.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    180 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxUploadBytes:  20 << 20,
		},
		AI: AIConfig{
			Model:   "gemini-2.5-flash",
			Timeout: 120 * time.Second,
		},
		Session: SessionConfig{
			MaxSessions: 1000,
			TTL:         2 * time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
