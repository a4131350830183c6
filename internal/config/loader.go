package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "studybuddy.yaml"

// Load builds the configuration from defaults, an optional YAML file,
// environment variables and _file references, then validates it.
//
// The file is the explicit path, else $STUDYBUDDY_CONFIG, else ./studybuddy.yaml
// when present. An explicit path that does not exist is an error.
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	if path := discoverConfigFile(configPath); path != "" {
		if err := loadYAMLFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if p := os.Getenv("STUDYBUDDY_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile
	}
	return ""
}

func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// apiKeyEnv lists the key variables in priority order.
var apiKeyEnv = []string{"STUDYBUDDY_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY"}

func applyEnvOverrides(cfg *Config) error {
	var errs []error

	for _, name := range apiKeyEnv {
		if v := os.Getenv(name); v != "" {
			cfg.AI.APIKey = v
			break
		}
	}
	if v := os.Getenv("STUDYBUDDY_API_KEY_FILE"); v != "" {
		cfg.AI.APIKeyFile = v
	}
	if v := os.Getenv("STUDYBUDDY_MODEL"); v != "" {
		cfg.AI.Model = v
	}
	if v := os.Getenv("STUDYBUDDY_AI_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("STUDYBUDDY_AI_TIMEOUT: %w", err))
		} else {
			cfg.AI.Timeout = d
		}
	}
	if v := os.Getenv("STUDYBUDDY_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			errs = append(errs, fmt.Errorf("STUDYBUDDY_TEMPERATURE: %w", err))
		} else {
			t := float32(f)
			cfg.AI.Temperature = &t
		}
	}

	if v := os.Getenv("STUDYBUDDY_ADDR"); v != "" {
		cfg.Server.Addr = v
	} else if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + v
	}
	if v := os.Getenv("STUDYBUDDY_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("STUDYBUDDY_MAX_UPLOAD_BYTES: %w", err))
		} else {
			cfg.Server.MaxUploadBytes = n
		}
	}

	if v := os.Getenv("STUDYBUDDY_MAX_SESSIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("STUDYBUDDY_MAX_SESSIONS: %w", err))
		} else {
			cfg.Session.MaxSessions = n
		}
	}
	if v := os.Getenv("STUDYBUDDY_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("STUDYBUDDY_SESSION_TTL: %w", err))
		} else {
			cfg.Session.TTL = d
		}
	}

	if v := os.Getenv("STUDYBUDDY_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("STUDYBUDDY_METRICS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("STUDYBUDDY_METRICS_ENABLED: %w", err))
		} else {
			cfg.Metrics.Enabled = b
		}
	}

	return errors.Join(errs...)
}

// resolveFileReferences fills api_key from api_key_file when the key itself is unset.
func resolveFileReferences(cfg *Config) error {
	if cfg.AI.APIKeyFile != "" && cfg.AI.APIKey == "" {
		val, err := readSecretFile(cfg.AI.APIKeyFile)
		if err != nil {
			return fmt.Errorf("ai.api_key_file: %w", err)
		}
		cfg.AI.APIKey = val
	}
	return nil
}

func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
