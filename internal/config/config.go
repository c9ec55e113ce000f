package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const defaultCoreSocket = "/run/kdeconnect/core.sock"

// LoggingConfig defines runtime logging behavior.
type LoggingConfig struct {
	Level     string `json:"level"`
	LogToFile bool   `json:"log_to_file"`
}

// CoreConfig locates the external protocol engine.
type CoreConfig struct {
	Socket string `json:"socket"`
}

// NotificationEventsConfig stores per-event notification toggles.
type NotificationEventsConfig struct {
	PairingRequest  bool `json:"pairing_request"`
	IncomingMessage bool `json:"incoming_message"`
}

// NotificationConfig stores desktop notification preferences.
type NotificationConfig struct {
	Enabled bool                     `json:"enabled"`
	Events  NotificationEventsConfig `json:"events"`
}

// AppConfig is the root persisted application configuration.
type AppConfig struct {
	Core          CoreConfig         `json:"core"`
	Logging       LoggingConfig      `json:"logging"`
	Notifications NotificationConfig `json:"notifications"`
}

func Default() AppConfig {
	return AppConfig{
		Core: CoreConfig{
			Socket: defaultCoreSocket,
		},
		Logging: LoggingConfig{
			Level:     "info",
			LogToFile: false,
		},
		Notifications: NotificationConfig{
			Enabled: true,
			Events: NotificationEventsConfig{
				PairingRequest:  true,
				IncomingMessage: true,
			},
		},
	}
}

func Load(path string) (AppConfig, error) {
	cfg := Default()
	cleanPath := filepath.Clean(path)
	// #nosec G304 -- path is resolved by app runtime and points to user config dir.
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config json: %w", err)
	}

	cfg.FillMissingDefaults()

	return cfg, nil
}

func Save(path string, cfg AppConfig) error {
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config json: %w", err)
	}
	if err := os.WriteFile(filepath.Clean(path), raw, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

func (c *AppConfig) FillMissingDefaults() {
	if c.Core.Socket == "" {
		c.Core.Socket = defaultCoreSocket
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
