package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	cfg.Logging.Level = "debug"
	cfg.Notifications.Events.IncomingMessage = false
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Logging.Level != "debug" {
		t.Fatalf("expected level debug, got %q", loaded.Logging.Level)
	}
	if loaded.Notifications.Events.IncomingMessage {
		t.Fatal("expected incoming message toggle to persist as off")
	}
	if loaded.Notifications.Events.PairingRequest != true {
		t.Fatal("expected untouched toggle to survive the round trip")
	}
}

func TestLoadFillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"notifications":{"enabled":false}}`), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected default level, got %q", cfg.Logging.Level)
	}
	if cfg.Core.Socket == "" {
		t.Fatal("expected default core socket")
	}
	if cfg.Notifications.Enabled {
		t.Fatal("expected explicit false to survive")
	}
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected decode error")
	}
}
