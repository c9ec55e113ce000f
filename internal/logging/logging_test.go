package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"connectgo/internal/config"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Leveler
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tc := range cases {
		got, err := parseLevel(tc.in)
		if err != nil {
			t.Errorf("parseLevel(%q) error: %v", tc.in, err)

			continue
		}
		if got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	if _, err := parseLevel("verbose"); err == nil {
		t.Error("expected error for unsupported level")
	}
}

func TestConfigureWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	m := NewManager()
	if err := m.Configure(config.LoggingConfig{Level: "info", LogToFile: true}, path); err != nil {
		t.Fatalf("configure: %v", err)
	}

	m.Logger("test").Info("hello from test")
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(raw), "hello from test") {
		t.Fatalf("expected log line in file, got %q", raw)
	}
	if !strings.Contains(string(raw), "component=test") {
		t.Fatalf("expected component attribute, got %q", raw)
	}
}

func TestConfigureRejectsBadLevel(t *testing.T) {
	m := NewManager()
	if err := m.Configure(config.LoggingConfig{Level: "verbose"}, ""); err == nil {
		t.Fatal("expected error for unsupported level")
	}
}
