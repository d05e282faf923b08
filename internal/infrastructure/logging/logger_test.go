package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/princeton-sns/noise-go/internal/infrastructure/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	log := New(config.LoggingConfig{Level: "warn", Format: "json", Output: "stdout"}, "test")

	if log.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info enabled at warn level, want filtered")
	}
	if !log.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn disabled at warn level, want enabled")
	}
	if !log.Enabled(context.Background(), slog.LevelError) {
		t.Error("error disabled at warn level, want enabled")
	}
}

func TestWith(t *testing.T) {
	log := New(config.LoggingConfig{Level: "info", Format: "text", Output: "stderr"}, "test")

	child := log.With("component", "device")
	if child == nil || child.Logger == nil {
		t.Fatal("With() returned nil logger")
	}
	if child == log {
		t.Error("With() returned the receiver, want a derived logger")
	}
}

func TestDefault(t *testing.T) {
	log := Default()

	if log == nil || log.Logger == nil {
		t.Fatal("Default() returned nil logger")
	}
	if !log.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("default logger filters info, want enabled")
	}
	if log.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("default logger enables debug, want filtered")
	}
}
