package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dccc/clubhouse/pkg/config"
)

func TestInitLogger(t *testing.T) {
	oldLogger := Logger
	defer func() { Logger = oldLogger }()

	tests := []struct {
		name  string
		cfg   config.LoggingConfig
		level zapcore.Level
	}{
		{"json info", config.LoggingConfig{Level: "INFO", Format: "json"}, zapcore.InfoLevel},
		{"text debug", config.LoggingConfig{Level: "DEBUG", Format: "text"}, zapcore.DebugLevel},
		{"bad level falls back", config.LoggingConfig{Level: "LOUD", Format: "json"}, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := InitLogger(&tt.cfg); err != nil {
				t.Fatalf("Failed to initialize logger: %v", err)
			}
			if !Logger.Core().Enabled(tt.level) {
				t.Errorf("Expected level %v to be enabled", tt.level)
			}
			if tt.level > zapcore.DebugLevel && Logger.Core().Enabled(zapcore.DebugLevel) {
				t.Errorf("Debug should be disabled at level %v", tt.level)
			}
		})
	}
}

func TestWithComponent(t *testing.T) {
	oldLogger := Logger
	defer func() { Logger = oldLogger }()

	core, logs := observer.New(zapcore.InfoLevel)
	Logger = zap.New(core)

	WithMember(WithComponent("ledger"), "m1").Info("applied")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["component"] != "ledger" {
		t.Errorf("Expected component=ledger, got %v", fields["component"])
	}
	if fields["member_id"] != "m1" {
		t.Errorf("Expected member_id=m1, got %v", fields["member_id"])
	}
}
