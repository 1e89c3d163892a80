package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		level   string
		want    zapcore.Level
		wantErr bool
	}{
		{name: "production default", mode: "production", level: "", want: zapcore.InfoLevel},
		{name: "development with debug", mode: "development", level: "debug", want: zapcore.DebugLevel},
		{name: "explicit warn", mode: "production", level: "warn", want: zapcore.WarnLevel},
		{name: "invalid level", mode: "production", level: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, lvl, err := New(tt.mode, tt.level)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if logger == nil {
				t.Fatal("expected non-nil logger")
			}
			if got := lvl.Level(); got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAtomicLevelAdjustsAtRuntime(t *testing.T) {
	logger, lvl, err := New("production", "info")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("debug should be disabled at info level")
	}

	lvl.SetLevel(zapcore.DebugLevel)
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("debug should be enabled after SetLevel")
	}
}
