package logging

import "testing"

func TestSetLevel(t *testing.T) {
	orig := GetLevel()
	defer SetLevel(orig)

	tests := []struct {
		level LogLevel
		debug bool
	}{
		{LevelDebug, true},
		{LevelInfo, false},
		{LevelWarn, false},
		{LevelError, false},
	}

	for _, tt := range tests {
		SetLevel(tt.level)
		if got := GetLevel(); got != tt.level {
			t.Errorf("GetLevel() = %v, want %v", got, tt.level)
		}
		if got := IsDebugEnabled(); got != tt.debug {
			t.Errorf("IsDebugEnabled() at %v = %v, want %v", tt.level, got, tt.debug)
		}
	}
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(42), "unknown(42)"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("LogLevel(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestLeveledOutputDoesNotPanic(t *testing.T) {
	orig := GetLevel()
	defer SetLevel(orig)

	SetLevel(LevelError)
	Debug("suppressed %s", "debug")
	Info("suppressed %s", "info")
	Warn("suppressed %s", "warn")
	Error("emitted %s", "error")
}
