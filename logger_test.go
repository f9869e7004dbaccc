package ili9341

import (
	"strings"
	"testing"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(42), "?"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("LogLevel(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestWriterSinkFiltersByLevel(t *testing.T) {
	var b strings.Builder
	sink := NewLogSink(&b, LevelWarn)

	sink.Logf(LevelDebug, "dropped %d", 1)
	sink.Logf(LevelInfo, "dropped too")
	sink.Logf(LevelWarn, "kept %s", "warning")
	sink.Logf(LevelError, "kept error")

	got := b.String()
	if strings.Contains(got, "dropped") {
		t.Errorf("suppressed levels leaked: %q", got)
	}
	if !strings.Contains(got, "WARN: kept warning\n") {
		t.Errorf("warning missing: %q", got)
	}
	if !strings.Contains(got, "ERROR: kept error\n") {
		t.Errorf("error missing: %q", got)
	}
}

func TestNopSink(t *testing.T) {
	// Must not panic, even with a nil format argument list.
	var s nopSink
	s.Logf(LevelError, "ignored %d %s", 1, "x")
	s.Logf(LevelDebug, "ignored")
}
