package logging

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want zerolog.Level
		ok   bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, true},
		{" WARNING ", zerolog.WarnLevel, true},
		{"off", zerolog.Disabled, true},
		{"loud", zerolog.InfoLevel, false},
	}
	for _, tt := range tests {
		got, ok := parseLevel(tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("parseLevel(%q) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogNoColor, "true")

	cfg := DefaultConfig(ProfileRuntime)
	ApplyEnvOverrides(&cfg)
	if cfg.Level != zerolog.ErrorLevel || !cfg.JSON || !cfg.NoColor {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoggerCreatedBeforeApply(t *testing.T) {
	l := Logger("early")

	var buf bytes.Buffer
	Apply(Config{Level: zerolog.DebugLevel, JSON: true, Out: &buf})
	defer Apply(Config{Level: zerolog.DebugLevel, JSON: true, Out: io.Discard})

	l.Info().Msg("hello")
	if !strings.Contains(buf.String(), `"component":"early"`) || !strings.Contains(buf.String(), "hello") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
