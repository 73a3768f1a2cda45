package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := InitWriter(nil); err == nil {
		t.Fatal("expected error for nil writer")
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Get().Debug(ctx, "hidden")
	Get().Info(ctx, "scored", String("model", "Horvath Clock"), Float32("age", 42.5))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message written at info level: %q", out)
	}
	if !strings.Contains(out, "model=\"Horvath Clock\"") || !strings.Contains(out, "age=42.5") {
		t.Errorf("fields missing from output: %q", out)
	}

	buf.Reset()
	if err := SetLevelString("debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Get().Debug(ctx, "visible", Error(errors.New("boom")))
	if !strings.Contains(buf.String(), "visible") || !strings.Contains(buf.String(), "error=boom") {
		t.Errorf("debug message missing: %q", buf.String())
	}
}

func TestLoggerNamed(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("scoring").Info(context.Background(), "pass done", Int("rows", 3))
	if !strings.Contains(buf.String(), "scoring.rows=3") {
		t.Errorf("group prefix missing: %q", buf.String())
	}
}

func TestLoggerSource(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	SetSource(true)
	defer SetSource(false)

	Get().Warn(context.Background(), "with source")
	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Errorf("source attribute missing: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q) unexpected error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNop(t *testing.T) {
	l := Nop().Named("x")
	l.Info(context.Background(), "dropped")
	l.Error(context.Background(), "dropped")
}
