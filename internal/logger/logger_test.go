package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

// resetLogger resets the logger to default state for test isolation
func resetLogger() {
	_ = Init(Options{})
}

func TestInit_DefaultLevel_Info(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := Init(Options{Output: buf}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer resetLogger()

	Info("test info")
	if !strings.Contains(buf.String(), "test info") {
		t.Error("Info message should be logged at default level")
	}

	buf.Reset()

	Debug("test debug")
	if strings.Contains(buf.String(), "test debug") {
		t.Error("Debug message should not be logged at default level")
	}
}

func TestInit_LevelByName(t *testing.T) {
	tests := []struct {
		level     string
		logs      func()
		wantShown bool
	}{
		{"debug", func() { Debug("probe") }, true},
		{"info", func() { Debug("probe") }, false},
		{"warn", func() { Info("probe") }, false},
		{"warn", func() { Warn("probe") }, true},
		{"error", func() { Warn("probe") }, false},
		{"ERROR", func() { Error("probe") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			if err := Init(Options{Level: tt.level, Output: buf}); err != nil {
				t.Fatalf("Init() error = %v", err)
			}
			defer resetLogger()

			tt.logs()
			if got := strings.Contains(buf.String(), "probe"); got != tt.wantShown {
				t.Errorf("shown = %v, want %v (output %q)", got, tt.wantShown, buf.String())
			}
		})
	}
}

func TestInit_UnknownLevel(t *testing.T) {
	if err := Init(Options{Level: "chatty"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestInit_QuietOverridesDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	_ = Init(Options{Debug: true, Quiet: true, Output: buf})
	defer resetLogger()

	Debug("debug message")
	Info("info message")
	Error("error message")

	output := buf.String()
	if strings.Contains(output, "debug message") || strings.Contains(output, "info message") {
		t.Error("only errors should be logged when Quiet=true")
	}
	if !strings.Contains(output, "error message") {
		t.Error("Error should be logged when Quiet=true")
	}
}

func TestInit_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	_ = Init(Options{JSON: true, Output: buf})
	defer resetLogger()

	Info("test message", "chunks", 3)

	output := buf.String()
	if !strings.HasPrefix(strings.TrimSpace(output), "{") {
		t.Errorf("JSON format should produce JSON output, got %q", output)
	}
	if !strings.Contains(output, `"chunks":3`) {
		t.Errorf("expected structured attribute in output, got %q", output)
	}
}

func TestInit_CustomLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	custom := slog.New(slog.NewTextHandler(buf, nil))
	_ = Init(Options{Logger: custom})
	defer resetLogger()

	if Default() != custom {
		t.Error("Default() should return the custom logger")
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	_ = Init(Options{Output: buf})
	defer resetLogger()

	reqLogger := With("request_id", "abc123")
	ctx := WithContext(context.Background(), reqLogger)

	InfoContext(ctx, "handling request")

	output := buf.String()
	if !strings.Contains(output, "handling request") || !strings.Contains(output, "abc123") {
		t.Errorf("expected context logger attributes in output, got %q", output)
	}
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) != Default() {
		t.Error("FromContext without a logger should return Default()")
	}
}
