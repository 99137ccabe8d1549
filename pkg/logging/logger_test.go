package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"DEBUG", DebugLevel},
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"WARN", WarnLevel},
		{"warning", WarnLevel},
		{"ERROR", ErrorLevel},
		{"invalid", InfoLevel}, // Default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFieldConstructors(t *testing.T) {
	t.Run("Duration", func(t *testing.T) {
		f := Duration("timeout", 5*time.Second)
		if f.Key != "timeout" || f.Value != "5s" {
			t.Errorf("Duration() = %+v", f)
		}
	})

	t.Run("Error", func(t *testing.T) {
		f := Error(errors.New("test error"))
		if f.Key != "error" || f.Value != "test error" {
			t.Errorf("Error() = %+v", f)
		}
	})

	t.Run("Error_nil", func(t *testing.T) {
		f := Error(nil)
		if f.Key != "error" || f.Value != nil {
			t.Errorf("Error(nil) = %+v", f)
		}
	})

	t.Run("UserID", func(t *testing.T) {
		f := UserID(42)
		if f.Key != "user_id" || f.Value != int64(42) {
			t.Errorf("UserID() = %+v", f)
		}
	})
}

func decodeLine(t *testing.T, line []byte) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("Failed to unmarshal log entry %q: %v", line, err)
	}
	return entry
}

func TestZapLogger_BasicLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	logger.Info("test message", String("key", "value"))

	entry := decodeLine(t, bytes.TrimSpace(buf.Bytes()))
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
	if entry["msg"] != "test message" {
		t.Errorf("msg = %v, want 'test message'", entry["msg"])
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want 'value'", entry["key"])
	}
	if entry["time"] == nil {
		t.Error("time field is missing")
	}
}

func TestZapLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if decodeLine(t, []byte(lines[0]))["level"] != "WARN" {
		t.Errorf("first line should be WARN: %s", lines[0])
	}
}

func TestZapLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	child := logger.With(Component("edge"))
	child.Info("hello", Path("/api/productos"))

	entry := decodeLine(t, bytes.TrimSpace(buf.Bytes()))
	if entry["component"] != "edge" {
		t.Errorf("component = %v, want edge", entry["component"])
	}
	if entry["path"] != "/api/productos" {
		t.Errorf("path = %v", entry["path"])
	}

	buf.Reset()
	logger.Info("parent")
	if strings.Contains(buf.String(), "component") {
		t.Error("parent logger must not inherit child fields")
	}
}

func TestZapLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	if logger.GetLevel() != InfoLevel {
		t.Fatalf("GetLevel() = %v, want INFO", logger.GetLevel())
	}

	logger.SetLevel(ErrorLevel)
	logger.Warn("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected no output after raising level, got %q", buf.String())
	}
	if logger.GetLevel() != ErrorLevel {
		t.Errorf("GetLevel() = %v, want ERROR", logger.GetLevel())
	}
}

func TestZapLogger_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZapLogger(&buf, InfoLevel, FormatConsole)

	logger.Info("console line", String("k", "v"))

	out := buf.String()
	if !strings.Contains(out, "INFO") || !strings.Contains(out, "console line") {
		t.Errorf("unexpected console output %q", out)
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	op := StartTimer(logger, "query", Operation("list_products"))
	op.End()

	entry := decodeLine(t, bytes.TrimSpace(buf.Bytes()))
	if entry["latency"] == nil {
		t.Error("latency field missing")
	}
	if entry["operation"] != "list_products" {
		t.Errorf("operation = %v", entry["operation"])
	}
}

func TestNopLogger(t *testing.T) {
	var l Logger = NewNopLogger()
	l.Info("ignored")
	if l.With(String("a", "b")) == nil {
		t.Error("With should return a logger")
	}
}

func TestDefaultLogger(t *testing.T) {
	l1 := DefaultLogger()
	l2 := DefaultLogger()
	if l1 != l2 {
		t.Error("DefaultLogger() should return the same instance")
	}
}

func BenchmarkZapLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark", String("key", "value"), Int("n", i))
	}
}
