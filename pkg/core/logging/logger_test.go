package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevel_Constants(t *testing.T) {
	if LevelDebug != 0 {
		t.Errorf("LevelDebug = %d, want 0", LevelDebug)
	}
	if LevelInfo != 1 {
		t.Errorf("LevelInfo = %d, want 1", LevelInfo)
	}
	if LevelWarn != 2 {
		t.Errorf("LevelWarn = %d, want 2", LevelWarn)
	}
	if LevelError != 3 {
		t.Errorf("LevelError = %d, want 3", LevelError)
	}
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{Level(99), "unknown"},
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
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{" error ", LevelError},
		{"invalid", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNew(t *testing.T) {
	logger := New("test-service")

	if logger == nil {
		t.Fatal("New() returned nil")
	}
	if logger.Name() != "test-service" {
		t.Errorf("Name() = %v, want test-service", logger.Name())
	}
}

func newBufferLogger(level string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := NewWithConfig(LoggerConfig{
		ServiceName: "test",
		Level:       level,
		Format:      "json",
		Output:      &buf,
	})
	return logger, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()

	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_KeyValues(t *testing.T) {
	logger, buf := newBufferLogger("info")

	logger.Info("lookup served", "query", "html", "found", true, "entries", 2)

	entries := decodeLines(t, buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e["msg"] != "lookup served" {
		t.Errorf("msg = %v, want 'lookup served'", e["msg"])
	}
	if e["logger"] != "test" {
		t.Errorf("logger = %v, want test", e["logger"])
	}
	if e["level"] != "info" {
		t.Errorf("level = %v, want info", e["level"])
	}
	if e["query"] != "html" {
		t.Errorf("query = %v, want html", e["query"])
	}
	if e["found"] != true {
		t.Errorf("found = %v, want true", e["found"])
	}
	if e["entries"] != float64(2) {
		t.Errorf("entries = %v, want 2", e["entries"])
	}
	if _, ok := e["timestamp"]; !ok {
		t.Error("timestamp should be set")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger("warn")

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	entries := decodeLines(t, buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0]["level"] != "warn" || entries[1]["level"] != "error" {
		t.Errorf("unexpected levels: %v, %v", entries[0]["level"], entries[1]["level"])
	}
}

func TestLogger_WithLevel(t *testing.T) {
	logger, buf := newBufferLogger("info")
	result := logger.WithLevel(LevelDebug)

	if result == nil {
		t.Fatal("WithLevel should return a logger")
	}
	if result.Name() != "test" {
		t.Errorf("name should be preserved: got %v", result.Name())
	}

	logger.Debug("hidden")
	result.Debug("visible")

	entries := decodeLines(t, buf)
	if len(entries) != 1 || entries[0]["msg"] != "visible" {
		t.Errorf("entries = %v, want only 'visible'", entries)
	}
}

func TestLogger_With(t *testing.T) {
	logger, buf := newBufferLogger("info")

	logger.With("request_id", "abc").Info("handled")

	entries := decodeLines(t, buf)
	if len(entries) != 1 || entries[0]["request_id"] != "abc" {
		t.Errorf("entries = %v, want request_id=abc", entries)
	}
}

func TestLogger_OddKeyValues(t *testing.T) {
	logger, _ := newBufferLogger("info")

	// Should not panic with odd number of key-values
	logger.Info("message", "key1", "value1", "orphan")
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithConfig(LoggerConfig{ServiceName: "cli", Level: "info", Format: "text", Output: &buf})

	logger.Info("hello", "key", "value")

	out := buf.String()
	if !strings.Contains(out, "INFO") || !strings.Contains(out, "hello") {
		t.Errorf("text output = %q, want level and message", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("text output should not be JSON: %q", out)
	}
}

func TestDefaultLoggerConfig(t *testing.T) {
	cfg := DefaultLoggerConfig("my-service")

	if cfg.ServiceName != "my-service" {
		t.Errorf("ServiceName = %v, want my-service", cfg.ServiceName)
	}
	if cfg.Level != "info" {
		t.Errorf("Level = %v, want info", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %v, want json", cfg.Format)
	}
}

func TestSetDefaults(t *testing.T) {
	defaultsMu.RLock()
	saved := defaults
	defaultsMu.RUnlock()
	defer func() {
		defaultsMu.Lock()
		defaults = saved
		defaultsMu.Unlock()
	}()

	var buf bytes.Buffer
	SetDefaults(LoggerConfig{Level: "debug", Output: &buf})

	cfg := DefaultLoggerConfig("svc")
	if cfg.Level != "debug" {
		t.Errorf("Level = %v, want debug", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %v, want json (unchanged)", cfg.Format)
	}

	New("svc").Debug("captured")
	if !strings.Contains(buf.String(), "captured") {
		t.Errorf("output = %q, want captured debug message", buf.String())
	}
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(LoggerConfig{
		ServiceName: "test-service",
		Level:       "debug",
		Format:      "json",
		Output:      &bytes.Buffer{},
	})

	if logger == nil {
		t.Fatal("NewLogger() returned nil")
	}
}

func BenchmarkLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	logger := NewWithConfig(LoggerConfig{ServiceName: "benchmark", Output: &buf})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message", "iteration", i)
		buf.Reset()
	}
}
