package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestWithComponent(t *testing.T) {
	log := New()
	entry := log.WithComponent("test")
	if v, ok := entry.Entry.Data["component"]; !ok || v != "test" {
		t.Fatalf("component field missing: %v", entry.Entry.Data)
	}
}

func TestConfigureInvalidLevel(t *testing.T) {
	// Ensure environment variables do not override the provided level
	t.Setenv("LOG_LEVEL", "")

	log := New()
	if err := log.Configure("invalid", "json", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}

func TestConfigureInvalidFormat(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	log := New()
	if err := log.Configure("info", "xml", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid format")
	}
}

func TestConfigureFileOutput(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "app.log")
	log := New()
	if err := log.Configure("debug", "json", path, 0); err != nil {
		t.Fatalf("configure: %v", err)
	}
	log.WithComponent("file_test").Debug("hello file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var line map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(data), &line); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, data)
	}
	if line["message"] != "hello file" || line["component"] != "file_test" {
		t.Fatalf("unexpected log line: %v", line)
	}
}

func TestConfigureLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")

	log := New()
	if err := log.Configure("debug", "text", "stderr", 0); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if log.GetLevel() != logrus.ErrorLevel {
		t.Fatalf("expected env level to win, got %s", log.GetLevel())
	}
}

func TestLogPerformanceEntry(t *testing.T) {
	l, hook := test.NewNullLogger()
	log := Wrap(l)

	LogPerformanceEntry(log.WithComponent("x"), "scheduler", "extract_cycle", 1500*time.Millisecond, nil)

	last := hook.LastEntry()
	if last == nil || last.Message != "performance metric" {
		t.Fatalf("expected performance entry, got %v", last)
	}
	if last.Data["duration_ms"] != float64(1500) || last.Data["operation"] != "extract_cycle" {
		t.Fatalf("unexpected fields: %v", last.Data)
	}
	if last.Data["component"] != "scheduler" {
		t.Fatalf("component not overridden: %v", last.Data)
	}
}

func TestLogDataFlowEntry(t *testing.T) {
	l, hook := test.NewNullLogger()
	log := Wrap(l)

	LogDataFlowEntry(log.WithComponent("writer"), "aggregator", "report_file", 24, "positions")

	last := hook.LastEntry()
	if last == nil || !strings.Contains(last.Message, "data flow") {
		t.Fatalf("expected data flow entry, got %v", last)
	}
	if last.Data["record_count"] != 24 || last.Data["destination"] != "report_file" {
		t.Fatalf("unexpected fields: %v", last.Data)
	}
}
