package logging

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Config{Level: "info", Format: "json"}, &buf)

	logger.Debug("hidden")
	logger.Info("storage price accepted", zap.Float64("price", 0.16))
	_ = logger.Sync()

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected a single JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "storage price accepted" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["price"] != 0.16 {
		t.Errorf("price = %v, want 0.16", entry["price"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("expected timestamp key")
	}
}

func TestNewInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Config{Level: "loud", Format: "json"}, &buf)

	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug should be filtered at info level, got %q", buf.String())
	}
	logger.Info("shown")
	if buf.Len() == 0 {
		t.Error("info should be written")
	}
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "avd-cost.log")
	logger, err := New(Config{Level: "debug", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("written")
	if err := logger.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
}

func TestGlobalLoggerInitialized(t *testing.T) {
	if Logger == nil {
		t.Fatal("init() should set up the global logger")
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(Config{Level: "info", Format: "json"}, &buf)

	Component(base, "retail").Info("lookup")
	_ = base.Sync()

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("unexpected log output %q: %v", buf.String(), err)
	}
	if entry["logger"] != "retail" || entry["component"] != "retail" {
		t.Errorf("entry = %v, want logger and component retail", entry)
	}

	if Component(nil, "http") == nil {
		t.Error("Component(nil) should fall back to the global logger")
	}
}
