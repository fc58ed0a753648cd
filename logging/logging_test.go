package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)

	logger.Info("test message", "key", "value")

	var result map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput was: %s", err, buf.String())
	}
	if result["msg"] != "test message" {
		t.Errorf("expected message 'test message', got %v", result["msg"])
	}
	if result["key"] != "value" {
		t.Errorf("expected key 'value', got %v", result["key"])
	}
	if result["level"] != "INFO" {
		t.Errorf("expected level INFO, got %v", result["level"])
	}
}

func TestNew_DebugSuppressedByDefault(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %s", buf.String())
	}
}

func TestNew_Verbose(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, true).Debug("shown")
	if buf.Len() == 0 {
		t.Error("expected debug output in verbose mode")
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Info("dropped", "key", "value")
	logger.Debug("dropped")
}
