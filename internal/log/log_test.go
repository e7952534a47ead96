// If you are AI: This file contains unit tests for logger construction.

package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewWithWriterLevels(t *testing.T) {
	var buf bytes.Buffer

	logger, err := NewWithWriter("warn", &buf)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.Info("dropped")
	logger.Warn("kept")
	logger.Sync()

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("Info message should be filtered at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("Warn message should be emitted at warn level")
	}
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("Expected level field in output, got %s", out)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New("loudest"); err == nil {
		t.Error("Expected error for invalid level, got nil")
	}
}
