package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	logger := New(false)
	if logger == nil {
		t.Fatal("Expected logger to be created")
	}
	if logger.verbose {
		t.Error("Expected verbose to be false")
	}
	if logger.logger == nil {
		t.Error("Expected internal logger to be initialized")
	}

	loggerVerbose := New(true)
	if !loggerVerbose.verbose {
		t.Error("Expected verbose to be true")
	}
}

func TestInfo(t *testing.T) {
	logger := New(false)

	var buf bytes.Buffer
	logger.logger.SetOutput(&buf)

	logger.Info("published %q to %s", "Page", "DBT")

	output := buf.String()
	if !strings.Contains(output, `[INFO] published "Page" to DBT`) {
		t.Errorf("Expected formatted info output, got: %s", output)
	}
}

func TestDebugVerboseTrue(t *testing.T) {
	logger := New(true)

	var buf bytes.Buffer
	logger.logger.SetOutput(&buf)

	logger.Debug("debug message")

	output := buf.String()
	if !strings.Contains(output, "[DEBUG] debug message") {
		t.Errorf("Expected debug message to be logged when verbose=true, got: %s", output)
	}
}

func TestDebugVerboseFalse(t *testing.T) {
	logger := New(false)

	var buf bytes.Buffer
	logger.logger.SetOutput(&buf)

	logger.Debug("debug message")

	if buf.Len() != 0 {
		t.Errorf("Expected no debug output when verbose=false, got: %s", buf.String())
	}
}

func TestWarn(t *testing.T) {
	logger := New(false)

	var buf bytes.Buffer
	logger.logger.SetOutput(&buf)

	logger.Warn("template %q not found", "Design Doc")

	output := buf.String()
	if !strings.Contains(output, `[WARN] template "Design Doc" not found`) {
		t.Errorf("Expected warn output, got: %s", output)
	}
}

func TestError(t *testing.T) {
	logger := New(false)

	var buf bytes.Buffer
	logger.logger.SetOutput(&buf)

	logger.Error("upload failed: %v", "boom")

	output := buf.String()
	if !strings.Contains(output, "[ERROR] upload failed: boom") {
		t.Errorf("Expected error output, got: %s", output)
	}
}
