package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	s := Default()

	if s.Image.Confidence != 0.8 {
		t.Errorf("default confidence = %f, want 0.8", s.Image.Confidence)
	}
	if !s.Image.Grayscale {
		t.Error("grayscale matching should default on")
	}
	if s.OCR.MinConfidence != 0.5 {
		t.Errorf("default OCR floor = %f, want 0.5", s.OCR.MinConfidence)
	}
	if s.FrameTTL() != time.Second {
		t.Errorf("default frame TTL = %s, want 1s", s.FrameTTL())
	}
	if s.Timeout() != 10*time.Second {
		t.Errorf("default timeout = %s, want 10s", s.Timeout())
	}
	if s.Window.GeometryTolerance != 5 {
		t.Errorf("default geometry tolerance = %d, want 5", s.Window.GeometryTolerance)
	}
}

func TestLoadYAMLLayersOverDefaults(t *testing.T) {
	path := writeFile(t, "settings.yaml", `
general:
  default_timeout: 3.5
  poll_interval: 0.25
image:
  confidence: 0.92
  grayscale: false
history:
  enabled: true
  path: /tmp/ops.db
`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.Timeout() != 3500*time.Millisecond {
		t.Errorf("timeout = %s, want 3.5s", s.Timeout())
	}
	if s.Interval() != 250*time.Millisecond {
		t.Errorf("interval = %s, want 250ms", s.Interval())
	}
	if s.Image.Confidence != 0.92 {
		t.Errorf("confidence = %f, want 0.92", s.Image.Confidence)
	}
	if s.Image.Grayscale {
		t.Error("grayscale override ignored")
	}
	if !s.History.Enabled || s.History.Path != "/tmp/ops.db" {
		t.Errorf("history settings = %+v, want enabled at /tmp/ops.db", s.History)
	}

	// Untouched keys keep their defaults.
	if s.General.RetryCount != 3 {
		t.Errorf("retry count = %d, want default 3", s.General.RetryCount)
	}
	if s.OCR.Language != "eng" {
		t.Errorf("OCR language = %q, want default eng", s.OCR.Language)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeFile(t, "settings.yaml", "general: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Fatal("malformed YAML accepted")
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	s, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if s.Image.Confidence != 0.8 {
		t.Errorf("missing file did not yield defaults, confidence = %f", s.Image.Confidence)
	}
}

func TestLoadFromINI(t *testing.T) {
	path := writeFile(t, "Settings.ini", `
[General]
defaultTimeout = 7.0
retryCount = 5

[Image]
confidence = 0.75
grayscale = false

[OCR]
language = deu
`)

	s, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("LoadFromINI failed: %v", err)
	}

	if s.Timeout() != 7*time.Second {
		t.Errorf("timeout = %s, want 7s", s.Timeout())
	}
	if s.General.RetryCount != 5 {
		t.Errorf("retry count = %d, want 5", s.General.RetryCount)
	}
	if s.Image.Confidence != 0.75 {
		t.Errorf("confidence = %f, want 0.75", s.Image.Confidence)
	}
	if s.Image.Grayscale {
		t.Error("grayscale override ignored")
	}
	if s.OCR.Language != "deu" {
		t.Errorf("OCR language = %q, want deu", s.OCR.Language)
	}

	// Sections absent from the file keep their defaults.
	if s.Window.GeometryTolerance != 5 {
		t.Errorf("geometry tolerance = %d, want default 5", s.Window.GeometryTolerance)
	}
}
