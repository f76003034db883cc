// Package config loads engine settings from YAML (settings.yaml) or a
// legacy Settings.ini file. Missing files and missing keys fall back to
// the defaults below.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// GeneralSettings holds engine-wide defaults. Durations are in seconds.
type GeneralSettings struct {
	TemplateDir    string  `yaml:"template_dir"`
	DefaultTimeout float64 `yaml:"default_timeout"`
	PollInterval   float64 `yaml:"poll_interval"`
	RetryCount     int     `yaml:"retry_count"`
	RetryDelay     float64 `yaml:"retry_delay"`
	FrameCacheTTL  float64 `yaml:"frame_cache_ttl"`
}

// ImageSettings configures template matching.
type ImageSettings struct {
	Confidence        float64 `yaml:"confidence"`
	Grayscale         bool    `yaml:"grayscale"`
	MaxMatches        int     `yaml:"max_matches"`
	TemplateCacheSize int     `yaml:"template_cache_size"`
}

// WindowSettings configures window lookup and geometry verification.
type WindowSettings struct {
	GeometryTolerance int     `yaml:"geometry_tolerance"` // pixels
	SettleDelay       float64 `yaml:"settle_delay"`       // seconds after move/resize
}

// OCRSettings configures the text locator.
type OCRSettings struct {
	Language      string  `yaml:"language"`
	MinConfidence float64 `yaml:"min_confidence"`
}

// HistorySettings configures the sqlite operation log.
type HistorySettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingSettings configures log output.
type LoggingSettings struct {
	Level string `yaml:"level"`
}

// Settings is the root configuration document.
type Settings struct {
	General GeneralSettings `yaml:"general"`
	Image   ImageSettings   `yaml:"image"`
	Window  WindowSettings  `yaml:"window"`
	OCR     OCRSettings     `yaml:"ocr"`
	History HistorySettings `yaml:"history"`
	Logging LoggingSettings `yaml:"logging"`
}

// Default returns the built-in settings.
func Default() *Settings {
	return &Settings{
		General: GeneralSettings{
			TemplateDir:    "templates",
			DefaultTimeout: 10.0,
			PollInterval:   0.5,
			RetryCount:     3,
			RetryDelay:     1.0,
			FrameCacheTTL:  1.0,
		},
		Image: ImageSettings{
			Confidence:        0.8,
			Grayscale:         true,
			MaxMatches:        10,
			TemplateCacheSize: 64,
		},
		Window: WindowSettings{
			GeometryTolerance: 5,
			SettleDelay:       0.1,
		},
		OCR: OCRSettings{
			Language:      "eng",
			MinConfidence: 0.5,
		},
		History: HistorySettings{
			Enabled: false,
			Path:    "logs/history.db",
		},
		Logging: LoggingSettings{
			Level: "INFO",
		},
	}
}

// Load reads YAML settings from path, layered over the defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	settings := Default()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return settings, nil
}

// LoadOrDefault reads settings from path, silently using the defaults when
// the file does not exist.
func LoadOrDefault(path string) (*Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Timeout returns the default wait timeout as a duration.
func (s *Settings) Timeout() time.Duration {
	return secs(s.General.DefaultTimeout)
}

// Interval returns the default poll interval as a duration.
func (s *Settings) Interval() time.Duration {
	return secs(s.General.PollInterval)
}

// FrameTTL returns the frame cache time-to-live as a duration.
func (s *Settings) FrameTTL() time.Duration {
	return secs(s.General.FrameCacheTTL)
}

// RetryDelay returns the delay between retry attempts as a duration.
func (s *Settings) RetryDelay() time.Duration {
	return secs(s.General.RetryDelay)
}

// SettleDelay returns the post-geometry-change settle delay as a duration.
func (s *Settings) SettleDelay() time.Duration {
	return secs(s.Window.SettleDelay)
}

func secs(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
