package config

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// LoadFromINI loads settings from a legacy Settings.ini file. Sections map
// one-to-one onto the YAML layout; any key absent from the file keeps its
// default.
func LoadFromINI(path string) (*Settings, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	settings := Default()

	general := cfg.Section("General")
	settings.General.TemplateDir = general.Key("templateDir").MustString(settings.General.TemplateDir)
	settings.General.DefaultTimeout = general.Key("defaultTimeout").MustFloat64(settings.General.DefaultTimeout)
	settings.General.PollInterval = general.Key("pollInterval").MustFloat64(settings.General.PollInterval)
	settings.General.RetryCount = general.Key("retryCount").MustInt(settings.General.RetryCount)
	settings.General.RetryDelay = general.Key("retryDelay").MustFloat64(settings.General.RetryDelay)
	settings.General.FrameCacheTTL = general.Key("frameCacheTTL").MustFloat64(settings.General.FrameCacheTTL)

	img := cfg.Section("Image")
	settings.Image.Confidence = img.Key("confidence").MustFloat64(settings.Image.Confidence)
	settings.Image.Grayscale = img.Key("grayscale").MustBool(settings.Image.Grayscale)
	settings.Image.MaxMatches = img.Key("maxMatches").MustInt(settings.Image.MaxMatches)
	settings.Image.TemplateCacheSize = img.Key("templateCacheSize").MustInt(settings.Image.TemplateCacheSize)

	win := cfg.Section("Window")
	settings.Window.GeometryTolerance = win.Key("geometryTolerance").MustInt(settings.Window.GeometryTolerance)
	settings.Window.SettleDelay = win.Key("settleDelay").MustFloat64(settings.Window.SettleDelay)

	ocr := cfg.Section("OCR")
	settings.OCR.Language = ocr.Key("language").MustString(settings.OCR.Language)
	settings.OCR.MinConfidence = ocr.Key("minConfidence").MustFloat64(settings.OCR.MinConfidence)

	history := cfg.Section("History")
	settings.History.Enabled = history.Key("enabled").MustBool(settings.History.Enabled)
	settings.History.Path = history.Key("path").MustString(settings.History.Path)

	logging := cfg.Section("Logging")
	settings.Logging.Level = logging.Key("level").MustString(settings.Logging.Level)

	return settings, nil
}
