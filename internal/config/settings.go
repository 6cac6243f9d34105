package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// Settings represents persistent converter and server preferences
type Settings struct {
	// Server settings
	ListenAddr  string `json:"listenAddr"`
	MaxUploadMB int    `json:"maxUploadMB"`

	// Conversion settings
	Workers             int `json:"workers"`
	JPEGQuality         int `json:"jpegQuality"`
	FallbackJPEGQuality int `json:"fallbackJpegQuality"`
	FetchTimeoutSec     int `json:"fetchTimeoutSec"`

	// Cache settings
	CacheEntries int `json:"cacheEntries"`

	// Analytics (optional, disabled when empty)
	AnalyticsKey  string `json:"analyticsKey,omitempty"`
	AnalyticsHost string `json:"analyticsHost,omitempty"`
}

// DefaultSettings returns default settings
func DefaultSettings() *Settings {
	return &Settings{
		ListenAddr:          "127.0.0.1:8090",
		MaxUploadMB:         64,
		Workers:             4,
		JPEGQuality:         100,
		FallbackJPEGQuality: 85,
		FetchTimeoutSec:     60,
		CacheEntries:        8,
	}
}

// Load loads settings from a JSON file, merging over defaults. A missing
// file is not an error; defaults are returned.
func Load(path string) (*Settings, error) {
	settings := DefaultSettings()

	if path == "" {
		return settings, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read settings file: %w", err)
	}

	var fileSettings Settings
	if err := json.Unmarshal(data, &fileSettings); err != nil {
		return settings, fmt.Errorf("failed to parse settings file: %w", err)
	}

	// Merge non-zero values over defaults
	if fileSettings.ListenAddr != "" {
		settings.ListenAddr = fileSettings.ListenAddr
	}
	if fileSettings.MaxUploadMB > 0 {
		settings.MaxUploadMB = fileSettings.MaxUploadMB
	}
	if fileSettings.Workers > 0 {
		settings.Workers = fileSettings.Workers
	}
	if fileSettings.JPEGQuality > 0 {
		settings.JPEGQuality = fileSettings.JPEGQuality
	}
	if fileSettings.FallbackJPEGQuality > 0 {
		settings.FallbackJPEGQuality = fileSettings.FallbackJPEGQuality
	}
	if fileSettings.FetchTimeoutSec > 0 {
		settings.FetchTimeoutSec = fileSettings.FetchTimeoutSec
	}
	if fileSettings.CacheEntries > 0 {
		settings.CacheEntries = fileSettings.CacheEntries
	}
	settings.AnalyticsKey = fileSettings.AnalyticsKey
	settings.AnalyticsHost = fileSettings.AnalyticsHost

	return settings, nil
}

// Save persists settings to a JSON file
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}

// DefaultSettingsPath returns the OS-specific settings file location
func DefaultSettingsPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "panotiler.json"
	}
	return filepath.Join(configDir, "panotiler", "settings.json")
}
