package config

import (
	"fmt"
	"slices"
)

var (
	providers = []string{"template", "gemini", "openai", "anthropic", "ollama"}
	analyzers = []string{"mock", "gemini"}
	levels    = []string{"debug", "info", "warn", "error"}
	formats   = []string{"console", "json"}
	presets   = []string{
		"ultrafast", "superfast", "veryfast", "faster", "fast",
		"medium", "slow", "slower", "veryslow",
	}
)

// Validate checks value ranges after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be > 0 (got %d)", c.Server.MaxBodyBytes)
	}

	if c.Media.CRF < 0 || c.Media.CRF > 51 {
		return fmt.Errorf("media.crf must be in 0..51 (got %d)", c.Media.CRF)
	}
	if !slices.Contains(presets, c.Media.Preset) {
		return fmt.Errorf("media.preset %q is not an x264 preset", c.Media.Preset)
	}

	if !slices.Contains(providers, c.Creative.Provider) {
		return fmt.Errorf("creative.provider must be one of %v (got %q)", providers, c.Creative.Provider)
	}
	if !slices.Contains(analyzers, c.Creative.Analyzer) {
		return fmt.Errorf("creative.analyzer must be one of %v (got %q)", analyzers, c.Creative.Analyzer)
	}

	if !slices.Contains(levels, c.Log.Level) {
		return fmt.Errorf("log.level must be one of %v (got %q)", levels, c.Log.Level)
	}
	if !slices.Contains(formats, c.Log.Format) {
		return fmt.Errorf("log.format must be one of %v (got %q)", formats, c.Log.Format)
	}

	return nil
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
