package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the ~/.buddyup/config.toml.
type Config struct {
	Gemini GeminiConfig `toml:"gemini"`
	Match  MatchConfig  `toml:"match"`
	Reply  ReplyConfig  `toml:"reply"`
	Log    LogConfig    `toml:"log"`
	Seed   SeedConfig   `toml:"seed"`
}

// GeminiConfig configures the model gateway.
type GeminiConfig struct {
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// MatchConfig configures match synthesis.
type MatchConfig struct {
	SynthesisDelayMs int `toml:"synthesis_delay_ms"`
}

// ReplyConfig configures the simulated counterpart replies.
type ReplyConfig struct {
	DelayMs int `toml:"delay_ms"`
}

// LogConfig configures logging output. An empty path keeps logs on
// stderr only.
type LogConfig struct {
	Path string `toml:"path"`
}

// SeedConfig toggles the demo conversations seeded at startup.
type SeedConfig struct {
	Demo bool `toml:"demo"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Gemini: GeminiConfig{
			Model:          "gemini-2.5-flash",
			TimeoutSeconds: 30,
		},
		Match: MatchConfig{SynthesisDelayMs: 1500},
		Reply: ReplyConfig{DelayMs: 2000},
		Seed:  SeedConfig{Demo: true},
	}
}

// Load reads config from the given path and fills in defaults for any
// unset value. Returns an error if the file is missing or malformed.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Gemini.Model == "" {
		c.Gemini.Model = d.Gemini.Model
	}
	if c.Gemini.TimeoutSeconds <= 0 {
		c.Gemini.TimeoutSeconds = d.Gemini.TimeoutSeconds
	}
	if c.Match.SynthesisDelayMs <= 0 {
		c.Match.SynthesisDelayMs = d.Match.SynthesisDelayMs
	}
	if c.Reply.DelayMs <= 0 {
		c.Reply.DelayMs = d.Reply.DelayMs
	}
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
