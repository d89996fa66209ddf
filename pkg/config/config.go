package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	EngineGoogle = "google"
	EngineEspeak = "espeak"
)

type GoogleConfig struct {
	// BaseURL replaces https://translate.google.<TLD> when set.
	BaseURL   string        `json:"base_url" env:"PICOSPEAK_GOOGLE_BASE_URL"`
	TLD       string        `json:"tld" env:"PICOSPEAK_GOOGLE_TLD"`
	Timeout   time.Duration `json:"timeout" env:"PICOSPEAK_HTTP_TIMEOUT"`
	UserAgent string        `json:"user_agent" env:"PICOSPEAK_HTTP_USER_AGENT"`
	// RequestsPerSecond paces the per-chunk requests of long texts. 0 = unpaced.
	RequestsPerSecond float64 `json:"requests_per_second" env:"PICOSPEAK_GOOGLE_RPS"`
}

type EspeakConfig struct {
	Binary string `json:"binary" env:"PICOSPEAK_ESPEAK_BINARY"`
	// WordsPerMinute is espeak-ng's normal speaking rate.
	WordsPerMinute int `json:"words_per_minute" env:"PICOSPEAK_ESPEAK_WPM"`
}

type InstallerConfig struct {
	// Manager forces a package manager (apt-get, dnf, ...) instead of probing PATH.
	Manager string `json:"manager" env:"PICOSPEAK_INSTALLER_MANAGER"`
}

type LogConfig struct {
	Level string `json:"level" env:"PICOSPEAK_LOG_LEVEL"`
	File  string `json:"file" env:"PICOSPEAK_LOG_FILE"`
}

type Config struct {
	Engine    string          `json:"engine" env:"PICOSPEAK_ENGINE"`
	Google    GoogleConfig    `json:"google"`
	Espeak    EspeakConfig    `json:"espeak"`
	Installer InstallerConfig `json:"installer"`
	Log       LogConfig       `json:"log"`
}

func DefaultConfig() *Config {
	return &Config{
		Engine: EngineGoogle,
		Google: GoogleConfig{
			TLD:               "com",
			Timeout:           60 * time.Second,
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/47.0.2526.106 Safari/537.36",
			RequestsPerSecond: 4,
		},
		Espeak: EspeakConfig{
			Binary:         "espeak-ng",
			WordsPerMinute: 175,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// LoadConfig returns the defaults overlaid with PICOSPEAK_* environment variables.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Engine = strings.ToLower(strings.TrimSpace(cfg.Engine))
	cfg.Log.File = expandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Google.Timeout <= 0 {
		return fmt.Errorf("PICOSPEAK_HTTP_TIMEOUT must be positive, got %s", c.Google.Timeout)
	}
	if c.Google.RequestsPerSecond < 0 {
		return fmt.Errorf("PICOSPEAK_GOOGLE_RPS must not be negative, got %g", c.Google.RequestsPerSecond)
	}
	if c.Espeak.WordsPerMinute <= 0 {
		return fmt.Errorf("PICOSPEAK_ESPEAK_WPM must be positive, got %d", c.Espeak.WordsPerMinute)
	}
	return nil
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
