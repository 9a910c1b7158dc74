// Package config loads runtime settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Extract struct {
	Currency            string `yaml:"currency"`
	WordsPerMinute      int    `yaml:"words_per_minute"`
	MinContentChars     int    `yaml:"min_content_chars"`
	MaxTextChars        int    `yaml:"max_text_chars"`
	MaxImages           int    `yaml:"max_images"`
	MaxNameChars        int    `yaml:"max_name_chars"`
	ReadabilityFallback bool   `yaml:"readability_fallback"`
}

type Fetch struct {
	Timeout       time.Duration `yaml:"timeout"`
	DialTimeout   time.Duration `yaml:"dial_timeout"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes"`
	UserAgent     string        `yaml:"user_agent"`
	RatePerDomain float64       `yaml:"rate_per_domain"`
}

type Server struct {
	Addr             string        `yaml:"addr"`
	BatchConcurrency int           `yaml:"batch_concurrency"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
}

type Backend struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Extract Extract `yaml:"extract"`
	Fetch   Fetch   `yaml:"fetch"`
	Server  Server  `yaml:"server"`
	Backend Backend `yaml:"backend"`
	Log     Log     `yaml:"log"`
}

func Default() Config {
	return Config{
		Extract: Extract{
			Currency:        "USD",
			WordsPerMinute:  200,
			MinContentChars: 200,
			MaxTextChars:    10000,
			MaxImages:       5,
			MaxNameChars:    500,
		},
		Fetch: Fetch{
			Timeout:       15 * time.Second,
			DialTimeout:   5 * time.Second,
			MaxBodyBytes:  5 * 1024 * 1024,
			UserAgent:     "pagecontent/1.0 (+https://example.com)",
			RatePerDomain: 2,
		},
		Server: Server{
			Addr:             ":8080",
			BatchConcurrency: 10,
			RequestTimeout:   25 * time.Second,
		},
		Backend: Backend{
			BaseURL: "http://localhost:8000",
			Timeout: 60 * time.Second,
		},
		Log: Log{Level: "info", Format: "console"},
	}
}

// Load reads path on top of Default and applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("PAGECONTENT_ADDR")); v != "" {
		c.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("PAGECONTENT_BACKEND_URL")); v != "" {
		c.Backend.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("PAGECONTENT_LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Extract.WordsPerMinute <= 0 {
		errs = append(errs, errors.New("extract.words_per_minute must be positive"))
	}
	if c.Extract.MaxTextChars <= 0 {
		errs = append(errs, errors.New("extract.max_text_chars must be positive"))
	}
	if c.Extract.MaxImages <= 0 {
		errs = append(errs, errors.New("extract.max_images must be positive"))
	}
	if c.Extract.MaxNameChars <= 0 {
		errs = append(errs, errors.New("extract.max_name_chars must be positive"))
	}
	if c.Extract.MinContentChars < 0 {
		errs = append(errs, errors.New("extract.min_content_chars must not be negative"))
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("fetch.max_body_bytes must be positive"))
	}
	if c.Server.BatchConcurrency <= 0 {
		errs = append(errs, errors.New("server.batch_concurrency must be positive"))
	}
	return errors.Join(errs...)
}
