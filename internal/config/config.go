// Package config loads jinreport settings from the environment, after an
// optional .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Logging LoggingConfig
	Source  SourceConfig
	Report  ReportConfig
	History HistoryConfig
}

type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level  string `env:"JINREPORT_LOG_LEVEL" envDefault:"info"`
	Format string `env:"JINREPORT_LOG_FORMAT" envDefault:"text"`
	// File receives logs in interactive mode; empty discards them there.
	File string `env:"JINREPORT_LOG_FILE"`
}

type SourceConfig struct {
	Delimiter string `env:"JINREPORT_CSV_DELIMITER" envDefault:"tab"`
	HeaderRow int    `env:"JINREPORT_CSV_HEADER_ROW" envDefault:"2"`
	Encoding  string `env:"JINREPORT_SOURCE_ENCODING" envDefault:"utf-8"`
}

type ReportConfig struct {
	TemplatePrefix    string `env:"JINREPORT_TEMPLATE_PREFIX" envDefault:"模板_"`
	ProductNameColumn string `env:"JINREPORT_PRODUCT_NAME_COLUMN" envDefault:"商品名"`
	CountryNameColumn string `env:"JINREPORT_COUNTRY_NAME_COLUMN" envDefault:"商品名"`
	OutputDir         string `env:"JINREPORT_OUTPUT_DIR"`
}

type HistoryConfig struct {
	Path     string `env:"JINREPORT_HISTORY_DB"`
	Disabled bool   `env:"JINREPORT_HISTORY_DISABLED" envDefault:"false"`
}

// Load reads .env (if present) and the environment, then validates.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	if _, err := c.Source.Comma(); err != nil {
		return err
	}
	if c.Source.HeaderRow < 0 {
		return fmt.Errorf("csv header row must not be negative, got %d", c.Source.HeaderRow)
	}
	return nil
}

// Comma resolves the configured CSV delimiter name to a rune.
func (s SourceConfig) Comma() (rune, error) {
	switch strings.ToLower(s.Delimiter) {
	case "tab", `\t`, "\t":
		return '\t', nil
	case "comma":
		return ',', nil
	case "semicolon":
		return ';', nil
	case "pipe":
		return '|', nil
	}
	if utf8.RuneCountInString(s.Delimiter) != 1 {
		return 0, fmt.Errorf("csv delimiter must be a single character, got %q", s.Delimiter)
	}
	r, _ := utf8.DecodeRuneInString(s.Delimiter)
	if r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("csv delimiter %q is not allowed", s.Delimiter)
	}
	return r, nil
}

// HistoryPath returns the run ledger location, defaulting to the user
// config directory.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "jinreport", "history.db"), nil
}
