// Package config loads the YAML configuration for the chart commands.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yitech/chartfeed/resolution"
)

type Config struct {
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json or console
	} `yaml:"log"`
	API struct {
		BaseURL string `yaml:"base_url"`
		WSURL   string `yaml:"ws_url"`
	} `yaml:"api"`
	Symbol struct {
		Base           string `yaml:"base"`
		Quote          string `yaml:"quote"`
		Token          string `yaml:"token"`
		PricePrecision int    `yaml:"price_precision"`
		ValuePrecision int    `yaml:"value_precision"`
	} `yaml:"symbol"`
	Chart struct {
		Resolution    string `yaml:"resolution"`
		ViewportWidth int    `yaml:"viewport_width"`
		Mobile        bool   `yaml:"mobile"`
	} `yaml:"chart"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	cfg := &Config{}
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	cfg.Symbol.Base = "btc"
	cfg.Symbol.Quote = "usdt"
	cfg.Symbol.Token = "btcusdt"
	cfg.Symbol.PricePrecision = 2
	cfg.Symbol.ValuePrecision = 4
	cfg.Chart.Resolution = "5"
	cfg.Chart.ViewportWidth = 800
	return cfg
}

// Load reads and parses a YAML configuration file. Fields left unset in
// the file keep their defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields the feed cannot recover from at runtime.
func (c *Config) Validate() error {
	if c.Symbol.Token == "" {
		return fmt.Errorf("config: symbol.token is required")
	}
	if _, err := resolution.Lookup(c.Chart.Resolution); err != nil {
		return fmt.Errorf("config: chart.resolution: %w", err)
	}
	if c.Chart.ViewportWidth < 1 {
		return fmt.Errorf("config: chart.viewport_width must be positive")
	}
	return nil
}
