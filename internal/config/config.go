// Package config centralizes runtime configuration for rbl. It loads a
// JSON configuration file and exposes a process-wide configuration with
// sensible defaults. Tests and development builds will use defaults when
// the file is not present. Operators place a JSON file at
// /etc/rbl/config.json or specify a different path via the CONFIG_FILE
// env var; a .env file in the working directory is applied first.
package config

import (
	"encoding/json"
	"os"

	"github.com/joho/godotenv"
)

// Config holds configurable options for the rbl service.
type Config struct {
	KeyFile         string `json:"key_file"`
	DataFile        string `json:"data_file"`
	Port            int    `json:"port"`
	MaxBackups      int    `json:"max_backups"`
	LogBufferSize   int    `json:"log_buffer_size"`
	PayoutAgentURL  string `json:"payout_agent_url"`
	PayoutAgentAddr string `json:"payout_agent_addr"`
	EnablePayouts   bool   `json:"enable_payouts"`
}

var cfg *Config

func defaults() *Config {
	return &Config{
		KeyFile:       "rbl_key.pem",
		DataFile:      "ledger.db",
		Port:          8080,
		MaxBackups:    5,
		LogBufferSize: 200,
		EnablePayouts: false,
	}
}

// LoadConfig reads a JSON file at path. If the file does not exist or
// cannot be parsed, LoadConfig returns defaults (and no error) so that
// the application can run in development with minimal friction.
// Environment variables from a local .env file are loaded as a side
// effect; a missing .env is not an error.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	def := defaults()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path == "" {
		cfg = def
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		// file missing or unreadable -> use defaults
		cfg = def
		return cfg, nil
	}

	var c Config
	if err := json.Unmarshal(b, &c); err != nil {
		// parse error -> use defaults
		cfg = def
		return cfg, nil
	}

	// merge defaults for any zero-value fields
	if c.KeyFile == "" {
		c.KeyFile = def.KeyFile
	}
	if c.DataFile == "" {
		c.DataFile = def.DataFile
	}
	if c.Port == 0 {
		c.Port = def.Port
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = def.MaxBackups
	}
	if c.LogBufferSize == 0 {
		c.LogBufferSize = def.LogBufferSize
	}

	cfg = &c
	return cfg, nil
}

// Get returns the loaded configuration. If LoadConfig hasn't been called
// yet, it returns defaults.
func Get() *Config {
	if cfg == nil {
		LoadConfig("")
	}
	return cfg
}
