// Package config loads and validates the daemon-side TOML files: the
// benchd runtime config. Suite plans themselves live in internal/suite.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// BenchdConfig configures the lab daemon.
type BenchdConfig struct {
	Name        string   `toml:"name"`
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
	SuitePath   string   `toml:"suite_path"`
	Interval    string   `toml:"interval"`
	HistorySize int      `toml:"history_size"`
}

func LoadBenchdConfig(path string) (BenchdConfig, error) {
	var cfg BenchdConfig
	if err := loadToml(path, &cfg); err != nil {
		return BenchdConfig{}, err
	}
	if cfg.Name == "" {
		cfg.Name = "benchd"
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9400"
	}
	if cfg.HistorySize == 0 {
		cfg.HistorySize = 256
	}
	if err := ValidateBenchdConfig(cfg); err != nil {
		return BenchdConfig{}, err
	}
	return cfg, nil
}

func ValidateBenchdConfig(cfg BenchdConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("benchd config missing name")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("benchd config missing addr")
	}
	if strings.TrimSpace(cfg.SuitePath) == "" {
		return fmt.Errorf("benchd config missing suite_path")
	}
	if cfg.HistorySize < 0 {
		return fmt.Errorf("benchd config history_size must not be negative")
	}
	if _, err := cfg.RunInterval(); err != nil {
		return err
	}
	return nil
}

// RunInterval parses the configured cadence. Empty means the suite's own
// interval (or a single run) decides.
func (cfg BenchdConfig) RunInterval() (time.Duration, error) {
	raw := strings.TrimSpace(cfg.Interval)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("benchd config interval invalid: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("benchd config interval must not be negative")
	}
	return d, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}
