/*
Package config loads the service configuration from a TOML file.

PURPOSE:
  One Config struct covers every tunable: HTTP server, CORS, database
  path, earn rule, and opening hours. Everything has a sane default so
  the server runs with no config file at all.

SECTIONS:
  [server]   Listen address, port, allowed CORS origins
  [database] SQLite path
  [loyalty]  Earn rule (amount threshold + points per threshold)
  [schedule] Opening hours gating new orders

USAGE:
  cfg, err := config.Load("./loyalty.toml")
  if err != nil {
      log.Fatal(err)
  }

SEE ALSO:
  - cmd/server/main.go: Wires Config into the running service
*/
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
)

// Config holds all service settings.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Loyalty  LoyaltyConfig  `toml:"loyalty"`
	Schedule ScheduleConfig `toml:"schedule"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// DatabaseConfig controls persistence.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LoyaltyConfig controls how order spend converts to points.
type LoyaltyConfig struct {
	// AmountThreshold is the spend unit, in the order currency,
	// that earns PointsPerThreshold points. Partial units earn nothing.
	AmountThreshold    string `toml:"amount_threshold"`
	PointsPerThreshold int64  `toml:"points_per_threshold"`
}

// ScheduleConfig controls the opening hours board. Hours are on the
// server's local clock, 24h format.
type ScheduleConfig struct {
	OpenHour  int `toml:"open_hour"`
	CloseHour int `toml:"close_hour"`
	// CheckInterval is how often the board re-evaluates the clock,
	// as a Go duration string.
	CheckInterval string `toml:"check_interval"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Path: "./data/loyalty.db",
		},
		Loyalty: LoyaltyConfig{
			AmountThreshold:    "1000",
			PointsPerThreshold: 50,
		},
		Schedule: ScheduleConfig{
			OpenHour:      9,
			CloseHour:     22,
			CheckInterval: "30s",
		},
	}
}

// Load reads the config file at path. A missing file is not an error:
// the defaults are returned so a bare deploy still boots.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings that would misbehave silently at runtime.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	threshold, err := decimal.NewFromString(c.Loyalty.AmountThreshold)
	if err != nil {
		return fmt.Errorf("loyalty.amount_threshold %q is not a number: %w", c.Loyalty.AmountThreshold, err)
	}
	if !threshold.IsPositive() {
		return fmt.Errorf("loyalty.amount_threshold must be positive, got %s", threshold)
	}
	if c.Loyalty.PointsPerThreshold < 1 {
		return fmt.Errorf("loyalty.points_per_threshold must be at least 1, got %d", c.Loyalty.PointsPerThreshold)
	}
	if c.Schedule.OpenHour < 0 || c.Schedule.OpenHour > 23 {
		return fmt.Errorf("schedule.open_hour %d out of range", c.Schedule.OpenHour)
	}
	if c.Schedule.CloseHour < 0 || c.Schedule.CloseHour > 24 {
		return fmt.Errorf("schedule.close_hour %d out of range", c.Schedule.CloseHour)
	}
	return nil
}

// Threshold returns the parsed spend unit. Call Validate first;
// an unparseable value falls back to the default.
func (c LoyaltyConfig) Threshold() decimal.Decimal {
	threshold, err := decimal.NewFromString(c.AmountThreshold)
	if err != nil || !threshold.IsPositive() {
		return decimal.NewFromInt(1000)
	}
	return threshold
}
