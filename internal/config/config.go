// Package config loads runtime settings from a TOML file with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultFileName = "whendoist.toml"
	DefaultDBName   = "whendoist.db"
)

// Config keeps runtime settings for the bot daemon and the whenctl CLI.
// The Telegram token comes from the environment only and is never written
// back to the file.
type Config struct {
	DBPath           string `toml:"db_path"`
	Timezone         string `toml:"timezone"`
	AgendaTime       string `toml:"agenda_time"`
	MaterializeEvery int    `toml:"materialize_every_hours"`
	HorizonDays      int    `toml:"materialize_horizon_days"`

	TelegramToken string `toml:"-"`
}

// Load reads the file named by WHENDOIST_CONFIG (default whendoist.toml),
// creating it with defaults on first run, then applies environment
// overrides: WHENDOIST_DB for the database path and TELEGRAM_TOKEN for the
// bot token. A missing token is not an error here — whenctl runs without
// one and the bot daemon checks it at startup.
func Load() (Config, error) {
	path := strings.TrimSpace(os.Getenv("WHENDOIST_CONFIG"))
	if path == "" {
		path = DefaultFileName
	}

	cfg, err := loadOrCreate(path)
	if err != nil {
		return cfg, err
	}

	if db := strings.TrimSpace(os.Getenv("WHENDOIST_DB")); db != "" {
		cfg.DBPath = db
	}
	cfg.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN"))

	if _, err := cfg.Location(); err != nil {
		return cfg, fmt.Errorf("timezone %q: %w", cfg.Timezone, err)
	}
	return cfg, nil
}

// Location resolves the configured timezone; an empty value means the
// process-local zone.
func (c Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func loadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	fillDefaults(&cfg)
	return cfg, nil
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		DBPath:           DefaultDBName,
		AgendaTime:       "08:00",
		MaterializeEvery: 6,
		HorizonDays:      30,
	}
}

// fillDefaults backfills fields a hand-edited file left blank or zeroed.
func fillDefaults(cfg *Config) {
	def := defaultConfig()
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = def.DBPath
	}
	if strings.TrimSpace(cfg.AgendaTime) == "" {
		cfg.AgendaTime = def.AgendaTime
	}
	if cfg.MaterializeEvery <= 0 {
		cfg.MaterializeEvery = def.MaterializeEvery
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = def.HorizonDays
	}
}
