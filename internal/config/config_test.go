package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whendoist.toml")
	t.Setenv("WHENDOIST_CONFIG", path)
	t.Setenv("WHENDOIST_DB", "")
	t.Setenv("TELEGRAM_TOKEN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != DefaultDBName {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, DefaultDBName)
	}
	if cfg.AgendaTime != "08:00" {
		t.Errorf("AgendaTime = %q, want 08:00", cfg.AgendaTime)
	}
	if cfg.HorizonDays != 30 {
		t.Errorf("HorizonDays = %d, want 30", cfg.HorizonDays)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected config file to be written: %v", err)
	}
}

func TestLoadAppliesFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whendoist.toml")
	file := `db_path = "file.db"
agenda_time = "07:30"
materialize_every_hours = 12
`
	if err := os.WriteFile(path, []byte(file), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WHENDOIST_CONFIG", path)
	t.Setenv("WHENDOIST_DB", "/tmp/env.db")
	t.Setenv("TELEGRAM_TOKEN", "  tok123  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Errorf("DBPath = %q, want env override", cfg.DBPath)
	}
	if cfg.AgendaTime != "07:30" {
		t.Errorf("AgendaTime = %q, want 07:30", cfg.AgendaTime)
	}
	if cfg.MaterializeEvery != 12 {
		t.Errorf("MaterializeEvery = %d, want 12", cfg.MaterializeEvery)
	}
	// Blank file fields fall back to defaults.
	if cfg.HorizonDays != 30 {
		t.Errorf("HorizonDays = %d, want default 30", cfg.HorizonDays)
	}
	if cfg.TelegramToken != "tok123" {
		t.Errorf("TelegramToken = %q, want trimmed token", cfg.TelegramToken)
	}
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whendoist.toml")
	if err := os.WriteFile(path, []byte(`timezone = "Mars/Olympus"`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WHENDOIST_CONFIG", path)
	t.Setenv("WHENDOIST_DB", "")
	t.Setenv("TELEGRAM_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}
