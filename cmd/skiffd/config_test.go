package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIPort != defaultAPIPort {
		t.Errorf("APIPort = %d, want %d", cfg.APIPort, defaultAPIPort)
	}
	if cfg.APIAddr == "" {
		t.Error("APIAddr should be derived from the default port")
	}
	if cfg.RetentionDays != 30 {
		t.Errorf("RetentionDays = %d, want 30", cfg.RetentionDays)
	}
	if filepath.Base(cfg.DBPath) != "skiff.duckdb" {
		t.Errorf("DBPath = %q, want the default database name", cfg.DBPath)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SKIFF_API_PORT", "9414")
	t.Setenv("SKIFF_RETENTION_DAYS", "7")

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIPort != 9414 {
		t.Errorf("APIPort = %d, want the env override", cfg.APIPort)
	}
	if cfg.RetentionDays != 7 {
		t.Errorf("RetentionDays = %d, want the env override", cfg.RetentionDays)
	}
}

func TestLoadConfigRejectsBadPort(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SKIFF_API_PORT", "70000")

	if _, err := loadConfig(""); err == nil {
		t.Fatal("loadConfig should reject an out-of-range port")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yml")
	yml := "api-port: 4515\ndb-path: /tmp/skiff-test.duckdb\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIPort != 4515 {
		t.Errorf("APIPort = %d, want the file value", cfg.APIPort)
	}
	if cfg.DBPath != "/tmp/skiff-test.duckdb" {
		t.Errorf("DBPath = %q, want the file value", cfg.DBPath)
	}
	if cfg.ConfigPath != path {
		t.Errorf("ConfigPath = %q, want %q", cfg.ConfigPath, path)
	}
}
