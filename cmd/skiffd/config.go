package main

import (
	"time"

	"github.com/fieldsync/skiff/internal/model"
)

const (
	defaultBindHost     = "127.0.0.1"
	defaultAPIPort      = model.DefaultAPIPort
	defaultQueryTimeout = 30 * time.Second
)

// hubConfig is internal runtime configuration. It is package-private to keep
// defaults and shape local to the entrypoint.
type hubConfig struct {
	DBPath        string        `mapstructure:"db-path"`
	APIPort       int           `mapstructure:"api-port"`
	APIAddr       string        `mapstructure:"api-addr"`
	QueryTimeout  time.Duration `mapstructure:"query-timeout"`
	RetentionDays int           `mapstructure:"retention-days"`
	Seed          bool          `mapstructure:"-"` // flag only
	ConfigPath    string        `mapstructure:"-"` // not from config file
}
