package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fieldsync/skiff/internal/model"
)

const (
	defaultSkin      = model.DefaultSkin
	defaultFeedLimit = model.DefaultFeedLimit

	// Pull distances are measured in terminal rows, so the thresholds are
	// far smaller than the touch-pixel defaults the gesture package carries.
	defaultPullThreshold   = 4
	defaultMaxPullDistance = 7
)

// cliConfig holds only client-relevant configuration.
type cliConfig struct {
	HubURL             string        `mapstructure:"hub-url"`
	Skin               string        `mapstructure:"skin"`
	Site               string        `mapstructure:"site"`
	FeedLimit          int           `mapstructure:"feed-limit"`
	RequestTimeout     time.Duration `mapstructure:"request-timeout"`
	PullThreshold      float64       `mapstructure:"pull-threshold"`
	MaxPullDistance    float64       `mapstructure:"max-pull-distance"`
	DisablePull        bool          `mapstructure:"disable-pull"`
	ReverseScrollWheel bool          `mapstructure:"reverse-scroll-wheel"`
	JournalPath        string        `mapstructure:"journal-path"`
	StatePath          string        `mapstructure:"state-path"`
}

func loadCLIConfig(configPath string) (cliConfig, error) {
	var cfg cliConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	stateDir := filepath.Join(home, ".local", "state", "skiff")

	v := viper.New()
	v.SetEnvPrefix("SKIFF")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("hub-url", fmt.Sprintf("http://127.0.0.1:%d", model.DefaultAPIPort))
	v.SetDefault("skin", defaultSkin)
	v.SetDefault("site", "")
	v.SetDefault("feed-limit", defaultFeedLimit)
	v.SetDefault("request-timeout", 10*time.Second)
	v.SetDefault("pull-threshold", defaultPullThreshold)
	v.SetDefault("max-pull-distance", defaultMaxPullDistance)
	v.SetDefault("disable-pull", false)
	v.SetDefault("reverse-scroll-wheel", false)
	v.SetDefault("journal-path", filepath.Join(stateDir, "sync.journal"))
	v.SetDefault("state-path", filepath.Join(stateDir, "state.json"))

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "skiff", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
