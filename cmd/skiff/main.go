package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fieldsync/skiff/internal/feed"
	"github.com/fieldsync/skiff/internal/gesture"
	"github.com/fieldsync/skiff/internal/journal"
	"github.com/fieldsync/skiff/internal/model"
	"github.com/fieldsync/skiff/internal/syncstate"
	"github.com/fieldsync/skiff/internal/tui"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var hubURL string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/skiff/config.yml)")
	flag.StringVar(&hubURL, "hub", "", "override hub URL to pull the feed from")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("Skiff - Field Activity Client\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadCLIConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if hubURL != "" {
		cfg.HubURL = hubURL
	}

	if err := runTUI(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cfg cliConfig) error {
	logger, cleanupLogger := newRuntimeLogger()
	defer cleanupLogger()

	configDir := filepath.Join(os.Getenv("HOME"), ".config", "skiff")
	if err := tui.InitializeSkin(cfg.Skin, configDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load skin '%s': %v (using default)\n", cfg.Skin, err)
	}

	client := feed.NewClient(cfg.HubURL, cfg.RequestTimeout)
	cache := feed.NewCache()

	// The journal and the sync-state file are conveniences; the client still
	// works without either.
	var jnl *journal.Journal
	if cfg.JournalPath != "" {
		var err error
		if jnl, err = journal.Open(cfg.JournalPath, 0); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: sync journal unavailable: %v\n", err)
			jnl = nil
		} else {
			defer func() { _ = jnl.Close() }()
		}
	}

	var store syncstate.Store
	if cfg.StatePath != "" {
		fileStore, err := syncstate.NewFileStore(cfg.StatePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: sync state unavailable: %v\n", err)
		} else {
			store = fileStore
		}
	}

	opts := model.QueryOpts{Site: cfg.Site, Limit: cfg.FeedLimit}
	syncer := feed.NewSyncer(client, cache, jnl, opts, logger)

	interp, err := gesture.New(gesture.Config{
		Refresh:             syncer.Sync,
		ActivationThreshold: cfg.PullThreshold,
		MaxPullDistance:     cfg.MaxPullDistance,
		Disabled:            cfg.DisablePull,
		Store:               store,
		Logger:              logger,
	})
	if err != nil {
		return fmt.Errorf("building gesture interpreter: %w", err)
	}

	app := tui.NewApp(
		tui.NewFeedModel(interp, cache, cfg.ReverseScrollWheel),
		tui.NewStatsModel(client, jnl),
	)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// newRuntimeLogger writes runtime messages to a state file so they never
// bleed into the alternate screen.
func newRuntimeLogger() (*log.Logger, func()) {
	fallback := log.New(os.Stderr, "", log.LstdFlags)

	home, err := os.UserHomeDir()
	if err != nil {
		return fallback, func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "skiff")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fallback, func() {}
	}

	f, err := os.OpenFile(filepath.Join(logDir, "skiff.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fallback, func() {}
	}

	return log.New(f, "", log.LstdFlags|log.Lmicroseconds), func() { _ = f.Close() }
}
