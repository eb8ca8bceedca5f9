package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fieldsync/skiff/internal/duckdb"
	"github.com/fieldsync/skiff/internal/httpserver"
	"github.com/fieldsync/skiff/internal/model"
)

// runHub starts the headless activity hub with the HTTP API.
func runHub(cfg hubConfig) error {
	cleanupLogger := configureRuntimeLogger()
	defer cleanupLogger()

	store, err := duckdb.NewStore(cfg.DBPath, cfg.QueryTimeout)
	if err != nil {
		return fmt.Errorf("failed to initialize DuckDB: %w", err)
	}
	defer store.Close()

	if cfg.Seed {
		if err := seedDemoActivities(store); err != nil {
			return fmt.Errorf("failed to seed demo activities: %w", err)
		}
	}

	retentionCleaner := duckdb.NewRetentionCleaner(store, time.Duration(cfg.RetentionDays)*24*time.Hour)
	if retentionCleaner != nil {
		defer retentionCleaner.Stop()
	}

	apiServer := httpserver.NewServer(cfg.APIAddr, store)
	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	defer func() { _ = apiServer.Stop() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		// Shutdown deadline starts now — not at boot.
		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		os.Exit(1)
	}()

	printStartupBanner(cfg, store.SchemaVersion())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("hub: errgroup exited with error: %v", err)
	}

	signal.Stop(sigCh)
	return nil
}

func printStartupBanner(cfg hubConfig, schemaVersion int) {
	fmt.Printf("Skiffd %s\n", version)
	fmt.Printf("  API:       http://%s\n", cfg.APIAddr)
	fmt.Printf("  Database:  %s (schema v%d)\n", cfg.DBPath, schemaVersion)
	if cfg.RetentionDays > 0 {
		fmt.Printf("  Retention: %d days\n", cfg.RetentionDays)
	} else {
		fmt.Printf("  Retention: disabled\n")
	}
	if cfg.ConfigPath != "" {
		fmt.Printf("  Config:    %s\n", cfg.ConfigPath)
	}
}

// configureRuntimeLogger sends the standard logger to a state file so log
// output does not interleave with the startup banner.
func configureRuntimeLogger() func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	home, err := os.UserHomeDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "skiff")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logPath := filepath.Join(logDir, "skiffd.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}

// seedDemoActivities inserts a recognizable window of field activity so a
// fresh install has something to pull. Inserts are idempotent by ID, so
// repeated --seed runs do not duplicate rows.
func seedDemoActivities(store *duckdb.Store) error {
	now := time.Now().UTC()
	sites := []string{"north", "south", "harbor"}
	kinds := []struct {
		kind, title, status string
	}{
		{"visit", "Site walkthrough", "done"},
		{"order", "Restock consumables", "pending"},
		{"repair", "Pump seal replacement", "done"},
		{"inspection", "Safety inspection", "blocked"},
	}

	var items []model.Activity
	for day := 0; day < 10; day++ {
		for i, k := range kinds {
			ts := now.AddDate(0, 0, -day).Add(-time.Duration(i) * time.Hour)
			items = append(items, model.Activity{
				ID:        fmt.Sprintf("seed-%d-%d", day, i),
				Timestamp: ts,
				Kind:      k.kind,
				Title:     k.title,
				Site:      sites[(day+i)%len(sites)],
				Status:    k.status,
				Notes:     "seeded demo activity",
			})
		}
	}
	return store.InsertActivities(items)
}
