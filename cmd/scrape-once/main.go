// Command scrape-once runs a single aggregation cycle and exits: scrape every
// configured source, persist the snapshot, and publish it if MQTT is enabled.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rodrigocabraln/bank-scraper/internal/config"
	"github.com/rodrigocabraln/bank-scraper/internal/core"
	"github.com/rodrigocabraln/bank-scraper/internal/log"
	"github.com/rodrigocabraln/bank-scraper/internal/mqtt"
	"github.com/rodrigocabraln/bank-scraper/internal/scrape"
	"github.com/rodrigocabraln/bank-scraper/internal/scrape/sources"
	"github.com/rodrigocabraln/bank-scraper/internal/snapshot"
	"github.com/rodrigocabraln/bank-scraper/internal/storage"
)

const sourceTimeout = 10 * time.Minute

func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{Level: slog.LevelInfo, Component: log.ComponentApp})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Run failed", log.FieldError, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc := core.LoadLocation(cfg.Timezone)

	registry := scrape.NewRegistry()
	if err := registerSources(registry, cfg); err != nil {
		return fmt.Errorf("register sources: %w", err)
	}

	banks := cfg.Banks
	if len(banks) == 0 {
		banks = registry.IDs()
	}

	orch := scrape.NewOrchestrator(registry, scrape.NewEnv(cfg.CredentialsDir), loc, sourceTimeout, logger)
	snap := orch.RunAll(ctx, banks)

	store := snapshot.NewStore(cfg.OutputJSON)
	if err := store.Save(snap); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	logger.Info("Snapshot written", "path", cfg.OutputJSON, "sources", len(snap.Banks))

	if cfg.HistoryDBPath != "" {
		history, err := storage.NewHistory(cfg.HistoryDBPath, logger)
		if err != nil {
			return fmt.Errorf("open history database: %w", err)
		}
		defer history.Close()
		if err := history.RecordRun(ctx, snap); err != nil {
			return fmt.Errorf("record balance history: %w", err)
		}
	}

	if cfg.MQTTEnabled {
		port, _ := strconv.Atoi(cfg.MQTTPort)
		client := mqtt.NewClient(mqtt.Config{
			Host:     cfg.MQTTBroker,
			Port:     port,
			Username: cfg.MQTTUser,
			Password: cfg.MQTTPass,
			ClientID: "bank-scraper-once",
		})
		defer client.Close()
		if err := mqtt.NewPublisher(client, cfg.MQTTTopicPrefix, logger).PublishSnapshot(snap); err != nil {
			return fmt.Errorf("publish snapshot: %w", err)
		}
	}

	return nil
}

func registerSources(registry *scrape.Registry, cfg *config.Config) error {
	entries, err := os.ReadDir(cfg.ReportsDir)
	if err != nil {
		return fmt.Errorf("read reports directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		src := sources.NewFileSource(id, id+".webp", filepath.Join(cfg.ReportsDir, name))
		if err := registry.Register(src); err != nil {
			return fmt.Errorf("register source %s: %w", id, err)
		}
	}
	if len(registry.IDs()) == 0 {
		return fmt.Errorf("no report files in %s", cfg.ReportsDir)
	}
	return nil
}
