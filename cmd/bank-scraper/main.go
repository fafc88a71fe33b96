package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/rodrigocabraln/bank-scraper/internal/config"
	"github.com/rodrigocabraln/bank-scraper/internal/core"
	apphttp "github.com/rodrigocabraln/bank-scraper/internal/http"
	"github.com/rodrigocabraln/bank-scraper/internal/log"
	"github.com/rodrigocabraln/bank-scraper/internal/mqtt"
	"github.com/rodrigocabraln/bank-scraper/internal/scheduler"
	"github.com/rodrigocabraln/bank-scraper/internal/scrape"
	"github.com/rodrigocabraln/bank-scraper/internal/scrape/sources"
	"github.com/rodrigocabraln/bank-scraper/internal/snapshot"
	"github.com/rodrigocabraln/bank-scraper/internal/storage"
)

const sourceTimeout = 10 * time.Minute

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Level: slog.LevelInfo, Component: log.ComponentApp})
	log.SetDefault(logger)

	logger.Info("Starting bank-scraper")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	loc := core.LoadLocation(cfg.Timezone)

	registry := scrape.NewRegistry()
	if err := registerSources(registry, cfg); err != nil {
		logger.Error("Source registration failed", log.FieldError, err)
		os.Exit(1)
	}

	banks := cfg.Banks
	if len(banks) == 0 {
		banks = registry.IDs()
	}
	logger.Info("Sources configured", "banks", strings.Join(banks, ","))

	env := scrape.NewEnv(cfg.CredentialsDir)
	orch := scrape.NewOrchestrator(registry, env, loc, sourceTimeout, logger)

	store := snapshot.NewStore(cfg.OutputJSON)
	state := snapshot.NewStateFile(cfg.StateFile)

	var history *storage.History
	if cfg.HistoryDBPath != "" {
		var err error
		history, err = storage.NewHistory(cfg.HistoryDBPath, logger)
		if err != nil {
			logger.Error("Failed to open history database", log.FieldError, err, "path", cfg.HistoryDBPath)
			os.Exit(1)
		}
		defer history.Close()
		logger.Info("Balance history enabled", "path", cfg.HistoryDBPath)
	}

	var publisher *mqtt.Publisher
	var republisher *mqtt.Republisher
	if cfg.MQTTEnabled {
		port, _ := strconv.Atoi(cfg.MQTTPort)
		client := mqtt.NewClient(mqtt.Config{
			Host:     cfg.MQTTBroker,
			Port:     port,
			Username: cfg.MQTTUser,
			Password: cfg.MQTTPass,
			ClientID: "bank-scraper",
		})
		defer client.Close()
		publisher = mqtt.NewPublisher(client, cfg.MQTTTopicPrefix, logger)
		republisher = mqtt.NewRepublisher(publisher, store, cfg.MQTTRepublishInterval)
	} else {
		logger.Info("MQTT disabled - snapshots will only be served over HTTP")
	}

	job := func(ctx context.Context) error {
		snap := orch.RunAll(ctx, banks)
		if err := store.Save(snap); err != nil {
			return fmt.Errorf("persist snapshot: %w", err)
		}
		if history != nil {
			if err := history.RecordRun(ctx, snap); err != nil {
				logger.Error("Recording balance history failed", log.FieldError, err)
			}
		}
		if publisher != nil {
			if err := publisher.PublishSnapshot(snap); err != nil {
				logger.Error("MQTT publish failed", log.FieldError, err)
			}
		}
		return nil
	}

	times, err := scheduler.ParseTimes(strings.Join(cfg.ScheduleHours, ","))
	if err != nil {
		logger.Error("Invalid schedule", log.FieldError, err)
		os.Exit(1)
	}
	sched := scheduler.New(times, cfg.JitterMax(), state, loc, job, logger)

	srv := apphttp.NewServer(":"+cfg.HTTPPort, store, cfg.LogosDir, cfg.AllowedIPs, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sched.Run(gctx)
	})

	if republisher != nil {
		g.Go(func() error {
			return republisher.Run(gctx)
		})
	}

	g.Go(func() error {
		logger.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Stopped gracefully")
}

// registerSources wires one file-backed source per report found in the
// reports directory. Bank-specific collaborators would register here too.
func registerSources(registry *scrape.Registry, cfg *config.Config) error {
	entries, err := os.ReadDir(cfg.ReportsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("reports directory %s does not exist", cfg.ReportsDir)
		}
		return fmt.Errorf("read reports directory: %w", err)
	}

	var registered int
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
		registered++
	}
	if registered == 0 {
		return fmt.Errorf("no report files in %s", cfg.ReportsDir)
	}
	return nil
}
