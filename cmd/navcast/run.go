package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fundscope/navcast/internal/config"
	"github.com/fundscope/navcast/internal/domain"
	"github.com/fundscope/navcast/internal/engine"
	"github.com/fundscope/navcast/internal/feed"
	httpiface "github.com/fundscope/navcast/internal/interfaces/http"
	"github.com/fundscope/navcast/internal/persistence"
	"github.com/fundscope/navcast/internal/persistence/postgres"
	"github.com/fundscope/navcast/internal/scheduler"
	"github.com/fundscope/navcast/internal/snapshotcache"
	"github.com/fundscope/navcast/internal/store"
	"github.com/fundscope/navcast/internal/telemetry"
)

// app bundles the wired process components.
type app struct {
	cfg       config.Config
	store     *store.Store
	engine    *engine.Engine
	refresher *persistence.Refresher
	edits     *persistence.EditService
	registry  *prometheus.Registry
	metrics   *telemetry.Metrics
	publish   func(ctx context.Context) error
}

// buildApp wires the store, warehouse loaders, engine and snapshot cache.
func buildApp(cfg config.Config) (*app, error) {
	st := store.New()
	registry := prometheus.NewRegistry()
	metrics := telemetry.New(registry)
	eng := engine.New(st, metrics, log.Logger)

	db, err := postgres.Connect(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("warehouse connection: %w", err)
	}
	loader := postgres.NewLoader(db, cfg.Database.Timeout)
	writer := postgres.NewWriter(db, cfg.Database.Timeout)
	refresher := persistence.NewRefresher(loader, st, log.Logger)
	edits := persistence.NewEditService(writer, st, log.Logger)

	a := &app{
		cfg:       cfg,
		store:     st,
		engine:    eng,
		refresher: refresher,
		edits:     edits,
		registry:  registry,
		metrics:   metrics,
	}

	if !cfg.Redis.Disabled {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		cache := snapshotcache.New(client, cfg.Redis.TTL, log.Logger)
		a.publish = func(ctx context.Context) error {
			var forecasts []*domain.Forecast
			st.Snapshots.ForEach(func(_ string, f *domain.Forecast) {
				forecasts = append(forecasts, f)
			})
			return cache.PublishAll(ctx, forecasts)
		}
	}
	return a, nil
}

func runCalc(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := a.refresher.RefreshAll(ctx); err != nil {
		return err
	}
	if err := a.engine.Start(ctx); err != nil {
		return err
	}
	res, err := a.engine.Calculate(ctx)
	if err != nil {
		return err
	}
	if a.publish != nil {
		if err := a.publish(ctx); err != nil {
			log.Warn().Err(err).Msg("snapshot publish failed")
		}
	}
	log.Info().Str("cycle_id", res.CycleID).Int("calculated", res.Calculated).
		Int("failed", res.Failed).Msg("single pass done")
	return nil
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := a.refresher.RefreshAll(ctx); err != nil {
		return err
	}

	if !cfg.Feed.Disabled && cfg.Feed.URL != "" {
		sub := feed.NewSubscriber(cfg.Feed.URL, a.store, a.metrics, cfg.Feed.ReconnectBackoff, log.Logger)
		go func() {
			if err := sub.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("price feed stopped")
			}
		}()
	}

	sched := scheduler.New(a.engine, cfg.Engine, a.publish, log.Logger)

	server := httpiface.NewServer(a.store, a.registry, a.edits, sched.LastRun, log.Logger)
	go func() {
		if err := server.ListenAndServe(cfg.Monitor.Addr); err != nil {
			log.Error().Err(err).Msg("monitor server stopped")
		}
	}()

	err = sched.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	if err := a.refresher.RefreshAll(ctx); err != nil {
		return err
	}

	server := httpiface.NewServer(a.store, a.registry, a.edits, nil, log.Logger)
	return server.ListenAndServe(cfg.Monitor.Addr)
}
