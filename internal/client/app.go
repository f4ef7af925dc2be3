// SPDX-License-Identifier: Apache-2.0

// Package client wires the full offline-first stack together: local store,
// push gateway, sync engine, trigger policy, cross-instance notifier, and
// background workers. CLI commands construct one App and work through its
// services.
package client

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mkalabin/calib-keeper/internal/adapter"
	"github.com/mkalabin/calib-keeper/internal/config"
	"github.com/mkalabin/calib-keeper/internal/logger"
	"github.com/mkalabin/calib-keeper/internal/notifier"
	"github.com/mkalabin/calib-keeper/internal/service"
	"github.com/mkalabin/calib-keeper/internal/store"
	"github.com/mkalabin/calib-keeper/internal/trigger"
	"github.com/mkalabin/calib-keeper/internal/workers"
	"github.com/mkalabin/calib-keeper/models"
)

type App struct {
	Config  *config.ClientConfig
	Logger  *logger.Logger
	Records service.RecordService
	Sync    service.SyncService
	Trigger trigger.SyncTrigger
	Gateway adapter.ServerGateway

	db       *store.DB
	notifier notifier.Notifier
	workers  *workers.Workers
	cancel   context.CancelFunc
}

// NewApp builds the application from configuration. overrides carries values
// collected from CLI flags and wins over the environment.
func NewApp(ctx context.Context, overrides *config.ClientConfig) (*App, error) {
	cfg, err := config.GetClientConfig(overrides)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	log := logger.NewClientLogger("calib-client", cfg.Log.Path)

	db, err := store.NewConnectSQLite(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	if err = db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate local store: %w", err)
	}
	records := store.NewRecordRepository(db, log)

	gateway, err := adapter.NewHTTPServerGateway(cfg.Adapter, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create server gateway: %w", err)
	}

	broadcastDir := cfg.Storage.BroadcastDir
	if broadcastDir == "" {
		broadcastDir = filepath.Dir(cfg.Storage.DSN)
	}
	broadcast, err := notifier.NewFileNotifier(broadcastDir, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create sync notifier: %w", err)
	}

	syncSvc := service.NewSyncService(records, gateway, broadcast, cfg.Sync, log)

	appCtx, cancel := context.WithCancel(ctx)
	trig := trigger.NewDebouncedTrigger(appCtx, syncSvc.SyncAll, cfg.Sync.Debounce, log)
	recordSvc := service.NewRecordService(records, trig, log)

	return &App{
		Config:   cfg,
		Logger:   log,
		Records:  recordSvc,
		Sync:     syncSvc,
		Trigger:  trig,
		Gateway:  gateway,
		db:       db,
		notifier: broadcast,
		cancel:   cancel,
	}, nil
}

// StartBackground launches the connectivity probe and subscribes to sync
// events from sibling instances. Long-running commands call this; one-shot
// commands work without it.
func (a *App) StartBackground(ctx context.Context) error {
	if err := a.notifier.Subscribe(ctx, a.onSiblingSync); err != nil {
		return fmt.Errorf("subscribe to sync events: %w", err)
	}

	probe := workers.NewConnectivityProbe(a.Gateway, a.Trigger, a.Config.Sync.PingInterval, a.Logger)
	a.workers = workers.NewWorkers(probe)
	a.workers.Run(ctx)

	return nil
}

// onSiblingSync handles a broadcast from another instance. The event is a
// hint only: the local store already holds the authoritative state, so the
// handler just logs that views should re-read it.
func (a *App) onSiblingSync(event models.SyncEvent) {
	a.Logger.Info().
		Str("func", "onSiblingSync").
		Str("local_id", event.LocalID).
		Str("server_id", event.ServerID).
		Msg("record synced by another instance, local views are stale")
}

// Close releases everything in reverse construction order.
func (a *App) Close() {
	a.cancel()
	a.Trigger.Close()
	if a.workers != nil {
		a.workers.Wait()
	}
	if err := a.notifier.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("close notifier")
	}
	if err := a.db.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("close local store")
	}
}
