package jobs

import (
	"context"
	"time"

	"github.com/FrejusAdedemi/wim-plateform/internal/logger"
	"github.com/FrejusAdedemi/wim-plateform/internal/services"
)

// SyncWorker runs the content sync on a fixed interval. Each pass syncs every
// published course with a video source, then refreshes stale video metadata.
type SyncWorker struct {
	sync services.SyncService
	cfg  Config
	log  *logger.Logger
}

func NewSyncWorker(sync services.SyncService, cfg Config, baseLog *logger.Logger) *SyncWorker {
	return &SyncWorker{
		sync: sync,
		cfg:  cfg,
		log:  baseLog.With("component", "SyncWorker"),
	}
}

func (w *SyncWorker) Start(ctx context.Context) {
	go func() {
		w.log.Info("Sync worker started", "interval", w.cfg.Interval)
		ticker := time.NewTicker(w.cfg.Interval)
		defer ticker.Stop()

		w.runOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				w.log.Info("Sync worker stopped")
				return
			case <-ticker.C:
				w.runOnce(ctx)
			}
		}
	}()
}

func (w *SyncWorker) runOnce(ctx context.Context) {
	// A panicking pass must not kill the worker loop.
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Sync pass panic", "panic", r)
		}
	}()

	started := time.Now()
	results, err := w.sync.SyncAll(ctx, services.SyncOptions{
		CreateModules: w.cfg.CreateModules,
		MaxVideos:     w.cfg.MaxVideos,
	})
	if err != nil {
		w.log.Error("Sync pass failed", "error", err)
		return
	}

	created, updated, synced := 0, 0, 0
	for _, r := range results {
		if r.Synced {
			synced++
		}
		created += r.Created
		updated += r.Updated
	}
	w.log.Info("Sync pass finished",
		"courses_synced", synced,
		"lessons_created", created,
		"lessons_updated", updated,
		"elapsed", time.Since(started))

	if _, err := w.sync.RefreshMetadata(ctx, nil, w.cfg.MetadataMaxAge, w.cfg.MetadataBatchSize); err != nil {
		w.log.Error("Metadata refresh failed", "error", err)
	}
}
