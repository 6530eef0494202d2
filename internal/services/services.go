package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/FrejusAdedemi/wim-plateform/internal/events"
	"github.com/FrejusAdedemi/wim-plateform/internal/logger"
)

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// runInTx executes fn inside the caller's transaction when one is passed, and
// opens its own otherwise. Services that do multi-row writes go through this so
// callers can compose them into larger transactions.
func runInTx(ctx context.Context, db *gorm.DB, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	if db == nil {
		// Repos fall back to their own handle on a nil tx.
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// publish is best-effort: a nil bus is a no-op and publish failures are logged,
// never propagated into the state change that triggered them.
func publish(ctx context.Context, bus events.Bus, log *logger.Logger, e events.Event) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, e); err != nil {
		log.Warn("Event publish failed", "type", e.Type, "channel", e.Channel, "error", err)
	}
}
