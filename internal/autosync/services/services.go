// Package services implements the fan-out set of third-party watch
// tracking sync targets consumed by the autosync component (spec
// component C9).
package services

import (
	"context"
	"log/slog"

	"github.com/kyoo-project/scanner/internal/autosync/models"
)

// Service pushes a single watch-status update to one third-party tracker.
type Service interface {
	Name() string
	Enabled() bool
	Sync(ctx context.Context, msg *models.WatchStatusMessage) error
}

// Aggregate fans a message out to every enabled service, continuing past
// individual failures so one tracker's outage doesn't block the others.
type Aggregate struct {
	services []Service
	log      *slog.Logger
}

func NewAggregate(log *slog.Logger, services ...Service) *Aggregate {
	if log == nil {
		log = slog.Default()
	}
	return &Aggregate{services: services, log: log.With("component", "autosync.aggregate")}
}

func (a *Aggregate) Sync(ctx context.Context, msg *models.WatchStatusMessage) error {
	var firstErr error
	for _, svc := range a.services {
		if !svc.Enabled() {
			continue
		}
		if err := svc.Sync(ctx, msg); err != nil {
			a.log.Error("sync service failed", "service", svc.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
