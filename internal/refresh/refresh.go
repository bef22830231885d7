package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/meglermonitor/backend/internal/store"
	"github.com/meglermonitor/backend/pkg/logger"
)

// Runner keeps the reporting materialized views current.
type Runner struct {
	store    *store.Postgres
	logger   *logger.Logger
	schedule string
	cron     *cron.Cron
}

// NewRunner creates a view refresh runner with a cron schedule.
func NewRunner(st *store.Postgres, log *logger.Logger, schedule string) *Runner {
	return &Runner{
		store:    st,
		logger:   log.WithComponent("refresh"),
		schedule: schedule,
	}
}

// RunOnce refreshes the views a single time.
func (r *Runner) RunOnce(ctx context.Context) error {
	start := time.Now()

	if err := r.store.RefreshMaterializedViews(ctx); err != nil {
		return fmt.Errorf("failed to refresh views: %w", err)
	}

	r.logger.WithDuration(time.Since(start)).Info("Refreshed materialized views")
	return nil
}

// Start schedules periodic refreshes until the context is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	r.cron = cron.New()

	_, err := r.cron.AddFunc(r.schedule, func() {
		refreshCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()

		if err := r.RunOnce(refreshCtx); err != nil {
			r.logger.WithError(err).Error("Scheduled view refresh failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", r.schedule, err)
	}

	r.logger.WithField("schedule", r.schedule).Info("Starting view refresh scheduler")
	r.cron.Start()

	<-ctx.Done()

	stopCtx := r.cron.Stop()
	<-stopCtx.Done()

	r.logger.Info("View refresh scheduler stopped")
	return nil
}
