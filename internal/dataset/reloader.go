package dataset

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"aqiadvisor/internal/logging"
)

// Reloader periodically reloads a Dataset.
type Reloader struct {
	scheduler *gocron.Scheduler
	dataset   *Dataset
	interval  time.Duration
	logger    logging.Logger
}

// NewReloader creates a Reloader. A non-positive interval disables it.
func NewReloader(d *Dataset, interval time.Duration, logger logging.Logger) *Reloader {
	return &Reloader{
		scheduler: gocron.NewScheduler(time.UTC),
		dataset:   d,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the reload job and starts the scheduler.
func (r *Reloader) Start() error {
	if r.interval <= 0 {
		r.logger.Info(context.Background(), "dataset reload disabled")
		return nil
	}

	_, err := r.scheduler.Every(r.interval).WaitForSchedule().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := r.dataset.Load(ctx); err != nil {
			r.logger.Warn(ctx, "dataset reload failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	r.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels future reloads.
func (r *Reloader) Stop() {
	if r.scheduler != nil {
		r.scheduler.Stop()
	}
}
