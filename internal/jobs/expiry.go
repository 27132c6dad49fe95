package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/robfig/cron/v3"
)

// Expirer closes connection requests whose deadline has passed.
type Expirer interface {
	ExpireDue(ctx context.Context) (int, error)
}

// ExpiryJob runs the expiry sweep on a cron schedule. Overlapping runs are
// skipped.
type ExpiryJob struct {
	expirer Expirer
	cron    *cron.Cron
	running atomic.Bool
}

func NewExpiryJob(expirer Expirer) *ExpiryJob {
	return &ExpiryJob{expirer: expirer, cron: cron.New()}
}

// Start schedules the sweep and stops the scheduler when ctx ends.
func (j *ExpiryJob) Start(ctx context.Context, schedule string) error {
	if _, err := j.cron.AddFunc(schedule, func() { _, _ = j.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid expiry schedule %q: %w", schedule, err)
	}
	j.cron.Start()
	slog.Info("expiry job scheduled", "schedule", schedule)

	go func() {
		<-ctx.Done()
		<-j.cron.Stop().Done()
	}()
	return nil
}

// RunOnce performs a single sweep and returns the number of expired
// requests. On error the count covers the batches that committed.
func (j *ExpiryJob) RunOnce(ctx context.Context) (int, error) {
	if !j.running.CompareAndSwap(false, true) {
		slog.Debug("expiry sweep already running")
		return 0, nil
	}
	defer j.running.Store(false)

	n, err := j.expirer.ExpireDue(ctx)
	if err != nil {
		slog.Error("expiry sweep failed", "expired", n, "error", err)
		return n, fmt.Errorf("expiry sweep: %w", err)
	}
	return n, nil
}
