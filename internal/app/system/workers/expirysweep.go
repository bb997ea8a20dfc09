// internal/app/system/workers/expirysweep.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wardsync/wardsync/internal/app/system/timeouts"
)

// Sweeper is the sweep operation the worker drives. Implemented by the
// assignment engine; the worker owns scheduling only.
type Sweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

// ExpirySweep is a background worker that runs the assignment expiry sweep
// once a day at a fixed wall-clock hour.
type ExpirySweep struct {
	sweeper Sweeper
	log     *zap.Logger
	hour    int // 0-23, local time
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewExpirySweep creates a new expiry sweep worker.
//
// Parameters:
//   - sweeper: the assignment engine (or anything that can run a sweep)
//   - logger: zap logger for logging
//   - hour: wall-clock hour (0-23) at which the daily sweep fires
func NewExpirySweep(sweeper Sweeper, logger *zap.Logger, hour int) *ExpirySweep {
	if hour < 0 || hour > 23 {
		hour = 0
	}
	return &ExpirySweep{
		sweeper: sweeper,
		log:     logger,
		hour:    hour,
		stopCh:  make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *ExpirySweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("expiry sweep worker started", zap.Int("hour", w.hour))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *ExpirySweep) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("expiry sweep worker stopped")
}

func (w *ExpirySweep) run() {
	defer w.wg.Done()

	for {
		now := time.Now()
		timer := time.NewTimer(nextRun(now, w.hour).Sub(now))

		select {
		case <-w.stopCh:
			timer.Stop()
			return
		case <-timer.C:
			w.sweep()
		}
	}
}

func (w *ExpirySweep) sweep() {
	ctx, cancel := timeouts.WithLong(context.Background())
	defer cancel()

	start := time.Now()
	count, err := w.sweeper.SweepExpired(ctx, start.UTC())
	if err != nil {
		w.log.Error("expiry sweep failed", zap.Error(err))
		return
	}

	if count > 0 {
		w.log.Info("expiry sweep deactivated assignments",
			zap.Int("count", count),
			zap.Duration("took", time.Since(start)))
	}
}

// nextRun returns the next occurrence of the given wall-clock hour strictly
// after now.
func nextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
