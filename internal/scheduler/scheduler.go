package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lmercier/pricewatch/internal/models"
	"github.com/lmercier/pricewatch/internal/services/tracker"
)

// SummaryFunc receives the outcome of every scheduled sweep.
type SummaryFunc func(ctx context.Context, summary *models.SweepSummary)

// Scheduler fires a full sweep at a fixed interval. It is an owned handle:
// the caller keeps the value returned by Start and passes it to Stop; there
// is no package-level state.
type Scheduler struct {
	log      *slog.Logger
	tracker  tracker.Interface
	interval time.Duration
	onSweep  SummaryFunc

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Start launches the recurring sweep in a background goroutine and returns
// the handle controlling it. onSweep may be nil.
func Start(
	ctx context.Context,
	log *slog.Logger,
	trk tracker.Interface,
	interval time.Duration,
	onSweep SummaryFunc,
) *Scheduler {
	s := &Scheduler{
		log:      log,
		tracker:  trk,
		interval: interval,
		onSweep:  onSweep,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go s.run(ctx)

	log.InfoContext(ctx, "Scheduler started", "interval", interval)

	return s
}

// Stop halts the recurring sweeps and waits for the loop to exit. A sweep
// already in progress runs to completion. Stop is idempotent.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
	s.log.Info("Scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	const opn = "scheduler.run"
	log := s.log.With("op", opn)

	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			log.InfoContext(ctx, "Scheduled sweep triggered")

			summary, err := s.tracker.SweepAll(ctx)
			if err != nil {
				log.ErrorContext(ctx, "Scheduled sweep failed", "error", err)
				continue
			}
			if s.onSweep != nil {
				s.onSweep(ctx, summary)
			}
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}
