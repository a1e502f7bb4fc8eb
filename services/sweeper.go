package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/competition-system/live"
	"github.com/Dosada05/competition-system/repositories"
)

const eventSweepCompleted = "SWEEP_COMPLETED"

type SweepResult struct {
	Seeded    int64     `json:"seeded"`
	Activated int64     `json:"activated"`
	Expired   int64     `json:"expired"`
	RanAt     time.Time `json:"ran_at"`
}

func (r SweepResult) Changed() bool {
	return r.Seeded+r.Activated+r.Expired > 0
}

// Sweeper moves progress entries along by wall-clock time against stage windows.
// Every step is a single bulk conditional UPDATE/INSERT, so concurrent or repeated
// runs are idempotent.
type Sweeper struct {
	progressRepo repositories.ProgressRepository
	publisher    live.Publisher
	logger       *slog.Logger
	now          Clock

	// runMu не даёт тикеру и ручным запускам (Run и отдельные фазы) выполняться одновременно в одном процессе.
	runMu sync.Mutex
}

func NewSweeper(progressRepo repositories.ProgressRepository, publisher live.Publisher, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		progressRepo: progressRepo,
		publisher:    publisher,
		logger:       logger,
		now:          systemClock,
	}
}

// SweepActivate moves not_started entries of stages whose window contains now to in_progress.
func (s *Sweeper) SweepActivate(ctx context.Context, now time.Time) (int64, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.activate(ctx, now)
}

// SweepExpire moves in_progress entries of stages whose window ended before now to rejected.
func (s *Sweeper) SweepExpire(ctx context.Context, now time.Time) (int64, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.expire(ctx, now)
}

// SeedOpenStages creates missing not_started entries for eligible teams in open stages.
func (s *Sweeper) SeedOpenStages(ctx context.Context, now time.Time) (int64, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.seed(ctx, now)
}

// Методы ниже вызываются только под runMu.

func (s *Sweeper) activate(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.progressRepo.ActivateOpenStages(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("sweep activate: %w", err)
	}
	return n, nil
}

func (s *Sweeper) expire(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.progressRepo.ExpireClosedStages(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("sweep expire: %w", err)
	}
	return n, nil
}

func (s *Sweeper) seed(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.progressRepo.SeedOpenStages(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("sweep seed: %w", err)
	}
	return n, nil
}

// Run performs seed, activate and expire, each phase complete before the next starts.
func (s *Sweeper) Run(ctx context.Context, now time.Time) (SweepResult, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	result := SweepResult{RanAt: now}
	var err error
	if result.Seeded, err = s.seed(ctx, now); err != nil {
		return result, err
	}
	if result.Activated, err = s.activate(ctx, now); err != nil {
		return result, err
	}
	if result.Expired, err = s.expire(ctx, now); err != nil {
		return result, err
	}

	if result.Changed() {
		s.logger.Info("sweep completed",
			slog.Int64("seeded", result.Seeded),
			slog.Int64("activated", result.Activated),
			slog.Int64("expired", result.Expired),
		)
		if s.publisher != nil {
			s.publisher.Publish(live.AdminRoom, live.Event{Type: eventSweepCompleted, Payload: result})
		}
	}
	return result, nil
}

// Start запускает Run сразу и затем каждые interval, пока ctx не отменён.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	s.logger.Info("sweeper started", slog.Duration("interval", interval))
	s.tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	if _, err := s.Run(ctx, s.now()); err != nil && ctx.Err() == nil {
		s.logger.Error("sweep failed", slog.Any("error", err))
	}
}
