package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/drivehub/car-rental-backend/internal/booking"
)

// runTimeout bounds a single sweep run.
const runTimeout = 2 * time.Minute

// Scheduler runs the booking lifecycle sweep on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	bookings *booking.Service
	logger   *zap.Logger
	spec     string
}

// NewScheduler creates a Scheduler. spec is a standard 5-field cron
// expression, e.g. "*/5 * * * *".
func NewScheduler(bookings *booking.Service, logger *zap.Logger, spec string) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		bookings: bookings,
		logger:   logger,
		spec:     spec,
	}
}

// Start registers the sweep job and starts the cron loop. It also fires
// one sweep immediately so a restarted server catches up without waiting
// for the next tick.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runOnce); err != nil {
		return fmt.Errorf("invalid sweep cron spec %q: %w", s.spec, err)
	}

	s.cron.Start()
	go s.runOnce()

	s.logger.Info("booking sweep scheduled", zap.String("cron", s.spec))
	return nil
}

// Stop stops the cron loop and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runOnce() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("booking sweep panicked", zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	summary, err := s.bookings.RunSweep(ctx)
	if err != nil {
		s.logger.Error("booking sweep failed", zap.Error(err))
		return
	}

	fields := []zap.Field{
		zap.Int("started", summary.Started),
		zap.Int("ended", summary.Ended),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", len(summary.Errors)),
	}
	for _, e := range summary.Errors {
		s.logger.Warn("booking sweep item failed", zap.Error(e))
	}

	if summary.Started == 0 && summary.Ended == 0 && len(summary.Errors) == 0 {
		s.logger.Debug("booking sweep: nothing to do", fields...)
		return
	}
	s.logger.Info("booking sweep finished", fields...)
}
