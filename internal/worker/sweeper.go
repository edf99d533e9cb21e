package worker

import (
	"context"
	"sync"
	"time"

	"studioz/internal/metrics"

	"github.com/rs/zerolog"
)

// ExpiryService is the slice of the reservation service the sweeper drives.
type ExpiryService interface {
	ExpirePendingReservations(ctx context.Context) (int, error)
	CleanupOldExpiredReservations(ctx context.Context) (int64, error)
}

// Sweeper periodically releases lapsed holds and, once a day, deletes
// expired reservations past retention. It is an explicit object: callers
// construct it, Start it and Stop it during shutdown.
type Sweeper struct {
	service     ExpiryService
	interval    time.Duration
	cleanupHour int
	logger      *zerolog.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	sweeping bool
}

func NewSweeper(service ExpiryService, interval time.Duration, cleanupHour int, logger *zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if cleanupHour < 0 || cleanupHour > 23 {
		cleanupHour = 4
	}
	return &Sweeper{
		service:     service,
		interval:    interval,
		cleanupHour: cleanupHour,
		logger:      logger,
	}
}

// Start launches the sweep and cleanup loops. Calling Start on a running
// sweeper is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(2)
	go s.sweepLoop(ctx)
	go s.cleanupLoop(ctx)

	s.logger.Info().
		Dur("interval", s.interval).
		Int("cleanup_hour", s.cleanupHour).
		Msg("expiry sweeper started")
}

// Stop cancels the loops and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.logger.Info().Msg("expiry sweeper stopped")
}

func (s *Sweeper) sweepLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.SweepOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single expiry pass. A tick that arrives while the
// previous pass is still running is skipped.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	s.mu.Lock()
	if s.sweeping {
		s.mu.Unlock()
		s.logger.Warn().Msg("previous sweep still running, skipping tick")
		return
	}
	s.sweeping = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sweeping = false
		s.mu.Unlock()
	}()

	start := time.Now()
	count, err := s.service.ExpirePendingReservations(ctx)
	metrics.ObserveSweepDuration(time.Since(start).Seconds())
	if err != nil {
		s.logger.Error().Err(err).Msg("expiry sweep failed")
		return
	}
	if count > 0 {
		metrics.AddReservationsExpired(count)
		s.logger.Info().Int("count", count).Dur("took", time.Since(start)).Msg("expiry sweep released holds")
	}
}

func (s *Sweeper) cleanupLoop(ctx context.Context) {
	defer s.wg.Done()

	// First wait until the cleanup hour local time, then run every 24h.
	timer := time.NewTimer(timeUntilNextHour(s.cleanupHour))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if _, err := s.service.CleanupOldExpiredReservations(ctx); err != nil {
				s.logger.Error().Err(err).Msg("retention cleanup failed")
			}
			timer.Reset(24 * time.Hour)
		}
	}
}

func timeUntilNextHour(hour int) time.Duration {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
