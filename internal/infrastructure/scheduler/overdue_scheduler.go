package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// tickerInterval is how often the scheduler checks whether the sweep is due
const tickerInterval = 1 * time.Minute

// OverdueSweeper marks pending installments whose due date has passed
type OverdueSweeper interface {
	MarkOverdue(ctx context.Context, asOf time.Time) (int, error)
}

// OverdueSchedulerConfig holds configuration for the daily overdue sweep
type OverdueSchedulerConfig struct {
	// Enabled indicates if the scheduler is running
	Enabled bool
	// Hour is the hour (0-23) to run the daily sweep
	Hour int
	// Minute is the minute (0-59) to run the daily sweep
	Minute int
	// JobTimeout is the maximum time a single sweep can run
	JobTimeout time.Duration
}

// DefaultOverdueSchedulerConfig returns the default configuration.
// The sweep runs shortly after midnight so installments flip to OVERDUE
// on the first day past their due date.
func DefaultOverdueSchedulerConfig() OverdueSchedulerConfig {
	return OverdueSchedulerConfig{
		Enabled:    true,
		Hour:       0,
		Minute:     15,
		JobTimeout: 5 * time.Minute,
	}
}

// OverdueScheduler runs the overdue installment sweep once per day
type OverdueScheduler struct {
	cfg     OverdueSchedulerConfig
	sweeper OverdueSweeper
	logger  *zap.Logger

	mu      sync.Mutex
	lastRun time.Time
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewOverdueScheduler creates a new OverdueScheduler
func NewOverdueScheduler(cfg OverdueSchedulerConfig, sweeper OverdueSweeper, logger *zap.Logger) *OverdueScheduler {
	return &OverdueScheduler{
		cfg:     cfg,
		sweeper: sweeper,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Start launches the scheduler loop. It is a no-op when disabled.
func (s *OverdueScheduler) Start() {
	if !s.cfg.Enabled {
		s.logger.Info("overdue scheduler disabled")
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop()

	s.logger.Info("overdue scheduler started",
		zap.Int("hour", s.cfg.Hour),
		zap.Int("minute", s.cfg.Minute),
	)
}

// Stop shuts the scheduler down and waits for an in-flight sweep to finish
func (s *OverdueScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("overdue scheduler stopped")
}

func (s *OverdueScheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(tickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			if s.shouldRun(now) {
				s.runSweep(now)
			}
		}
	}
}

// shouldRun reports whether the sweep is due: the scheduled time has passed
// and it has not already run today.
func (s *OverdueScheduler) shouldRun(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	scheduled := time.Date(now.Year(), now.Month(), now.Day(), s.cfg.Hour, s.cfg.Minute, 0, 0, now.Location())
	if now.Before(scheduled) {
		return false
	}
	if !s.lastRun.IsZero() && s.lastRun.After(scheduled) {
		return false
	}
	s.lastRun = now
	return true
}

// runSweep executes a single sweep with the configured timeout
func (s *OverdueScheduler) runSweep(now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
	defer cancel()

	count, err := s.sweeper.MarkOverdue(ctx, now)
	if err != nil {
		s.logger.Error("overdue sweep failed", zap.Error(err))
		return
	}
	if count > 0 {
		s.logger.Info("overdue sweep finished", zap.Int("marked", count))
	}
}

// RunOnce triggers an immediate sweep outside the daily schedule
func (s *OverdueScheduler) RunOnce(ctx context.Context) (int, error) {
	return s.sweeper.MarkOverdue(ctx, time.Now())
}
