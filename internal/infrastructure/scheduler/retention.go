package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrInvalidConfig is returned when configuration is invalid
var ErrInvalidConfig = errors.New("invalid scheduler configuration")

// Cleaner removes stored files older than age and reports how many went
type Cleaner interface {
	CleanupOlderThan(ctx context.Context, age time.Duration) (int, error)
}

// RetentionConfig holds configuration for the PDF retention sweep
type RetentionConfig struct {
	// MaxAge is how long stored PDFs are kept
	MaxAge time.Duration
	// Schedule is a cron expression; only minute and hour are honoured
	Schedule string
	// CheckInterval is how often the clock is checked
	CheckInterval time.Duration
	// Timeout bounds a single sweep
	Timeout time.Duration
}

// DefaultRetentionConfig returns a daily 03:00 sweep keeping 30 days
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		MaxAge:        30 * 24 * time.Hour,
		Schedule:      "0 3 * * *",
		CheckInterval: time.Minute,
		Timeout:       10 * time.Minute,
	}
}

// RetentionScheduler deletes expired label PDFs once a day
type RetentionScheduler struct {
	config  RetentionConfig
	hour    int
	minute  int
	cleaner Cleaner
	logger  *zap.Logger
	now     func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
	lastRemoved int
}

// NewRetentionScheduler creates a RetentionScheduler
func NewRetentionScheduler(config RetentionConfig, cleaner Cleaner, logger *zap.Logger) (*RetentionScheduler, error) {
	if cleaner == nil {
		return nil, fmt.Errorf("%w: cleaner is required", ErrInvalidConfig)
	}
	if config.MaxAge <= 0 {
		return nil, fmt.Errorf("%w: max age must be positive", ErrInvalidConfig)
	}
	hour, minute, err := ParseCronSchedule(config.Schedule)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RetentionScheduler{
		config:  config,
		hour:    hour,
		minute:  minute,
		cleaner: cleaner,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// ParseCronSchedule extracts hour and minute from a "m h * * *" expression.
// An empty expression means 03:00.
func ParseCronSchedule(cronExpr string) (hour, minute int, err error) {
	hour, minute = 3, 0

	parts := strings.Fields(cronExpr)
	if len(parts) < 2 {
		return hour, minute, nil
	}

	if parts[0] != "*" {
		if minute, err = strconv.Atoi(parts[0]); err != nil {
			return 3, 0, fmt.Errorf("invalid minute %q", parts[0])
		}
	}
	if parts[1] != "*" {
		if hour, err = strconv.Atoi(parts[1]); err != nil {
			return 3, 0, fmt.Errorf("invalid hour %q", parts[1])
		}
	}

	if minute < 0 || minute > 59 {
		return 3, 0, fmt.Errorf("minute must be 0-59, got %d", minute)
	}
	if hour < 0 || hour > 23 {
		return 3, 0, fmt.Errorf("hour must be 0-23, got %d", hour)
	}
	return hour, minute, nil
}

// Start starts the sweep loop
func (s *RetentionScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Retention scheduler started",
		zap.Int("hour", s.hour),
		zap.Int("minute", s.minute),
		zap.Duration("max_age", s.config.MaxAge),
	)
}

// Stop stops the sweep loop and waits for a running sweep to finish
func (s *RetentionScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Retention scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the sweep loop is active
func (s *RetentionScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *RetentionScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAndRun(ctx)
		}
	}
}

// checkAndRun sweeps at most once per calendar day, at the scheduled minute
func (s *RetentionScheduler) checkAndRun(ctx context.Context) bool {
	now := s.now()
	currentDate := now.Format("2006-01-02")

	if now.Hour() != s.hour || now.Minute() != s.minute {
		return false
	}

	s.mu.Lock()
	if s.lastRunDate == currentDate {
		s.mu.Unlock()
		return false
	}
	s.lastRunDate = currentDate
	s.mu.Unlock()

	_, _ = s.RunNow(ctx)
	return true
}

// RunNow performs one sweep immediately
func (s *RetentionScheduler) RunNow(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	removed, err := s.cleaner.CleanupOlderThan(ctx, s.config.MaxAge)
	if err != nil {
		s.logger.Error("Label PDF retention sweep failed", zap.Error(err))
		return removed, err
	}

	s.mu.Lock()
	s.lastRemoved = removed
	s.mu.Unlock()

	s.logger.Info("Label PDF retention sweep completed",
		zap.Int("removed", removed),
		zap.Duration("max_age", s.config.MaxAge),
	)
	return removed, nil
}

// LastRemoved returns how many files the last successful sweep removed
func (s *RetentionScheduler) LastRemoved() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRemoved
}
