package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeCleaner struct {
	mu      sync.Mutex
	calls   int
	ages    []time.Duration
	removed int
	err     error
}

func (f *fakeCleaner) CleanupOlderThan(_ context.Context, age time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.ages = append(f.ages, age)
	return f.removed, f.err
}

func (f *fakeCleaner) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestParseCronSchedule(t *testing.T) {
	tests := []struct {
		name       string
		cronExpr   string
		wantHour   int
		wantMinute int
		wantErr    bool
	}{
		{name: "empty defaults to 3am", cronExpr: "", wantHour: 3},
		{name: "default expression", cronExpr: "0 3 * * *", wantHour: 3},
		{name: "half past four", cronExpr: "30 4 * * *", wantHour: 4, wantMinute: 30},
		{name: "extra whitespace", cronExpr: "  15   23   *   *   *  ", wantHour: 23, wantMinute: 15},
		{name: "wildcards keep defaults", cronExpr: "* * * * *", wantHour: 3},
		{name: "minute out of range", cronExpr: "60 3 * * *", wantErr: true},
		{name: "hour out of range", cronExpr: "0 24 * * *", wantErr: true},
		{name: "not a number", cronExpr: "x 3 * * *", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hour, minute, err := ParseCronSchedule(tt.cronExpr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHour, hour)
			assert.Equal(t, tt.wantMinute, minute)
		})
	}
}

func TestNewRetentionScheduler_Validation(t *testing.T) {
	cleaner := &fakeCleaner{}

	_, err := NewRetentionScheduler(DefaultRetentionConfig(), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg := DefaultRetentionConfig()
	cfg.MaxAge = 0
	_, err = NewRetentionScheduler(cfg, cleaner, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultRetentionConfig()
	cfg.Schedule = "0 99 * * *"
	_, err = NewRetentionScheduler(cfg, cleaner, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	s, err := NewRetentionScheduler(RetentionConfig{MaxAge: time.Hour}, cleaner, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, s.config.CheckInterval)
	assert.Equal(t, 3, s.hour)
}

func TestRetentionScheduler_CheckAndRun(t *testing.T) {
	cleaner := &fakeCleaner{removed: 4}
	s, err := NewRetentionScheduler(DefaultRetentionConfig(), cleaner, zaptest.NewLogger(t))
	require.NoError(t, err)

	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	s.now = func() time.Time { return day.Add(2*time.Hour + 59*time.Minute) }
	assert.False(t, s.checkAndRun(ctx), "before schedule")

	s.now = func() time.Time { return day.Add(3 * time.Hour) }
	assert.True(t, s.checkAndRun(ctx))
	assert.False(t, s.checkAndRun(ctx), "once per day")

	s.now = func() time.Time { return day.AddDate(0, 0, 1).Add(3 * time.Hour) }
	assert.True(t, s.checkAndRun(ctx), "next day")

	assert.Equal(t, 2, cleaner.Calls())
	assert.Equal(t, 30*24*time.Hour, cleaner.ages[0])
	assert.Equal(t, 4, s.LastRemoved())
}

func TestRetentionScheduler_RunNowError(t *testing.T) {
	cleaner := &fakeCleaner{err: errors.New("bucket unavailable")}
	s, err := NewRetentionScheduler(DefaultRetentionConfig(), cleaner, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = s.RunNow(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, s.LastRemoved())
}

func TestRetentionScheduler_StartStop(t *testing.T) {
	cleaner := &fakeCleaner{}
	cfg := DefaultRetentionConfig()
	cfg.CheckInterval = 5 * time.Millisecond
	s, err := NewRetentionScheduler(cfg, cleaner, zaptest.NewLogger(t))
	require.NoError(t, err)

	s.Start(context.Background())
	s.Start(context.Background())
	assert.True(t, s.IsRunning())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop(ctx))
}
