package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"classifieds_backend/internal/services"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// slowSweeper считает вызовы и максимум одновременных проходов
type slowSweeper struct {
	delay   time.Duration
	calls   atomic.Int32
	running atomic.Int32
	maxSeen atomic.Int32
	err     error
	release chan struct{}
}

func (s *slowSweeper) SweepAll(db *gorm.DB) (services.SweepResult, error) {
	s.calls.Add(1)
	n := s.running.Add(1)
	defer s.running.Add(-1)
	for {
		old := s.maxSeen.Load()
		if n <= old || s.maxSeen.CompareAndSwap(old, n) {
			break
		}
	}
	if s.release != nil {
		<-s.release
	}
	time.Sleep(s.delay)
	return services.SweepResult{ExpiredAds: 1}, s.err
}

func newTestWorker(t *testing.T, sweeper Sweeper, cfg ExpiryWorkerConfig) *ExpiryWorker {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	return NewExpiryWorker(db, sweeper, NewLocalLocker(), cfg)
}

func TestExpiryWorker_RunOnceSkipsWhileSweepInProgress(t *testing.T) {
	sweeper := &slowSweeper{release: make(chan struct{})}
	w := newTestWorker(t, sweeper, ExpiryWorkerConfig{Interval: time.Hour})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := w.RunOnce(context.Background())
		assert.NoError(t, err)
	}()

	require.Eventually(t, func() bool { return sweeper.running.Load() == 1 }, time.Second, 5*time.Millisecond)

	_, err := w.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrSweepInProgress)

	close(sweeper.release)
	wg.Wait()

	assert.Equal(t, int32(1), sweeper.calls.Load())

	// замок освобождён - следующий проход идёт
	res, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.ExpiredAds)
}

func TestExpiryWorker_TicksNeverOverlap(t *testing.T) {
	sweeper := &slowSweeper{delay: 20 * time.Millisecond}
	w := newTestWorker(t, sweeper, ExpiryWorkerConfig{Interval: 5 * time.Millisecond, RunOnStart: true})

	w.Start(context.Background())
	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	w.Stop()

	assert.Equal(t, int32(1), sweeper.maxSeen.Load())
	assert.Equal(t, int32(0), sweeper.running.Load(), "Stop waits for the running sweep")
}

func TestExpiryWorker_ErrorsDoNotStopTheLoop(t *testing.T) {
	sweeper := &slowSweeper{err: errors.New("db is down")}
	w := newTestWorker(t, sweeper, ExpiryWorkerConfig{Interval: 5 * time.Millisecond})

	w.Start(context.Background())
	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	w.Stop()
	// повторный Stop безопасен
	w.Stop()
}

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()

	release, ok, err := l.TryLock(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	_, ok, _ = l.TryLock(context.Background())
	assert.True(t, ok)
}
