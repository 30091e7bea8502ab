package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rushteam/melorank/core"
	"github.com/rushteam/melorank/metrics"
	"github.com/rushteam/melorank/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMetrics struct {
	metrics.Noop
	mu        sync.Mutex
	acquire   map[string]int
	retries   int
	conflicts int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{acquire: map[string]int{}}
}

func (c *countingMetrics) LockAcquire(result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acquire[result]++
}

func (c *countingMetrics) GuardRetry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retries++
}

func (c *countingMetrics) LikeConflict() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conflicts++
}

func newMemoryMutex(t *testing.T, opts ...store.MemoryOption) (*Mutex, *store.MemoryStore) {
	t.Helper()
	ms := store.NewMemoryStore(opts...)
	t.Cleanup(func() { _ = ms.Close() })
	return NewMutex(ms, nil), ms
}

func TestMutex_TryAcquireAndRelease(t *testing.T) {
	ctx := context.Background()
	mu, _ := newMemoryMutex(t)

	ok, err := mu.TryAcquire(ctx, "lock:like:song:1", "a", 3*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = mu.TryAcquire(ctx, "lock:like:song:1", "b", 3*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	// 错误 token 的释放是空操作
	require.NoError(t, mu.Release(ctx, "lock:like:song:1", "b"))
	ok, _ = mu.TryAcquire(ctx, "lock:like:song:1", "c", 3*time.Second)
	assert.False(t, ok, "lock must still be held by its owner")

	require.NoError(t, mu.Release(ctx, "lock:like:song:1", "a"))
	ok, _ = mu.TryAcquire(ctx, "lock:like:song:1", "c", 3*time.Second)
	assert.True(t, ok)
}

func TestMutex_TTLExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	mu, _ := newMemoryMutex(t, store.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	ok, _ := mu.TryAcquire(ctx, "k", "a", 3*time.Second)
	require.True(t, ok)

	now = now.Add(4 * time.Second)
	ok, err := mu.TryAcquire(ctx, "k", "b", 3*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMutex_InvalidInput(t *testing.T) {
	mu, _ := newMemoryMutex(t)
	ctx := context.Background()

	_, err := mu.TryAcquire(ctx, "k", "a", 0)
	assert.True(t, core.IsInvalidInput(err))

	_, err = mu.TryAcquire(ctx, "", "a", time.Second)
	assert.True(t, core.IsInvalidInput(err))
}

func TestMutex_Guard(t *testing.T) {
	ctx := context.Background()
	mu, ms := newMemoryMutex(t)

	var ran bool
	err := mu.Guard(ctx, "k", time.Second, func(context.Context) error {
		ran = true
		// 临界区内锁是被持有的
		ok, _ := ms.SetNX(ctx, "k", "intruder", time.Second)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	// 结束后已释放
	ok, _ := ms.SetNX(ctx, "k", "next", time.Second)
	assert.True(t, ok)

	err = mu.Guard(ctx, "k", time.Second, func(context.Context) error {
		t.Fatal("must not run while contended")
		return nil
	})
	assert.True(t, core.IsLockContended(err))
}

func TestMutex_GuardReleasesOnError(t *testing.T) {
	ctx := context.Background()
	mu, ms := newMemoryMutex(t)
	boom := errors.New("boom")

	err := mu.Guard(ctx, "k", time.Second, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	ok, _ := ms.SetNX(ctx, "k", "next", time.Second)
	assert.True(t, ok)
}

func TestLikeKey(t *testing.T) {
	assert.Equal(t, "lock:like:song:42", LikeKey("song", 42))
}

// fakeClock 模拟等待：每次 sleep 推进时间，到达 holdFor 时由持有者释放锁
type fakeClock struct {
	elapsed time.Duration
	holdFor time.Duration // <0 表示永不释放
	release func()
	sleeps  int
}

func (f *fakeClock) sleep(_ context.Context, d time.Duration) error {
	f.sleeps++
	f.elapsed += d
	if f.holdFor >= 0 && f.elapsed >= f.holdFor && f.release != nil {
		f.release()
		f.release = nil
	}
	return nil
}

func TestExecutor_ContentionBranches(t *testing.T) {
	tests := []struct {
		name      string
		holdFor   time.Duration
		wantErr   bool
		wantCalls int
	}{
		{"holder releases at 120ms", 120 * time.Millisecond, false, 4},
		{"holder releases after first backoff", 30 * time.Millisecond, false, 2},
		{"holder never releases", -1, true, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			mu, ms := newMemoryMutex(t)
			ok, _ := ms.SetNX(ctx, "k", "holder", time.Minute)
			require.True(t, ok)

			clock := &fakeClock{holdFor: tt.holdFor, release: func() {
				_, _ = ms.CompareAndDelete(ctx, "k", "holder")
			}}
			m := newCountingMetrics()
			ex := NewExecutor(DefaultRetryConfig(), m, WithSleep(clock.sleep))

			calls := 0
			got, err := Execute(ctx, ex, func(ctx context.Context) (string, error) {
				calls++
				var out string
				err := mu.Guard(ctx, "k", time.Second, func(context.Context) error {
					out = "done"
					return nil
				})
				return out, err
			})

			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, tt.wantCalls-1, m.retries)
			if tt.wantErr {
				assert.True(t, core.IsConflict(err), "got %v", err)
				assert.ErrorIs(t, err, core.ErrLikeConflict)
				assert.Equal(t, 1, m.conflicts)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "done", got)
			assert.Equal(t, 0, m.conflicts)
		})
	}
}

func TestExecutor_DoesNotRetryOtherErrors(t *testing.T) {
	clock := &fakeClock{holdFor: -1}
	ex := NewExecutor(DefaultRetryConfig(), nil, WithSleep(clock.sleep))
	boom := core.Unavailable(core.ModuleStore, errors.New("down"))

	calls := 0
	err := ex.Run(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, clock.sleeps)
	assert.True(t, core.IsUnavailable(err))
	assert.False(t, core.IsConflict(err))
}

func TestExecutor_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ex := NewExecutor(RetryConfig{MaxRetries: 3, Backoff: time.Hour}, nil)

	calls := 0
	err := ex.Run(ctx, func(context.Context) error {
		calls++
		return core.ErrLockContended
	})
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecutor_RealBackoff(t *testing.T) {
	ctx := context.Background()
	mu, ms := newMemoryMutex(t)
	ok, _ := ms.SetNX(ctx, "k", "holder", time.Minute)
	require.True(t, ok)

	go func() {
		time.Sleep(120 * time.Millisecond)
		_, _ = ms.CompareAndDelete(ctx, "k", "holder")
	}()

	ex := NewExecutor(DefaultRetryConfig(), nil)
	start := time.Now()
	err := ex.Run(ctx, func(ctx context.Context) error {
		return mu.Guard(ctx, "k", time.Second, func(context.Context) error { return nil })
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 120*time.Millisecond)
}
