package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rushteam/melorank/core"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backend interface {
	core.RankingStore
	core.LockStore
}

// backends 返回两种实现，以及推进时钟的函数
func backends(t *testing.T) map[string]struct {
	store   backend
	advance func(time.Duration)
} {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Unix(1_700_000_000, 0)
	mem := NewMemoryStore(WithClock(func() time.Time { return now }))
	t.Cleanup(func() { _ = mem.Close() })

	return map[string]struct {
		store   backend
		advance func(time.Duration)
	}{
		"redis":  {NewRedisStoreWithClient(client, "test:ranking"), mr.FastForward},
		"memory": {mem, func(d time.Duration) { now = now.Add(d) }},
	}
}

func TestRankingStore_IncrementAndTopK(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := b.store

			score, err := s.Increment(ctx, "1", 1)
			require.NoError(t, err)
			assert.Equal(t, 1.0, score)

			_, _ = s.Increment(ctx, "1", 10)
			_, _ = s.Increment(ctx, "2", 3)
			_, _ = s.Increment(ctx, "3", 3)

			top, err := s.TopK(ctx, 10)
			require.NoError(t, err)
			// 同分按 member 降序
			assert.Equal(t, []core.RankingEntry{
				{Member: "1", Score: 11},
				{Member: "3", Score: 3},
				{Member: "2", Score: 3},
			}, top)

			top, err = s.TopK(ctx, 1)
			require.NoError(t, err)
			assert.Len(t, top, 1)

			top, err = s.TopK(ctx, 0)
			require.NoError(t, err)
			assert.Empty(t, top)

			missing, err := s.Score(ctx, "404")
			require.NoError(t, err)
			assert.Equal(t, 0.0, missing)
		})
	}
}

func TestRankingStore_NegativeDelta(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, _ = b.store.Increment(ctx, "7", 10)
			score, err := b.store.Increment(ctx, "7", -10)
			require.NoError(t, err)
			assert.Equal(t, 0.0, score)

			score, err = b.store.Increment(ctx, "8", -10)
			require.NoError(t, err)
			assert.Equal(t, -10.0, score)
		})
	}
}

func TestRankingStore_Page(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := b.store
			for member, score := range map[string]float64{"a": 5, "b": 3, "c": 3, "d": 3, "e": 1} {
				_, err := s.Increment(ctx, member, score)
				require.NoError(t, err)
			}

			// 降序全序：a(5) d(3) c(3) b(3) e(1)
			page, err := s.Page(ctx, 3, "d", core.Desc, 2)
			require.NoError(t, err)
			assert.Equal(t, []core.RankingEntry{{Member: "c", Score: 3}, {Member: "b", Score: 3}}, page)

			page, err = s.Page(ctx, 3, "b", core.Desc, 10)
			require.NoError(t, err)
			assert.Equal(t, []core.RankingEntry{{Member: "e", Score: 1}}, page)

			// 升序全序：e(1) b(3) c(3) d(3) a(5)
			page, err = s.Page(ctx, 3, "b", core.Asc, 2)
			require.NoError(t, err)
			assert.Equal(t, []core.RankingEntry{{Member: "c", Score: 3}, {Member: "d", Score: 3}}, page)

			page, err = s.Page(ctx, 3, "d", core.Asc, 5)
			require.NoError(t, err)
			assert.Equal(t, []core.RankingEntry{{Member: "a", Score: 5}}, page)

			// 未指定方向按降序
			page, err = s.Page(ctx, 5, "a", core.DirectionUnset, 1)
			require.NoError(t, err)
			assert.Equal(t, []core.RankingEntry{{Member: "d", Score: 3}}, page)
		})
	}
}

func TestRankingStore_RemoveAndReset(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, _ = b.store.Increment(ctx, "1", 4)
			_, _ = b.store.Increment(ctx, "2", 2)

			require.NoError(t, b.store.Remove(ctx, "1"))
			top, err := b.store.TopK(ctx, 10)
			require.NoError(t, err)
			assert.Equal(t, []core.RankingEntry{{Member: "2", Score: 2}}, top)

			require.NoError(t, b.store.Reset(ctx))
			top, err = b.store.TopK(ctx, 10)
			require.NoError(t, err)
			assert.Empty(t, top)
		})
	}
}

func TestLockStore_SetNXAndRelease(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := b.store

			ok, err := s.SetNX(ctx, "lock:like:song:1", "owner-a", 3*time.Second)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = s.SetNX(ctx, "lock:like:song:1", "owner-b", 3*time.Second)
			require.NoError(t, err)
			assert.False(t, ok, "second owner must not acquire a held lock")

			// 非持有者释放不生效
			deleted, err := s.CompareAndDelete(ctx, "lock:like:song:1", "owner-b")
			require.NoError(t, err)
			assert.False(t, deleted)

			deleted, err = s.CompareAndDelete(ctx, "lock:like:song:1", "owner-a")
			require.NoError(t, err)
			assert.True(t, deleted)

			ok, err = s.SetNX(ctx, "lock:like:song:1", "owner-b", 3*time.Second)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestLockStore_Expiry(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ok, err := b.store.SetNX(ctx, "lock:k", "owner-a", 3*time.Second)
			require.NoError(t, err)
			require.True(t, ok)

			b.advance(4 * time.Second)

			ok, err = b.store.SetNX(ctx, "lock:k", "owner-b", 3*time.Second)
			require.NoError(t, err)
			assert.True(t, ok, "expired lock must be acquirable")

			// 过期后原持有者的释放不能删除新持有者的锁
			deleted, err := b.store.CompareAndDelete(ctx, "lock:k", "owner-a")
			require.NoError(t, err)
			assert.False(t, deleted)
		})
	}
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	s := NewRedisStoreWithClient(client, "")

	mr.Close()

	_, err := s.Increment(context.Background(), "1", 1)
	assert.True(t, core.IsUnavailable(err), "got %v", err)

	_, err = s.SetNX(context.Background(), "k", "t", time.Second)
	assert.True(t, core.IsUnavailable(err), "got %v", err)
}

type failingRanking struct {
	core.RankingStore
	calls int
}

func (f *failingRanking) TopK(context.Context, int) ([]core.RankingEntry, error) {
	f.calls++
	return nil, core.Unavailable(core.ModuleStore, errors.New("connection refused"))
}

func (f *failingRanking) Score(context.Context, string) (float64, error) {
	f.calls++
	return 0, core.InvalidInput(core.ModuleStore, "bad member")
}

func TestBreakerRankingStore_OpensOnUnavailable(t *testing.T) {
	inner := &failingRanking{}
	b := NewBreakerRankingStore(inner, BreakerConfig{
		Name: "test", FailureThreshold: 2, Timeout: time.Minute,
	})
	ctx := context.Background()

	// 业务错误不计入失败
	for i := 0; i < 3; i++ {
		_, err := b.Score(ctx, "x")
		assert.True(t, core.IsInvalidInput(err))
	}
	assert.Equal(t, "closed", b.State())

	for i := 0; i < 2; i++ {
		_, err := b.TopK(ctx, 10)
		assert.True(t, core.IsUnavailable(err))
	}
	assert.Equal(t, "open", b.State())

	calls := inner.calls
	_, err := b.TopK(ctx, 10)
	assert.True(t, core.IsUnavailable(err))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, calls, inner.calls, "open breaker must not reach the backend")
}

func TestLikeStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	stores := map[string]core.LikeStore{
		"redis":  NewRedisLikeStore(client, "song"),
		"memory": NewMemoryLikeStore(),
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			ok, err := s.Exists(ctx, 1, 10)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Insert(ctx, 1, 10))
			require.NoError(t, s.Insert(ctx, 1, 10))
			require.NoError(t, s.Insert(ctx, 2, 10))

			n, err := s.Count(ctx, 10)
			require.NoError(t, err)
			assert.Equal(t, int64(2), n)

			ok, _ = s.Exists(ctx, 1, 10)
			assert.True(t, ok)

			require.NoError(t, s.Delete(ctx, 1, 10))
			require.NoError(t, s.Delete(ctx, 1, 10))
			n, _ = s.Count(ctx, 10)
			assert.Equal(t, int64(1), n)

			ok, _ = s.Exists(ctx, 1, 10)
			assert.False(t, ok)

			n, _ = s.Count(ctx, 99)
			assert.Equal(t, int64(0), n)
		})
	}

	assert.True(t, mr.Exists("like:song:10"))
}

func TestRedisLikeStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	s := NewRedisLikeStore(client, "song")
	mr.Close()

	_, err := s.Exists(context.Background(), 1, 10)
	assert.True(t, core.IsUnavailable(err))
	assert.True(t, core.IsUnavailable(s.Insert(context.Background(), 1, 10)))
}
