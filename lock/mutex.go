// Package lock 提供基于共享存储的分布式互斥锁，以及在锁竞争时有限重试的执行器。
//
// 锁记录为 (key, owner token, ttl)：
//   - 获取：key 空闲时写入 token，否则立即返回 false，不阻塞
//   - 释放：只有 token 匹配时才删除，不匹配或已过期是静默的空操作
//
// 典型用法：
//
//	mu := lock.NewMutex(redisStore, metrics.Noop{})
//	ex := lock.NewExecutor(lock.DefaultRetryConfig(), metrics.Noop{})
//	res, err := lock.Execute(ctx, ex, func(ctx context.Context) (Result, error) {
//		var out Result
//		err := mu.Guard(ctx, lock.LikeKey("song", id), 3*time.Second, func(ctx context.Context) error {
//			...
//		})
//		return out, err
//	})
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rushteam/melorank/core"
	"github.com/rushteam/melorank/logging"
	"github.com/rushteam/melorank/metrics"
)

// Mutex 是基于 core.LockStore 的分布式互斥锁
type Mutex struct {
	store   core.LockStore
	metrics metrics.Collector
}

func NewMutex(store core.LockStore, m metrics.Collector) *Mutex {
	if m == nil {
		m = metrics.Noop{}
	}
	return &Mutex{store: store, metrics: m}
}

// NewToken 生成一个 owner token
func NewToken() string {
	return uuid.NewString()
}

// LikeKey 返回点赞临界区使用的锁 key：lock:like:<targetType>:<targetID>
func LikeKey(targetType string, targetID int64) string {
	return fmt.Sprintf("lock:like:%s:%d", targetType, targetID)
}

// TryAcquire 尝试获取锁，被占用时立即返回 false。
func (m *Mutex) TryAcquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, core.InvalidInput(core.ModuleLock, "ttl must be positive")
	}
	if key == "" || token == "" {
		return false, core.InvalidInput(core.ModuleLock, "key and token are required")
	}
	ok, err := m.store.SetNX(ctx, key, token, ttl)
	switch {
	case err != nil:
		m.metrics.LockAcquire(metrics.LockError)
		return false, err
	case !ok:
		m.metrics.LockAcquire(metrics.LockContended)
	default:
		m.metrics.LockAcquire(metrics.LockAcquired)
	}
	return ok, nil
}

// Release 释放锁。token 不匹配或锁已过期时什么也不做；只有存储故障才返回错误。
func (m *Mutex) Release(ctx context.Context, key, token string) error {
	deleted, err := m.store.CompareAndDelete(ctx, key, token)
	if err != nil {
		return err
	}
	if !deleted {
		logging.Ctx(ctx).Debug().Str("key", key).Msg("lock release skipped, not the owner")
	}
	return nil
}

// Guard 获取锁后执行 fn，结束时用同一个 token 释放。
// 拿不到锁时返回 LOCK_CONTENDED，交给 Executor 决定是否重试。
func (m *Mutex) Guard(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	token := NewToken()
	ok, err := m.TryAcquire(ctx, key, token, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrLockContended.Withf("key %s", key)
	}
	defer func() {
		// 使用独立 context，调用方取消后仍要释放
		if rerr := m.Release(context.WithoutCancel(ctx), key, token); rerr != nil {
			logging.Ctx(ctx).Warn().Err(rerr).Str("key", key).Msg("lock release failed, waiting for ttl")
		}
	}()
	return fn(ctx)
}
