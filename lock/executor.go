package lock

import (
	"context"
	"time"

	"github.com/rushteam/melorank/core"
	"github.com/rushteam/melorank/logging"
	"github.com/rushteam/melorank/metrics"
)

// RetryConfig 锁竞争重试配置。
// 总尝试次数 = MaxRetries + 1：默认 3 次重试即 4 次尝试，退避总计 3*Backoff。
type RetryConfig struct {
	MaxRetries int           `koanf:"max_retries" validate:"min=0"` // 首次尝试之后最多重试几次
	Backoff    time.Duration `koanf:"backoff" validate:"min=0"`
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, Backoff: 50 * time.Millisecond}
}

// SleepFunc 在两次尝试之间等待，ctx 结束时提前返回其错误
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Executor 执行可能因锁竞争失败的临界区。
// 只有 LOCK_CONTENDED 会按固定间隔重试，其它错误立即返回；
// 重试耗尽后返回 LIKE_CONFLICT。
type Executor struct {
	cfg     RetryConfig
	sleep   SleepFunc
	metrics metrics.Collector
}

type ExecutorOption func(*Executor)

// WithSleep 替换等待函数（测试中用于控制时间）
func WithSleep(fn SleepFunc) ExecutorOption {
	return func(e *Executor) { e.sleep = fn }
}

func NewExecutor(cfg RetryConfig, m metrics.Collector, opts ...ExecutorOption) *Executor {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if m == nil {
		m = metrics.Noop{}
	}
	e := &Executor{cfg: cfg, sleep: sleepContext, metrics: m}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute 执行 fn，锁竞争时最多再重试 MaxRetries 次，最坏阻塞 MaxRetries*Backoff。
func Execute[T any](ctx context.Context, ex *Executor, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var last error
	for attempt := 1; attempt <= ex.cfg.MaxRetries+1; attempt++ {
		if attempt > 1 {
			ex.metrics.GuardRetry()
			if err := ex.sleep(ctx, ex.cfg.Backoff); err != nil {
				return zero, err
			}
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !core.IsLockContended(err) {
			return zero, err
		}
		last = err
		logging.Ctx(ctx).Debug().Int("attempt", attempt).Err(err).Msg("lock contended")
	}

	ex.metrics.LikeConflict()
	return zero, core.ErrLikeConflict.Wrap(last)
}

// Run 是不需要返回值的 Execute
func (ex *Executor) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := Execute(ctx, ex, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
