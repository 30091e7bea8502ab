package store

import (
	"context"
	"errors"
	"time"

	"github.com/rushteam/melorank/core"
	"github.com/rushteam/melorank/logging"
	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	Name             string        `koanf:"name"`
	MaxRequests      uint32        `koanf:"max_requests"`      // 半开状态允许通过的请求数
	Interval         time.Duration `koanf:"interval"`          // 闭合状态下计数清零周期
	Timeout          time.Duration `koanf:"timeout"`           // 打开后多久进入半开
	FailureThreshold uint32        `koanf:"failure_threshold"` // 连续失败多少次后打开
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "ranking",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerRankingStore 用熔断器包装 RankingStore。
// 只有 UNAVAILABLE 计为失败；熔断打开时直接返回 UNAVAILABLE，不再访问后端。
type BreakerRankingStore struct {
	next core.RankingStore
	cb   *gobreaker.CircuitBreaker[any]
}

var _ core.RankingStore = (*BreakerRankingStore)(nil)

func NewBreakerRankingStore(next core.RankingStore, cfg BreakerConfig) *BreakerRankingStore {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !core.IsUnavailable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("ranking breaker state changed")
		},
	}
	return &BreakerRankingStore{next: next, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// State 返回熔断器当前状态（closed / half-open / open）
func (b *BreakerRankingStore) State() string { return b.cb.State().String() }

func (b *BreakerRankingStore) execute(fn func() (any, error)) (any, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, core.Unavailable(core.ModuleRanking, err)
	}
	return v, err
}

func (b *BreakerRankingStore) Increment(ctx context.Context, member string, delta float64) (float64, error) {
	v, err := b.execute(func() (any, error) { return b.next.Increment(ctx, member, delta) })
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func (b *BreakerRankingStore) Score(ctx context.Context, member string) (float64, error) {
	v, err := b.execute(func() (any, error) { return b.next.Score(ctx, member) })
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func (b *BreakerRankingStore) TopK(ctx context.Context, k int) ([]core.RankingEntry, error) {
	v, err := b.execute(func() (any, error) { return b.next.TopK(ctx, k) })
	if err != nil {
		return nil, err
	}
	return v.([]core.RankingEntry), nil
}

func (b *BreakerRankingStore) Page(ctx context.Context, cursorScore float64, cursorMember string, dir core.Direction, limit int) ([]core.RankingEntry, error) {
	v, err := b.execute(func() (any, error) {
		return b.next.Page(ctx, cursorScore, cursorMember, dir, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]core.RankingEntry), nil
}

func (b *BreakerRankingStore) Remove(ctx context.Context, member string) error {
	_, err := b.execute(func() (any, error) { return nil, b.next.Remove(ctx, member) })
	return err
}

func (b *BreakerRankingStore) Reset(ctx context.Context) error {
	_, err := b.execute(func() (any, error) { return nil, b.next.Reset(ctx) })
	return err
}
