package service

import (
	"context"
	"fmt"

	"github.com/rushteam/melorank/core"
	"github.com/rushteam/melorank/logging"
	"github.com/rushteam/melorank/metrics"
	"github.com/rushteam/melorank/pkg/conv"
)

// TopRankingCap 是 Top 榜单的最大长度
const TopRankingCap = 100

// Weights 是各类行为对排行榜分数的贡献
type Weights struct {
	Play float64 `koanf:"play_weight"`
	Like float64 `koanf:"like_weight"`
}

func DefaultWeights() Weights {
	return Weights{Play: 1, Like: 1}
}

// Ranking 维护全局歌曲排行榜。分数的原子性由 RankingStore 保证，这里不做本地缓存。
type Ranking struct {
	store   core.RankingStore
	weights Weights
	metrics metrics.Collector
}

func NewRanking(store core.RankingStore, w Weights, m metrics.Collector) *Ranking {
	if m == nil {
		m = metrics.Noop{}
	}
	return &Ranking{store: store, weights: w, metrics: m}
}

// Weights 返回当前权重配置
func (r *Ranking) Weights() Weights { return r.weights }

func (r *Ranking) observe(ctx context.Context, op string, err error) {
	if err != nil {
		r.metrics.RankingOp(op, metrics.StatusError)
		logging.Ctx(ctx).Warn().Err(err).Str("op", op).Msg("ranking store failed")
		return
	}
	r.metrics.RankingOp(op, metrics.StatusOK)
}

// RecordActivity 给 member 原子地加上 delta，返回新分数。
func (r *Ranking) RecordActivity(ctx context.Context, member string, delta float64) (float64, error) {
	if member == "" {
		return 0, core.InvalidInput(core.ModuleRanking, "member is required")
	}
	score, err := r.store.Increment(ctx, member, delta)
	r.observe(ctx, "increment", err)
	if err != nil {
		return 0, err
	}
	return score, nil
}

// RecordPlay 记一次播放
func (r *Ranking) RecordPlay(ctx context.Context, songID int64) (float64, error) {
	if songID <= 0 {
		return 0, core.InvalidInput(core.ModuleRanking, fmt.Sprintf("invalid song id %d", songID))
	}
	return r.RecordActivity(ctx, conv.MemberID(songID), r.weights.Play)
}

// Score 返回 member 当前分数，不存在为 0
func (r *Ranking) Score(ctx context.Context, member string) (float64, error) {
	score, err := r.store.Score(ctx, member)
	r.observe(ctx, "score", err)
	return score, err
}

// TopRanking 返回 Top100 榜单的第 page 页（从 0 开始），每页 limit 条。
// 超出前 100 名的部分不返回；limit 超过 100 时按 100 处理。
func (r *Ranking) TopRanking(ctx context.Context, page, limit int) ([]core.RankingEntry, error) {
	if page < 0 {
		return nil, core.InvalidInput(core.ModuleRanking, "page must not be negative")
	}
	if limit <= 0 {
		return nil, core.InvalidInput(core.ModuleRanking, "limit must be positive")
	}
	limit = min(limit, TopRankingCap)

	// 先用除法判断越界，page 很大时 page*limit 会溢出
	if page > (TopRankingCap-1)/limit {
		return []core.RankingEntry{}, nil
	}
	start := page * limit
	end := min(start+limit, TopRankingCap)

	entries, err := r.store.TopK(ctx, end)
	r.observe(ctx, "topk", err)
	if err != nil {
		return nil, err
	}
	if start >= len(entries) {
		return []core.RankingEntry{}, nil
	}
	return entries[start:min(end, len(entries))], nil
}

// PageAfter 从 (score, member) 之后继续读取 limit 条，用于不受 Top100 限制的完整榜单遍历。
func (r *Ranking) PageAfter(ctx context.Context, score float64, member string, dir core.Direction, limit int) ([]core.RankingEntry, error) {
	if member == "" {
		return nil, core.ErrMissingCursor.Withf("ranking cursor lacks member")
	}
	if limit <= 0 {
		return nil, core.InvalidInput(core.ModuleRanking, "limit must be positive")
	}
	entries, err := r.store.Page(ctx, score, member, dir, limit)
	r.observe(ctx, "page", err)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Remove 显式重置单首歌曲的分数
func (r *Ranking) Remove(ctx context.Context, member string) error {
	err := r.store.Remove(ctx, member)
	r.observe(ctx, "remove", err)
	return err
}
