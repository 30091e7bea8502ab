package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rushteam/melorank/core"
	"github.com/rushteam/melorank/lock"
	"github.com/rushteam/melorank/logging"
	"github.com/rushteam/melorank/pkg/conv"
)

// LikeResult 是一次点赞切换的结果
type LikeResult struct {
	// Liked 是本次请求之后用户对目标的点赞状态
	Liked bool `json:"liked"`

	// LikeCount 是目标当前的点赞数
	LikeCount int64 `json:"likeCount"`

	// Changed 为 false 表示并发的相同请求已经完成了同样的切换
	Changed bool `json:"changed"`
}

// LikeConfig 点赞临界区配置
type LikeConfig struct {
	TargetType string        `koanf:"target_type"`
	LockTTL    time.Duration `koanf:"lock_ttl" validate:"gt=0"`
}

func DefaultLikeConfig() LikeConfig {
	return LikeConfig{TargetType: "song", LockTTL: 3 * time.Second}
}

// LikeService 串行化同一目标上的点赞切换，保证计数不会因并发而偏移。
type LikeService struct {
	likes    core.LikeStore
	ranking  *Ranking
	mutex    *lock.Mutex
	executor *lock.Executor
	cfg      LikeConfig
}

func NewLikeService(likes core.LikeStore, ranking *Ranking, mutex *lock.Mutex, executor *lock.Executor, cfg LikeConfig) *LikeService {
	if cfg.TargetType == "" {
		cfg.TargetType = DefaultLikeConfig().TargetType
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLikeConfig().LockTTL
	}
	return &LikeService{likes: likes, ranking: ranking, mutex: mutex, executor: executor, cfg: cfg}
}

// ToggleLike 切换 userID 对 targetID 的点赞状态。
//
// 期望状态在进锁前由当前记录决定（已点赞 -> 取消，未点赞 -> 点赞）；
// 临界区内再读一次，状态已经是期望值时什么也不做，
// 这样两个同时发起的「点赞」只会生效一次。
// 锁竞争超过重试次数时返回 LIKE_CONFLICT。
func (s *LikeService) ToggleLike(ctx context.Context, userID, targetID int64) (*LikeResult, error) {
	if userID <= 0 || targetID <= 0 {
		return nil, core.InvalidInput(core.ModuleLike, "user id and target id must be positive")
	}

	exists, err := s.likes.Exists(ctx, userID, targetID)
	if err != nil {
		return nil, fmt.Errorf("read like record: %w", err)
	}
	want := !exists

	key := lock.LikeKey(s.cfg.TargetType, targetID)
	res, err := lock.Execute(ctx, s.executor, func(ctx context.Context) (*LikeResult, error) {
		var out *LikeResult
		err := s.mutex.Guard(ctx, key, s.cfg.LockTTL, func(ctx context.Context) error {
			r, err := s.apply(ctx, userID, targetID, want)
			out = r
			return err
		})
		return out, err
	})
	if err != nil {
		if core.IsConflict(err) {
			logging.Ctx(ctx).Warn().Int64("user", userID).Int64("target", targetID).Msg("like toggle conflicted")
		}
		return nil, err
	}
	return res, nil
}

// apply 在锁内把点赞状态推进到 want，并同步排行榜分数
func (s *LikeService) apply(ctx context.Context, userID, targetID int64, want bool) (*LikeResult, error) {
	current, err := s.likes.Exists(ctx, userID, targetID)
	if err != nil {
		return nil, fmt.Errorf("read like record: %w", err)
	}

	changed := current != want
	if changed {
		if err := s.write(ctx, userID, targetID, want); err != nil {
			return nil, err
		}
		delta := s.ranking.Weights().Like
		if !want {
			delta = -delta
		}
		if _, err := s.ranking.RecordActivity(ctx, conv.MemberID(targetID), delta); err != nil {
			// 排行榜写失败时回滚点赞记录，保证两边一致
			if rerr := s.write(ctx, userID, targetID, current); rerr != nil {
				err = errors.Join(err, rerr)
				logging.Ctx(ctx).Error().Err(rerr).Int64("target", targetID).Msg("like rollback failed")
			}
			return nil, err
		}
	}

	count, err := s.likes.Count(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	return &LikeResult{Liked: want, LikeCount: count, Changed: changed}, nil
}

func (s *LikeService) write(ctx context.Context, userID, targetID int64, liked bool) error {
	if liked {
		return s.likes.Insert(ctx, userID, targetID)
	}
	return s.likes.Delete(ctx, userID, targetID)
}
