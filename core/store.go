package core

import (
	"context"
	"time"
)

// RankingStore 是排行榜存储的领域接口（member -> score 有序结构）。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - Increment 必须在存储侧原子执行，多实例共享同一份排行榜
//   - 成员不存在不是错误（分数视为 0）；存储不可达返回 UNAVAILABLE
//
// 实现：
//   - store.RedisStore（ZINCRBY / ZREVRANGE）
//   - store.MemoryStore（测试/开发）
//   - store.BreakerRankingStore（熔断装饰器）
type RankingStore interface {
	// Increment 原子地给 member 加上 delta，不存在时以 delta 创建，返回新分数
	Increment(ctx context.Context, member string, delta float64) (float64, error)

	// Score 返回 member 的分数，不存在时返回 0
	Score(ctx context.Context, member string) (float64, error)

	// TopK 按分数降序返回前 k 个成员；同分时按 member 字节序降序（与 Redis 一致）
	TopK(ctx context.Context, k int) ([]RankingEntry, error)

	// Page 从上一页最后一条 (cursorScore, cursorMember) 之后继续读取 limit 条
	Page(ctx context.Context, cursorScore float64, cursorMember string, dir Direction, limit int) ([]RankingEntry, error)

	// Remove 显式重置单个成员
	Remove(ctx context.Context, member string) error

	// Reset 清空整个排行榜
	Reset(ctx context.Context) error
}

// LockStore 是分布式锁的存储原语。
//
// 两个操作都必须在存储侧原子完成：
//   - SetNX：key 空闲时写入 owner token 并设置过期时间
//   - CompareAndDelete：仅当当前值等于 token 时删除（Redis 用 Lua 脚本实现）
type LockStore interface {
	SetNX(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key, token string) (bool, error)
}

// LikeStore 是点赞记录的外部协作者（持久层）。
type LikeStore interface {
	Exists(ctx context.Context, userID, targetID int64) (bool, error)
	Insert(ctx context.Context, userID, targetID int64) error
	Delete(ctx context.Context, userID, targetID int64) error
	Count(ctx context.Context, targetID int64) (int64, error)
}

// CatalogStore 是歌曲目录的外部协作者，只读。
type CatalogStore interface {
	// Song 读取单首歌曲特征，不存在时返回 NOT_FOUND
	Song(ctx context.Context, id int64) (*SongFeatures, error)

	// Window 按游标读取一个候选窗口，并返回下一页游标（没有更多时为空串）
	Window(ctx context.Context, w CandidateWindow) ([]*SongFeatures, string, error)
}
