// Package metrics 收集排行榜、分布式锁与相似推荐的运行指标。
package metrics

// Collector 是指标收集接口。
// 实现包括 Prometheus 版本（NewCollector）和空实现（Noop）。
type Collector interface {
	// LockAcquire 记录一次抢锁结果：acquired / contended / error
	LockAcquire(result string)
	// GuardRetry 记录一次因锁竞争触发的重试
	GuardRetry()
	// LikeConflict 记录一次重试耗尽后的点赞冲突
	LikeConflict()
	// RankingOp 记录一次排行榜操作：op = increment / topk / page ...，status = ok / error
	RankingOp(op, status string)
	// SimilarCandidates 记录一次相似推荐打分的候选数量
	SimilarCandidates(n int)
}

// 抢锁结果
const (
	LockAcquired  = "acquired"
	LockContended = "contended"
	LockError     = "error"
)

// 操作状态
const (
	StatusOK    = "ok"
	StatusError = "error"
)
