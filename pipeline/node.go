package pipeline

import (
	"context"

	"github.com/rushteam/melorank/core"
)

// Kind 用于标记 Node 类型，方便观测/编排（例如按阶段打点）。
type Kind string

const (
	KindRecall Kind = "recall" // 打分阶段：对候选窗口计算相似度
	KindFilter Kind = "filter" // 过滤阶段：剔除不符合约束的候选
	KindReRank Kind = "rerank" // 重排阶段：截断、调序
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用「输入候选 -> 输出候选」的形态，过滤、打分、截断都是同一种操作。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.ScoredCandidate,
	) ([]*core.ScoredCandidate, error)
}
