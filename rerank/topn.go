package rerank

import (
	"context"

	"github.com/rushteam/melorank/core"
	"github.com/rushteam/melorank/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在打分排序后截取前 N 个候选。
//
// 示例：
//
//	p := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &recall.ContentNode{...}, // 打分 + 排序
//	        &rerank.TopNNode{N: 20},  // 截取 Top 20
//	    },
//	}
type TopNNode struct {
	// N 要保留的候选数量。请求参数 "limit"（>0）存在时优先于 N；
	// 两者都没有（N <= 0）则不截断
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.ScoredCandidate,
) ([]*core.ScoredCandidate, error) {
	limit := n.N
	if rctx != nil {
		if v, ok := rctx.Params["limit"].(int); ok && v > 0 {
			limit = v
		}
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
