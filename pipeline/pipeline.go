package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/melorank/core"
)

// Pipeline 把相似推荐拆成可组合的 Node 链：过滤 -> 打分 -> 截断。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.ScoredCandidate,
) ([]*core.ScoredCandidate, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
