package filter

import (
	"context"

	"github.com/rushteam/melorank/core"
	"github.com/rushteam/melorank/logging"
	"github.com/rushteam/melorank/pipeline"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该候选就会被过滤掉。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.ScoredCandidate,
) ([]*core.ScoredCandidate, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.ScoredCandidate, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		drop := false
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				// 过滤器错误时记录但不中断流程，视为保留
				logging.Ctx(ctx).Warn().Err(err).
					Str("filter", f.Name()).
					Int64("song_id", item.ID()).
					Msg("filter evaluation failed")
				continue
			}
			if ok {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, item)
		}
	}

	return out, nil
}
