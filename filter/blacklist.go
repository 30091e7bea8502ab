package filter

import (
	"context"

	"github.com/rushteam/melorank/core"
)

// ExcludeFilter 过滤掉指定 ID 的歌曲；ExcludeReference 为 true 时同时过滤参考歌曲本身。
type ExcludeFilter struct {
	// IDs 是内存中的排除列表
	IDs []int64

	ExcludeReference bool
}

func (f *ExcludeFilter) Name() string {
	return "filter.exclude"
}

func (f *ExcludeFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.ScoredCandidate,
) (bool, error) {
	if item == nil || item.Song == nil {
		return true, nil
	}
	id := item.ID()
	if f.ExcludeReference && rctx != nil && rctx.Reference != nil && rctx.Reference.ID == id {
		return true, nil
	}
	for _, ex := range f.IDs {
		if ex == id {
			return true, nil
		}
	}
	return false, nil
}
