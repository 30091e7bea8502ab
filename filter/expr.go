package filter

import (
	"context"
	"fmt"

	"github.com/rushteam/melorank/core"
	"github.com/rushteam/melorank/pkg/dsl"
)

// ExprFilter 用 CEL 表达式描述「保留」条件，表达式为 false 的候选被过滤。
//
// 示例：
//
//	f, _ := filter.NewExprFilter(`song.speed != "slow" && !song.explicit`)
type ExprFilter struct {
	prg *dsl.Program
}

// NewExprFilter 编译表达式并创建过滤器
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("filter expr %q: %w", expr, err)
	}
	return &ExprFilter{prg: prg}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.ScoredCandidate,
) (bool, error) {
	if item == nil || item.Song == nil {
		return true, nil
	}
	keep, err := f.prg.Match(item.Song, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
