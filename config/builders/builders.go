// Package builders 注册内置 Node 的构建逻辑，供 YAML 声明的相似推荐 Pipeline 使用。
package builders

import (
	"fmt"

	"github.com/rushteam/melorank/config"
	"github.com/rushteam/melorank/feature"
	"github.com/rushteam/melorank/filter"
	"github.com/rushteam/melorank/pipeline"
	"github.com/rushteam/melorank/pkg/conv"
	"github.com/rushteam/melorank/recall"
	"github.com/rushteam/melorank/rerank"
)

func init() {
	config.Register("filter.expr", BuildExprFilterNode)
	config.Register("filter.exclude", BuildExcludeFilterNode)
	config.Register("recall.content", BuildContentNode)
	config.Register("rerank.topn", BuildTopNNode)
}

// BuildExprFilterNode 配置：expr（CEL 表达式，结果为 false 的候选被过滤）
func BuildExprFilterNode(cfg map[string]any) (pipeline.Node, error) {
	expr := conv.ConfigGet(cfg, "expr", "")
	if expr == "" {
		return nil, fmt.Errorf("filter.expr: expr is required")
	}
	f, err := filter.NewExprFilter(expr)
	if err != nil {
		return nil, err
	}
	return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
}

// BuildExcludeFilterNode 配置：ids（排除列表），exclude_reference（默认 true）
func BuildExcludeFilterNode(cfg map[string]any) (pipeline.Node, error) {
	return &filter.FilterNode{Filters: []filter.Filter{&filter.ExcludeFilter{
		IDs:              conv.SliceAnyToInt64(cfg["ids"]),
		ExcludeReference: conv.ConfigGet(cfg, "exclude_reference", true),
	}}}, nil
}

// BuildContentNode 配置：delimiter（标签分隔符），normalize（是否 L2 归一化）
func BuildContentNode(cfg map[string]any) (pipeline.Node, error) {
	v := feature.NewVectorizer(conv.ConfigGet(cfg, "delimiter", feature.DefaultDelimiter))
	node := &recall.ContentNode{Vectorize: v.Vectorize}
	if conv.ConfigGet(cfg, "normalize", false) {
		node.Normalize = feature.Normalize
	}
	return node, nil
}

// BuildTopNNode 配置：n
func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	n := conv.ConfigGetInt(cfg, "n", 0)
	if n < 0 {
		return nil, fmt.Errorf("rerank.topn: n must not be negative")
	}
	return &rerank.TopNNode{N: n}, nil
}
