package recall

import (
	"context"
	"sort"

	"github.com/rushteam/melorank/core"
	"github.com/rushteam/melorank/pipeline"
	"github.com/rushteam/melorank/pkg/utils"
)

// Vectorize 把歌曲编码成特征向量，通常是 (*feature.Vectorizer).Vectorize。
type Vectorize func(song *core.SongFeatures) core.FeatureVector

// Similarity 计算两个稀疏向量的相似度。
//
// 实现为未归一化的点积：遍历较小的 map，在较大的 map 里查找同名 key 并累加权重乘积。
// 任一向量为空时返回 0（「没有意见」不是错误）。不做归一化、不做除法，
// 成本为 O(min(|a|,|b|))；需要 [0,1] 余弦分数的调用方应先调用 feature.Normalize。
// 负权重会拉低分数；NaN 权重属于调用方违约，不做处理。
func Similarity(a, b core.FeatureVector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	var dot float64
	for k, w := range small {
		if lw, ok := large[k]; ok {
			dot += w * lw
		}
	}
	return dot
}

// matched 统计两个向量共有的 key 数，用于解释标签
func matched(a, b core.FeatureVector) int {
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	n := 0
	for k := range small {
		if _, ok := large[k]; ok {
			n++
		}
	}
	return n
}

// SortCandidates 按分数降序排序，同分按歌曲 ID 升序，保证结果确定。
func SortCandidates(items []*core.ScoredCandidate) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID() < items[j].ID()
	})
}

// RankCandidates 用参考向量给候选池打分并排序。
func RankCandidates(ref core.FeatureVector, candidates []*core.SongFeatures, vectorize Vectorize) []*core.ScoredCandidate {
	out := make([]*core.ScoredCandidate, 0, len(candidates))
	for _, song := range candidates {
		if song == nil {
			continue
		}
		out = append(out, scoreOne(ref, song, vectorize))
	}
	SortCandidates(out)
	return out
}

func scoreOne(ref core.FeatureVector, song *core.SongFeatures, vectorize Vectorize) *core.ScoredCandidate {
	vec := vectorize(song)
	c := core.NewScoredCandidate(song)
	c.Score = Similarity(ref, vec)
	c.PutLabel("recall_source", utils.Label{Value: "content", Source: "recall"})
	c.PutLabel("matched", utils.IntLabel(matched(ref, vec), "recall"))
	return c
}

// ContentNode 是基于内容的打分节点：对候选窗口逐个计算与参考歌曲的相似度并排序。
//
// 核心思想：「和参考歌曲共享的流派/速度/标签越多，越相似」
type ContentNode struct {
	Vectorize Vectorize

	// Normalize 打分前对向量做 L2 归一化（可选），分数落在 [0,1]
	Normalize func(core.FeatureVector) core.FeatureVector
}

func (n *ContentNode) Name() string        { return "recall.content" }
func (n *ContentNode) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *ContentNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.ScoredCandidate,
) ([]*core.ScoredCandidate, error) {
	if rctx == nil || rctx.Reference == nil || len(items) == 0 {
		return items, nil
	}

	vectorize := n.Vectorize
	if n.Normalize != nil {
		base := n.Vectorize
		vectorize = func(song *core.SongFeatures) core.FeatureVector { return n.Normalize(base(song)) }
	}

	if rctx.ReferenceVector == nil {
		rctx.ReferenceVector = vectorize(rctx.Reference)
	}

	out := make([]*core.ScoredCandidate, 0, len(items))
	for _, it := range items {
		if it == nil || it.Song == nil {
			continue
		}
		scored := scoreOne(rctx.ReferenceVector, it.Song, vectorize)
		for k, lbl := range it.Labels {
			scored.PutLabel(k, lbl)
		}
		out = append(out, scored)
	}
	SortCandidates(out)
	return out, nil
}
