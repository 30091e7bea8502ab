// Package service 组合存储、锁与 Pipeline，对外提供相似推荐、排行榜与点赞三个用例。
package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/melorank/core"
	"github.com/rushteam/melorank/feature"
	"github.com/rushteam/melorank/filter"
	"github.com/rushteam/melorank/logging"
	"github.com/rushteam/melorank/metrics"
	"github.com/rushteam/melorank/pager"
	"github.com/rushteam/melorank/pipeline"
	"github.com/rushteam/melorank/recall"
	"github.com/rushteam/melorank/rerank"
)

// DefaultSimilarLimit 未指定 limit 时返回的相似歌曲数
const DefaultSimilarLimit = 20

// SimilarResult 是一次相似推荐的结果
type SimilarResult struct {
	Items []*core.ScoredCandidate `json:"items"`

	// NextCursor 是候选窗口的下一页游标，没有更多候选时为空
	NextCursor string `json:"nextCursor,omitempty"`
}

// DefaultPipeline 返回默认的相似推荐 Pipeline：排除参考歌曲 -> 内容打分 -> Top N。
func DefaultPipeline(delimiter string, topN int) *pipeline.Pipeline {
	v := feature.NewVectorizer(delimiter)
	return &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&filter.FilterNode{Filters: []filter.Filter{&filter.ExcludeFilter{ExcludeReference: true}}},
			&recall.ContentNode{Vectorize: v.Vectorize},
			&rerank.TopNNode{N: topN},
		},
	}
}

// Recommender 对参考歌曲计算候选窗口内歌曲的相似度。
type Recommender struct {
	catalog  core.CatalogStore
	pipeline *pipeline.Pipeline
	metrics  metrics.Collector
	limit    int
}

func NewRecommender(catalog core.CatalogStore, p *pipeline.Pipeline, m metrics.Collector) *Recommender {
	if p == nil {
		p = DefaultPipeline(feature.DefaultDelimiter, DefaultSimilarLimit)
	}
	if m == nil {
		m = metrics.Noop{}
	}
	return &Recommender{catalog: catalog, pipeline: p, metrics: m, limit: DefaultSimilarLimit}
}

// WithDefaultLimit 设置未指定 limit 时的返回条数
func (r *Recommender) WithDefaultLimit(n int) *Recommender {
	if n > 0 {
		r.limit = n
	}
	return r
}

// ScoreSimilar 对 referenceID 在窗口 w 内的候选打分，按分数降序、同分按 ID 升序返回至多 limit 条。
//
// 游标在任何读取之前校验；参考歌曲与候选窗口并发读取。
// 参考歌曲不存在时返回 NOT_FOUND，参考歌曲本身不会出现在结果中。
func (r *Recommender) ScoreSimilar(ctx context.Context, referenceID int64, w core.CandidateWindow, limit int) (*SimilarResult, error) {
	if err := pager.Validate(w.SortType, w.Cursor); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = r.limit
	}

	var (
		ref    *core.SongFeatures
		window []*core.SongFeatures
		next   string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := r.catalog.Song(gctx, referenceID)
		if err != nil {
			return err
		}
		ref = s
		return nil
	})
	g.Go(func() error {
		rows, cursor, err := r.catalog.Window(gctx, w)
		if err != nil {
			return fmt.Errorf("load candidate window: %w", err)
		}
		window, next = rows, cursor
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]*core.ScoredCandidate, 0, len(window))
	for _, s := range window {
		if s.ID == ref.ID {
			continue
		}
		items = append(items, core.NewScoredCandidate(s))
	}
	r.metrics.SimilarCandidates(len(items))

	rctx := &core.RecommendContext{
		Reference: ref,
		Params:    map[string]any{"limit": limit},
	}
	out, err := r.pipeline.Run(ctx, rctx, items)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Int64("reference", referenceID).Msg("similar pipeline failed")
		return nil, err
	}
	return &SimilarResult{Items: out, NextCursor: next}, nil
}
