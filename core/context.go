package core

import "github.com/rushteam/melorank/pkg/utils"

// RecommendContext 承载一次相似推荐请求的参考歌曲与请求参数，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string

	// Reference 是参考歌曲；ReferenceVector 由 recall.ContentNode 首次使用时填充
	Reference       *SongFeatures
	ReferenceVector FeatureVector

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级上下文参数，例如 limit、filter 表达式覆盖等
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
