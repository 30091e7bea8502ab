package core

import (
	"time"

	"github.com/rushteam/melorank/pkg/utils"
)

// SongFeatures 是一首歌的类别特征，来源于目录（只读）。
// MoodTags / InstrumentTags 是自由文本，由 feature.Vectorizer 按分隔符切分。
type SongFeatures struct {
	ID             int64     `json:"id" yaml:"id"`
	Title          string    `json:"title" yaml:"title"`
	Genres         []string  `json:"genres" yaml:"genres"`
	Speed          string    `json:"speed" yaml:"speed"`
	MoodTags       string    `json:"moodTags" yaml:"mood_tags"`
	InstrumentTags string    `json:"instrumentTags" yaml:"instrument_tags"`
	Explicit       bool      `json:"explicit" yaml:"explicit"`
	LikeCount      float64   `json:"likeCount" yaml:"like_count"`
	ReleasedAt     time.Time `json:"releasedAt" yaml:"released_at"`
}

// FeatureVector 是稀疏特征向量：feature key -> weight。
// 空向量合法，与任何向量的相似度都是 0。
type FeatureVector map[string]float64

// ScoredCandidate 是一次相似度排序中的候选：歌曲 + 分数 + 解释标签。
// 排序规则：分数降序，同分按歌曲 ID 升序。
type ScoredCandidate struct {
	Song   *SongFeatures          `json:"song"`
	Score  float64                `json:"score"`
	Labels map[string]utils.Label `json:"labels,omitempty"`
}

func NewScoredCandidate(song *SongFeatures) *ScoredCandidate {
	return &ScoredCandidate{
		Song:   song,
		Labels: make(map[string]utils.Label),
	}
}

// ID 返回候选歌曲 ID，Song 为空时返回 0
func (c *ScoredCandidate) ID() int64 {
	if c.Song == nil {
		return 0
	}
	return c.Song.ID
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (c *ScoredCandidate) PutLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}

// RankingEntry 是排行榜中的一行。
type RankingEntry struct {
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}
