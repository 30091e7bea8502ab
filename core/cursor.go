package core

import "time"

// SortType 是候选窗口的排序类型。空值表示按 ID 排序。
type SortType string

const (
	SortNone       SortType = ""           // 按 ID，默认升序
	SortLatest     SortType = "LATEST"     // 按发布时间，默认降序
	SortPopularity SortType = "POPULARITY" // 按热度（点赞数），默认降序
	SortTitle      SortType = "TITLE"      // 按标题，默认升序
)

// Direction 是排序方向。空值表示未显式指定。
type Direction string

const (
	DirectionUnset Direction = ""
	Asc            Direction = "ASC"
	Desc           Direction = "DESC"
)

// Cursor 是 keyset 分页的位置标记：上一页最后一条的排序键 + ID。
// 每种 SortType 要求不同的排序键字段，由 pager.Validate 校验。
type Cursor struct {
	ID        *int64     `json:"id,omitempty"`
	Timestamp *time.Time `json:"ts,omitempty"`
	Score     *float64   `json:"score,omitempty"`
	Title     *string    `json:"title,omitempty"`

	// First 表示首页：不带位置，接受所有行
	First bool `json:"first,omitempty"`
}

// CandidateWindow 描述一次候选窗口读取：排序、方向、游标和窗口大小。
type CandidateWindow struct {
	SortType  SortType
	Direction Direction
	Cursor    *Cursor
	Size      int
}
