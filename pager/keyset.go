// Package pager 是 keyset（游标）分页的策略关卡：在任何查询执行前校验游标并决定排序方向。
//
// 它本身不执行查询；对外可观察的行为只有「接受/拒绝」以及解析出的升序标志。
// Catalog 实现可以用 After / Less 在有序结果上应用游标边界。
package pager

import (
	"cmp"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/rushteam/melorank/core"
)

// sortSpec 描述一种排序类型：默认方向，以及游标必须携带的排序键。
type sortSpec struct {
	defaultAsc bool
	hasKey     func(c *core.Cursor) bool
}

var specs = map[core.SortType]sortSpec{
	core.SortNone: {
		defaultAsc: true,
		hasKey:     func(*core.Cursor) bool { return true },
	},
	core.SortLatest: {
		defaultAsc: false,
		hasKey:     func(c *core.Cursor) bool { return c.Timestamp != nil },
	},
	core.SortPopularity: {
		defaultAsc: false,
		hasKey:     func(c *core.Cursor) bool { return c.Score != nil },
	},
	core.SortTitle: {
		defaultAsc: true,
		hasKey:     func(c *core.Cursor) bool { return c.Title != nil },
	},
}

// ParseSortType 解析请求中的排序类型（大小写不敏感），空串表示不指定。
func ParseSortType(raw string) (core.SortType, error) {
	st := core.SortType(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := specs[st]; !ok {
		return "", core.InvalidInput(core.ModulePager, fmt.Sprintf("unknown sort type %q", raw))
	}
	return st, nil
}

// ParseDirection 解析请求中的排序方向（大小写不敏感），空串表示未显式指定。
func ParseDirection(raw string) (core.Direction, error) {
	switch d := core.Direction(strings.ToUpper(strings.TrimSpace(raw))); d {
	case core.DirectionUnset, core.Asc, core.Desc:
		return d, nil
	default:
		return "", core.InvalidInput(core.ModulePager, fmt.Sprintf("unknown direction %q", raw))
	}
}

// Validate 校验游标是否满足排序类型的要求。
//
// 游标必填；非首页游标必须带 ID 以及排序类型要求的排序键
// （LATEST 需要时间戳，POPULARITY 需要分数，TITLE 需要标题），
// 否则返回 MISSING_CURSOR_PARAMETER，避免静默地从头分页或跳页。
func Validate(sortType core.SortType, c *core.Cursor) error {
	spec, ok := specs[sortType]
	if !ok {
		return core.InvalidInput(core.ModulePager, fmt.Sprintf("unknown sort type %q", sortType))
	}
	if c == nil {
		return core.ErrMissingCursor.Withf("cursor is required")
	}
	if c.First {
		return nil
	}
	if c.ID == nil {
		return core.ErrMissingCursor.Withf("cursor for sort type %q lacks id", sortType)
	}
	if !spec.hasKey(c) {
		return core.ErrMissingCursor.Withf("cursor lacks the sort key required by %q", sortType)
	}
	return nil
}

// ResolveDirection 解析最终排序方向，返回是否升序。
//   - 未指定排序类型：升序
//   - 显式指定方向：原样采用（即使与排序类型的默认方向相反）
//   - 否则使用排序类型的默认方向
func ResolveDirection(sortType core.SortType, explicit core.Direction) bool {
	if sortType == core.SortNone {
		return true
	}
	switch explicit {
	case core.Asc:
		return true
	case core.Desc:
		return false
	}
	if spec, ok := specs[sortType]; ok {
		return spec.defaultAsc
	}
	return true
}

// First 返回首页游标（不带位置，接受所有行）。
func First() *core.Cursor {
	return &core.Cursor{First: true}
}

// CursorFor 根据某一行构造指向它的游标（用作下一页的起点）。
func CursorFor(sortType core.SortType, song *core.SongFeatures) *core.Cursor {
	id := song.ID
	c := &core.Cursor{ID: &id}
	switch sortType {
	case core.SortLatest:
		ts := song.ReleasedAt
		c.Timestamp = &ts
	case core.SortPopularity:
		score := song.LikeCount
		c.Score = &score
	case core.SortTitle:
		title := song.Title
		c.Title = &title
	}
	return c
}

// compare 按 (排序键, ID) 比较 song 与游标位置，升序语义下返回 -1/0/1。
func compare(sortType core.SortType, song *core.SongFeatures, c *core.Cursor) int {
	var keyCmp int
	switch sortType {
	case core.SortLatest:
		keyCmp = song.ReleasedAt.Compare(*c.Timestamp)
	case core.SortPopularity:
		keyCmp = cmp.Compare(song.LikeCount, *c.Score)
	case core.SortTitle:
		keyCmp = strings.Compare(song.Title, *c.Title)
	}
	if keyCmp != 0 {
		return keyCmp
	}
	return cmp.Compare(song.ID, *c.ID)
}

// After 判断 song 在解析后的顺序中是否严格位于游标之后。游标须先通过 Validate。
func After(sortType core.SortType, c *core.Cursor, song *core.SongFeatures, ascending bool) bool {
	if c == nil || c.First {
		return true
	}
	r := compare(sortType, song, c)
	if ascending {
		return r > 0
	}
	return r < 0
}

// Less 返回解析后顺序中 a 是否排在 b 之前，用于对候选集排序。
func Less(sortType core.SortType, a, b *core.SongFeatures, ascending bool) bool {
	r := compare(sortType, a, CursorFor(sortType, b))
	if ascending {
		return r < 0
	}
	return r > 0
}

// Encode 把游标编码为不透明的 base64url token。
func Encode(c *core.Cursor) (string, error) {
	if c == nil {
		return "", nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode 解析 Encode 生成的 token；空 token 表示首页。
func Decode(token string) (*core.Cursor, error) {
	if token == "" {
		return First(), nil
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, core.InvalidInput(core.ModulePager, "cursor is not valid base64url").Wrap(err)
	}
	var c core.Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, core.InvalidInput(core.ModulePager, "cursor is not valid json").Wrap(err)
	}
	return &c, nil
}
