// Package catalog 提供歌曲目录（core.CatalogStore）的内存实现，可从 YAML 文件加载。
package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/rushteam/melorank/core"
	"github.com/rushteam/melorank/pager"
)

const (
	// DefaultWindowSize 未指定窗口大小时一次读取的候选数
	DefaultWindowSize = 200

	// MaxWindowSize 单次窗口读取的上限
	MaxWindowSize = 1000
)

// MemoryCatalog 是内存歌曲目录，只读路径并发安全。
type MemoryCatalog struct {
	mu    sync.RWMutex
	songs map[int64]*core.SongFeatures
}

var _ core.CatalogStore = (*MemoryCatalog)(nil)

func NewMemoryCatalog(songs ...*core.SongFeatures) *MemoryCatalog {
	c := &MemoryCatalog{songs: make(map[int64]*core.SongFeatures, len(songs))}
	for _, s := range songs {
		c.Put(s)
	}
	return c
}

// Put 新增或替换一首歌
func (c *MemoryCatalog) Put(song *core.SongFeatures) {
	if song == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.songs[song.ID] = clone(song)
}

// Len 返回歌曲数量
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.songs)
}

func (c *MemoryCatalog) Song(_ context.Context, id int64) (*core.SongFeatures, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.songs[id]
	if !ok {
		return nil, core.ErrSongNotFound.Withf("id %d", id)
	}
	return clone(s), nil
}

// Window 按 w 的排序与游标读取一页候选，返回下一页游标（没有更多时为空串）。
// 游标先经 pager.Validate 校验，不合法时不做任何读取。
func (c *MemoryCatalog) Window(_ context.Context, w core.CandidateWindow) ([]*core.SongFeatures, string, error) {
	if err := pager.Validate(w.SortType, w.Cursor); err != nil {
		return nil, "", err
	}
	asc := pager.ResolveDirection(w.SortType, w.Direction)
	size := w.Size
	if size <= 0 {
		size = DefaultWindowSize
	}
	if size > MaxWindowSize {
		size = MaxWindowSize
	}

	c.mu.RLock()
	rows := make([]*core.SongFeatures, 0, len(c.songs))
	for _, s := range c.songs {
		if pager.After(w.SortType, w.Cursor, s, asc) {
			rows = append(rows, s)
		}
	}
	c.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return pager.Less(w.SortType, rows[i], rows[j], asc) })

	var next string
	if len(rows) > size {
		rows = rows[:size]
		token, err := pager.Encode(pager.CursorFor(w.SortType, rows[size-1]))
		if err != nil {
			return nil, "", err
		}
		next = token
	}

	out := make([]*core.SongFeatures, len(rows))
	for i, s := range rows {
		out[i] = clone(s)
	}
	return out, next, nil
}

func clone(s *core.SongFeatures) *core.SongFeatures {
	cp := *s
	cp.Genres = append([]string(nil), s.Genres...)
	return &cp
}
