package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rushteam/melorank/core"
)

// MemoryStore 是内存实现的排行榜 + 锁存储，用于测试/开发/单实例部署。
// 所有操作在同一把互斥锁下完成，因此 Increment 与 CompareAndDelete 在进程内是原子的；
// 进程重启后数据丢失。
type MemoryStore struct {
	mu    sync.Mutex
	board map[string]float64   // member -> score
	locks map[string]lockEntry // lock key -> owner
	now   func() time.Time
	clean *time.Ticker
	done  chan struct{}
	once  sync.Once
}

type lockEntry struct {
	token  string
	expire time.Time
}

// MemoryOption 配置 MemoryStore
type MemoryOption func(*MemoryStore)

// WithClock 替换时钟（测试中用于推进 TTL）
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) { m.now = now }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	ms := &MemoryStore{
		board: make(map[string]float64),
		locks: make(map[string]lockEntry),
		now:   time.Now,
		clean: time.NewTicker(10 * time.Second),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ms)
	}
	go ms.cleanup()
	return ms
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Close() error {
	m.once.Do(func() {
		m.clean.Stop()
		close(m.done)
	})
	return nil
}

// cleanup 定期清理过期锁；过期判断本身在 SetNX 中完成，这里只回收内存
func (m *MemoryStore) cleanup() {
	for {
		select {
		case <-m.done:
			return
		case <-m.clean.C:
			m.mu.Lock()
			now := m.now()
			for k, e := range m.locks {
				if !now.Before(e.expire) {
					delete(m.locks, k)
				}
			}
			m.mu.Unlock()
		}
	}
}

// RankingStore 实现

var _ core.RankingStore = (*MemoryStore)(nil)

func (m *MemoryStore) Increment(_ context.Context, member string, delta float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.board[member] += delta
	return m.board[member], nil
}

func (m *MemoryStore) Score(_ context.Context, member string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.board[member], nil
}

// sortedLocked 返回按 (score desc, member desc) 排序的快照，与 Redis ZREVRANGE 一致；调用方需持有 mu
func (m *MemoryStore) sortedLocked() []core.RankingEntry {
	entries := make([]core.RankingEntry, 0, len(m.board))
	for member, score := range m.board {
		entries = append(entries, core.RankingEntry{Member: member, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool { return before(entries[i], entries[j], core.Desc) })
	return entries
}

func (m *MemoryStore) TopK(_ context.Context, k int) ([]core.RankingEntry, error) {
	if k <= 0 {
		return nil, nil
	}
	m.mu.Lock()
	entries := m.sortedLocked()
	m.mu.Unlock()

	if len(entries) > k {
		entries = entries[:k]
	}
	return entries, nil
}

func (m *MemoryStore) Page(_ context.Context, cursorScore float64, cursorMember string, dir core.Direction, limit int) ([]core.RankingEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	dir = normalizeDirection(dir)
	cursor := core.RankingEntry{Member: cursorMember, Score: cursorScore}

	m.mu.Lock()
	entries := m.sortedLocked()
	m.mu.Unlock()

	if dir == core.Asc {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}

	out := make([]core.RankingEntry, 0, limit)
	for _, e := range entries {
		if !before(cursor, e, dir) {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) Remove(_ context.Context, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.board, member)
	return nil
}

func (m *MemoryStore) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.board = make(map[string]float64)
	return nil
}

// LockStore 实现

var _ core.LockStore = (*MemoryStore)(nil)

func (m *MemoryStore) SetNX(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.locks[key]; ok && now.Before(e.expire) {
		return false, nil
	}
	m.locks[key] = lockEntry{token: token, expire: now.Add(ttl)}
	return true, nil
}

func (m *MemoryStore) CompareAndDelete(_ context.Context, key, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.locks[key]
	if !ok || !m.now().Before(e.expire) || e.token != token {
		return false, nil
	}
	delete(m.locks, key)
	return true, nil
}

// before 判断在 dir 顺序下 a 是否排在 b 之前。
// Desc：分数降序，同分 member 字节序降序；Asc：完全相反。
func before(a, b core.RankingEntry, dir core.Direction) bool {
	if dir == core.Asc {
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		return a.Member < b.Member
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Member > b.Member
}

// normalizeDirection 未指定方向时按排行榜默认的降序处理
func normalizeDirection(dir core.Direction) core.Direction {
	if dir == core.Asc {
		return core.Asc
	}
	return core.Desc
}
