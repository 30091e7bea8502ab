package store

import (
	"context"
	"sync"

	"github.com/rushteam/melorank/core"
)

type likeKey struct {
	user, target int64
}

// MemoryLikeStore 是内存实现的点赞记录表，(user, target) 唯一。
type MemoryLikeStore struct {
	mu     sync.RWMutex
	rows   map[likeKey]struct{}
	counts map[int64]int64
}

var _ core.LikeStore = (*MemoryLikeStore)(nil)

func NewMemoryLikeStore() *MemoryLikeStore {
	return &MemoryLikeStore{
		rows:   make(map[likeKey]struct{}),
		counts: make(map[int64]int64),
	}
}

func (s *MemoryLikeStore) Exists(_ context.Context, userID, targetID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.rows[likeKey{userID, targetID}]
	return ok, nil
}

// Insert 重复插入视为成功（幂等）
func (s *MemoryLikeStore) Insert(_ context.Context, userID, targetID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := likeKey{userID, targetID}
	if _, ok := s.rows[k]; ok {
		return nil
	}
	s.rows[k] = struct{}{}
	s.counts[targetID]++
	return nil
}

// Delete 删除不存在的记录视为成功（幂等）
func (s *MemoryLikeStore) Delete(_ context.Context, userID, targetID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := likeKey{userID, targetID}
	if _, ok := s.rows[k]; !ok {
		return nil
	}
	delete(s.rows, k)
	s.counts[targetID]--
	if s.counts[targetID] <= 0 {
		delete(s.counts, targetID)
	}
	return nil
}

func (s *MemoryLikeStore) Count(_ context.Context, targetID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.counts[targetID], nil
}
