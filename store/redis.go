package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rushteam/melorank/core"
)

// DefaultRankingKey 是歌曲播放/点赞排行榜使用的 sorted set key
const DefaultRankingKey = "ranking:songs"

// releaseScript 仅当锁的当前值等于调用方 token 时才删除，GET 与 DEL 在服务端原子执行
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`)

// RedisStore 是 Redis 实现的排行榜 + 锁存储。
// 排行榜是一个 sorted set（ZINCRBY / ZREVRANGE），锁是带 PX 的 SET NX，
// 释放锁通过 Lua 脚本比较 token 后删除。多实例共享同一个 Redis 即可共享状态。
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(addr string, db int, rankingKey string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, core.Unavailable(core.ModuleStore, err)
	}
	return NewRedisStoreWithClient(client, rankingKey), nil
}

// NewRedisStoreWithClient 复用已有的 client（测试中指向 miniredis）
func NewRedisStoreWithClient(client *redis.Client, rankingKey string) *RedisStore {
	if rankingKey == "" {
		rankingKey = DefaultRankingKey
	}
	return &RedisStore{client: client, key: rankingKey}
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) Close() error { return r.client.Close() }

func (r *RedisStore) Client() *redis.Client { return r.client }

// Ping 用于健康检查
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// RankingStore 实现

var _ core.RankingStore = (*RedisStore)(nil)

func (r *RedisStore) Increment(ctx context.Context, member string, delta float64) (float64, error) {
	score, err := r.client.ZIncrBy(ctx, r.key, delta, member).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	return score, nil
}

func (r *RedisStore) Score(ctx context.Context, member string) (float64, error) {
	score, err := r.client.ZScore(ctx, r.key, member).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, unavailable(err)
	}
	return score, nil
}

func (r *RedisStore) TopK(ctx context.Context, k int) ([]core.RankingEntry, error) {
	if k <= 0 {
		return nil, nil
	}
	zs, err := r.client.ZRevRangeWithScores(ctx, r.key, 0, int64(k-1)).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	return toEntries(zs), nil
}

// Page 在一个 MULTI 中读取两段：与游标同分且 member 在游标之后的成员，以及分数严格越过游标的前 limit 个成员。
// sorted set 同分成员按 member 字节序排列，因此两段拼接后就是完整的 (score, member) 键集顺序。
func (r *RedisStore) Page(ctx context.Context, cursorScore float64, cursorMember string, dir core.Direction, limit int) ([]core.RankingEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	dir = normalizeDirection(dir)
	s := strconv.FormatFloat(cursorScore, 'f', -1, 64)

	var ties, rest *redis.ZSliceCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		ties = pipe.ZRangeByScoreWithScores(ctx, r.key, &redis.ZRangeBy{Min: s, Max: s})
		if dir == core.Asc {
			rest = pipe.ZRangeByScoreWithScores(ctx, r.key, &redis.ZRangeBy{
				Min: "(" + s, Max: "+inf", Count: int64(limit),
			})
		} else {
			rest = pipe.ZRevRangeByScoreWithScores(ctx, r.key, &redis.ZRangeBy{
				Min: "-inf", Max: "(" + s, Count: int64(limit),
			})
		}
		return nil
	})
	if err != nil {
		return nil, unavailable(err)
	}

	cursor := core.RankingEntry{Member: cursorMember, Score: cursorScore}
	out := make([]core.RankingEntry, 0, limit)
	for _, e := range toEntries(ties.Val()) {
		if before(cursor, e, dir) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return before(out[i], out[j], dir) })
	out = append(out, toEntries(rest.Val())...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *RedisStore) Remove(ctx context.Context, member string) error {
	if err := r.client.ZRem(ctx, r.key, member).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (r *RedisStore) Reset(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// LockStore 实现

var _ core.LockStore = (*RedisStore)(nil)

func (r *RedisStore) SetNX(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, unavailable(err)
	}
	return ok, nil
}

func (r *RedisStore) CompareAndDelete(ctx context.Context, key, token string) (bool, error) {
	n, err := releaseScript.Run(ctx, r.client, []string{key}, token).Int64()
	if err != nil {
		return false, unavailable(err)
	}
	return n == 1, nil
}

func toEntries(zs []redis.Z) []core.RankingEntry {
	out := make([]core.RankingEntry, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		out = append(out, core.RankingEntry{Member: member, Score: z.Score})
	}
	return out
}

func unavailable(err error) error {
	return core.Unavailable(core.ModuleStore, err)
}

// RedisLikeStore 是 Redis 实现的点赞记录表：每个目标一个 set（like:<targetType>:<targetID>），
// 成员是用户 ID。多实例共享同一个 Redis 时点赞记录与排行榜、锁一起共享。
type RedisLikeStore struct {
	client     *redis.Client
	targetType string
}

var _ core.LikeStore = (*RedisLikeStore)(nil)

func NewRedisLikeStore(client *redis.Client, targetType string) *RedisLikeStore {
	return &RedisLikeStore{client: client, targetType: targetType}
}

func (s *RedisLikeStore) key(targetID int64) string {
	return fmt.Sprintf("like:%s:%d", s.targetType, targetID)
}

func (s *RedisLikeStore) Exists(ctx context.Context, userID, targetID int64) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.key(targetID), userID).Result()
	if err != nil {
		return false, unavailable(err)
	}
	return ok, nil
}

// Insert 重复插入视为成功（SADD 幂等）
func (s *RedisLikeStore) Insert(ctx context.Context, userID, targetID int64) error {
	if err := s.client.SAdd(ctx, s.key(targetID), userID).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Delete 删除不存在的记录视为成功（SREM 幂等）
func (s *RedisLikeStore) Delete(ctx context.Context, userID, targetID int64) error {
	if err := s.client.SRem(ctx, s.key(targetID), userID).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *RedisLikeStore) Count(ctx context.Context, targetID int64) (int64, error) {
	n, err := s.client.SCard(ctx, s.key(targetID)).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}
