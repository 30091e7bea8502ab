// Package store 提供 core 中存储接口的实现。
//
// 接口定义在 core 包，这里只放实现：
//
//	var ranking core.RankingStore = store.NewMemoryStore()
//	var locks core.LockStore = store.NewRedisStoreWithClient(client, "")
//	ranking = store.NewBreakerRankingStore(ranking, store.DefaultBreakerConfig())
package store
