// Package melorank 是歌曲推荐与排行服务。
//
// 组成：
//   - catalog：歌曲特征目录，按 keyset 游标分页读取候选窗口
//   - pipeline / filter / recall / rerank：相似歌曲打分的 Node 链
//   - service：相似推荐、播放与点赞计分榜、点赞切换
//   - store：Redis 有序集合与进程内实现，以及熔断包装
//   - lock：基于 SETNX 的互斥与有限重试
//   - api：HTTP 接入层；cmd/melorank 为服务入口
package melorank
