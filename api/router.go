// Package api 是 melorank 的 HTTP 接入层：chi 路由、请求校验与错误码映射。
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rushteam/melorank/service"
)

// Deps 是路由依赖的服务
type Deps struct {
	Recommender *service.Recommender
	Ranking     *service.Ranking
	Likes       *service.LikeService

	// Health 为空时 /healthz 总是返回 ok
	Health func(ctx context.Context) error

	// Registry 为空时不挂载 /metrics
	Registry *prometheus.Registry
}

// NewRouter 构建 HTTP 路由
func NewRouter(d Deps) http.Handler {
	h := &Handler{deps: d}

	r := chi.NewRouter()
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger())
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.Health)
	if d.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/songs", func(r chi.Router) {
		r.Get("/ranking/Top100", h.Top100)
		r.Get("/ranking", h.RankingPage)
		r.Get("/{id}/similar", h.Similar)
		r.Post("/{id}/likes", h.ToggleLike)
		r.Post("/{id}/plays", h.RecordPlay)
	})
	return r
}
