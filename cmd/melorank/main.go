// melorank 服务入口：加载配置，组装存储与服务，启动 HTTP 并在收到信号后优雅退出。
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rushteam/melorank/api"
	"github.com/rushteam/melorank/catalog"
	"github.com/rushteam/melorank/config"
	_ "github.com/rushteam/melorank/config/builders"
	"github.com/rushteam/melorank/core"
	"github.com/rushteam/melorank/lock"
	"github.com/rushteam/melorank/logging"
	"github.com/rushteam/melorank/metrics"
	"github.com/rushteam/melorank/pipeline"
	"github.com/rushteam/melorank/service"
	"github.com/rushteam/melorank/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (or MELORANK_CONFIG)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logging.Error().Err(err).Msg("melorank exited")
		os.Exit(1)
	}
}

// backends 是运行时选定的存储实现
type backends struct {
	ranking core.RankingStore
	locks   core.LockStore
	likes   core.LikeStore
	health  func(ctx context.Context) error
	close   func() error
}

func openBackends(s *config.Settings) (*backends, error) {
	if s.Redis.Addr == "" {
		ms := store.NewMemoryStore()
		logging.Warn().Msg("redis.addr not set, using in-process memory store")
		return &backends{ranking: ms, locks: ms, likes: store.NewMemoryLikeStore(), close: ms.Close}, nil
	}

	rs, err := store.NewRedisStore(s.Redis.Addr, s.Redis.DB, s.Ranking.Key)
	if err != nil {
		return nil, err
	}
	logging.Info().Str("addr", s.Redis.Addr).Int("db", s.Redis.DB).Msg("connected to redis")
	return &backends{
		ranking: store.NewBreakerRankingStore(rs, s.Breaker),
		locks:   rs,
		likes:   store.NewRedisLikeStore(rs.Client(), s.Lock.TargetType),
		health:  rs.Ping,
		close:   rs.Close,
	}, nil
}

func openCatalog(s *config.Settings) (*catalog.MemoryCatalog, error) {
	if s.Catalog.SeedFile == "" {
		return catalog.NewMemoryCatalog(), nil
	}
	c, err := catalog.LoadYAML(s.Catalog.SeedFile)
	if err != nil {
		return nil, err
	}
	logging.Info().Int("songs", c.Len()).Str("file", s.Catalog.SeedFile).Msg("catalog loaded")
	return c, nil
}

func buildPipeline(s *config.Settings) (*pipeline.Pipeline, error) {
	if s.Similar.PipelineFile == "" {
		return service.DefaultPipeline(s.Similar.Delimiter, s.Similar.DefaultLimit), nil
	}
	return config.LoadPipeline(s.Similar.PipelineFile)
}

func run(configPath string) error {
	s, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.Init(s.Log)
	log := logging.WithComponent("main")

	b, err := openBackends(s)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.close(); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}()

	cat, err := openCatalog(s)
	if err != nil {
		return err
	}
	p, err := buildPipeline(s)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()
	ranking := service.NewRanking(b.ranking, s.Ranking.Weights(), collector)
	likes := service.NewLikeService(
		b.likes,
		ranking,
		lock.NewMutex(b.locks, collector),
		lock.NewExecutor(s.Retry, collector),
		s.Lock,
	)
	recommender := service.NewRecommender(cat, p, collector).WithDefaultLimit(s.Similar.DefaultLimit)

	srv := &http.Server{
		Addr: s.HTTP.Addr,
		Handler: api.NewRouter(api.Deps{
			Recommender: recommender,
			Ranking:     ranking,
			Likes:       likes,
			Health:      b.health,
			Registry:    collector.Registry(),
		}),
		ReadTimeout:  s.HTTP.ReadTimeout,
		WriteTimeout: s.HTTP.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("stopped gracefully")
	return nil
}
