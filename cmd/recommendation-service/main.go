package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	"zomato-recommender/internal/api"
	"zomato-recommender/internal/common/camunda"
	"zomato-recommender/internal/common/config"
	"zomato-recommender/internal/common/database"
	"zomato-recommender/internal/common/llm"
	"zomato-recommender/internal/common/logger"
	"zomato-recommender/internal/common/observability"
	"zomato-recommender/internal/events"
	"zomato-recommender/internal/recommendation/pipeline"
	"zomato-recommender/internal/store"

	fr "zomato-recommender/internal/workers/recommendation/filter-restaurants"
	rr "zomato-recommender/internal/workers/recommendation/recommend-restaurants"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.Build(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})
	log.Info("starting recommendation service", map[string]interface{}{
		"environment": cfg.App.Environment,
		"store":       cfg.Store.Backend,
		"cache":       cfg.Cache.Enabled,
	})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	var pg *database.PostgresClient
	err = database.ConnectWithRetry(ctx, func(ctx context.Context) error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	pgStore := store.NewPostgresStore(pg.DB)
	eventSink := events.NewPostgresSink(pg.DB)
	for _, ensure := range []func(context.Context) error{pgStore.EnsureSchema, eventSink.EnsureSchema} {
		if err := ensure(ctx); err != nil {
			zapLog.Fatal("schema setup failed", zap.Error(err))
		}
	}

	checks := map[string]api.ReadinessCheck{"postgres": pg.Ping}

	var candidates store.CandidateStore = pgStore
	if cfg.Store.Backend == config.StoreBackendElasticsearch {
		var es *database.ElasticsearchClient
		err = database.ConnectWithRetry(ctx, func(ctx context.Context) error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		candidates = store.NewElasticsearchStore(es.Client, cfg.Store.Elasticsearch.Index, cfg.Store.Elasticsearch.MaxDocuments)
		checks["elasticsearch"] = es.Ping
	}

	if cfg.Cache.Enabled {
		var rdb *database.RedisClient
		err = database.ConnectWithRetry(ctx, func(ctx context.Context) error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, log, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		candidates = store.NewCachedStore(candidates, rdb.Client, config.GetDuration(cfg.Cache.TTL), log)
		checks["redis"] = rdb.Ping
	}

	sinks := []events.Sink{eventSink}
	if cfg.Events.SNS.Enabled {
		publisher, err := events.NewSNSPublisher(ctx, cfg.Events.SNS.Region)
		if err != nil {
			zapLog.Fatal("sns publisher setup failed", zap.Error(err))
		}
		sinks = append(sinks, events.NewSNSSink(publisher, cfg.Events.SNS.TopicARN))
	}
	recorder := events.NewRecorder(log, config.GetDuration(cfg.Events.Timeout), sinks...)

	if cfg.APIs.LLM.APIKey == "" {
		log.Warn("GROQ_API_KEY is not set; LLM endpoints will return configuration errors", nil)
	}
	gateway := llm.NewBreakerGateway(
		llm.NewChatClient(cfg.APIs.LLM, log),
		llm.BreakerSettings{
			Name:             "groq",
			FailureThreshold: uint32(cfg.APIs.LLM.Breaker.FailureThreshold),
			OpenTimeout:      config.GetDuration(cfg.APIs.LLM.Breaker.OpenTimeout),
		},
		log,
	)

	orchestrator := pipeline.New(candidates, gateway, recorder, pipeline.Options{
		PoolMultiplier: cfg.Recommendation.PoolMultiplier,
		MinPoolSize:    cfg.Recommendation.MinPoolSize,
	}, log, obs)

	var zeebe *camunda.Client
	var jobWorkers []worker.JobWorker
	if cfg.Camunda.Enabled() {
		zeebe, err = camunda.Connect(ctx, cfg.Camunda, 10, 2*time.Second, log)
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}

		recommendCfg := config.GetWorkerConfig(cfg, rr.TaskType)
		recommendHandler := rr.NewHandler(rr.LoadConfig(recommendCfg), orchestrator, log)
		if jw := camunda.StartWorker(zeebe.Zeebe(), rr.TaskType, recommendCfg, recommendHandler, log); jw != nil {
			jobWorkers = append(jobWorkers, jw)
		}

		filterCfg := config.GetWorkerConfig(cfg, fr.TaskType)
		filterHandler := fr.NewHandler(fr.LoadConfig(filterCfg), orchestrator, log)
		if jw := camunda.StartWorker(zeebe.Zeebe(), fr.TaskType, filterCfg, filterHandler, log); jw != nil {
			jobWorkers = append(jobWorkers, jw)
		}
	}

	handler := api.NewHandler(orchestrator, candidates, checks, api.Options{
		AllowedOrigins:     cfg.Server.AllowedOrigins,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
	}, log)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler.Routes(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		log.Info("http server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", map[string]interface{}{"error": err})
	}

	for _, jw := range jobWorkers {
		jw.Close()
		jw.AwaitClose()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			log.Error("error closing Zeebe client", map[string]interface{}{"error": err})
		}
	}

	log.Info("recommendation service stopped", nil)
}
