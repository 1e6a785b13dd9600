package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Harsh-BH/sentinel-judge/internal/bootstrap"
	"github.com/Harsh-BH/sentinel-judge/internal/config"
	handler "github.com/Harsh-BH/sentinel-judge/internal/delivery/http"
	"github.com/Harsh-BH/sentinel-judge/internal/pool"
	"github.com/Harsh-BH/sentinel-judge/internal/publisher"
	"github.com/Harsh-BH/sentinel-judge/internal/usecase"
)

const localQueueCapacity = 1024

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Sentinel Judge API server", zap.String("dispatch_mode", cfg.Worker.DispatchMode))

	gin.SetMode(cfg.Server.GinMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := bootstrap.ConnectPostgres(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("PostgreSQL unavailable", zap.Error(err))
	}
	defer dbPool.Close()

	rdb, err := bootstrap.ConnectRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("Redis unavailable", zap.Error(err))
	}
	defer rdb.Close()

	repos := bootstrap.NewRepositories(dbPool, rdb)
	engine := bootstrap.NewEngine(cfg.Judge, logger)

	// Dispatch: judge in-process, or hand off to cmd/worker through RabbitMQ.
	var (
		pub        publisher.Publisher
		workerPool *pool.WorkerPool
	)
	switch cfg.Worker.DispatchMode {
	case config.DispatchAMQP:
		pub, err = publisher.NewRabbitMQPublisher(cfg.RabbitMQ.URL, logger)
		if err != nil {
			logger.Fatal("Failed to initialize RabbitMQ publisher", zap.Error(err))
		}
		logger.Info("Connected to RabbitMQ")
	default:
		local := publisher.NewLocalPublisher(localQueueCapacity, logger)
		judgeUC := bootstrap.NewJudgeUsecase(engine, repos, cfg.Judge.MaxScore, logger)
		workerPool = pool.NewWorkerPool(cfg.Worker.PoolSize, local.Jobs(), judgeUC, logger)
		workerPool.Start(ctx)
		pub = local
	}

	// Only a process that is the sole judge may declare running submissions dead.
	recoverUC := usecase.NewRecoverSubmissionsUsecase(repos.Submissions, pub, logger)
	if _, err := recoverUC.Execute(ctx, cfg.Worker.DispatchMode == config.DispatchLocal); err != nil {
		logger.Error("Startup recovery failed", zap.Error(err))
	}

	submitUC := usecase.NewSubmitSubmissionUsecase(repos.Submissions, repos.Problems, repos.Contests, engine.Toolchains, pub, cfg.Judge.MaxScore, logger)
	getUC := usecase.NewGetSubmissionUsecase(repos.Submissions, logger)
	compileUC := usecase.NewCompileRunUsecase(engine.Toolchains, engine.Executor, engine.RunSlots, cfg.Judge.CompileRunTimeout, logger)

	router := handler.NewRouter(&handler.RouterDeps{
		SubmitUC:   submitUC,
		GetUC:      getUC,
		CompileUC:  compileUC,
		Toolchains: engine.Toolchains,
		HealthChecks: map[string]handler.HealthCheck{
			"postgres": dbPool.Ping,
			"redis": func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			},
		},
		Logger:          logger,
		RateLimitPerMin: cfg.Server.RateLimit,
		RateBurst:       cfg.Server.RateBurst,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("API server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Stop taking new jobs, then let in-flight judging finish.
	if err := pub.Close(); err != nil {
		logger.Warn("Publisher close failed", zap.Error(err))
	}
	cancel()
	if workerPool != nil {
		workerPool.Stop()
	}

	logger.Info("API server stopped")
}
