package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Harsh-BH/sentinel-judge/internal/bootstrap"
	"github.com/Harsh-BH/sentinel-judge/internal/config"
	amqpdelivery "github.com/Harsh-BH/sentinel-judge/internal/delivery/amqp"
	"github.com/Harsh-BH/sentinel-judge/internal/domain"
	"github.com/Harsh-BH/sentinel-judge/internal/pool"
	redisrepo "github.com/Harsh-BH/sentinel-judge/internal/repository/redis"
	"github.com/Harsh-BH/sentinel-judge/internal/usecase"
)

const staleSweepInterval = time.Minute

func main() {
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

	logger.Info("Starting Sentinel Judge worker")

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
	judgeUC := bootstrap.NewJudgeUsecase(engine, repos, cfg.Judge.MaxScore, logger)

	// Unbuffered: the broker keeps anything the pool has not picked up.
	jobs := make(chan *domain.JobMessage)

	consumer, err := amqpdelivery.NewConsumer(cfg.RabbitMQ.URL, cfg.Worker.PoolSize, jobs, logger)
	if err != nil {
		logger.Fatal("Failed to initialize AMQP consumer", zap.Error(err))
	}
	defer consumer.Close()
	logger.Info("Connected to RabbitMQ")

	workerPool := pool.NewWorkerPool(cfg.Worker.PoolSize, jobs, judgeUC, logger)
	workerPool.Start(ctx)

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error("AMQP consumer error", zap.Error(err))
			cancel()
		}
	}()

	// A crashed worker's submission stays running and its redelivery is skipped
	// while the lock lives, so close those out once the lock could have expired.
	recoverUC := usecase.NewRecoverSubmissionsUsecase(repos.Submissions, nil, logger)
	go recoverUC.SweepStale(ctx, redisrepo.DefaultLockTTL, staleSweepInterval)

	// Prometheus metrics server
	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Worker.MetricsPort),
		ReadHeaderTimeout: 5 * time.Second,
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv.Handler = mux
	go func() {
		logger.Info("Metrics server listening", zap.String("addr", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	logger.Info("Shutting down worker...")
	cancel()

	// Wait for workers to finish in-flight jobs
	workerPool.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	logger.Info("Worker stopped")
}
