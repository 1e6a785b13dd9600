// Package bootstrap wires the judging stack shared by cmd/server and cmd/worker.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Harsh-BH/sentinel-judge/internal/admission"
	"github.com/Harsh-BH/sentinel-judge/internal/config"
	"github.com/Harsh-BH/sentinel-judge/internal/executor"
	"github.com/Harsh-BH/sentinel-judge/internal/judge"
	"github.com/Harsh-BH/sentinel-judge/internal/repository"
	"github.com/Harsh-BH/sentinel-judge/internal/repository/postgres"
	redisrepo "github.com/Harsh-BH/sentinel-judge/internal/repository/redis"
	"github.com/Harsh-BH/sentinel-judge/internal/toolchain"
	"github.com/Harsh-BH/sentinel-judge/internal/usecase"
	"github.com/Harsh-BH/sentinel-judge/internal/workspace"
)

// ConnectPostgres opens and pings the pool, applying the schema when enabled.
func ConnectPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("Connected to PostgreSQL")

	if cfg.AutoMigrate {
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("Database schema ensured")
	}
	return pool, nil
}

// ConnectRedis parses the URL, connects and pings.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("Connected to Redis")
	return client, nil
}

// Repositories groups the Postgres and Redis backed stores.
type Repositories struct {
	Submissions repository.SubmissionRepository
	Problems    repository.ProblemRepository
	Contests    repository.ContestRepository
	Idempotency repository.IdempotencyStore
}

// NewRepositories builds every store over the given connections.
func NewRepositories(pool *pgxpool.Pool, rdb *goredis.Client) *Repositories {
	return &Repositories{
		Submissions: postgres.NewPostgresSubmissionRepository(pool),
		Problems:    postgres.NewPostgresProblemRepository(pool),
		Contests:    postgres.NewPostgresContestRepository(pool),
		Idempotency: redisrepo.NewRedisIdempotencyStore(rdb, redisrepo.DefaultLockTTL),
	}
}

// Engine is the process-local execution stack: toolchains, runner and the two
// admission controllers.
type Engine struct {
	Toolchains *toolchain.Registry
	Executor   *executor.ProcessExecutor
	Harness    *judge.Harness
	JudgeSlots *admission.Controller
	RunSlots   *admission.Controller
}

// NewEngine probes the host toolchains and builds the runner.
func NewEngine(cfg config.JudgeConfig, logger *zap.Logger) *Engine {
	registry := toolchain.NewRegistry()
	if missing := registry.Verify(logger); len(missing) > 0 {
		logger.Warn("Some toolchains are unavailable; submissions in those languages will be rejected",
			zap.Int("unavailable", len(missing)),
		)
	}

	workspaces := workspace.NewManager(cfg.WorkspaceRoot, logger)
	exec := executor.NewProcessExecutor(workspaces, executor.Limits{
		CompileTimeout: cfg.CompileTimeout,
		RunTimeout:     cfg.RunTimeout,
		MaxOutputBytes: int(cfg.MaxOutputBytes),
	}, logger)
	logger.Info("Execution engine ready",
		zap.String("workspace_root", workspaces.Root()),
		zap.Int("judge_slots", cfg.MaxConcurrency),
		zap.Int("compile_slots", cfg.CompileMaxConcurrency),
	)

	return &Engine{
		Toolchains: registry,
		Executor:   exec,
		Harness:    judge.NewHarness(registry, exec, logger),
		JudgeSlots: admission.New("judge", cfg.MaxConcurrency, logger),
		RunSlots:   admission.New("compile", cfg.CompileMaxConcurrency, logger),
	}
}

// NewJudgeUsecase assembles submission judging over the engine and stores.
func NewJudgeUsecase(engine *Engine, repos *Repositories, maxScore int, logger *zap.Logger) *usecase.JudgeSubmissionUsecase {
	stats := usecase.NewUpdateStatisticsUsecase(repos.Problems, repos.Contests, logger)
	return usecase.NewJudgeSubmissionUsecase(
		repos.Submissions,
		repos.Problems,
		repos.Contests,
		repos.Idempotency,
		engine.JudgeSlots,
		engine.Harness,
		stats,
		maxScore,
		logger,
	)
}
