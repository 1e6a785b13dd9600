package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Harsh-BH/sentinel-judge/internal/domain"
	"github.com/Harsh-BH/sentinel-judge/internal/repository"
)

var _ repository.ProblemRepository = (*pgProblemRepo)(nil)

type pgProblemRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresProblemRepository creates a new PostgreSQL-backed problem repository.
func NewPostgresProblemRepository(pool *pgxpool.Pool) repository.ProblemRepository {
	return &pgProblemRepo{pool: pool}
}

func (r *pgProblemRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Problem, error) {
	query := `
		SELECT id, title, test_cases, time_limit_ms, memory_limit_kb, visibility,
		       total_submissions, successful_submissions
		FROM problems
		WHERE id = $1`

	p := &domain.Problem{}
	var cases []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Title, &cases, &p.TimeLimitMs, &p.MemoryLimitKB, &p.Visibility,
		&p.TotalSubmissions, &p.SuccessfulSubmissions,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProblemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get problem: %w", err)
	}
	if err := json.Unmarshal(cases, &p.TestCases); err != nil {
		return nil, fmt.Errorf("postgres: decode test cases: %w", err)
	}
	return p, nil
}

func (r *pgProblemRepo) IncrementStats(ctx context.Context, id uuid.UUID, solved bool) error {
	query := `
		UPDATE problems
		SET total_submissions = total_submissions + 1,
		    successful_submissions = successful_submissions + CASE WHEN $2 THEN 1 ELSE 0 END
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, solved)
	if err != nil {
		return fmt.Errorf("postgres: increment problem stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProblemNotFound
	}
	return nil
}
