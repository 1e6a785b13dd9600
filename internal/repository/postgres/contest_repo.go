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

var _ repository.ContestRepository = (*pgContestRepo)(nil)

type pgContestRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresContestRepository creates a new PostgreSQL-backed contest repository.
func NewPostgresContestRepository(pool *pgxpool.Pool) repository.ContestRepository {
	return &pgContestRepo{pool: pool}
}

func (r *pgContestRepo) GetContest(ctx context.Context, id uuid.UUID) (*domain.Contest, error) {
	query := `SELECT id, title, start_time, end_time FROM contests WHERE id = $1`

	c := &domain.Contest{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Title, &c.StartTime, &c.EndTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrContestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get contest: %w", err)
	}
	return c, nil
}

// GetContestProblem falls back to the base problem's test cases and limits when the
// contest does not override them.
func (r *pgContestRepo) GetContestProblem(ctx context.Context, contestID, problemID uuid.UUID) (*domain.ContestProblem, error) {
	query := `
		SELECT cp.contest_id, cp.problem_id, cp.points, cp.allowed_languages,
		       COALESCE(cp.test_cases, p.test_cases),
		       COALESCE(cp.time_limit_ms, p.time_limit_ms),
		       COALESCE(cp.memory_limit_kb, p.memory_limit_kb)
		FROM contest_problems cp
		JOIN problems p ON p.id = cp.problem_id
		WHERE cp.contest_id = $1 AND cp.problem_id = $2`

	cp := &domain.ContestProblem{}
	var (
		langs []string
		cases []byte
	)
	err := r.pool.QueryRow(ctx, query, contestID, problemID).Scan(
		&cp.ContestID, &cp.ProblemID, &cp.Points, &langs, &cases, &cp.TimeLimitMs, &cp.MemoryLimitKB,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrContestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get contest problem: %w", err)
	}
	for _, l := range langs {
		cp.AllowedLanguages = append(cp.AllowedLanguages, domain.Language(l))
	}
	if err := json.Unmarshal(cases, &cp.TestCases); err != nil {
		return nil, fmt.Errorf("postgres: decode test cases: %w", err)
	}
	return cp, nil
}

func (r *pgContestRepo) IsRegistered(ctx context.Context, contestID uuid.UUID, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM contest_participants WHERE contest_id = $1 AND user_id = $2)`

	var ok bool
	if err := r.pool.QueryRow(ctx, query, contestID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("postgres: check registration: %w", err)
	}
	return ok, nil
}

func (r *pgContestRepo) IncrementProblemStats(ctx context.Context, contestID, problemID uuid.UUID, solved bool) error {
	query := `
		UPDATE contest_problems
		SET total_attempts = total_attempts + 1,
		    total_solved = total_solved + CASE WHEN $3 THEN 1 ELSE 0 END
		WHERE contest_id = $1 AND problem_id = $2`

	tag, err := r.pool.Exec(ctx, query, contestID, problemID, solved)
	if err != nil {
		return fmt.Errorf("postgres: increment contest problem stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrContestNotFound
	}
	return nil
}

func (r *pgContestRepo) GetParticipantScore(ctx context.Context, contestID uuid.UUID, userID string, problemID uuid.UUID) (*domain.ParticipantScore, error) {
	query := `
		SELECT contest_id, user_id, problem_id, best_score, attempts, best_at, last_attempt_at
		FROM participant_problem_scores
		WHERE contest_id = $1 AND user_id = $2 AND problem_id = $3`

	s := &domain.ParticipantScore{}
	err := r.pool.QueryRow(ctx, query, contestID, userID, problemID).Scan(
		&s.ContestID, &s.UserID, &s.ProblemID, &s.BestScore, &s.Attempts, &s.BestAt, &s.LastAttemptAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get participant score: %w", err)
	}
	return s, nil
}

func (r *pgContestRepo) SaveParticipantScore(ctx context.Context, s *domain.ParticipantScore, delta int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	upsert := `
		INSERT INTO participant_problem_scores
		    (contest_id, user_id, problem_id, best_score, attempts, best_at, last_attempt_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (contest_id, user_id, problem_id) DO UPDATE SET
		    best_score = EXCLUDED.best_score,
		    attempts = EXCLUDED.attempts,
		    best_at = EXCLUDED.best_at,
		    last_attempt_at = EXCLUDED.last_attempt_at`

	if _, err := tx.Exec(ctx, upsert,
		s.ContestID, s.UserID, s.ProblemID, s.BestScore, s.Attempts, s.BestAt, s.LastAttemptAt,
	); err != nil {
		return fmt.Errorf("postgres: upsert participant score: %w", err)
	}

	if delta != 0 {
		total := `UPDATE contest_participants SET total_score = total_score + $3 WHERE contest_id = $1 AND user_id = $2`
		if _, err := tx.Exec(ctx, total, s.ContestID, s.UserID, delta); err != nil {
			return fmt.Errorf("postgres: update participant total: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}
