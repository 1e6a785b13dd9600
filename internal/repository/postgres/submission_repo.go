package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Harsh-BH/sentinel-judge/internal/domain"
	"github.com/Harsh-BH/sentinel-judge/internal/repository"
)

var _ repository.SubmissionRepository = (*pgSubmissionRepo)(nil)

const submissionColumns = `
	id, user_id, problem_id, contest_id, code, language, status,
	total_test_cases, passed_test_cases, score, max_score,
	execution_time_ms, memory_used_bytes, test_case_results,
	compilation_output, judge_error, submitted_at, evaluated_at, updated_at`

type pgSubmissionRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresSubmissionRepository creates a new PostgreSQL-backed submission repository.
func NewPostgresSubmissionRepository(pool *pgxpool.Pool) repository.SubmissionRepository {
	return &pgSubmissionRepo{pool: pool}
}

func (r *pgSubmissionRepo) Create(ctx context.Context, sub *domain.Submission) error {
	query := `
		INSERT INTO submissions (id, user_id, problem_id, contest_id, code, language, status,
		                         total_test_cases, max_score, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`

	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, query,
		sub.ID, sub.UserID, sub.ProblemID, sub.ContestID, sub.Code, sub.Language, sub.Status,
		sub.TotalTestCases, sub.MaxScore, sub.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create submission: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`

	sub, err := scanSubmission(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get submission by id: %w", err)
	}
	return sub, nil
}

func (r *pgSubmissionRepo) MarkRunning(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE submissions SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	tag, err := r.pool.Exec(ctx, query, domain.StatusRunning, time.Now().UTC(), id, domain.StatusPending)
	if err != nil {
		return false, fmt.Errorf("postgres: mark running: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgSubmissionRepo) SaveVerdict(ctx context.Context, id uuid.UUID, v *domain.Verdict) error {
	results, err := json.Marshal(storableResults(v.TestCaseResults))
	if err != nil {
		return fmt.Errorf("postgres: marshal results: %w", err)
	}

	query := `
		UPDATE submissions
		SET status = $1, passed_test_cases = $2, score = $3, execution_time_ms = $4,
		    memory_used_bytes = $5, test_case_results = $6, compilation_output = $7,
		    judge_error = $8, evaluated_at = $9, updated_at = $9
		WHERE id = $10`

	tag, err := r.pool.Exec(ctx, query,
		v.Status, v.PassedTestCases, v.Score, v.ExecutionTimeMs,
		v.MemoryUsedBytes, results, stripNUL(v.CompilationOutput),
		stripNUL(v.JudgeError), v.EvaluatedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("postgres: save verdict: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubmissionNotFound
	}
	return nil
}

func (r *pgSubmissionRepo) ListByStatus(ctx context.Context, status domain.SubmissionStatus, limit int) ([]*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE status = $1 ORDER BY submitted_at LIMIT $2`

	rows, err := r.pool.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list submissions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list submissions: %w", err)
	}
	return subs, nil
}

func scanSubmission(row pgx.Row) (*domain.Submission, error) {
	sub := &domain.Submission{}
	var results []byte
	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.ProblemID, &sub.ContestID, &sub.Code, &sub.Language, &sub.Status,
		&sub.TotalTestCases, &sub.PassedTestCases, &sub.Score, &sub.MaxScore,
		&sub.ExecutionTimeMs, &sub.MemoryUsedBytes, &results,
		&sub.CompilationOutput, &sub.JudgeError, &sub.SubmittedAt, &sub.EvaluatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &sub.TestCaseResults); err != nil {
			return nil, fmt.Errorf("decode test case results: %w", err)
		}
	}
	return sub, nil
}
