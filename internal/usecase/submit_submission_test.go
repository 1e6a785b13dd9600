package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Harsh-BH/sentinel-judge/internal/domain"
	pubmock "github.com/Harsh-BH/sentinel-judge/internal/publisher/mock"
	"github.com/Harsh-BH/sentinel-judge/internal/usecase"
)

func newSubmitUsecase(f *fixture, tc *fakeToolchains, pub *pubmock.MockPublisher) *usecase.SubmitSubmissionUsecase {
	return usecase.NewSubmitSubmissionUsecase(f.submissions, f.problems, f.contests, tc, pub, 100, zap.NewNop())
}

func validRequest(f *fixture) *domain.SubmitRequest {
	return &domain.SubmitRequest{
		UserID:    "alice",
		ProblemID: f.problem.ID,
		Language:  "python",
		Code:      "print(input())",
	}
}

func TestSubmit_Standalone(t *testing.T) {
	f := newFixture()
	pub := pubmock.NewMockPublisher()
	uc := newSubmitUsecase(f, newFakeToolchains("python"), pub)

	resp, err := uc.Execute(context.Background(), validRequest(f))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != domain.StatusPending {
		t.Errorf("expected pending, got %s", resp.Status)
	}
	if resp.TotalTestCases != 3 {
		t.Errorf("hidden cases must count: expected 3, got %d", resp.TotalTestCases)
	}
	if resp.SubmissionID.Version() != 7 {
		t.Errorf("expected UUIDv7, got version %d", resp.SubmissionID.Version())
	}

	if len(f.submissions.Created) != 1 {
		t.Fatalf("expected 1 created submission, got %d", len(f.submissions.Created))
	}
	created := f.submissions.Created[0]
	if created.Status != domain.StatusPending || created.MaxScore != 100 {
		t.Errorf("unexpected stored submission %+v", created)
	}

	if pub.Count() != 1 || pub.Published[0].SubmissionID != resp.SubmissionID {
		t.Fatalf("expected the submission to be published once")
	}
}

func TestSubmit_Contest(t *testing.T) {
	f := newFixture()
	pub := pubmock.NewMockPublisher()
	uc := newSubmitUsecase(f, newFakeToolchains("python"), pub)

	req := validRequest(f)
	req.ContestID = &f.contest.ID

	resp, err := uc.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TotalTestCases != 4 {
		t.Errorf("expected contest test set of 4, got %d", resp.TotalTestCases)
	}
	if f.submissions.Created[0].MaxScore != 250 {
		t.Errorf("expected contest points as max score, got %d", f.submissions.Created[0].MaxScore)
	}
}

func TestSubmit_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *fixture, req *domain.SubmitRequest, tc *fakeToolchains)
		wantErr error
	}{
		{"missing user", func(_ *fixture, r *domain.SubmitRequest, _ *fakeToolchains) { r.UserID = " " }, domain.ErrMissingField},
		{"missing problem", func(_ *fixture, r *domain.SubmitRequest, _ *fakeToolchains) { r.ProblemID = uuid.Nil }, domain.ErrMissingField},
		{"missing language", func(_ *fixture, r *domain.SubmitRequest, _ *fakeToolchains) { r.Language = "" }, domain.ErrMissingField},
		{"empty code", func(_ *fixture, r *domain.SubmitRequest, _ *fakeToolchains) { r.Code = "   \n" }, domain.ErrEmptySourceCode},
		{"code too large", func(_ *fixture, r *domain.SubmitRequest, _ *fakeToolchains) {
			r.Code = strings.Repeat("x", 1<<20+1)
		}, domain.ErrPayloadTooLarge},
		{"unknown language", func(_ *fixture, r *domain.SubmitRequest, _ *fakeToolchains) { r.Language = "cobol" }, domain.ErrInvalidLanguage},
		{"toolchain missing", func(_ *fixture, _ *domain.SubmitRequest, tc *fakeToolchains) { tc.missing["python"] = true }, domain.ErrToolchainUnavailable},
		{"unknown problem", func(_ *fixture, r *domain.SubmitRequest, _ *fakeToolchains) { r.ProblemID = uuid.New() }, domain.ErrProblemNotFound},
		{"no test cases", func(f *fixture, _ *domain.SubmitRequest, _ *fakeToolchains) { f.problem.TestCases = nil }, domain.ErrNoTestCases},
		{"unknown contest", func(_ *fixture, r *domain.SubmitRequest, _ *fakeToolchains) {
			id := uuid.New()
			r.ContestID = &id
		}, domain.ErrContestNotFound},
		{"not registered", func(f *fixture, r *domain.SubmitRequest, _ *fakeToolchains) {
			r.ContestID = &f.contest.ID
			r.UserID = "mallory"
		}, domain.ErrNotRegistered},
		{"language not allowed", func(f *fixture, r *domain.SubmitRequest, tc *fakeToolchains) {
			r.ContestID = &f.contest.ID
			tc.known["javascript"] = true
			r.Language = "javascript"
		}, domain.ErrLanguageNotAllowed},
		{"contest over", func(f *fixture, r *domain.SubmitRequest, _ *fakeToolchains) {
			r.ContestID = &f.contest.ID
			f.contest.EndTime = time.Now().Add(-time.Minute)
		}, domain.ErrContestNotActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tc := newFakeToolchains("python")
			pub := pubmock.NewMockPublisher()
			req := validRequest(f)
			tt.mutate(f, req, tc)

			_, err := newSubmitUsecase(f, tc, pub).Execute(context.Background(), req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(f.submissions.Created) != 0 || pub.Count() != 0 {
				t.Error("a rejected request must not create or publish anything")
			}
		})
	}
}

func TestSubmit_PublishFailureClosesSubmission(t *testing.T) {
	f := newFixture()
	pub := &pubmock.MockPublisher{
		PublishFn: func(ctx context.Context, job *domain.JudgeJob) error {
			return errors.New("broker down")
		},
	}
	uc := newSubmitUsecase(f, newFakeToolchains("python"), pub)

	_, err := uc.Execute(context.Background(), validRequest(f))
	if !errors.Is(err, domain.ErrPublishFailed) {
		t.Fatalf("expected ErrPublishFailed, got %v", err)
	}

	if len(f.submissions.Verdicts) != 1 {
		t.Fatalf("expected the submission to be closed out, got %d verdicts", len(f.submissions.Verdicts))
	}
	v := f.submissions.Verdicts[0].Verdict
	if v.Status != domain.StatusRuntimeError || v.JudgeError == "" {
		t.Errorf("expected runtime_error with judge error, got %+v", v)
	}
	if len(v.TestCaseResults) != len(f.problem.TestCases) {
		t.Errorf("expected one result per case, got %d", len(v.TestCaseResults))
	}
}

func TestSubmit_RepositoryError(t *testing.T) {
	f := newFixture()
	f.submissions.CreateFn = func(ctx context.Context, sub *domain.Submission) error {
		return errors.New("connection refused")
	}
	pub := pubmock.NewMockPublisher()

	_, err := newSubmitUsecase(f, newFakeToolchains("python"), pub).Execute(context.Background(), validRequest(f))
	if err == nil {
		t.Fatal("expected error")
	}
	if pub.Count() != 0 {
		t.Error("nothing should be published when the insert fails")
	}
}

func TestGetSubmission(t *testing.T) {
	f := newFixture()
	sub := f.seed(false)
	uc := usecase.NewGetSubmissionUsecase(f.submissions, zap.NewNop())

	got, err := uc.Execute(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != sub.ID || got.Status != domain.StatusPending {
		t.Errorf("unexpected submission %+v", got)
	}

	if _, err := uc.Execute(context.Background(), uuid.New()); !errors.Is(err, domain.ErrSubmissionNotFound) {
		t.Errorf("expected ErrSubmissionNotFound, got %v", err)
	}
}
