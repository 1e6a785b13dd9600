package usecase

import "github.com/Harsh-BH/sentinel-judge/internal/domain"

// DeriveStatus picks the terminal status from per-case results. A compilation error
// anywhere wins, then runtime errors, memory, timeouts and wrong answers, in that order.
// accepted requires every one of total cases to have passed.
func DeriveStatus(results []domain.TestCaseResult, total int) domain.SubmissionStatus {
	var compile, runtime, memory, timeout bool
	passed := 0

	for _, r := range results {
		switch r.Status {
		case domain.CasePassed:
			passed++
		case domain.CaseTimeout:
			timeout = true
		case domain.CaseError:
			switch r.ErrorType {
			case domain.ErrorTypeCompilation:
				compile = true
			case domain.ErrorTypeMemory:
				memory = true
			default:
				runtime = true
			}
		}
	}

	switch {
	case compile:
		return domain.StatusCompilationError
	case runtime:
		return domain.StatusRuntimeError
	case memory:
		return domain.StatusMemoryLimitExceeded
	case timeout:
		return domain.StatusTimeLimitExceeded
	case total > 0 && passed == total:
		return domain.StatusAccepted
	default:
		return domain.StatusWrongAnswer
	}
}

// Score is floor(passed / total * maxScore), computed in integers.
func Score(passed, total, maxScore int) int {
	if total <= 0 || passed <= 0 || maxScore <= 0 {
		return 0
	}
	if passed > total {
		passed = total
	}
	return passed * maxScore / total
}

// erroredResults stands in for results that were never produced: one runtime error per
// case, so a forced verdict still carries total entries.
func erroredResults(total int, message string) []domain.TestCaseResult {
	results := make([]domain.TestCaseResult, max(total, 0))
	for i := range results {
		results[i] = domain.TestCaseResult{
			Index:        i,
			Status:       domain.CaseError,
			ErrorType:    domain.ErrorTypeRuntime,
			ErrorMessage: message,
		}
	}
	return results
}
