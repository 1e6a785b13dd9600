package postgres

import (
	"strings"

	"github.com/Harsh-BH/sentinel-judge/internal/domain"
)

// Postgres text and jsonb values cannot hold NUL, but program output can.
const nulReplacement = "\uFFFD"

func stripNUL(s string) string {
	if !strings.Contains(s, "\x00") {
		return s
	}
	return strings.ReplaceAll(s, "\x00", nulReplacement)
}

// storableResults copies results with NUL bytes replaced. A nil slice becomes empty so
// the column holds [] rather than null.
func storableResults(in []domain.TestCaseResult) []domain.TestCaseResult {
	out := make([]domain.TestCaseResult, len(in))
	for i, r := range in {
		r.Input = stripNUL(r.Input)
		r.ExpectedOutput = stripNUL(r.ExpectedOutput)
		r.ActualOutput = stripNUL(r.ActualOutput)
		r.ErrorMessage = stripNUL(r.ErrorMessage)
		out[i] = r
	}
	return out
}
