package postgres

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Harsh-BH/sentinel-judge/internal/domain"
)

func TestStorableResults_ReplacesNUL(t *testing.T) {
	in := []domain.TestCaseResult{{
		Index:          0,
		Input:          "1\x002",
		ExpectedOutput: "ab",
		ActualOutput:   "a\x00b",
		Status:         domain.CaseFailed,
		ErrorMessage:   "\x00",
	}}

	out := storableResults(in)

	body, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(body), `\u0000`) {
		t.Errorf("jsonb payload must not contain NUL escapes: %s", body)
	}
	if out[0].ActualOutput != "a\uFFFDb" {
		t.Errorf("unexpected actual output %q", out[0].ActualOutput)
	}
	if in[0].ActualOutput != "a\x00b" {
		t.Error("caller's results must not be modified")
	}
	if out[0].Status != domain.CaseFailed {
		t.Error("status must be preserved")
	}
}

func TestStorableResults_NilBecomesEmptyArray(t *testing.T) {
	body, err := json.Marshal(storableResults(nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(body) != "[]" {
		t.Errorf("expected [], got %s", body)
	}
}

func TestStripNUL(t *testing.T) {
	if got := stripNUL("clean"); got != "clean" {
		t.Errorf("unexpected %q", got)
	}
	if got := stripNUL("x\x00y\x00"); got != "x\uFFFDy\uFFFD" {
		t.Errorf("unexpected %q", got)
	}
}
