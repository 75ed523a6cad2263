package schema

import (
	"testing"

	"github.com/bobmcallan/macro-alpha/internal/models"
	"github.com/bobmcallan/macro-alpha/internal/prompts"
)

func mustChecker(t *testing.T, v prompts.Variant) *Checker {
	t.Helper()
	c, err := NewChecker(v)
	if err != nil {
		t.Fatalf("NewChecker(%s): %v", v, err)
	}
	return c
}

func TestNewChecker_UnknownVariant(t *testing.T) {
	if _, err := NewChecker("baroque"); err == nil {
		t.Fatal("expected error for unknown variant")
	}
}

func TestCheck_ClassicCritique(t *testing.T) {
	c := mustChecker(t, prompts.Classic)

	ok := models.Record{
		"consensus_view":        "X",
		"risk_factors":          "Y",
		"calibration_questions": []any{"Q1", "Q2"},
		"extra":                 "allowed",
	}
	if err := c.Check(KindCritique, ok); err != nil {
		t.Errorf("expected conforming record, got %v", err)
	}

	missing := models.Record{"consensus_view": "X"}
	if err := c.Check(KindCritique, missing); err == nil {
		t.Error("expected error for missing fields")
	}

	wrongType := models.Record{
		"consensus_view":        "X",
		"risk_factors":          "Y",
		"calibration_questions": "Q1",
	}
	if err := c.Check(KindCritique, wrongType); err == nil {
		t.Error("expected error for string questions")
	}
}

func TestCheck_ClassicStrategies(t *testing.T) {
	c := mustChecker(t, prompts.Classic)
	rec := models.Record{"strategies": []any{
		map[string]any{
			"id":                0.0,
			"name":              "Long XLE",
			"instrument":        "ETF",
			"specific_tickers":  "XLE",
			"brief_explanation": "energy beta",
			"max_profit":        500.0,
			"max_loss":          "$200",
		},
	}}
	if err := c.Check(KindStrategies, rec); err != nil {
		t.Errorf("expected conforming record, got %v", err)
	}

	if err := c.Check(KindStrategies, models.Record{"strategies": []any{}}); err == nil {
		t.Error("expected error for empty strategy list")
	}
}

func TestCheck_StructuredCritique(t *testing.T) {
	c := mustChecker(t, prompts.Structured)
	rec := models.Record{
		"consensus_view":   "X",
		"contrarian_angle": "Z",
		"calibration_questions": []any{
			map[string]any{"question": "Q1", "rationale": "R1"},
			map[string]any{"question": "Q2"},
		},
	}
	if err := c.Check(KindCritique, rec); err != nil {
		t.Errorf("expected conforming record, got %v", err)
	}

	classic := models.Record{
		"consensus_view":        "X",
		"risk_factors":          "Y",
		"calibration_questions": []any{"Q1"},
	}
	if err := c.Check(KindCritique, classic); err == nil {
		t.Error("expected classic critique to fail the structured schema")
	}
}

func TestCheck_DeepDive(t *testing.T) {
	c := mustChecker(t, prompts.Classic)
	rec := models.Record{
		"educational_terms": []any{map[string]any{"term": "Beta", "definition": "market sensitivity"}},
		"asset_analysis":    "A",
		"market_context":    "M",
		"scenarios": []any{
			map[string]any{"move": "-5%", "outcome": "loss", "pnl": -50.0},
		},
	}
	if err := c.Check(KindDeepDive, rec); err != nil {
		t.Errorf("expected conforming record, got %v", err)
	}

	rec["scenarios"] = []any{map[string]any{"move": "-5%"}}
	if err := c.Check(KindDeepDive, rec); err == nil {
		t.Error("expected error for incomplete scenario")
	}
}

func TestCheck_UnknownKind(t *testing.T) {
	c := mustChecker(t, prompts.Classic)
	if err := c.Check("summary", models.Record{}); err == nil {
		t.Error("expected error for unknown kind")
	}
}
