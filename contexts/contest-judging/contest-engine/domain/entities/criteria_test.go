package entities

import (
	"errors"
	"testing"

	domainerrors "aquajudge/contexts/contest-judging/contest-engine/domain/errors"

	"github.com/shopspring/decimal"
)

func TestEverySchemaSumsToMaxTotal(t *testing.T) {
	for _, category := range CriteriaCategories() {
		schema := CriteriaFor(category)
		if !schema.MaxTotal().Equal(MaxScoreTotal) {
			t.Fatalf("schema %s sums to %s", category, schema.MaxTotal())
		}
	}
}

func TestCriteriaForFallsBackToDefault(t *testing.T) {
	if got := CriteriaFor("Axolotl").Category; got != DefaultCriteriaCategory {
		t.Fatalf("expected default schema, got %s", got)
	}
	if got := CriteriaFor(" BETTA ").Category; got != "betta" {
		t.Fatalf("expected betta schema, got %s", got)
	}
}

func fullMarks(schema CriteriaSchema) map[string]decimal.Decimal {
	values := make(map[string]decimal.Decimal, len(schema.Criteria))
	for _, item := range schema.Criteria {
		values[item.Name] = item.Max
	}
	return values
}

func TestEvaluate(t *testing.T) {
	schema := CriteriaFor("koi")

	total, err := schema.Evaluate(fullMarks(schema))
	if err != nil || !total.Equal(MaxScoreTotal) {
		t.Fatalf("expected full marks to total 100, got %s err=%v", total, err)
	}

	missing := fullMarks(schema)
	delete(missing, "elegance")
	if _, err := schema.Evaluate(missing); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for missing criterion, got %v", err)
	}

	unknown := fullMarks(schema)
	delete(unknown, "elegance")
	unknown["sparkle"] = decimal.NewFromInt(1)
	if _, err := schema.Evaluate(unknown); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unknown criterion, got %v", err)
	}

	over := fullMarks(schema)
	over["elegance"] = decimal.RequireFromString("10.5")
	if _, err := schema.Evaluate(over); !errors.Is(err, domainerrors.ErrOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}

	negative := fullMarks(schema)
	negative["condition"] = decimal.NewFromInt(-1)
	if _, err := schema.Evaluate(negative); !errors.Is(err, domainerrors.ErrOutOfRange) {
		t.Fatalf("expected out of range for negative value, got %v", err)
	}
}

func TestEvaluateRejectsExtraPrecision(t *testing.T) {
	schema := CriteriaFor("koi")
	values := fullMarks(schema)
	values["elegance"] = decimal.RequireFromString("9.995")
	if _, err := schema.Evaluate(values); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for three decimals, got %v", err)
	}
	values["elegance"] = decimal.RequireFromString("9.990")
	if _, err := schema.Evaluate(values); err != nil {
		t.Fatalf("trailing zeros should be accepted: %v", err)
	}
}

func TestHasScorePrecision(t *testing.T) {
	for raw, want := range map[string]bool{
		"80":     true,
		"80.5":   true,
		"80.05":  true,
		"80.500": true,
		"80.005": false,
		"0.001":  false,
	} {
		if got := HasScorePrecision(decimal.RequireFromString(raw)); got != want {
			t.Fatalf("HasScorePrecision(%s) = %v, want %v", raw, got, want)
		}
	}
}
