package entities

import (
	"fmt"
	"sort"

	domainerrors "aquajudge/contexts/contest-judging/contest-engine/domain/errors"

	"github.com/shopspring/decimal"
)

// DefaultCriteriaCategory is used for categories without a dedicated schema.
const DefaultCriteriaCategory = "default"

type Criterion struct {
	Name string
	Max  decimal.Decimal
}

type CriteriaSchema struct {
	Category string
	Criteria []Criterion
}

func criterion(name string, max int64) Criterion {
	return Criterion{Name: name, Max: decimal.NewFromInt(max)}
}

// Maxima within each schema sum to 100.
var criteriaSchemas = map[string][]Criterion{
	DefaultCriteriaCategory: {
		criterion("body", 25),
		criterion("color", 25),
		criterion("finnage", 20),
		criterion("condition", 15),
		criterion("presentation", 15),
	},
	"betta": {
		criterion("form_and_symmetry", 25),
		criterion("finnage", 25),
		criterion("color", 20),
		criterion("condition", 15),
		criterion("deportment", 15),
	},
	"guppy": {
		criterion("body", 20),
		criterion("dorsal_fin", 15),
		criterion("caudal_fin", 30),
		criterion("color", 20),
		criterion("condition", 15),
	},
	"koi": {
		criterion("body_conformation", 30),
		criterion("color_and_pattern", 30),
		criterion("skin_quality", 20),
		criterion("elegance", 10),
		criterion("condition", 10),
	},
	"discus": {
		criterion("shape", 25),
		criterion("color", 25),
		criterion("pattern", 20),
		criterion("eyes", 10),
		criterion("condition", 20),
	},
	"goldfish": {
		criterion("body", 25),
		criterion("finnage", 20),
		criterion("color", 20),
		criterion("head_growth", 15),
		criterion("deportment", 20),
	},
}

// CriteriaFor returns the schema for category, falling back to the default set.
func CriteriaFor(category string) CriteriaSchema {
	key := NormalizeTag(category)
	criteria, ok := criteriaSchemas[key]
	if !ok {
		key = DefaultCriteriaCategory
		criteria = criteriaSchemas[DefaultCriteriaCategory]
	}
	return CriteriaSchema{
		Category: key,
		Criteria: append([]Criterion(nil), criteria...),
	}
}

func CriteriaCategories() []string {
	categories := make([]string, 0, len(criteriaSchemas))
	for category := range criteriaSchemas {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

func (s CriteriaSchema) MaxTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Criteria {
		total = total.Add(item.Max)
	}
	return total
}

// Evaluate checks a detailed breakdown against the schema and returns its total.
// Every criterion must be present exactly once.
func (s CriteriaSchema) Evaluate(values map[string]decimal.Decimal) (decimal.Decimal, error) {
	if len(values) != len(s.Criteria) {
		return decimal.Zero, fmt.Errorf("%w: %s schema expects %d criteria, got %d",
			domainerrors.ErrInvalidInput, s.Category, len(s.Criteria), len(values))
	}
	total := decimal.Zero
	for _, item := range s.Criteria {
		value, ok := values[item.Name]
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: missing criterion %q", domainerrors.ErrInvalidInput, item.Name)
		}
		if !HasScorePrecision(value) {
			return decimal.Zero, fmt.Errorf("%w: criterion %q=%s has more than %d decimal places",
				domainerrors.ErrInvalidInput, item.Name, value.String(), ScorePlaces)
		}
		if value.IsNegative() || value.GreaterThan(item.Max) {
			return decimal.Zero, fmt.Errorf("%w: criterion %q=%s exceeds [0, %s]",
				domainerrors.ErrOutOfRange, item.Name, value.String(), item.Max.String())
		}
		total = total.Add(value)
	}
	if !TotalInRange(total) {
		return decimal.Zero, fmt.Errorf("%w: total %s exceeds %s",
			domainerrors.ErrOutOfRange, total.String(), MaxScoreTotal.String())
	}
	return total, nil
}
