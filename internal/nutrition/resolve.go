package nutrition

import (
	"strings"

	"myfood/internal/recipe"
)

// Totals are the four tracked nutrients summed over a recipe.
type Totals struct {
	Energy       float64 `json:"energy_kcal"`
	Protein      float64 `json:"protein_g"`
	Fat          float64 `json:"fat_g"`
	Carbohydrate float64 `json:"carbohydrate_g"`
}

// Status says how an ingredient took part in the totals.
type Status string

const (
	StatusMatched         Status = "matched"
	StatusUnmatched       Status = "unmatched"
	StatusUnsupportedUnit Status = "unsupported_unit"
)

// IngredientReport describes one ingredient's contribution.
type IngredientReport struct {
	Name         string  `json:"name"`
	Grams        float64 `json:"grams"`
	Status       Status  `json:"status"`
	Contribution Totals  `json:"contribution"`
}

// Coverage counts, per nutrient, the ingredients whose reference cell
// resolved to a value (trace included).
type Coverage struct {
	Energy       int `json:"energy"`
	Protein      int `json:"protein"`
	Fat          int `json:"fat"`
	Carbohydrate int `json:"carbohydrate"`
}

// Report is Totals plus the data completeness side-channel.
type Report struct {
	Totals      Totals             `json:"totals"`
	Ingredients []IngredientReport `json:"ingredients"`
	Coverage    Coverage           `json:"coverage"`
	Matched     int                `json:"matched"`
}

// Complete reports whether every ingredient matched and every nutrient of
// every ingredient carried data.
func (r Report) Complete() bool {
	n := len(r.Ingredients)
	return r.Matched == n &&
		r.Coverage.Energy == n &&
		r.Coverage.Protein == n &&
		r.Coverage.Fat == n &&
		r.Coverage.Carbohydrate == n
}

// Grams converts a quantity to grams. Only mass units g and kg are
// supported.
func Grams(quantity float64, unit string) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "g":
		return quantity, true
	case "kg":
		return quantity * 1000, true
	default:
		return 0, false
	}
}

// Compute returns the nutrient totals of ingredients. Unmatched names,
// unsupported units and cells without data contribute nothing.
func Compute(ingredients []recipe.Ingredient, ref Reference, cols Columns) Totals {
	return Resolve(ingredients, ref, cols).Totals
}

// Resolve computes totals and reports how each ingredient contributed.
func Resolve(ingredients []recipe.Ingredient, ref Reference, cols Columns) Report {
	rep := Report{Ingredients: make([]IngredientReport, 0, len(ingredients))}

	for _, ing := range ingredients {
		ir := IngredientReport{Name: ing.Name}

		grams, ok := Grams(ing.Quantity, ing.Unit)
		if !ok {
			ir.Status = StatusUnsupportedUnit
			rep.Ingredients = append(rep.Ingredients, ir)
			continue
		}
		ir.Grams = grams

		var row Row
		if ref != nil {
			row, ok = ref.Lookup(ing.Name)
		}
		if row == nil || !ok {
			ir.Status = StatusUnmatched
			rep.Ingredients = append(rep.Ingredients, ir)
			continue
		}
		ir.Status = StatusMatched
		rep.Matched++

		if v, ok := NormalizeCell(row.Get(cols.Energy, nil)); ok {
			ir.Contribution.Energy = v * grams / 100
			rep.Coverage.Energy++
		}
		if v, ok := NormalizeCell(row.Get(cols.Protein, nil)); ok {
			ir.Contribution.Protein = v * grams / 100
			rep.Coverage.Protein++
		}
		if v, ok := NormalizeCell(row.Get(cols.Fat, nil)); ok {
			ir.Contribution.Fat = v * grams / 100
			rep.Coverage.Fat++
		}
		if v, ok := NormalizeCell(row.Get(cols.Carbohydrate, nil)); ok {
			ir.Contribution.Carbohydrate = v * grams / 100
			rep.Coverage.Carbohydrate++
		}

		rep.Totals.Energy += ir.Contribution.Energy
		rep.Totals.Protein += ir.Contribution.Protein
		rep.Totals.Fat += ir.Contribution.Fat
		rep.Totals.Carbohydrate += ir.Contribution.Carbohydrate
		rep.Ingredients = append(rep.Ingredients, ir)
	}

	return rep
}
