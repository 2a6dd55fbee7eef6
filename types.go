package macrotrack

import (
	"context"
	"net/http"
	"strings"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Searcher resolves a free-text food term into candidate nutrition facts.
type Searcher interface {
	Search(ctx context.Context, term string) ([]FoodFact, error)
}

// Macros holds calories (kcal) and macro-nutrients (grams).
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fats     float64 `json:"fats"`
	Carbs    float64 `json:"carbs"`
}

// Scale multiplies every value by f.
func (m Macros) Scale(f float64) Macros {
	return Macros{
		Calories: m.Calories * f,
		Protein:  m.Protein * f,
		Fats:     m.Fats * f,
		Carbs:    m.Carbs * f,
	}
}

func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories: m.Calories + o.Calories,
		Protein:  m.Protein + o.Protein,
		Fats:     m.Fats + o.Fats,
		Carbs:    m.Carbs + o.Carbs,
	}
}

// FoodFact is the nutrition density of a food at its basis unit.
// An empty, "g" or "100g" unit means per 100 g; any other unit (piece, slice) means per one of that unit.
type FoodFact struct {
	Name string `json:"name"`
	Macros
	Unit string `json:"unit,omitempty"`
}

// PerHundredGrams reports whether the fact is expressed per 100 g.
func (f FoodFact) PerHundredGrams() bool {
	return isGramBasis(f.Unit)
}

// ScaleFactor returns the multiplier applied to a fact with the given basis unit
// to obtain the nutrition of quantity units.
func ScaleFactor(basis string, quantity float64, unit string) float64 {
	if isGramBasis(basis) && unit == "g" {
		return quantity / 100
	}
	return quantity
}

func isGramBasis(unit string) bool {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "", "g", "100g":
		return true
	}
	return false
}

// FoodRequest is a parsed request for a quantity of a named food.
// When SearchTerm is set the nutrition is unresolved and Fact is nil.
type FoodRequest struct {
	Name       string    `json:"name"`
	Quantity   float64   `json:"quantity"`
	Unit       string    `json:"unit"`
	SearchTerm string    `json:"search_term,omitempty"`
	Fact       *FoodFact `json:"fact,omitempty"`
	Macros     Macros    `json:"macros"`
}

func (r FoodRequest) Resolved() bool {
	return r.SearchTerm == "" && r.Fact != nil
}

// FoodItem is a request merged with its resolved fact. Totals are always derived
// from the base fact and the current quantity.
type FoodItem struct {
	Name       string   `json:"name"`
	Quantity   float64  `json:"quantity"`
	Unit       string   `json:"unit"`
	SearchTerm string   `json:"search_term,omitempty"`
	Fact       FoodFact `json:"fact"`
	Resolved   bool     `json:"resolved"`
}

// Totals returns the fact scaled to the item's quantity.
func (i FoodItem) Totals() Macros {
	if !i.Resolved {
		return Macros{}
	}
	return i.Fact.Macros.Scale(ScaleFactor(i.Fact.Unit, i.Quantity, i.Unit))
}

// WithQuantity returns a copy of the item with a new quantity.
func (i FoodItem) WithQuantity(q float64) FoodItem {
	i.Quantity = q
	return i
}

// MacroProgress is a current value against its daily target.
type MacroProgress struct {
	Current float64 `json:"current"`
	Target  float64 `json:"target"`
}

// DailyTotals is a snapshot of the day's accumulated intake.
type DailyTotals struct {
	CalorieTarget   float64       `json:"calorie_target"`
	CurrentCalories float64       `json:"current_calories"`
	Protein         MacroProgress `json:"protein"`
	Fats            MacroProgress `json:"fats"`
	Carbs           MacroProgress `json:"carbs"`
}
