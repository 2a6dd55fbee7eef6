package recipe

import (
	"errors"
	"fmt"
	"strings"

	"macrotrack"
)

var (
	ErrMissingName   = errors.New("recipe name is required")
	ErrNoIngredients = errors.New("recipe needs at least one ingredient")
	ErrBadIngredient = errors.New("invalid ingredient")
)

// GramsPerUnit converts ingredient units to grams.
var GramsPerUnit = map[string]float64{
	"g":    1,
	"oz":   28.3495,
	"cup":  128,
	"tbsp": 15,
	"tsp":  5,
}

// Ingredient is one line of a user-built recipe. Macros are per 100 g.
type Ingredient struct {
	Name     string            `json:"name"`
	Quantity float64           `json:"quantity"`
	Unit     string            `json:"unit"`
	Macros   macrotrack.Macros `json:"macros"`
}

func (i Ingredient) Grams() float64 {
	return i.Quantity * GramsPerUnit[i.Unit]
}

func (i Ingredient) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("%w: ingredient name is required", ErrBadIngredient)
	}
	if i.Quantity <= 0 {
		return fmt.Errorf("%w: %q: quantity must be positive", ErrBadIngredient, i.Name)
	}
	if _, ok := GramsPerUnit[i.Unit]; !ok {
		return fmt.Errorf("%w: %q: unknown unit %q", ErrBadIngredient, i.Name, i.Unit)
	}
	return nil
}

// Recipe is a named list of ingredients whose totals are summed by weight.
type Recipe struct {
	Name        string       `json:"name"`
	Ingredients []Ingredient `json:"ingredients"`
}

func (r Recipe) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrMissingName
	}
	if len(r.Ingredients) == 0 {
		return ErrNoIngredients
	}
	for _, ing := range r.Ingredients {
		if err := ing.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Totals sums every ingredient scaled from its per-100 g values.
func (r Recipe) Totals() macrotrack.Macros {
	var total macrotrack.Macros
	for _, ing := range r.Ingredients {
		total = total.Add(ing.Macros.Scale(ing.Grams() / 100))
	}
	return total
}
