package recipe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"macrotrack"
	"macrotrack/recipe/storage"
)

// FoodTable maps a lowercase, singular food name to its per-unit nutrition.
// Treat it as read-only once handed to a Parser.
type FoodTable map[string]macrotrack.FoodFact

// Lookup matches the token as-is, then its singular forms.
func (t FoodTable) Lookup(token string) (macrotrack.FoodFact, bool) {
	for _, name := range candidates(token) {
		if fact, ok := t[name]; ok {
			return fact, true
		}
	}
	return macrotrack.FoodFact{}, false
}

// candidates returns the token followed by its singularized variants.
func candidates(token string) []string {
	out := []string{token}
	if strings.HasSuffix(token, "ies") && len(token) > 3 {
		out = append(out, strings.TrimSuffix(token, "ies")+"y")
	}
	if strings.HasSuffix(token, "s") && len(token) > 1 {
		out = append(out, strings.TrimSuffix(token, "s"))
	}
	return out
}

// DefaultTable returns a fresh copy of the built-in common foods, per piece.
func DefaultTable() FoodTable {
	return FoodTable{
		"burger":  fact("burger", 350, 15, 14, 40, "piece"),
		"dosa":    fact("dosa", 120, 3, 3.5, 20, "piece"),
		"biscuit": fact("biscuit", 50, 1, 2, 7, "piece"),
		"apple":   fact("apple", 95, 0.5, 0.3, 25, "piece"),
		"banana":  fact("banana", 105, 1.3, 0.4, 27, "piece"),
	}
}

func fact(name string, cal, protein, fats, carbs float64, unit string) macrotrack.FoodFact {
	return macrotrack.FoodFact{
		Name:   name,
		Macros: macrotrack.Macros{Calories: cal, Protein: protein, Fats: fats, Carbs: carbs},
		Unit:   unit,
	}
}

// LoadTable reads a JSON object of name -> fact from the given state.
// Keys are lowercased; a fact without a name takes its key.
func LoadTable(ctx context.Context, state storage.FoodTableState) (FoodTable, error) {
	b, err := state.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("read food table: %w", err)
	}

	var raw map[string]macrotrack.FoodFact
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse food table: %w", err)
	}

	table := make(FoodTable, len(raw))
	for k, v := range raw {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		if v.Name == "" {
			v.Name = key
		}
		table[key] = v
	}
	return table, nil
}
