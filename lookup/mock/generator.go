package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"macrotrack"
)

const queryMarker = "food query "

// catalog holds per-100 g answers keyed by lowercase search term.
var catalog = map[string][]macrotrack.FoodFact{
	"rice": {
		{Name: "Rice, white, cooked", Macros: macrotrack.Macros{Calories: 130, Protein: 2.7, Fats: 0.3, Carbs: 28.2}},
		{Name: "Rice, brown, cooked", Macros: macrotrack.Macros{Calories: 123, Protein: 2.7, Fats: 1, Carbs: 25.6}},
	},
	"paneer": {
		{Name: "Paneer", Macros: macrotrack.Macros{Calories: 265, Protein: 18.3, Fats: 20.8, Carbs: 1.2}},
	},
	"chicken": {
		{Name: "Chicken breast, roasted", Macros: macrotrack.Macros{Calories: 165, Protein: 31, Fats: 3.6, Carbs: 0}},
		{Name: "Chicken thigh, roasted", Macros: macrotrack.Macros{Calories: 209, Protein: 26, Fats: 10.9, Carbs: 0}},
	},
	"oats": {
		{Name: "Oats, rolled", Macros: macrotrack.Macros{Calories: 389, Protein: 16.9, Fats: 6.9, Carbs: 66.3}},
	},
	"pizza": {
		{Name: "Pizza, cheese", Macros: macrotrack.Macros{Calories: 266, Protein: 11.4, Fats: 10.4, Carbs: 33.3}},
	},
	"samosa": {
		{Name: "Samosa, potato", Macros: macrotrack.Macros{Calories: 262, Protein: 3.5, Fats: 17.9, Carbs: 24.3}},
	},
	"lentils": {
		{Name: "Lentils, boiled", Macros: macrotrack.Macros{Calories: 116, Protein: 9, Fats: 0.4, Carbs: 20.1}},
	},
}

// Generator answers lookup prompts from a fixed catalog. Answers are wrapped
// in chatty prose so callers exercise the same extraction path as real models.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	term := strings.ToLower(strings.TrimSpace(termFromPrompt(prompt)))
	facts, ok := catalog[term]
	if !ok {
		facts, ok = catalog[strings.TrimSuffix(term, "s")]
	}
	if !ok {
		slog.Info("MOCK_GENERATOR: No catalog entry", "term", term)
		return "I couldn't find a close match for that food. []", nil
	}

	b, err := json.MarshalIndent(facts, "", "  ")
	if err != nil {
		return "", err
	}

	slog.Info("MOCK_GENERATOR: Returning catalog entry", "term", term, "results", len(facts))

	return fmt.Sprintf("Sure! Here is the nutrition data for %q:\n```json\n%s\n```\nValues are per 100g.", term, b), nil
}

// termFromPrompt recovers the quoted query from a lookup prompt. Prompts
// without one are treated as the query itself.
func termFromPrompt(prompt string) string {
	i := strings.Index(prompt, queryMarker)
	if i == -1 {
		return prompt
	}
	quoted, err := strconv.QuotedPrefix(prompt[i+len(queryMarker):])
	if err != nil {
		return prompt
	}
	term, err := strconv.Unquote(quoted)
	if err != nil {
		return prompt
	}
	return term
}
