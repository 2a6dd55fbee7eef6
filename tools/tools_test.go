package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrotrack"
	"macrotrack/lookup"
	"macrotrack/recipe"
	"macrotrack/resolver"
	"macrotrack/tracker"
)

type stubSearcher struct {
	facts []macrotrack.FoodFact
	err   error
	terms []string
}

func (s *stubSearcher) Search(ctx context.Context, term string) ([]macrotrack.FoodFact, error) {
	s.terms = append(s.terms, term)
	return s.facts, s.err
}

var riceFact = macrotrack.FoodFact{Name: "Rice, white, cooked", Macros: macrotrack.Macros{Calories: 130, Protein: 2.7, Fats: 0.3, Carbs: 28}}

func TestRecipeParse_Run(t *testing.T) {
	tool := NewRecipeParse(recipe.NewParser(recipe.DefaultTable()))

	out, err := tool.Run(context.Background(), map[string]any{"recipe": "2 dosas, 100g rice"})
	require.NoError(t, err)

	reqs, ok := out["requests"].([]any)
	require.True(t, ok)
	require.Len(t, reqs, 2)

	dosa := reqs[0].(map[string]any)
	assert.Equal(t, "dosa", dosa["name"])
	assert.Equal(t, 2.0, dosa["quantity"])
	assert.Equal(t, 240.0, dosa["macros"].(map[string]any)["calories"])
	assert.NotContains(t, dosa, "search_term")

	rice := reqs[1].(map[string]any)
	assert.Equal(t, "rice", rice["search_term"])
	assert.Equal(t, "g", rice["unit"])

	_, err = tool.Run(context.Background(), map[string]any{})
	assert.Error(t, err)

	out, err = tool.Run(context.Background(), map[string]any{"recipe": "a b"})
	require.NoError(t, err)
	assert.Equal(t, []any{}, out["requests"])
}

func TestFoodSearch_Run(t *testing.T) {
	t.Run("returns foods", func(t *testing.T) {
		searcher := &stubSearcher{facts: []macrotrack.FoodFact{riceFact}}
		tool := NewFoodSearch(searcher)

		out, err := tool.Run(context.Background(), map[string]any{"query": " rice "})
		require.NoError(t, err)
		foods := out["foods"].([]any)
		require.Len(t, foods, 1)
		assert.Equal(t, "Rice, white, cooked", foods[0].(map[string]any)["name"])
		assert.Equal(t, 130.0, foods[0].(map[string]any)["calories"])
		assert.Equal(t, []string{"rice"}, searcher.terms)
	})

	t.Run("no matches is an empty list", func(t *testing.T) {
		tool := NewFoodSearch(&stubSearcher{})
		out, err := tool.Run(context.Background(), map[string]any{"query": "unobtainium"})
		require.NoError(t, err)
		assert.Equal(t, []any{}, out["foods"])
	})

	t.Run("errors are wrapped", func(t *testing.T) {
		tool := NewFoodSearch(&stubSearcher{err: &lookup.ExhaustedError{Attempts: 3, Last: lookup.ErrThrottled}})
		_, err := tool.Run(context.Background(), map[string]any{"query": "rice"})
		assert.ErrorIs(t, err, lookup.ErrBusy)
	})

	t.Run("query required", func(t *testing.T) {
		tool := NewFoodSearch(&stubSearcher{})
		_, err := tool.Run(context.Background(), map[string]any{"query": 42})
		assert.Error(t, err)
	})
}

func TestRecipeResolve_Run(t *testing.T) {
	parser := recipe.NewParser(recipe.DefaultTable())

	t.Run("items and totals", func(t *testing.T) {
		tool := NewRecipeResolve(resolver.New(parser, &stubSearcher{facts: []macrotrack.FoodFact{riceFact}}))

		out, err := tool.Run(context.Background(), map[string]any{"recipe": "1 burger, 200g rice"})
		require.NoError(t, err)

		items := out["items"].([]any)
		require.Len(t, items, 2)
		rice := items[1].(map[string]any)
		assert.Equal(t, true, rice["resolved"])
		assert.InDelta(t, 260.0, rice["totals"].(map[string]any)["calories"], 1e-9)

		totals := out["totals"].(map[string]any)
		assert.InDelta(t, 610.0, totals["calories"], 1e-9)
	})

	t.Run("search failure", func(t *testing.T) {
		tool := NewRecipeResolve(resolver.New(parser, &stubSearcher{err: lookup.ErrNoStructuredData}))
		_, err := tool.Run(context.Background(), map[string]any{"recipe": "rice"})
		assert.ErrorIs(t, err, lookup.ErrNoStructuredData)
	})

	t.Run("recipe required", func(t *testing.T) {
		tool := NewRecipeResolve(resolver.New(parser, &stubSearcher{}))
		_, err := tool.Run(context.Background(), map[string]any{"recipe": "   "})
		assert.Error(t, err)
	})
}

func TestDailyTotals_Run(t *testing.T) {
	tr := tracker.New()
	tool := NewDailyTotals(tr)
	ctx := context.Background()

	out, err := tool.Run(ctx, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 2213.0, out["totals"].(map[string]any)["calorie_target"])
	assert.Equal(t, 0.0, out["progress"])

	out, err = tool.Run(ctx, map[string]any{
		"action": "add",
		"macros": map[string]any{"calories": 500.0, "protein": 20.0},
	})
	require.NoError(t, err)
	assert.Equal(t, 500.0, out["totals"].(map[string]any)["current_calories"])
	assert.Contains(t, out["summary"], "Calories: 500 / 2213 kcal")

	out, err = tool.Run(ctx, map[string]any{"action": "set_target", "calorie_target": 2000.0})
	require.NoError(t, err)
	assert.Equal(t, 150.0, out["totals"].(map[string]any)["protein"].(map[string]any)["target"])

	_, err = tool.Run(ctx, map[string]any{"action": "set_target", "calorie_target": -1.0})
	assert.ErrorIs(t, err, tracker.ErrInvalidTarget)

	_, err = tool.Run(ctx, map[string]any{"action": "set_target"})
	assert.Error(t, err)

	_, err = tool.Run(ctx, map[string]any{"action": "add"})
	assert.Error(t, err)

	out, err = tool.Run(ctx, map[string]any{"action": "reset"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, out["totals"].(map[string]any)["current_calories"])
	assert.Equal(t, 2000.0, out["totals"].(map[string]any)["calorie_target"])

	_, err = tool.Run(ctx, map[string]any{"action": "explode"})
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	parser := recipe.NewParser(recipe.DefaultTable())
	searcher := &stubSearcher{}
	registry, err := NewRegistry(parser, searcher, resolver.New(parser, searcher), tracker.New())
	require.NoError(t, err)

	names := make([]string, 0)
	for _, tool := range registry.GetTools() {
		names = append(names, tool.Name())
		assert.NotEmpty(t, tool.Title())
		assert.NotEmpty(t, tool.Description())
		require.NotNil(t, tool.InputSchema())
		require.NotNil(t, tool.OutputSchema())
		assert.Equal(t, "object", tool.InputSchema().Type)
		_, err := tool.InputSchema().Resolve(nil)
		assert.NoError(t, err, tool.Name())
		_, err = tool.OutputSchema().Resolve(nil)
		assert.NoError(t, err, tool.Name())
	}
	assert.Equal(t, []string{"daily_totals", "food_search", "recipe_parse", "recipe_resolve"}, names)

	tool, err := registry.GetTool("food_search")
	require.NoError(t, err)
	assert.Equal(t, "Search Foods", tool.Title())

	_, err = registry.GetTool("meal_plan")
	assert.Error(t, err)

	_, err = NewRegistry(parser, nil, resolver.New(parser, searcher), tracker.New())
	assert.Error(t, err)
}

func TestRegistry_Run(t *testing.T) {
	ctx := context.Background()
	parser := recipe.NewParser(recipe.DefaultTable())
	searcher := &stubSearcher{facts: []macrotrack.FoodFact{riceFact}}
	registry, err := NewRegistry(parser, searcher, resolver.New(parser, searcher), tracker.New())
	require.NoError(t, err)

	invalid := []struct {
		name  string
		tool  string
		input map[string]any
	}{
		{"missing required field", "recipe_parse", map[string]any{}},
		{"nil input missing required field", "recipe_resolve", nil},
		{"wrong type", "food_search", map[string]any{"query": 42.0}},
		{"target below minimum", "daily_totals", map[string]any{"action": "set_target", "calorie_target": 0.0}},
		{"negative macros", "daily_totals", map[string]any{"action": "add", "macros": map[string]any{"calories": -5.0}}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.Run(ctx, tt.tool, tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Empty(t, searcher.terms, "invalid input never reaches the tool")

	out, err := registry.Run(ctx, "food_search", map[string]any{"query": "rice"})
	require.NoError(t, err)
	assert.Len(t, out["foods"], 1)
	assert.Equal(t, []string{"rice"}, searcher.terms)

	out, err = registry.Run(ctx, "daily_totals", map[string]any{"action": "add", "macros": map[string]any{"calories": 120.0}})
	require.NoError(t, err)
	assert.Equal(t, 120.0, out["totals"].(map[string]any)["current_calories"])

	_, err = registry.Run(ctx, "meal_plan", map[string]any{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidInput)
}
