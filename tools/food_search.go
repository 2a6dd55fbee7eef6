package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"macrotrack"
)

type FoodSearch struct{ searcher macrotrack.Searcher }

func NewFoodSearch(searcher macrotrack.Searcher) *FoodSearch { return &FoodSearch{searcher: searcher} }

func (t *FoodSearch) Name() string  { return "food_search" }
func (t *FoodSearch) Title() string { return "Search Foods" }
func (t *FoodSearch) Description() string {
	return "Looks up nutrition facts (per 100 g) for a food name. Returns the best matches first."
}

func (t *FoodSearch) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {Type: "string"},
		},
		Required: []string{"query"},
	}
}

func (t *FoodSearch) OutputSchema() *jsonschema.Schema {
	fact := macrosSchema()
	fact.Properties["name"] = &jsonschema.Schema{Type: "string"}
	fact.Required = []string{"name"}
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"foods": {Type: "array", Items: fact},
		},
		Required: []string{"foods"},
	}
}

func (t *FoodSearch) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	query := strings.TrimSpace(stringInput(input, "query"))
	if query == "" {
		return nil, fmt.Errorf("food_search: query is required")
	}

	facts, err := t.searcher.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("food_search: %w", err)
	}
	if facts == nil {
		facts = []macrotrack.FoodFact{}
	}
	return toMap(struct {
		Foods []macrotrack.FoodFact `json:"foods"`
	}{facts})
}
