package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"macrotrack"
	"macrotrack/resolver"
)

type RecipeResolve struct{ resolver resolver.ItemResolver }

func NewRecipeResolve(r resolver.ItemResolver) *RecipeResolve { return &RecipeResolve{resolver: r} }

func (t *RecipeResolve) Name() string  { return "recipe_resolve" }
func (t *RecipeResolve) Title() string { return "Resolve Recipe" }
func (t *RecipeResolve) Description() string {
	return "Parses a recipe, looks up every unknown food, and returns items with their scaled totals."
}

func (t *RecipeResolve) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"recipe": {Type: "string"},
		},
		Required: []string{"recipe"},
	}
}

func (t *RecipeResolve) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"items": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"name":     {Type: "string"},
						"quantity": {Type: "number"},
						"unit":     {Type: "string"},
						"resolved": {Type: "boolean"},
						"totals":   macrosSchema(),
					},
					Required: []string{"name", "quantity", "unit", "resolved", "totals"},
				},
			},
			"totals": macrosSchema(),
		},
		Required: []string{"items", "totals"},
	}
}

type resolvedItem struct {
	macrotrack.FoodItem
	Totals macrotrack.Macros `json:"totals"`
}

func (t *RecipeResolve) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	text := stringInput(input, "recipe")
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("recipe_resolve: recipe is required")
	}

	items, err := t.resolver.Resolve(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("recipe_resolve: %w", err)
	}

	out := struct {
		Items  []resolvedItem    `json:"items"`
		Totals macrotrack.Macros `json:"totals"`
	}{
		Items:  make([]resolvedItem, 0, len(items)),
		Totals: resolver.Total(items),
	}
	for _, it := range items {
		out.Items = append(out.Items, resolvedItem{FoodItem: it, Totals: it.Totals()})
	}
	return toMap(out)
}
