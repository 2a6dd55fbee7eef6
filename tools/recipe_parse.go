package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"macrotrack"
)

// Parser turns recipe text into food requests.
type Parser interface {
	Parse(input string) []macrotrack.FoodRequest
}

type RecipeParse struct{ parser Parser }

func NewRecipeParse(parser Parser) *RecipeParse { return &RecipeParse{parser: parser} }

func (t *RecipeParse) Name() string  { return "recipe_parse" }
func (t *RecipeParse) Title() string { return "Parse Recipe" }
func (t *RecipeParse) Description() string {
	return "Splits free-text recipe into food requests. Built-in foods carry nutrition; others carry a search_term to look up."
}

func (t *RecipeParse) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"recipe": {Type: "string", Description: "e.g. 2 dosas, 1 burger, 100g rice"},
		},
		Required: []string{"recipe"},
	}
}

func (t *RecipeParse) OutputSchema() *jsonschema.Schema {
	minQty := 0.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"requests": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"name":        {Type: "string"},
						"quantity":    {Type: "number", Minimum: &minQty},
						"unit":        {Type: "string"},
						"search_term": {Type: "string"},
						"macros":      macrosSchema(),
					},
					Required: []string{"name", "quantity", "unit", "macros"},
				},
			},
		},
		Required: []string{"requests"},
	}
}

func (t *RecipeParse) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	text := stringInput(input, "recipe")
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("recipe_parse: recipe is required")
	}
	return toMap(struct {
		Requests []macrotrack.FoodRequest `json:"requests"`
	}{t.parser.Parse(text)})
}
