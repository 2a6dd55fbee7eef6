package tools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

type Tool interface {
	Name() string
	Title() string
	Description() string
	InputSchema() *jsonschema.Schema
	OutputSchema() *jsonschema.Schema
	Run(ctx context.Context, input map[string]any) (output map[string]any, err error)
}

// toMap marshals v and decodes it back into a generic map to keep outputs uniform.
func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func stringInput(input map[string]any, key string) string {
	s, _ := input[key].(string)
	return s
}

func macrosSchema() *jsonschema.Schema {
	minZero := 0.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"calories": {Type: "number", Minimum: &minZero},
			"protein":  {Type: "number", Minimum: &minZero},
			"fats":     {Type: "number", Minimum: &minZero},
			"carbs":    {Type: "number", Minimum: &minZero},
		},
	}
}
