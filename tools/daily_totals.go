package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"macrotrack"
	"macrotrack/tracker"
)

type DailyTotals struct{ tracker *tracker.Tracker }

func NewDailyTotals(t *tracker.Tracker) *DailyTotals { return &DailyTotals{tracker: t} }

func (t *DailyTotals) Name() string  { return "daily_totals" }
func (t *DailyTotals) Title() string { return "Daily Totals" }
func (t *DailyTotals) Description() string {
	return "Reads or updates today's intake. action is one of get (default), add, set_target, reset."
}

func (t *DailyTotals) InputSchema() *jsonschema.Schema {
	minTarget := 1.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"action":         {Type: "string", Description: "get, add, set_target or reset"},
			"macros":         macrosSchema(),
			"calorie_target": {Type: "number", Minimum: &minTarget},
		},
	}
}

func (t *DailyTotals) OutputSchema() *jsonschema.Schema {
	progress := func() *jsonschema.Schema {
		return &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"current": {Type: "number"},
				"target":  {Type: "number"},
			},
			Required: []string{"current", "target"},
		}
	}
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"totals": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"calorie_target":   {Type: "number"},
					"current_calories": {Type: "number"},
					"protein":          progress(),
					"fats":             progress(),
					"carbs":            progress(),
				},
			},
			"progress": {Type: "number"},
			"summary":  {Type: "string"},
		},
		Required: []string{"totals", "progress", "summary"},
	}
}

func (t *DailyTotals) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	action := stringInput(input, "action")
	switch action {
	case "", "get":
	case "add":
		m, err := decodeMacros(input["macros"])
		if err != nil {
			return nil, fmt.Errorf("daily_totals: %w", err)
		}
		t.tracker.AddFood(m)
	case "set_target":
		target, ok := input["calorie_target"].(float64)
		if !ok {
			return nil, fmt.Errorf("daily_totals: calorie_target is required for set_target")
		}
		if err := t.tracker.UpdateTarget(target); err != nil {
			return nil, fmt.Errorf("daily_totals: %w", err)
		}
	case "reset":
		t.tracker.Reset()
	default:
		return nil, fmt.Errorf("daily_totals: unknown action %q", action)
	}

	return toMap(struct {
		Totals   macrotrack.DailyTotals `json:"totals"`
		Progress float64                `json:"progress"`
		Summary  string                 `json:"summary"`
	}{t.tracker.Snapshot(), t.tracker.Progress(), t.tracker.Summary()})
}

func decodeMacros(v any) (macrotrack.Macros, error) {
	if v == nil {
		return macrotrack.Macros{}, fmt.Errorf("macros are required for add")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return macrotrack.Macros{}, err
	}
	var m macrotrack.Macros
	if err := json.Unmarshal(b, &m); err != nil {
		return macrotrack.Macros{}, fmt.Errorf("invalid macros: %w", err)
	}
	return m, nil
}
