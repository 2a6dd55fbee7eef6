package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"macrotrack"
	"macrotrack/resolver"
	"macrotrack/tracker"
)

// ErrInvalidInput is returned when a tool input does not match the tool's input schema.
var ErrInvalidInput = errors.New("invalid tool input")

// Registry maps tool names to implementations
type Registry map[string]Tool

// NewRegistry creates a registry with the parse, search, resolve and totals tools.
func NewRegistry(parser Parser, searcher macrotrack.Searcher, r resolver.ItemResolver, t *tracker.Tracker) (*Registry, error) {
	if parser == nil || searcher == nil || r == nil || t == nil {
		return nil, fmt.Errorf("tools: parser, searcher, resolver and tracker are required")
	}

	tools := map[string]Tool{}
	for _, tool := range []Tool{
		NewRecipeParse(parser),
		NewFoodSearch(searcher),
		NewRecipeResolve(r),
		NewDailyTotals(t),
	} {
		tools[tool.Name()] = tool
	}

	registry := Registry(tools)
	return &registry, nil
}

// GetTools returns all tools in the registry sorted by name
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r Registry) GetTool(name string) (Tool, error) {
	tool, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return tool, nil
}

// Run validates input against the tool's input schema and runs the tool.
func (r Registry) Run(ctx context.Context, name string, input map[string]any) (map[string]any, error) {
	tool, err := r.GetTool(name)
	if err != nil {
		return nil, err
	}
	if input == nil {
		input = map[string]any{}
	}

	resolved, err := tool.InputSchema().Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("%s: resolve input schema: %w", name, err)
	}
	if err := resolved.Validate(input); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidInput, name, err)
	}

	return tool.Run(ctx, input)
}
