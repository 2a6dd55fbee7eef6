package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"macrotrack"
)

// Parser turns free text into food requests.
type Parser interface {
	Parse(input string) []macrotrack.FoodRequest
}

// searchFunc looks up one unresolved request. i is the request's parse position.
type searchFunc func(ctx context.Context, i int, req macrotrack.FoodRequest) ([]macrotrack.FoodFact, error)

// Resolver parses a recipe and looks up every food the table does not know.
type Resolver struct {
	parser   Parser
	searcher macrotrack.Searcher
}

func New(parser Parser, searcher macrotrack.Searcher) *Resolver {
	return &Resolver{
		parser:   parser,
		searcher: searcher,
	}
}

// Resolve returns one item per parsed request, in parse order. Unresolved
// requests are searched concurrently and the first hit wins; a search with
// no hits yields an unresolved item. Any search failure fails the whole call.
func (r *Resolver) Resolve(ctx context.Context, text string) ([]macrotrack.FoodItem, error) {
	reqs := r.parser.Parse(text)
	slog.Info("RESOLVER: Parsed recipe", "requests", len(reqs))

	return resolve(ctx, reqs, func(ctx context.Context, _ int, req macrotrack.FoodRequest) ([]macrotrack.FoodFact, error) {
		return r.searcher.Search(ctx, req.SearchTerm)
	})
}

func resolve(ctx context.Context, reqs []macrotrack.FoodRequest, search searchFunc) ([]macrotrack.FoodItem, error) {
	items := make([]macrotrack.FoodItem, len(reqs))
	errs := make([]error, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		if req.Resolved() {
			items[i] = Merge(req, []macrotrack.FoodFact{*req.Fact})
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			facts, err := search(ctx, i, req)
			if err != nil {
				errs[i] = fmt.Errorf("search %q: %w", req.SearchTerm, err)
				return
			}
			items[i] = Merge(req, facts)
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		slog.Warn("RESOLVER: Resolution failed", "error", err)
		return nil, err
	}
	return items, nil
}

// Merge combines a request with its candidate facts. The first candidate wins.
func Merge(req macrotrack.FoodRequest, facts []macrotrack.FoodFact) macrotrack.FoodItem {
	item := macrotrack.FoodItem{
		Name:       req.Name,
		Quantity:   req.Quantity,
		Unit:       req.Unit,
		SearchTerm: req.SearchTerm,
	}
	if len(facts) == 0 {
		return item
	}
	item.Fact = facts[0]
	item.Resolved = true
	return item
}

// Total sums the totals of every resolved item.
func Total(items []macrotrack.FoodItem) macrotrack.Macros {
	var total macrotrack.Macros
	for _, it := range items {
		total = total.Add(it.Totals())
	}
	return total
}
