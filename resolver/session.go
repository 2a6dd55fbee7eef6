package resolver

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"macrotrack"
)

const DefaultMinQueryLength = 3

var (
	// ErrStale is returned by a call that was superseded by a newer call of the same kind.
	ErrStale       = errors.New("result superseded by a newer request")
	ErrEmptyRecipe = errors.New("recipe text is empty")
)

const (
	flowRecipe = "recipe"
	flowSearch = "search"
)

// ItemResolver resolves recipe text into food items.
type ItemResolver interface {
	Resolve(ctx context.Context, text string) ([]macrotrack.FoodItem, error)
}

type flow struct {
	gen    uint64
	cancel context.CancelFunc
}

// Session serializes what a single user sees. A new recipe or search call
// cancels the previous call of the same kind, and results of superseded calls
// are reported as ErrStale instead of being returned.
type Session struct {
	resolver       ItemResolver
	searcher       macrotrack.Searcher
	minQueryLength int

	mu    sync.Mutex
	flows map[string]*flow
}

type SessionOpts struct {
	Resolver       ItemResolver
	Searcher       macrotrack.Searcher
	MinQueryLength int
}

func NewSession(opts SessionOpts) *Session {
	minLen := opts.MinQueryLength
	if minLen <= 0 {
		minLen = DefaultMinQueryLength
	}
	return &Session{
		resolver:       opts.Resolver,
		searcher:       opts.Searcher,
		minQueryLength: minLen,
		flows: map[string]*flow{
			flowRecipe: {},
			flowSearch: {},
		},
	}
}

// ResolveRecipe resolves text, superseding any in-flight recipe call.
func (s *Session) ResolveRecipe(ctx context.Context, text string) ([]macrotrack.FoodItem, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyRecipe
	}

	ctx, gen, cancel := s.begin(ctx, flowRecipe)
	defer cancel()

	items, err := s.resolver.Resolve(ctx, text)
	if !s.finish(flowRecipe, gen) {
		slog.Info("SESSION: Dropping stale recipe result", "generation", gen)
		return nil, ErrStale
	}
	return items, err
}

// SearchFoods looks up a single term, superseding any in-flight search.
// Terms shorter than the minimum query length return no results without a lookup.
func (s *Session) SearchFoods(ctx context.Context, term string) ([]macrotrack.FoodFact, error) {
	term = strings.TrimSpace(term)

	ctx, gen, cancel := s.begin(ctx, flowSearch)
	defer cancel()

	if len([]rune(term)) < s.minQueryLength {
		s.finish(flowSearch, gen)
		return []macrotrack.FoodFact{}, nil
	}

	facts, err := s.searcher.Search(ctx, term)
	if !s.finish(flowSearch, gen) {
		slog.Info("SESSION: Dropping stale search result", "term", term, "generation", gen)
		return nil, ErrStale
	}
	return facts, err
}

func (s *Session) begin(parent context.Context, name string) (context.Context, uint64, context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.flows[name]
	if f.cancel != nil {
		f.cancel()
	}
	f.gen++
	ctx, cancel := context.WithCancel(parent)
	f.cancel = cancel
	return ctx, f.gen, cancel
}

// finish reports whether gen is still the latest call of the flow.
func (s *Session) finish(name string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.flows[name]
	if f.gen != gen {
		return false
	}
	f.cancel = nil
	return true
}
