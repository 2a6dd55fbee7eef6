package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"macrotrack"
)

const defaultPreflightDelay = time.Second

// Generator sends a single prompt to a text-generation model and returns its raw text.
// Implementations report throttling as ErrThrottled and network failures as ErrTransport.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client resolves food terms into nutrition facts through a Generator.
type Client struct {
	gen        Generator
	policy     Policy
	preflight  time.Duration
	maxResults int
	sleep      SleepFunc
	logger     macrotrack.LookupLogger
	now        func() time.Time
}

type ClientOpts struct {
	Generator Generator
	Policy    Policy
	// PreflightDelay spaces out back-to-back searches; negative disables it.
	PreflightDelay time.Duration
	MaxResults     int
	Sleep          SleepFunc
	Logger         macrotrack.LookupLogger
}

func NewClient(opts ClientOpts) (*Client, error) {
	if opts.Generator == nil {
		return nil, fmt.Errorf("lookup: generator is required")
	}

	policy := opts.Policy
	if policy.MaxAttempts == 0 {
		policy = DefaultPolicy()
	}
	preflight := opts.PreflightDelay
	if preflight == 0 {
		preflight = defaultPreflightDelay
	}
	if preflight < 0 {
		preflight = 0
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	logger := opts.Logger
	if logger == nil {
		logger = macrotrack.NewNoOpLookupLogger()
	}

	return &Client{
		gen:        opts.Generator,
		policy:     policy,
		preflight:  preflight,
		maxResults: maxResults,
		sleep:      sleep,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Search asks the model for up to MaxResults facts matching term.
// Throttling and transport failures are retried per the policy; exhaustion
// returns ErrBusy. Structural and other upstream errors are not retried.
func (c *Client) Search(ctx context.Context, term string) ([]macrotrack.FoodFact, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrEmptyTerm
	}

	ctx, span := otel.Tracer(macrotrack.TracerNameLookup).Start(ctx, "Client.Search",
		trace.WithAttributes(attribute.String("lookup.term", term)))
	defer span.End()

	searchLog := macrotrack.SearchLog{
		RequestID: uuid.NewString(),
		Term:      term,
		Timestamp: c.now(),
	}

	slog.Info("LOOKUP_CLIENT: Searching", "term", term, "request_id", searchLog.RequestID)

	facts, err := c.search(ctx, term, &searchLog)
	if err != nil {
		searchLog.Error = err.Error()
		span.SetStatus(codes.Error, "search failed")
		span.RecordError(err)
		slog.Warn("LOOKUP_CLIENT: Search failed", "term", term, "request_id", searchLog.RequestID, "attempts", len(searchLog.Attempts), "error", err)
	} else {
		searchLog.Results = len(facts)
		span.SetAttributes(attribute.Int("lookup.results", len(facts)))
		slog.Info("LOOKUP_CLIENT: Search complete", "term", term, "request_id", searchLog.RequestID, "results", len(facts))
	}
	c.logSearch(searchLog)

	return facts, err
}

func (c *Client) search(ctx context.Context, term string, searchLog *macrotrack.SearchLog) ([]macrotrack.FoodFact, error) {
	if err := c.sleep(ctx, c.preflight); err != nil {
		return nil, err
	}

	prompt := NewPrompt(term, c.maxResults)
	attempts := c.policy.attempts()

	text, err := Retry(ctx, c.policy, c.sleep, func(ctx context.Context, attempt int) (string, error) {
		start := c.now()
		text, err := c.gen.Generate(ctx, prompt)

		entry := macrotrack.AttemptLog{Attempt: attempt + 1, Duration: c.now().Sub(start)}
		if err != nil {
			entry.Error = err.Error()
			entry.Retrying = c.policy.retryable(err) && attempt < attempts-1
		}
		searchLog.Attempts = append(searchLog.Attempts, entry)

		trace.SpanFromContext(ctx).AddEvent("attempt", trace.WithAttributes(
			attribute.Int("attempt", attempt+1),
			attribute.Bool("failed", err != nil),
			attribute.Bool("retrying", entry.Retrying),
		))
		if entry.Retrying {
			slog.Info("LOOKUP_CLIENT: Transient failure; backing off", "attempt", attempt+1, "error", err)
		}
		return text, err
	})
	if err != nil {
		return nil, err
	}

	facts, err := ExtractFacts(text)
	if err != nil {
		return nil, err
	}
	if len(facts) > c.maxResults {
		facts = facts[:c.maxResults]
	}
	return facts, nil
}

func (c *Client) logSearch(s macrotrack.SearchLog) {
	if err := c.logger.LogSearch(s); err != nil {
		slog.Error("Failed to log lookup search", "error", err, "request_id", s.RequestID)
	}
}
