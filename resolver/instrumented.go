package resolver

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"macrotrack"
)

// InstrumentedResolver is a Resolver that records spans and metrics for every run and search.
type InstrumentedResolver struct {
	parser   Parser
	searcher macrotrack.Searcher
	tracer   trace.Tracer
	meter    metric.Meter
}

func NewInstrumented(parser Parser, searcher macrotrack.Searcher, tracer trace.Tracer, meter metric.Meter) *InstrumentedResolver {
	return &InstrumentedResolver{
		parser:   parser,
		searcher: searcher,
		tracer:   tracer,
		meter:    meter,
	}
}

func (r *InstrumentedResolver) Resolve(ctx context.Context, text string) ([]macrotrack.FoodItem, error) {
	ctx, span := r.tracer.Start(ctx, "InstrumentedResolver.Resolve")
	defer span.End()

	runsCounter, _ := r.meter.Int64Counter("resolver_runs_total",
		metric.WithDescription("Total number of recipe resolutions started"))
	runsFailedCounter, _ := r.meter.Int64Counter("resolver_runs_failed_total",
		metric.WithDescription("Total number of recipe resolutions that failed"))
	searchesCounter, _ := r.meter.Int64Counter("resolver_searches_total",
		metric.WithDescription("Total number of food searches issued"))
	searchesFailedCounter, _ := r.meter.Int64Counter("resolver_searches_failed_total",
		metric.WithDescription("Total number of food searches that failed"))
	unresolvedCounter, _ := r.meter.Int64Counter("resolver_unresolved_items_total",
		metric.WithDescription("Total number of items left without nutrition facts"))

	requestsGauge, _ := r.meter.Int64Gauge("resolver_requests_parsed",
		metric.WithDescription("Number of food requests parsed from the latest recipe"))

	resolveDurationHist, _ := r.meter.Float64Histogram("resolver_duration_seconds",
		metric.WithDescription("Duration of a full recipe resolution in seconds"))
	searchDurationHist, _ := r.meter.Float64Histogram("resolver_search_duration_seconds",
		metric.WithDescription("Duration of individual food searches in seconds"))

	runsCounter.Add(ctx, 1)
	start := time.Now()

	reqs := r.parser.Parse(text)
	requestsGauge.Record(ctx, int64(len(reqs)))
	span.SetAttributes(attribute.Int("resolver.requests", len(reqs)))
	slog.Info("RESOLVER: Parsed recipe", "requests", len(reqs))

	items, err := resolve(ctx, reqs, func(ctx context.Context, i int, req macrotrack.FoodRequest) ([]macrotrack.FoodFact, error) {
		ctx, span := r.tracer.Start(ctx, "InstrumentedResolver.Search", trace.WithAttributes(
			attribute.String("search.term", req.SearchTerm),
			attribute.Int("search.position", i),
		))
		defer span.End()

		searchesCounter.Add(ctx, 1)
		searchStart := time.Now()
		facts, err := r.searcher.Search(ctx, req.SearchTerm)
		searchDurationHist.Record(ctx, time.Since(searchStart).Seconds())

		if err != nil {
			searchesFailedCounter.Add(ctx, 1)
			span.SetStatus(codes.Error, "search failed")
			span.RecordError(err)
			return nil, err
		}
		span.SetAttributes(attribute.Int("search.results", len(facts)))
		return facts, nil
	})
	resolveDurationHist.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		runsFailedCounter.Add(ctx, 1)
		span.SetStatus(codes.Error, "resolution failed")
		span.RecordError(err)
		return nil, err
	}

	var unresolved int64
	for _, it := range items {
		if !it.Resolved {
			unresolved++
		}
	}
	if unresolved > 0 {
		unresolvedCounter.Add(ctx, unresolved)
	}
	span.SetAttributes(attribute.Int64("resolver.unresolved", unresolved))

	return items, nil
}
