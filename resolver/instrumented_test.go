package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"macrotrack"
	"macrotrack/lookup"
	"macrotrack/recipe"
)

type telemetry struct {
	reader *sdkmetric.ManualReader
	spans  *tracetest.SpanRecorder
	tp     *sdktrace.TracerProvider
	mp     *sdkmetric.MeterProvider
}

func newTelemetry() *telemetry {
	reader := sdkmetric.NewManualReader()
	spans := tracetest.NewSpanRecorder()
	return &telemetry{
		reader: reader,
		spans:  spans,
		tp:     sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)),
		mp:     sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}
}

// counter returns the summed value of an int64 counter, or -1 when it was never recorded.
func (tel *telemetry) counter(t *testing.T, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, tel.reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return -1
}

func (tel *telemetry) spanNames() []string {
	ended := tel.spans.Ended()
	names := make([]string, 0, len(ended))
	for _, s := range ended {
		names = append(names, s.Name())
	}
	return names
}

func TestInstrumentedResolver_Resolve(t *testing.T) {
	parser := recipe.NewParser(recipe.DefaultTable())

	t.Run("success", func(t *testing.T) {
		tel := newTelemetry()
		searcher := &mapSearcher{results: map[string][]macrotrack.FoodFact{"rice": {riceFact}}}
		r := NewInstrumented(parser, searcher, tel.tp.Tracer("test"), tel.mp.Meter("test"))

		items, err := r.Resolve(context.Background(), "2 dosas, 100g rice, 50g unobtainium")
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.True(t, items[1].Resolved)
		assert.False(t, items[2].Resolved)

		assert.Equal(t, int64(1), tel.counter(t, "resolver_runs_total"))
		assert.Equal(t, int64(2), tel.counter(t, "resolver_searches_total"))
		assert.Equal(t, int64(1), tel.counter(t, "resolver_unresolved_items_total"))
		assert.LessOrEqual(t, tel.counter(t, "resolver_runs_failed_total"), int64(0))

		names := tel.spanNames()
		assert.Contains(t, names, "InstrumentedResolver.Resolve")
		assert.Contains(t, names, "InstrumentedResolver.Search")
	})

	t.Run("failure", func(t *testing.T) {
		tel := newTelemetry()
		searcher := &mapSearcher{errs: map[string]error{"rice": lookup.ErrMalformedResponse}}
		r := NewInstrumented(parser, searcher, tel.tp.Tracer("test"), tel.mp.Meter("test"))

		items, err := r.Resolve(context.Background(), "100g rice")
		assert.Nil(t, items)
		assert.ErrorIs(t, err, lookup.ErrMalformedResponse)

		assert.Equal(t, int64(1), tel.counter(t, "resolver_runs_failed_total"))
		assert.Equal(t, int64(1), tel.counter(t, "resolver_searches_failed_total"))
	})

	t.Run("same items as the plain resolver", func(t *testing.T) {
		tel := newTelemetry()
		searcher := &mapSearcher{results: map[string][]macrotrack.FoodFact{"rice": {riceFact}, "paneer": {paneerFact}}}
		plain := New(parser, searcher)
		instrumented := NewInstrumented(parser, searcher, tel.tp.Tracer("test"), tel.mp.Meter("test"))

		input := "1 burger, 100g rice, 2 biscuits, 200g paneer"
		want, err := plain.Resolve(context.Background(), input)
		require.NoError(t, err)
		got, err := instrumented.Resolve(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}
