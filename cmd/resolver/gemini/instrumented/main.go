package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"macrotrack"
	"macrotrack/lookup/providers"
	"macrotrack/recipe"
	"macrotrack/recipe/storage"
	"macrotrack/resolver"
	"macrotrack/slack"
	"macrotrack/tracker"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("SETUP: Failed to load .env", "error", err)
	}

	var lookupConfig macrotrack.LookupConfig
	if err := envdecode.Decode(&lookupConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}
	lookupConfig.Provider = providers.Gemini

	var modelConfig macrotrack.ModelConfig
	if err := envdecode.Decode(&modelConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var trackerConfig macrotrack.TrackerConfig
	if err := envdecode.Decode(&trackerConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	table, err := loadTable(ctx, trackerConfig.FoodTablePath)
	if err != nil {
		slog.Error("SETUP: Failed to load food table", "error", err)
		return
	}
	slog.Info("SETUP: Food table loaded", "foods", len(table))

	text := argOr(1, "2 dosas, 1 burger, 100g rice, an apple")

	logger, cleanup, err := newLookupLogger(lookupConfig.ModelID)
	if err != nil {
		slog.Error("Failed to create lookup logger", "error", err)
		return
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("Failed to flush lookup log", "error", err)
		}
	}()

	client, err := providers.NewClient(ctx, lookupConfig, modelConfig, logger)
	if err != nil {
		slog.Error("SETUP: Failed to create lookup client", "error", err)
		return
	}

	tracerProvider, meterProvider, otelShutdown, err := macrotrack.InitOtel(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
		return
	}
	defer func() {
		if err := otelShutdown(ctx); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	tracer := tracerProvider.Tracer(macrotrack.TracerNameResolver)
	ctx, span := tracer.Start(ctx, macrotrack.TracerNameResolver, trace.WithAttributes(
		attribute.String("model.id", lookupConfig.ModelID),
		attribute.Int("lookup.max_attempts", lookupConfig.MaxAttempts),
		attribute.Int("lookup.max_results", lookupConfig.MaxResults),
	))
	defer span.End()

	res := resolver.NewInstrumented(
		recipe.NewParser(table),
		resolver.NewCachingSearcher(client, trackerConfig.SearchCacheTTL),
		tracer,
		meterProvider.Meter(macrotrack.TracerNameResolver))

	items, err := res.Resolve(ctx, text)
	if err != nil {
		slog.Error("RESULT: Error resolving recipe", "error", err)
		return
	}

	for _, it := range items {
		totals := it.Totals()
		slog.Info("RESULT: Item",
			"name", it.Name,
			"quantity", it.Quantity,
			"unit", it.Unit,
			"resolved", it.Resolved,
			"match", it.Fact.Name,
			"calories", totals.Calories,
		)
	}
	if trackerConfig.DebugDump {
		macrotrack.Dump(items)
	}

	tr, err := tracker.NewWithTarget(trackerConfig.CalorieTarget)
	if err != nil {
		slog.Error("SETUP: Invalid calorie target", "error", err)
		return
	}
	tr.Commit(items...)
	summary := tr.Summary()
	fmt.Println(summary)

	webhook := trackerConfig.SlackWebhook
	if webhook == "" {
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body := new(bytes.Buffer)
			body.ReadFrom(r.Body) // nolint: errcheck
			slog.Info("FINAL: Received request",
				"method", r.Method,
				"path", r.URL.Path,
				"body", body.String(),
			)
			w.WriteHeader(http.StatusOK)
		}))
		defer testServer.Close()
		webhook = testServer.URL
	}

	notifier := slack.NewSummaryNotifier(slack.NewClient(webhook, http.DefaultClient), trackerConfig.SlackChannel)
	if err := notifier.NotifySummary(ctx, summary); err != nil {
		slog.Error("Failed to post summary to Slack", "error", err)
	}
}

func loadTable(ctx context.Context, path string) (recipe.FoodTable, error) {
	if path == "" {
		return recipe.DefaultTable(), nil
	}
	return recipe.LoadTable(ctx, storage.NewFileFoodTableState(path))
}

func argOr(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}

func newLookupLogger(modelID string) (macrotrack.LookupLogger, func() error, error) {
	logFilePath := macrotrack.NewLookupLogFilePath(modelID)
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0o755); err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to create log dir: %w", err)
	}
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := macrotrack.NewFileLookupLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}
