package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"macrotrack"
	"macrotrack/httpapi"
	"macrotrack/lookup/providers"
	"macrotrack/recipe"
	"macrotrack/recipe/storage"
	"macrotrack/resolver"
	"macrotrack/slack"
	"macrotrack/tracker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("SETUP: Failed to load .env", "error", err)
	}

	var serverConfig macrotrack.ServerConfig
	if err := envdecode.Decode(&serverConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var lookupConfig macrotrack.LookupConfig
	if err := envdecode.Decode(&lookupConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var modelConfig macrotrack.ModelConfig
	if err := envdecode.Decode(&modelConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var trackerConfig macrotrack.TrackerConfig
	if err := envdecode.Decode(&trackerConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	table := recipe.DefaultTable()
	if trackerConfig.FoodTablePath != "" {
		loaded, err := recipe.LoadTable(ctx, storage.NewFileFoodTableState(trackerConfig.FoodTablePath))
		if err != nil {
			log.Fatalf("Failed to load food table: %s", err)
		}
		table = loaded
	}
	slog.Info("SETUP: Food table loaded", "foods", len(table))

	client, err := providers.NewClient(ctx, lookupConfig, modelConfig, macrotrack.NewStdoutLookupLogger())
	if err != nil {
		log.Fatalf("Failed to create lookup client: %s", err)
	}
	slog.Info("SETUP: Lookup client ready", "provider", lookupConfig.Provider, "model", lookupConfig.ModelID)

	tracerProvider, meterProvider, otelShutdown, err := macrotrack.InitOtel(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %s", err)
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	parser := recipe.NewParser(table)
	searcher := resolver.NewCachingSearcher(client, trackerConfig.SearchCacheTTL)
	session := resolver.NewSession(resolver.SessionOpts{
		Resolver: resolver.NewInstrumented(parser, searcher,
			tracerProvider.Tracer(macrotrack.TracerNameResolver),
			meterProvider.Meter(macrotrack.TracerNameResolver)),
		Searcher:       searcher,
		MinQueryLength: trackerConfig.MinQueryLength,
	})

	tr, err := tracker.NewWithTarget(trackerConfig.CalorieTarget)
	if err != nil {
		log.Fatalf("Invalid calorie target: %s", err)
	}

	var notifier httpapi.Notifier
	if trackerConfig.SlackWebhook != "" {
		notifier = slack.NewSummaryNotifier(slack.NewClient(trackerConfig.SlackWebhook, http.DefaultClient), trackerConfig.SlackChannel)
	}

	gin.SetMode(serverConfig.GinMode)
	srv := &http.Server{
		Addr: serverConfig.ListenAddr,
		Handler: httpapi.NewServer(httpapi.ServerOpts{
			Session:  session,
			Parser:   parser,
			Tracker:  tr,
			Notifier: notifier,
		}).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("SERVER: Listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("SERVER: Stopped unexpectedly", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("SERVER: Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("SERVER: Graceful shutdown failed", "error", err)
	}
}
