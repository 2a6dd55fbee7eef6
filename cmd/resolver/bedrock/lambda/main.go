package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"

	"macrotrack"
	"macrotrack/lookup/providers"
	"macrotrack/recipe"
	"macrotrack/recipe/storage"
	"macrotrack/resolver"
	"macrotrack/tools"
	"macrotrack/tracker"
)

// Params names the tool to run and its input, e.g. {"tool":"recipe_resolve","input":{"recipe":"2 dosas"}}.
type Params struct {
	Tool  string         `json:"tool"`
	Input map[string]any `json:"input"`
}

type Results struct {
	Output any `json:"output"`
}

type artifactsConfig struct {
	Bucket       string `env:"ARTIFACTS_S3_BUCKET"`
	FoodTableKey string `env:"ARTIFACTS_FOOD_TABLE_S3_KEY"`
}

func main() {
	ctx := context.Background()

	var lookupConfig macrotrack.LookupConfig
	if err := envdecode.Decode(&lookupConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}
	lookupConfig.Provider = providers.Bedrock

	var modelConfig macrotrack.ModelConfig
	if err := envdecode.Decode(&modelConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var trackerConfig macrotrack.TrackerConfig
	if err := envdecode.Decode(&trackerConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var artifacts artifactsConfig
	if err := envdecode.Decode(&artifacts); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	table, err := loadTable(ctx, artifacts)
	if err != nil {
		log.Fatalf("Failed to load food table: %s", err)
	}
	slog.Info("SETUP: Food table loaded", "foods", len(table))

	client, err := providers.NewClient(ctx, lookupConfig, modelConfig, macrotrack.NewStdoutLookupLogger())
	if err != nil {
		log.Fatalf("Failed to create lookup client: %s", err)
	}

	tracerProvider, meterProvider, otelShutdown, err := macrotrack.InitOtel(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %s", err)
	}

	parser := recipe.NewParser(table)
	searcher := resolver.NewCachingSearcher(client, trackerConfig.SearchCacheTTL)
	res := resolver.NewInstrumented(parser, searcher,
		tracerProvider.Tracer(macrotrack.TracerNameResolver),
		meterProvider.Meter(macrotrack.TracerNameResolver))

	// The tracker lives as long as the execution environment, so warm invocations share one day's totals.
	tr, err := tracker.NewWithTarget(trackerConfig.CalorieTarget)
	if err != nil {
		log.Fatalf("Invalid calorie target: %s", err)
	}

	registry, err := tools.NewRegistry(parser, searcher, res, tr)
	if err != nil {
		log.Fatalf("Failed to create tool registry: %s", err)
	}

	fn := func(ctx context.Context, params Params) (Results, error) {
		defer func() {
			// Flush between invocations; the environment may be frozen afterwards.
			if err := meterProvider.ForceFlush(ctx); err != nil {
				slog.Error("SETUP: Failed to flush metrics", "error", err)
			}
			if err := tracerProvider.ForceFlush(ctx); err != nil {
				slog.Error("SETUP: Failed to flush traces", "error", err)
			}
		}()

		slog.Info("TOOL: Running", "tool", params.Tool)
		output, err := registry.Run(ctx, params.Tool, params.Input)
		if err != nil {
			slog.Error("RESULT: Error running tool", "tool", params.Tool, "error", err)
			return Results{}, err
		}
		if trackerConfig.DebugDump {
			slog.Info("DEBUG: Tool output", "tool", params.Tool, "output", macrotrack.Sdump(output))
		}

		return Results{Output: output}, nil
	}

	lambda.StartWithOptions(fn, lambda.WithEnableSIGTERM(func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}))
}

func loadTable(ctx context.Context, cfg artifactsConfig) (recipe.FoodTable, error) {
	if cfg.Bucket == "" || cfg.FoodTableKey == "" {
		slog.Info("SETUP: No food table artifact configured; using built-in table")
		return recipe.DefaultTable(), nil
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	s3Client := s3.NewFromConfig(awsCfg)

	return recipe.LoadTable(ctx, storage.NewS3FoodTableState(s3Client, cfg.Bucket, cfg.FoodTableKey))
}
