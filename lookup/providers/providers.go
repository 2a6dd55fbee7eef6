// Package providers builds a lookup client for the configured text-generation backend.
package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"macrotrack"
	"macrotrack/lookup"
	"macrotrack/lookup/bedrock"
	"macrotrack/lookup/gemini"
	"macrotrack/lookup/mock"
)

const (
	Gemini  = "gemini"
	Bedrock = "bedrock"
	Mock    = "mock"
)

// NewGenerator returns the Generator named by cfg.Provider.
func NewGenerator(ctx context.Context, cfg macrotrack.LookupConfig, model macrotrack.ModelConfig, httpClient macrotrack.HTTPClient) (lookup.Generator, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	slog.Info("SETUP: Creating lookup generator", "provider", provider)

	switch provider {
	case Gemini, "":
		gen, err := gemini.NewGenerator(gemini.GeneratorOpts{
			BaseEndpoint: cfg.BaseEndpoint,
			ModelID:      cfg.ModelID,
			APIKey:       cfg.APIKey,
			HTTPClient:   httpClient,
			Model:        model,
		})
		if err != nil {
			return nil, err
		}
		return gen, nil

	case Bedrock:
		// Retries belong to the lookup policy, not the SDK.
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(1))
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		return bedrock.NewGenerator(bedrockruntime.NewFromConfig(awsCfg), bedrock.LLMOptions{
			ModelID:     cfg.BedrockModelID,
			MaxTokens:   model.MaxTokens,
			Temperature: model.Temperature,
			TopP:        model.TopP,
		}), nil

	case Mock:
		return mock.NewGenerator(), nil

	default:
		return nil, fmt.Errorf("unknown lookup provider %q", cfg.Provider)
	}
}

// Policy converts config into a retry policy.
func Policy(cfg macrotrack.LookupConfig) lookup.Policy {
	p := lookup.DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.BaseDelay > 0 {
		p.BaseDelay = cfg.BaseDelay
	}
	return p
}

// NewClient wires the configured generator into a lookup client.
func NewClient(ctx context.Context, cfg macrotrack.LookupConfig, model macrotrack.ModelConfig, logger macrotrack.LookupLogger) (*lookup.Client, error) {
	gen, err := NewGenerator(ctx, cfg, model, &http.Client{Timeout: cfg.RequestTimeout})
	if err != nil {
		return nil, err
	}
	return lookup.NewClient(lookup.ClientOpts{
		Generator:      gen,
		Policy:         Policy(cfg),
		PreflightDelay: cfg.PreflightDelay,
		MaxResults:     cfg.MaxResults,
		Logger:         logger,
	})
}
