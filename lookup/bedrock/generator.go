package bedrock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"macrotrack/lookup"
)

const (
	// defaultModelID is an inference profile ID, not the foundation model's ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultModelID = "us.anthropic.claude-3-5-haiku-20241022-v1:0"

	// Lookup answers are a short JSON array; 1k tokens leaves plenty of room for five records.
	defaultMaxTokens = 1024

	// Low temperature keeps the JSON shape stable.
	defaultTemperature = 0.2

	defaultTopP = 0.9
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type LLMOptions struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// Generator sends lookup prompts to a Bedrock model through the Converse API.
type Generator struct {
	brc  bedrockRuntimeClient
	opts LLMOptions
}

func NewGenerator(brc bedrockRuntimeClient, opts LLMOptions) *Generator {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &Generator{
		brc:  brc,
		opts: opts,
	}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	slog.Info("BEDROCK: Generate invoked", "model", g.opts.ModelID, "prompt_len", len(prompt))

	in := &bedrockruntime.ConverseInput{
		ModelId: aws.String(g.opts.ModelID),
		Messages: []types.Message{
			{
				Role:    types.ConversationRoleUser,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: prompt}},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(g.opts.MaxTokens),
			Temperature: aws.Float32(g.opts.Temperature),
			TopP:        aws.Float32(g.opts.TopP),
		},
	}

	out, err := g.brc.Converse(ctx, in)
	if err != nil {
		slog.Error("BEDROCK: Converse failed", "error", err)
		return "", classify(ctx, err)
	}

	attrs := []any{"stop_reason", out.StopReason}
	if out.Metrics != nil {
		attrs = append(attrs, "latency_ms", aws.ToInt64(out.Metrics.LatencyMs))
	}
	if out.Usage != nil {
		attrs = append(attrs,
			"input_tokens", aws.ToInt32(out.Usage.InputTokens),
			"output_tokens", aws.ToInt32(out.Usage.OutputTokens))
	}
	slog.Info("BEDROCK: Converse succeeded", attrs...)

	switch out.StopReason {
	case types.StopReasonGuardrailIntervened, types.StopReasonContentFiltered:
		return "", fmt.Errorf("%w: response blocked by Bedrock safety filters", lookup.ErrMalformedResponse)
	case types.StopReasonMaxTokens:
		slog.Warn("BEDROCK: Model hit MaxTokens limit; the answer may be truncated")
	}

	text := textFromOutput(out)
	if text == "" {
		return "", fmt.Errorf("%w: no text in model output", lookup.ErrMalformedResponse)
	}
	return text, nil
}

// classify maps Bedrock failures onto the lookup error sentinels.
func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var throttling *types.ThrottlingException
	var unavailable *types.ServiceUnavailableException
	var notReady *types.ModelNotReadyException
	if errors.As(err, &throttling) || errors.As(err, &unavailable) || errors.As(err, &notReady) {
		return fmt.Errorf("%w: %v", lookup.ErrThrottled, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", lookup.ErrTransport, err)
	}
	return err
}

// textFromOutput joins the assistant's text blocks with newlines.
func textFromOutput(out *bedrockruntime.ConverseOutput) string {
	if out == nil || out.Output == nil {
		return ""
	}
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil {
		return ""
	}

	texts := make([]string, 0, len(msg.Value.Content))
	for _, cb := range msg.Value.Content {
		if t, ok := cb.(*types.ContentBlockMemberText); ok && t != nil && t.Value != "" {
			texts = append(texts, t.Value)
		}
	}
	return strings.Join(texts, "\n")
}
