package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"macrotrack"
	"macrotrack/lookup"
)

const DefaultBaseEndpoint = "https://generativelanguage.googleapis.com/v1beta"

type generationConfig struct {
	Temperature     float32 `json:"temperature,omitempty"`
	TopP            float32 `json:"topP,omitempty"`
	MaxOutputTokens int32   `json:"maxOutputTokens,omitempty"`
}

// Generator calls the Gemini generateContent endpoint with a single text part.
type Generator struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient macrotrack.HTTPClient
	config     generationConfig
}

type GeneratorOpts struct {
	BaseEndpoint string
	ModelID      string
	APIKey       string
	HTTPClient   macrotrack.HTTPClient
	Model        macrotrack.ModelConfig
}

func NewGenerator(opts GeneratorOpts) (*Generator, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	if opts.ModelID == "" {
		return nil, fmt.Errorf("gemini: model id is required")
	}

	base := strings.TrimRight(opts.BaseEndpoint, "/")
	if base == "" {
		base = DefaultBaseEndpoint
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Generator{
		endpoint:   fmt.Sprintf("%s/models/%s:generateContent", base, opts.ModelID),
		model:      opts.ModelID,
		apiKey:     opts.APIKey,
		httpClient: httpClient,
		config: generationConfig{
			Temperature:     opts.Model.Temperature,
			TopP:            opts.Model.TopP,
			MaxOutputTokens: opts.Model.MaxTokens,
		},
	}, nil
}

type wirePart struct {
	Text string `json:"text"`
}

type wireContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []wirePart `json:"parts"`
}

type wireRequest struct {
	Contents         []wireContent     `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type wireCandidate struct {
	Content      wireContent `json:"content"`
	FinishReason string      `json:"finishReason,omitempty"`
}

type wireResponse struct {
	Candidates []wireCandidate `json:"candidates"`
}

type wireError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate returns the text of the first candidate's first part.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	slog.Info("GEMINI: Generate invoked", "model", g.model, "prompt_len", len(prompt))

	reqBody := wireRequest{
		Contents: []wireContent{{Parts: []wirePart{{Text: prompt}}}},
	}
	if g.config != (generationConfig{}) {
		cfg := g.config
		reqBody.GenerationConfig = &cfg
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.requestURL(), bytes.NewBuffer(reqBytes))
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", redact(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %v", lookup.ErrTransport, redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", lookup.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var we wireError
		_ = json.Unmarshal(body, &we)
		slog.Warn("GEMINI: Non-success status", "status", resp.StatusCode, "message", we.Error.Message)
		return "", &lookup.StatusError{Code: resp.StatusCode, Message: we.Error.Message}
	}

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return "", fmt.Errorf("%w: %v", lookup.ErrMalformedResponse, err)
	}
	if len(wr.Candidates) == 0 || len(wr.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no candidates in response", lookup.ErrMalformedResponse)
	}

	return wr.Candidates[0].Content.Parts[0].Text, nil
}

func (g *Generator) requestURL() string {
	return g.endpoint + "?key=" + url.QueryEscape(g.apiKey)
}

// redact drops the request URL, which carries the API key, from client errors.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
