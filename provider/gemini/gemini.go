// Package gemini implements the generation provider on the Google
// Gemini generateContent API. Responses are constrained to the
// extraction schema via response_schema so candidates arrive as
// parseable JSON rather than free text.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	fx "github.com/gofhir/extractor"
	"github.com/gofhir/extractor/service"
)

// Config holds the client configuration.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	Timeout         time.Duration
	MaxOutputTokens int
	MaxRetries      int
	Logger          *zap.Logger
}

// DefaultConfig returns sensible defaults for the given API key.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:          apiKey,
		BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
		Model:           "gemini-2.0-flash",
		Timeout:         2 * time.Minute,
		MaxOutputTokens: 8192,
		MaxRetries:      3,
	}
}

// Client is a service.Provider backed by the Gemini API.
type Client struct {
	apiKey          string
	baseURL         string
	model           string
	maxOutputTokens int
	maxRetries      int
	httpClient      *http.Client
	logger          *zap.Logger
}

// New creates a client with default configuration.
func New(apiKey string) *Client {
	return NewWithConfig(DefaultConfig(apiKey))
}

// NewWithConfig creates a client with custom configuration.
func NewWithConfig(config Config) *Client {
	model := strings.TrimSpace(config.Model)
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	retries := config.MaxRetries
	if retries < 0 {
		retries = 0
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:          config.APIKey,
		baseURL:         strings.TrimRight(config.BaseURL, "/"),
		model:           model,
		maxOutputTokens: config.MaxOutputTokens,
		maxRetries:      retries,
		httpClient:      &http.Client{Timeout: timeout},
		logger:          logger,
	}
}

const systemPrompt = `You are a clinical information extraction system.
Extract every occurrence of the requested resource from the provided
clinical text. For each occurrence return one object with:
  "fields": the requested field values, taken from the text
  "snippets": for each textual field, the exact verbatim substring of
  the text that the value was taken from, copied character for
  character with original casing, spacing and punctuation
Never invent values that are not supported by the text. Omit fields
the text does not mention. Return an empty array when the resource
does not occur.`

// Generate implements service.Provider.
func (c *Client) Generate(ctx context.Context, schema service.Schema, contextText string) ([]service.Candidate, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("gemini: %w: API key not configured", fx.ErrProviderUnavailable)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	start := time.Now()
	reqBody := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: buildUserPrompt(schema, contextText)}},
		}},
		SystemInstruction: &content{
			Parts: []part{{Text: systemPrompt}},
		},
		GenerationConfig: generationConfig{
			Temperature:      0,
			MaxOutputTokens:  c.maxOutputTokens,
			ResponseMimeType: "application/json",
			ResponseSchema: map[string]any{
				"type":  "array",
				"items": schema.Document,
			},
		},
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, retry, err := c.send(ctx, url, reqBody)
		if err != nil {
			if !retry {
				return nil, err
			}
			lastErr = err
			c.logger.Debug("gemini request retrying",
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}

		candidates, err := parseCandidates(body)
		if err != nil {
			return nil, err
		}
		c.logger.Debug("gemini request completed",
			zap.String("resource", schema.Resource),
			zap.Int("candidates", len(candidates)),
			zap.Duration("elapsed", time.Since(start)))
		return candidates, nil
	}
	return nil, fmt.Errorf("gemini: %w: retries exhausted: %v", fx.ErrProviderUnavailable, lastErr)
}

// send performs one HTTP round trip. The second return value reports
// whether the failure is worth retrying.
func (c *Client) send(ctx context.Context, url string, reqBody generateRequest) ([]byte, bool, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, false, fmt.Errorf("gemini: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("gemini: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("gemini: %w: %v", fx.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("gemini: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("gemini: rate limit exceeded (429)")
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("gemini: %w: status %d: %s", fx.ErrProviderUnavailable, resp.StatusCode, body)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("gemini: status %d: %s", resp.StatusCode, body)
	}
	return body, false, nil
}

func parseCandidates(body []byte) ([]service.Candidate, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("gemini: parse response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("gemini: API error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, nil
	}

	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	var payloads []candidatePayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(text.String())), &payloads); err != nil {
		return nil, fmt.Errorf("gemini: parse candidates: %w", err)
	}

	candidates := make([]service.Candidate, 0, len(payloads))
	for _, p := range payloads {
		candidates = append(candidates, service.Candidate{
			Fields:   p.Fields,
			Snippets: p.Snippets,
		})
	}
	return candidates, nil
}

func buildUserPrompt(schema service.Schema, contextText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Resource: %s\n", schema.Resource)
	if schema.Facade != "" {
		fmt.Fprintf(&b, "View: %s\n", schema.Facade)
	}
	b.WriteString("Fields to extract:\n")
	for _, field := range schema.FieldOrder {
		fmt.Fprintf(&b, "  - %s\n", field)
	}
	b.WriteString("\nClinical text:\n")
	b.WriteString(contextText)
	return b.String()
}

// Verify interface compliance
var _ service.Provider = (*Client)(nil)
