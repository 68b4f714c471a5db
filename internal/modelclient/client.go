// internal/modelclient/client.go

// Package modelclient is the thin adapter around the model endpoint. The
// core consumes it only as a function from (conversation context, tool set)
// to a structured response. There are no retries here; a failed call
// surfaces to the turn loop.
package modelclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/cuakit/api/schemas"
	"github.com/xkilldash9x/cuakit/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client calls the OpenAI Responses API over plain HTTP.
type Client struct {
	model      string
	baseURL    string
	apiKey     string
	truncation string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// New builds a client from configuration. The API key is required because
// every call the agent makes is authenticated.
func New(cfg config.ModelConfig, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("model API key is required (set OPENAI_API_KEY)")
	}
	limit := rate.Inf
	if cfg.RateLimitRPS > 0 {
		limit = rate.Limit(cfg.RateLimitRPS)
	}
	burst := cfg.RateLimitBurst
	if burst < 1 {
		burst = 1
	}
	return &Client{
		model:      cfg.Name,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		truncation: cfg.Truncation,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger.Named("modelclient"),
	}, nil
}

// CreateResponse sends the full conversation context and the fixed tool set
// to the model and returns its structured reply. A reply without output items
// is returned as-is; deciding that it is fatal belongs to the turn loop.
func (c *Client) CreateResponse(ctx context.Context, input []schemas.Item, tools []schemas.ToolDescriptor) (*schemas.ModelResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload := schemas.ModelRequest{
		Model:      c.model,
		Input:      input,
		Tools:      tools,
		Truncation: c.truncation,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding model request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building model request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug("Calling model",
		zap.String("model", c.model),
		zap.Int("input_items", len(input)),
		zap.Int("tools", len(tools)),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading model response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("model endpoint returned status %d: %s", resp.StatusCode, truncateBody(raw))
	}

	var out schemas.ModelResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding model response: %w", err)
	}
	c.logger.Debug("Model responded",
		zap.String("response_id", out.ID),
		zap.Int("output_items", len(out.Output)),
	)
	return &out, nil
}

func truncateBody(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
