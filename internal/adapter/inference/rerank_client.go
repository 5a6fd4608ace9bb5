package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"qa-orchestrator/internal/domain"
)

// RerankRequest is the request payload for the rerank endpoint.
type RerankRequest struct {
	Prompt string   `json:"prompt"`
	Input  []string `json:"input"`
	Model  string   `json:"model"`
}

// RerankResponseItem is a single scored position in the rerank response.
type RerankResponseItem struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// RerankResponse is the response from the rerank endpoint.
type RerankResponse struct {
	Data []RerankResponseItem `json:"data"`
}

// RerankClient implements domain.RerankClient via HTTP calls to the
// cross-encoder service.
type RerankClient struct {
	BaseURL string
	Model   string
	Client  *http.Client
	logger  *slog.Logger
}

// NewRerankClient constructs a rerank client. If client is nil, a default
// http.Client is created with the given timeout.
func NewRerankClient(baseURL, model string, timeout time.Duration, logger *slog.Logger, client ...*http.Client) *RerankClient {
	var c *http.Client
	if len(client) > 0 && client[0] != nil {
		c = client[0]
	} else {
		c = &http.Client{Timeout: timeout}
	}
	return &RerankClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Client:  c,
		logger:  logger,
	}
}

// Rerank scores the input texts against the prompt. Results come back as
// (index, score) pairs referring to input positions.
func (c *RerankClient) Rerank(ctx context.Context, prompt string, input []string) ([]domain.RerankResult, error) {
	if len(input) == 0 {
		return []domain.RerankResult{}, nil
	}

	startTime := time.Now()

	c.logger.Info("reranking_started",
		slog.String("prompt", truncateString(prompt, 100)),
		slog.Int("candidate_count", len(input)),
		slog.String("model", c.Model))

	reqBody := RerankRequest{
		Prompt: prompt,
		Input:  input,
		Model:  c.Model,
	}
	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/rerank", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		c.logger.Warn("reranking_failed",
			slog.String("error", err.Error()),
			slog.Int64("elapsed_ms", time.Since(startTime).Milliseconds()))
		return nil, fmt.Errorf("failed to call rerank endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("reranking_failed",
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", truncateString(string(body), 500)),
			slog.Int64("elapsed_ms", time.Since(startTime).Milliseconds()))
		return nil, fmt.Errorf("rerank endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var rerankResp RerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&rerankResp); err != nil {
		return nil, fmt.Errorf("failed to decode rerank response: %w", err)
	}

	results := make([]domain.RerankResult, len(rerankResp.Data))
	for i, item := range rerankResp.Data {
		if item.Index < 0 || item.Index >= len(input) {
			return nil, fmt.Errorf("invalid result index %d for %d candidates", item.Index, len(input))
		}
		results[i] = domain.RerankResult{
			Index: item.Index,
			Score: item.Score,
		}
	}

	c.logger.Info("reranking_completed",
		slog.Int("result_count", len(results)),
		slog.Int64("elapsed_ms", time.Since(startTime).Milliseconds()))

	return results, nil
}

// ModelName returns the model identifier for logging/debugging.
func (c *RerankClient) ModelName() string {
	return c.Model
}
