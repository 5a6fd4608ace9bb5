// Package inference holds the HTTP adapters for the retrieval, rerank and
// generation collaborators.
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

// SearchRequest is the request payload for the retrieval endpoint.
type SearchRequest struct {
	Collections []int  `json:"collections"`
	K           int    `json:"k"`
	Prompt      string `json:"prompt"`
	Method      string `json:"method"`
}

// SearchResponse is the response from the retrieval endpoint. Pages in
// chunk metadata are 0-based.
type SearchResponse struct {
	Data []SearchResponseItem `json:"data"`
}

type SearchResponseItem struct {
	Chunk struct {
		Content  string `json:"content"`
		Metadata struct {
			SourceURL    string `json:"source_url"`
			Page         int    `json:"page"`
			DocumentName string `json:"document_name"`
		} `json:"metadata"`
	} `json:"chunk"`
	Score float64 `json:"score"`
}

// RetrievalClient implements domain.RetrievalClient via HTTP calls to the
// retrieval service.
type RetrievalClient struct {
	BaseURL string
	Client  *http.Client
	logger  *slog.Logger
}

// NewRetrievalClient constructs a retrieval client. If client is nil, a
// default http.Client is created with the given timeout.
func NewRetrievalClient(baseURL string, timeout time.Duration, logger *slog.Logger, client ...*http.Client) *RetrievalClient {
	var c *http.Client
	if len(client) > 0 && client[0] != nil {
		c = client[0]
	} else {
		c = &http.Client{Timeout: timeout}
	}
	return &RetrievalClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  c,
		logger:  logger,
	}
}

// Search runs one retrieval query and maps hits to raw chunks.
func (c *RetrievalClient) Search(ctx context.Context, query domain.RetrievalQuery) ([]domain.RetrievedChunk, error) {
	startTime := time.Now()

	c.logger.Info("retrieval_started",
		slog.String("prompt", truncateString(query.Prompt, 100)),
		slog.String("method", query.Method),
		slog.Int("k", query.K))

	reqBody := SearchRequest{
		Collections: query.Collections,
		K:           query.K,
		Prompt:      query.Prompt,
		Method:      query.Method,
	}
	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/search", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		c.logger.Warn("retrieval_failed",
			slog.String("error", err.Error()),
			slog.Int64("elapsed_ms", time.Since(startTime).Milliseconds()))
		return nil, fmt.Errorf("failed to call search endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("retrieval_failed",
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", truncateString(string(body), 500)),
			slog.Int64("elapsed_ms", time.Since(startTime).Milliseconds()))
		return nil, fmt.Errorf("search endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	chunks := make([]domain.RetrievedChunk, len(searchResp.Data))
	for i, item := range searchResp.Data {
		chunks[i] = domain.RetrievedChunk{
			Content:      item.Chunk.Content,
			SourceURL:    item.Chunk.Metadata.SourceURL,
			DocumentName: item.Chunk.Metadata.DocumentName,
			Page:         item.Chunk.Metadata.Page,
			Score:        item.Score,
		}
	}

	c.logger.Info("retrieval_completed",
		slog.Int("result_count", len(chunks)),
		slog.Int64("elapsed_ms", time.Since(startTime).Milliseconds()))

	return chunks, nil
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
