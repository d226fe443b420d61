// Package websearch provides the public-web fallback used when no internal evidence
// exists for a query.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dealflow-ai/internal/contextutil"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_searcher.go -package=mocks dealflow-ai/internal/websearch Searcher

// Searcher executes a public web search and returns a context block ready for the
// synthesis prompt, or empty string when nothing usable was found.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) (string, error)
}

const defaultEndpoint = "https://api.tavily.com/search"

// TavilyClient implements Searcher against the Tavily search API.
type TavilyClient struct {
	Endpoint string
	APIKey   string
	client   *http.Client
}

// NewTavilyClient creates a Tavily search client. An empty API key is allowed; searches
// then degrade to empty results with a logged error.
func NewTavilyClient(apiKey string, timeout time.Duration) *TavilyClient {
	return &TavilyClient{
		Endpoint: defaultEndpoint,
		APIKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
}

type searchResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search executes a web search and formats the results as bullet lines with sources.
func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if c.APIKey == "" {
		logger.ErrorContext(ctx, "web search skipped, no API key configured")
		return "", nil
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	payload := searchRequest{
		APIKey:        c.APIKey,
		Query:         query,
		MaxResults:    maxResults,
		SearchDepth:   "advanced",
		IncludeAnswer: true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.Endpoint, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	formatted := make([]string, 0, len(searchResp.Results))
	for _, res := range searchResp.Results {
		content := strings.TrimSpace(res.Content)
		if len(content) < 10 {
			continue
		}
		url := res.URL
		if url == "" {
			url = "No URL"
		}
		formatted = append(formatted, fmt.Sprintf("• [Web Result] %s\n  Source: %s", content, url))
	}

	logger.InfoContext(ctx, "web search completed", "query", query, "results", len(formatted))
	return strings.Join(formatted, "\n\n"), nil
}
