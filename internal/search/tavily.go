// Package search provides a client for the Tavily web search API, used to
// augment scraped website text with third-party coverage of a company or
// contact.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the Tavily API base.
const DefaultBaseURL = "https://api.tavily.com"

const requestTimeout = 30 * time.Second

// Client calls the Tavily search API.
type Client struct {
	hc      *http.Client
	baseURL string
	apiKey  string
}

// Result is a single search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Response is the Tavily search response body.
type Response struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer,omitempty"`
	Results []Result `json:"results"`
}

// Error reports a failed search call.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("search error (status %d): %s", e.Status, e.Message)
}

// NewClient creates a Tavily client.
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	return &Client{
		hc:      &http.Client{Timeout: requestTimeout},
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
	}, nil
}

// WithBaseURL overrides the API base URL. Used in tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

type searchRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results,omitempty"`
	SearchDepth string `json:"search_depth,omitempty"`
}

// Search runs a query and returns the hits. maxResults <= 0 uses the
// service default.
func (c *Client) Search(ctx context.Context, query string, maxResults int) (*Response, error) {
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	body, err := json.Marshal(searchRequest{
		APIKey:      c.apiKey,
		Query:       query,
		MaxResults:  maxResults,
		SearchDepth: "basic",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300] + "..."
		}
		return nil, &Error{Status: resp.StatusCode, Message: msg}
	}

	var parsed Response
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &parsed, nil
}

// Ping issues a trivial search to verify the API key works.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Search(ctx, "ping", 1)
	return err
}
