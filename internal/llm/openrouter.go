package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultOpenRouterBaseURL is the OpenRouter API base.
const DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

const openRouterTimeout = 120 * time.Second

// OpenRouterClient implements Client against the OpenRouter
// chat-completions API (OpenAI-compatible wire format).
type OpenRouterClient struct {
	hc      *http.Client
	baseURL string
	apiKey  string
	config  *Config
}

// NewOpenRouterClient creates a new OpenRouter client.
func NewOpenRouterClient(config *Config, apiKey string) (*OpenRouterClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultOpenRouterConfig()
	}
	return &OpenRouterClient{
		hc:      &http.Client{Timeout: openRouterTimeout},
		baseURL: DefaultOpenRouterBaseURL,
		apiKey:  apiKey,
		config:  config,
	}, nil
}

// WithBaseURL overrides the API base URL. Used in tests.
func (c *OpenRouterClient) WithBaseURL(baseURL string) *OpenRouterClient {
	c.baseURL = baseURL
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string              `json:"model"`
	Messages       []chatMessage       `json:"messages"`
	Temperature    float64             `json:"temperature"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatResponseFormat struct {
	Type string `json:"type"` // "json_object"
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// UpstreamError reports a non-2xx response from the gateway.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("llm upstream %d: %s", e.Status, e.Message)
}

// Temporary reports whether the failure class is worth a manual retry.
func (e *UpstreamError) Temporary() bool {
	return e.Status/100 == 5 || e.Status == http.StatusTooManyRequests
}

// GenerateContent generates text content using the specified model tier
func (c *OpenRouterClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.complete(ctx, prompt, tier, nil)
}

// GenerateJSON generates JSON content using the specified model tier.
// The gateway is asked for a JSON object response; markdown fences are
// stripped anyway because models wrap output regardless.
func (c *OpenRouterClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.complete(ctx, prompt, tier, &chatResponseFormat{Type: "json_object"})
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

func (c *OpenRouterClient) complete(ctx context.Context, prompt string, tier ModelTier, format *chatResponseFormat) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	body, err := json.Marshal(chatRequest{
		Model:          modelName,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		Temperature:    0.1, // Low temperature for consistent output
		ResponseFormat: format,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{Status: resp.StatusCode, Message: truncate(string(respBody), 300)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", &UpstreamError{Status: resp.StatusCode, Message: parsed.Error.Message}
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	content := parsed.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("no content in response")
	}
	return content, nil
}

// GetModel returns the model name for a tier
func (c *OpenRouterClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases resources held by the client
func (c *OpenRouterClient) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}

// Ping issues a minimal completion to verify the API key works.
func (c *OpenRouterClient) Ping(ctx context.Context) error {
	_, err := c.complete(ctx, "Reply with the single word: ok", TierLite, nil)
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
