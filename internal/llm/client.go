package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"docqa/internal/contextutil"
)

// Client is a client for an OpenAI-compatible chat completions API
// (llama.cpp server, vLLM, OpenAI itself).
//
// A configured primary model is tried first; the fallback models are tried
// in order when the primary call fails or returns a low-confidence response.
// Confidence is a crude length heuristic: responses shorter than
// MinConfidentLen characters are treated as low-confidence.
type Client struct {
	BaseURL         string
	APIKey          string
	Model           string
	FallbackModels  []string
	MinConfidentLen int
	client          *http.Client
}

// NewClient creates a new LLM client.
func NewClient(baseURL, apiKey, model string, fallbackModels []string, minConfidentLen int) *Client {
	return &Client{
		BaseURL:         baseURL,
		APIKey:          apiKey,
		Model:           model,
		FallbackModels:  fallbackModels,
		MinConfidentLen: minConfidentLen,
		client:          http.DefaultClient,
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float32   `json:"temperature,omitempty"`
}

type chatChoice struct {
	Index   int     `json:"index"`
	Message Message `json:"message"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Choices []chatChoice `json:"choices"`
}

// Complete sends a chat completion request, walking the model fallback chain.
// It returns the first confident response, or the best response seen if every
// model answered below the confidence length, or the last error if all failed.
func (c *Client) Complete(ctx context.Context, messages []Message, params Params) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	models := append([]string{c.Model}, c.FallbackModels...)

	var lastErr error
	var best string
	for _, model := range models {
		answer, err := c.completeWithModel(ctx, model, messages, params)
		if err != nil {
			logger.WarnContext(ctx, "model call failed, trying next", "model", model, "error", err)
			lastErr = err
			continue
		}

		trimmed := strings.TrimSpace(answer)
		if trimmed == "" {
			lastErr = fmt.Errorf("model %s returned empty response", model)
			continue
		}
		if len(trimmed) >= c.MinConfidentLen {
			return trimmed, nil
		}

		logger.DebugContext(ctx, "low-confidence response, trying next model",
			"model", model, "length", len(trimmed))
		if len(trimmed) > len(best) {
			best = trimmed
		}
	}

	if best != "" {
		return best, nil
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", fmt.Errorf("all models returned empty responses")
}

// completeWithModel performs a single chat completion call against one model.
func (c *Client) completeWithModel(ctx context.Context, model string, messages []Message, params Params) (string, error) {
	url := fmt.Sprintf("%s/v1/chat/completions", c.BaseURL)

	payload := chatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
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

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}
