// Package llm holds the Azure OpenAI chat-completions client. The rest of
// the application treats it as an opaque text-in/text-out function behind the
// Invoker interface.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vathakkar/ai-voice-concierge/internal/screening"
	"github.com/vathakkar/ai-voice-concierge/pkg/logger"
	"go.uber.org/zap"
)

// Invoker is the model call as the state machine sees it: ordered messages
// in, raw reply text out. Implementations may block on network I/O and must
// honor the context deadline.
type Invoker interface {
	Complete(ctx context.Context, messages []screening.Message) (string, error)
}

// Config holds Azure OpenAI connection settings.
type Config struct {
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string
	Timeout    time.Duration
}

// Client calls the Azure OpenAI chat completions API.
type Client struct {
	httpClient *http.Client
	config     Config
}

type chatRequest struct {
	Messages    []screening.Message `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewClient creates an Azure OpenAI client.
func NewClient(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.APIVersion == "" {
		config.APIVersion = "2025-01-01-preview"
	}
	return &Client{
		httpClient: &http.Client{},
		config:     config,
	}
}

// Complete sends the message list to the chat completions deployment and
// returns the reply text. Callers substitute screening.FallbackReply on error
// rather than propagating the failure to the voice script.
func (c *Client) Complete(ctx context.Context, messages []screening.Message) (string, error) {
	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimSuffix(c.config.Endpoint, "/"), c.config.Deployment, c.config.APIVersion)

	payload := chatRequest{
		Messages:    messages,
		Temperature: 0.2,
		MaxTokens:   75,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.config.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Base().Error("chat completion returned non-200",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody),
		)
		return "", fmt.Errorf("chat completion returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	reply := strings.TrimSpace(parsed.Choices[0].Message.Content)
	logger.Base().Debug("chat completion finished",
		zap.Duration("latency", time.Since(start)),
		zap.Int("reply_chars", len(reply)),
	)
	if reply == "" {
		return "", fmt.Errorf("chat completion returned an empty reply")
	}
	return reply, nil
}
