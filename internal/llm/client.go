package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrMissingAPIKey is returned by NewClient when no API key is given.
	ErrMissingAPIKey = errors.New("llm: api key is required")

	// ErrEmptyResponse is returned when the model answers with no content.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Request is a single system + user prompt exchange.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// User carries the material the model works on.
	User string

	// Temperature controls sampling randomness.
	Temperature float32

	// JSON asks the endpoint for a JSON object response.
	JSON bool
}

// Completer turns a Request into the model's text reply.
// Implementations must be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	// Timeout bounds each Complete call. Zero means no extra bound beyond ctx.
	Timeout time.Duration

	// HTTPClient overrides the HTTP client, mostly for tests.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client is a Completer backed by an OpenAI-compatible chat completions API.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient creates a Client. The model and endpoint are fixed for the
// lifetime of the client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		apiCfg.HTTPClient = cfg.HTTPClient
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// Model returns the model name the client sends.
func (c *Client) Model() string {
	return c.model
}

// Complete sends req and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: req.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	c.logger.Debug("chat completion done",
		"model", c.model,
		"json", req.JSON,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"elapsed", time.Since(start),
	)

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
