// Package llm is the gateway to the chat-completions endpoint that turns
// raw document text into structured exam data. The backend is a
// configuration choice; every backend speaks the same wire contract.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Backend identifies which provider configuration to use. The value fixes
// the default endpoint and model; it never introduces a second call path.
type Backend string

const (
	// BackendSiliconFlow targets the SiliconFlow OpenAI-compatible API.
	BackendSiliconFlow Backend = "siliconflow"
	// BackendOpenAI targets the OpenAI API directly.
	BackendOpenAI Backend = "openai"
)

// Sentinel errors for gateway failures. Callers recover from all of them
// by substituting a degraded result; none is retried internally.
var (
	ErrUpstream  = errors.New("llm upstream error")
	ErrTimeout   = errors.New("llm request timed out")
	ErrTransport = errors.New("llm endpoint unreachable")
)

// Per-call timeout bounds. Every completion call runs under a deadline.
const (
	MinTimeout     = 30 * time.Second
	MaxTimeout     = 300 * time.Second
	DefaultTimeout = 120 * time.Second
)

var backendDefaults = map[Backend]struct {
	baseURL string
	model   string
}{
	BackendSiliconFlow: {"https://api.siliconflow.cn/v1", "deepseek-ai/DeepSeek-V3"},
	BackendOpenAI:      {"", "gpt-4o-mini"},
}

// Config selects and parameterizes a backend.
type Config struct {
	Backend Backend
	APIKey  string
	BaseURL string        // overrides the backend default when set
	Model   string        // overrides the backend default when set
	Timeout time.Duration // clamped to [MinTimeout, MaxTimeout]
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// New creates an LLM client for the configured backend.
func New(cfg Config) (*Client, error) {
	defaults, ok := backendDefaults[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("unknown llm backend %q", cfg.Backend)
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	switch {
	case cfg.BaseURL != "":
		apiCfg.BaseURL = cfg.BaseURL
	case defaults.baseURL != "":
		apiCfg.BaseURL = defaults.baseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaults.model
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if timeout < MinTimeout {
		timeout = MinTimeout
	}
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}

	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		model:   model,
		timeout: timeout,
	}, nil
}

// Request is one completion call.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Complete sends the prompt and returns the raw model text. The call runs
// under the client's timeout and is never retried; failures map onto the
// package's sentinel errors.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var msgs []openai.ChatCompletionMessage
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices", ErrUpstream)
	}

	content := resp.Choices[0].Message.Content
	slog.Debug("llm completion", "model", c.model,
		"elapsed", time.Since(start), "chars", len(content))
	return content, nil
}

// Ping verifies the endpoint is reachable and the key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, MinTimeout)
	defer cancel()
	if _, err := c.api.ListModels(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// classify maps transport-level errors onto the package sentinels so
// callers can match with errors.Is.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: status %d: %s", ErrUpstream, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: status %d: %v", ErrUpstream, reqErr.HTTPStatusCode, reqErr.Err)
	}

	return fmt.Errorf("%w: %v", ErrTransport, err)
}
