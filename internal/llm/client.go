package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat exchange.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a single chat completion call.
type Request struct {
	Messages    []Message
	MaxTokens   int     // 0 leaves the limit to the client default
	Temperature float64 // negative leaves the model default
}

// Response is the text of the first choice plus token usage.
type Response struct {
	Text             string
	PromptTokens     int64
	CompletionTokens int64
}

// Completer performs chat completions. Client is the production
// implementation; tests substitute fakes.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// ClientConfig configures an OpenAI-compatible chat endpoint.
type ClientConfig struct {
	APIKey    string
	BaseURL   string // empty uses api.openai.com
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Client calls an OpenAI-compatible chat completions API. Any provider
// exposing that API (DeepSeek, Qwen, GLM, Gemini, OpenRouter) works by
// pointing BaseURL at it.
type Client struct {
	api       openai.Client
	model     string
	maxTokens int
	stats     *LLMStats
}

func NewClient(cfg ClientConfig, stats *LLMStats) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
		// Retries are owned by the pipeline so they show up in job state.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		api:       openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		stats:     stats,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: toParams(req.Messages),
	}
	maxTokens := c.maxTokens
	if req.MaxTokens > 0 && req.MaxTokens < maxTokens {
		maxTokens = req.MaxTokens
	}
	params.MaxTokens = openai.Int(int64(maxTokens))
	if req.Temperature >= 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	start := time.Now()
	completion, err := c.api.Chat.Completions.New(ctx, params)
	if c.stats != nil {
		c.stats.Record(time.Since(start).Milliseconds())
	}
	if err != nil {
		if c.stats != nil {
			c.stats.RecordError()
		}
		return nil, classify(err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("empty response from %s", c.model)
	}

	resp := &Response{
		Text:             completion.Choices[0].Message.Content,
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
	}
	if c.stats != nil {
		c.stats.RecordUsage(resp.PromptTokens, resp.CompletionTokens)
	}
	return resp, nil
}

func toParams(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// classify turns rate limits and server errors into RetryableError.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
			return &RetryableError{StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
		}
		return fmt.Errorf("chat api status %d: %w", apiErr.StatusCode, err)
	}
	// A per-request timeout surfaces as a deadline error; the caller checks
	// its own context before retrying.
	if errors.Is(err, context.DeadlineExceeded) {
		return &RetryableError{Message: err.Error()}
	}
	return fmt.Errorf("chat api: %w", err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}
