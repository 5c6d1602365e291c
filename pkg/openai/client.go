package openai

import (
	"context"

	"github.com/recommerce-labs/console/internal/common/config"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ChatCompleter is the surface the recommendation flow needs from the
// OpenAI SDK; tests substitute a stub.
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (*openai.ChatCompletion, error)
	ChatCompletionJSON(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (*openai.ChatCompletion, error)
}

// Client wraps the OpenAI client with our configuration
type Client struct {
	client openai.Client
	model  string
}

var _ ChatCompleter = (*Client)(nil)

// NewClient creates a new OpenAI client with the given API key
func NewClient(cfg *config.OpenAIConfig) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &Client{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

// ChatCompletion handles chat completion requests
func (c *Client) ChatCompletion(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (*openai.ChatCompletion, error) {
	chatCompletion, err := c.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Messages: messages,
			Model:    c.model,
		},
	)
	if err != nil {
		return nil, err
	}

	return chatCompletion, nil
}

// ChatCompletionJSON handles chat completion requests that must return a
// JSON object body
func (c *Client) ChatCompletionJSON(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (*openai.ChatCompletion, error) {
	chatCompletion, err := c.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Messages: messages,
			Model:    c.model,
			ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
			},
		},
	)
	if err != nil {
		return nil, err
	}

	return chatCompletion, nil
}

// UserMessage builds a single-turn user message list
func UserMessage(content string) []openai.ChatCompletionMessageParamUnion {
	return []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage(content),
	}
}
