package openai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultModel     = "gpt-4o-mini"
	DefaultGroqModel = "llama-3.1-8b-instant"
)

// ErrMissingToken is returned when no API key is configured.
var ErrMissingToken = errors.New("openai: API key missing, set GROQ_API_KEY or OPENAI_API_KEY")

type Config struct {
	Debug   bool
	Token   string
	BaseURL string
	Model   string
	Client  *http.Client
}

type Client struct {
	client *openai.Client
	model  string
	debug  bool
}

// New creates a client. A missing token is reported on the first call so
// the server can still start without credentials.
func New(cfg *Config) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
		if cfg.BaseURL != "" {
			model = DefaultGroqModel
		}
	}
	c := &Client{
		model: model,
		debug: cfg.Debug,
	}
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return c
	}
	oaiCfg := openai.DefaultConfig(token)
	if cfg.BaseURL != "" {
		oaiCfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}
	if cfg.Client != nil {
		oaiCfg.HTTPClient = cfg.Client
	}
	c.client = openai.NewClientWithConfig(oaiCfg)
	return c
}

// Model returns the model used for completions.
func (c *Client) Model() string {
	return c.model
}

type Completion struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
}

// ChatCompletion sends a single user message and returns the trimmed reply.
func (c *Client) ChatCompletion(ctx context.Context, msg string) (string, error) {
	return c.Complete(ctx, &Completion{User: msg})
}

// Complete sends a system and user message and returns the trimmed reply.
func (c *Client) Complete(ctx context.Context, cmp *Completion) (string, error) {
	if c.client == nil {
		return "", ErrMissingToken
	}
	var msgs []openai.ChatCompletionMessage
	if cmp.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: cmp.System,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: cmp.User,
	})
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		MaxTokens:   cmp.MaxTokens,
		Temperature: cmp.Temperature,
	}
	if c.debug {
		log.Printf("openai: chat completion model=%s max_tokens=%d\n", c.model, cmp.MaxTokens)
	}
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai: couldn't create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// IsAuthError reports whether the error was caused by rejected credentials.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrMissingToken) {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden
	}
	return false
}
