// Package llm реализует выбор ключевого слова, выбор товара и генерацию
// контента через OpenAI Chat Completions с ответом в JSON.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/shaiso/content-worker/internal/telemetry"
)

const (
	// DefaultModel — модель по умолчанию.
	DefaultModel = "gpt-4o-mini"

	// DefaultTimeout — лимит на один вызов API.
	DefaultTimeout = 120 * time.Second
)

var (
	// ErrAPIKeyNotSet — не задан OPENAI_API_KEY.
	ErrAPIKeyNotSet = errors.New("OpenAI API key not set")

	// ErrInvalidResponse — ответ модели не разобран или не соответствует запросу.
	ErrInvalidResponse = errors.New("invalid model response")
)

// Client — обёртка над OpenAI API для JSON-ответов.
type Client struct {
	client  openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// Config — конфигурация Client.
type Config struct {
	APIKey string
	Model  string

	// Timeout — лимит на вызов (default: 120s).
	Timeout time.Duration

	// Options — дополнительные опции SDK (base URL, HTTP client, retries).
	Options []option.RequestOption

	Logger *slog.Logger
}

// NewClient создаёт Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, cfg.Options...)

	return &Client{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Model возвращает имя модели.
func (c *Client) Model() string {
	return c.model
}

// completeJSON отправляет system+user сообщения и разбирает JSON-ответ в out.
func (c *Client) completeJSON(ctx context.Context, system, user string, maxTokens int64, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0.7),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		},
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(maxTokens)
	}

	start := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return fmt.Errorf("%w: no completion choices returned", ErrInvalidResponse)
	}

	content := completion.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	c.loggerFor(ctx).Debug("completion received",
		"model", completion.Model,
		"tokens", completion.Usage.TotalTokens,
		"duration", time.Since(start),
	)

	return nil
}

// loggerFor возвращает логгер запуска из ctx, если он там есть.
func (c *Client) loggerFor(ctx context.Context) *slog.Logger {
	if _, ok := ctx.Value(telemetry.CtxLogger).(*slog.Logger); ok {
		return telemetry.FromContext(ctx)
	}
	return c.logger
}
