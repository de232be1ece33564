package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// Defaults for the chat model.
const (
	DefaultModel       = "gpt-4o"
	DefaultMaxTokens   = 500
	DefaultTemperature = 0.7
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("language model returned no text")

// Writer writes an answer for a prompt.
type Writer interface {
	Write(ctx context.Context, p Prompt) (string, error)
}

// Config configures an OpenAI-compatible chat model.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
}

// ChatWriter implements Writer over a langchaingo chat model.
type ChatWriter struct {
	model       llms.Model
	maxTokens   int
	temperature float64
	now         func() time.Time
}

// NewOpenAIWriter creates a ChatWriter backed by the OpenAI chat API.
func NewOpenAIWriter(cfg Config) (*ChatWriter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return NewChatWriter(model, cfg.MaxTokens, cfg.Temperature), nil
}

// NewChatWriter wraps model. Zero maxTokens or temperature select the defaults.
func NewChatWriter(model llms.Model, maxTokens int, temperature float64) *ChatWriter {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return &ChatWriter{
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		now:         time.Now,
	}
}

// Write implements Writer.
func (w *ChatWriter) Write(ctx context.Context, p Prompt) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, SystemPrompt(w.now())),
		llms.TextParts(schema.ChatMessageTypeHuman, UserMessage(p)),
	}

	resp, err := w.model.GenerateContent(ctx, messages,
		llms.WithMaxTokens(w.maxTokens),
		llms.WithTemperature(w.temperature),
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

var _ Writer = (*ChatWriter)(nil)
