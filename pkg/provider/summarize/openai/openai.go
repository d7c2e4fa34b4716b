// Package openai provides a meeting summarizer backed by the OpenAI
// API, including OpenAI-compatible servers such as vLLM or llama.cpp
// via [WithBaseURL].
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/MrWong99/minutescribe/pkg/provider/summarize"
)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 4096
)

// Summarizer implements [summarize.Summarizer] using the OpenAI API.
type Summarizer struct {
	client      oai.Client
	model       string
	template    summarize.PromptTemplate
	system      string
	temperature float64
	maxTokens   int
}

var _ summarize.Summarizer = (*Summarizer)(nil)

// config holds optional client configuration.
type config struct {
	baseURL     string
	timeout     time.Duration
	template    summarize.PromptTemplate
	system      string
	temperature float64
	maxTokens   int
}

// Option is a functional option for [Summarizer].
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL. Use this to
// point the summarizer at an OpenAI-compatible inference server.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithPromptTemplate overrides the user prompt template wrapped around
// the transcript.
func WithPromptTemplate(t summarize.PromptTemplate) Option {
	return func(c *config) {
		c.template = t
	}
}

// WithSystemPrompt overrides [summarize.DefaultSystemPrompt].
func WithSystemPrompt(prompt string) Option {
	return func(c *config) {
		c.system = prompt
	}
}

// WithTemperature sets the sampling temperature. Default: 0.7.
func WithTemperature(t float64) Option {
	return func(c *config) {
		c.temperature = t
	}
}

// WithMaxTokens caps the summary length in tokens. Default: 4096.
func WithMaxTokens(n int) Option {
	return func(c *config) {
		c.maxTokens = n
	}
}

// New constructs a new OpenAI-backed Summarizer.
func New(apiKey, model string, opts ...Option) (*Summarizer, error) {
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	cfg := &config{
		system:      summarize.DefaultSystemPrompt,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
	}
	for _, o := range opts {
		o(cfg)
	}

	// Compatible servers usually accept any key; only a missing base
	// URL makes the key mandatory.
	if apiKey == "" && cfg.baseURL == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Summarizer{
		client:      oai.NewClient(reqOpts...),
		model:       model,
		template:    cfg.template,
		system:      cfg.system,
		temperature: cfg.temperature,
		maxTokens:   cfg.maxTokens,
	}, nil
}

// Summarize implements [summarize.Summarizer].
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(s.system),
			oai.UserMessage(s.template.Render(transcript)),
		},
	}
	if s.temperature != 0 {
		params.Temperature = param.NewOpt(s.temperature)
	}
	if s.maxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(s.maxTokens))
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
