// Package anyllm provides a meeting summarizer backed by
// github.com/mozilla-ai/any-llm-go, a unified multi-provider interface
// that supports OpenAI, Anthropic, Gemini, Ollama, DeepSeek, Mistral,
// Groq, and more.
//
// Usage:
//
//	s, err := anyllm.New("ollama", "llama3.1", anyllmlib.WithBaseURL("http://localhost:11434"))
//	summary, err := s.Summarize(ctx, transcriptText)
package anyllm

import (
	"context"
	"fmt"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/llamacpp"
	"github.com/mozilla-ai/any-llm-go/providers/llamafile"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/MrWong99/minutescribe/pkg/provider/summarize"
)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 4096
)

// Summarizer implements [summarize.Summarizer] by wrapping
// github.com/mozilla-ai/any-llm-go.
type Summarizer struct {
	backend     anyllmlib.Provider
	model       string
	template    summarize.PromptTemplate
	system      string
	temperature float64
	maxTokens   int
}

var _ summarize.Summarizer = (*Summarizer)(nil)

// Option is a functional option for configuring a [Summarizer].
type Option func(*Summarizer)

// WithPromptTemplate overrides the user prompt template wrapped around
// the transcript.
func WithPromptTemplate(t summarize.PromptTemplate) Option {
	return func(s *Summarizer) {
		s.template = t
	}
}

// WithSystemPrompt overrides [summarize.DefaultSystemPrompt].
func WithSystemPrompt(prompt string) Option {
	return func(s *Summarizer) {
		s.system = prompt
	}
}

// WithTemperature sets the sampling temperature. Default: 0.7.
func WithTemperature(t float64) Option {
	return func(s *Summarizer) {
		s.temperature = t
	}
}

// WithMaxTokens caps the summary length in tokens. Default: 4096.
func WithMaxTokens(n int) Option {
	return func(s *Summarizer) {
		s.maxTokens = n
	}
}

// New creates a Summarizer backed by the given LLM provider name.
//
// providerName is one of: "openai", "anthropic", "gemini", "ollama",
// "deepseek", "mistral", "groq", "llamacpp", "llamafile".
//
// model is the specific model to use (e.g. "gpt-4o",
// "claude-3-5-sonnet-latest", "llama3.1").
//
// backendOpts are any-llm-go configuration options (e.g.
// anyllmlib.WithAPIKey, anyllmlib.WithBaseURL). Without an API key
// option the backend falls back to the relevant environment variable
// (OPENAI_API_KEY, ANTHROPIC_API_KEY, ...).
func New(providerName, model string, backendOpts []anyllmlib.Option, opts ...Option) (*Summarizer, error) {
	if providerName == "" {
		return nil, fmt.Errorf("anyllm: providerName must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("anyllm: model must not be empty")
	}

	backend, err := createBackend(providerName, backendOpts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", providerName, err)
	}

	s := &Summarizer{
		backend:     backend,
		model:       model,
		system:      summarize.DefaultSystemPrompt,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// createBackend creates the underlying any-llm-go provider for the
// given provider name.
func createBackend(providerName string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(providerName) {
	case "openai":
		return anyllmoai.New(opts...)
	case "anthropic":
		return anthropic.New(opts...)
	case "gemini":
		return gemini.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	case "deepseek":
		return deepseek.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	case "groq":
		return groq.New(opts...)
	case "llamacpp":
		return llamacpp.New(opts...)
	case "llamafile":
		return llamafile.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q; supported: openai, anthropic, gemini, ollama, deepseek, mistral, groq, llamacpp, llamafile", providerName)
	}
}

// Summarize implements [summarize.Summarizer].
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	messages := []anyllmlib.Message{
		{Role: anyllmlib.RoleSystem, Content: s.system},
		{Role: anyllmlib.RoleUser, Content: s.template.Render(transcript)},
	}

	params := anyllmlib.CompletionParams{
		Model:    s.model,
		Messages: messages,
	}
	if s.temperature != 0 {
		t := s.temperature
		params.Temperature = &t
	}
	if s.maxTokens > 0 {
		mt := s.maxTokens
		params.MaxTokens = &mt
	}

	resp, err := s.backend.Completion(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anyllm: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("anyllm: empty choices in response")
	}
	return resp.Choices[0].Message.ContentString(), nil
}
