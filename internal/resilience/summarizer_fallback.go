package resilience

import (
	"context"

	"github.com/MrWong99/minutescribe/pkg/provider/summarize"
)

// SummarizerFallback implements [summarize.Summarizer] with automatic failover
// across multiple LLM backends. Each backend has its own circuit breaker; when
// the primary fails or its breaker is open, the next healthy fallback is tried.
type SummarizerFallback struct {
	group *FallbackGroup[summarize.Summarizer]
}

// Compile-time interface assertion.
var _ summarize.Summarizer = (*SummarizerFallback)(nil)

// NewSummarizerFallback creates a [SummarizerFallback] with primary as the
// preferred backend.
func NewSummarizerFallback(primary summarize.Summarizer, primaryName string, cfg FallbackConfig) *SummarizerFallback {
	return &SummarizerFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional summarization provider as a fallback.
func (f *SummarizerFallback) AddFallback(name string, provider summarize.Summarizer) {
	f.group.AddFallback(name, provider)
}

// Summarize sends the transcript to the first healthy provider and returns its
// summary. If the primary fails, subsequent fallbacks are tried.
func (f *SummarizerFallback) Summarize(ctx context.Context, transcript string) (string, error) {
	return ExecuteWithResult(f.group, func(s summarize.Summarizer) (string, error) {
		return s.Summarize(ctx, transcript)
	})
}
