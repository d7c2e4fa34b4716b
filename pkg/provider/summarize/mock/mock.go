// Package mock provides a test double for the summarize.Summarizer
// interface.
//
// Use Summarizer in unit tests to feed controlled summaries without a
// live LLM backend and to verify which transcripts were submitted.
//
// Example:
//
//	s := &mock.Summarizer{Summary: "Everyone agreed."}
//	out, err := s.Summarize(ctx, transcript)
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/minutescribe/pkg/provider/summarize"
)

// Call records a single invocation of Summarize.
type Call struct {
	// Ctx is the context passed to Summarize.
	Ctx context.Context
	// Transcript is the rendered transcript passed to Summarize.
	Transcript string
}

// Summarizer is a mock implementation of summarize.Summarizer.
// The zero value returns an empty summary and a nil error.
type Summarizer struct {
	mu sync.Mutex

	// Summary is returned from Summarize when Err is nil.
	Summary string

	// Err, if non-nil, is returned from Summarize.
	Err error

	// Delay, if set, is awaited before returning. Context cancellation
	// during the delay returns ctx.Err().
	Delay func(ctx context.Context) error

	// Calls records every Summarize invocation in order.
	Calls []Call
}

var _ summarize.Summarizer = (*Summarizer)(nil)

// Summarize implements summarize.Summarizer.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	s.mu.Lock()
	s.Calls = append(s.Calls, Call{Ctx: ctx, Transcript: transcript})
	delay, summary, err := s.Delay, s.Summary, s.Err
	s.mu.Unlock()

	if delay != nil {
		if derr := delay(ctx); derr != nil {
			return "", derr
		}
	}
	if err != nil {
		return "", err
	}
	return summary, nil
}

// CallCount returns the number of recorded Summarize invocations.
func (s *Summarizer) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}
