// Package mock provides a test double for the diarization.Provider
// interface.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/minutescribe/pkg/audio"
	"github.com/MrWong99/minutescribe/pkg/diarization"
)

// Call records a single invocation of Diarize.
type Call struct {
	// Ctx is the context passed to Diarize.
	Ctx context.Context
	// Audio is the waveform passed to Diarize.
	Audio audio.Waveform
}

// Provider is a mock implementation of diarization.Provider.
// The zero value returns no turns and a nil error, which callers treat
// as a recording without speech.
type Provider struct {
	mu sync.Mutex

	// Turns is returned from Diarize when Err is nil.
	Turns []diarization.Turn

	// Err, if non-nil, is returned from Diarize.
	Err error

	// Delay, if set, is awaited before returning. Context cancellation
	// during the delay returns ctx.Err().
	Delay func(ctx context.Context) error

	// Calls records every Diarize invocation in order.
	Calls []Call
}

var _ diarization.Provider = (*Provider)(nil)

// Diarize implements diarization.Provider.
func (p *Provider) Diarize(ctx context.Context, wav audio.Waveform) ([]diarization.Turn, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, Call{Ctx: ctx, Audio: wav})
	delay, turns, err := p.Delay, p.Turns, p.Err
	p.mu.Unlock()

	if delay != nil {
		if derr := delay(ctx); derr != nil {
			return nil, derr
		}
	}
	if err != nil {
		return nil, err
	}
	return turns, nil
}

// CallCount returns the number of recorded Diarize invocations.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
