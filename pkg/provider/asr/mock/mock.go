// Package mock provides test doubles for the asr.Transcriber and
// asr.SegmentTranscriber interfaces.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/minutescribe/pkg/asr"
	"github.com/MrWong99/minutescribe/pkg/audio"
)

// Call records a single invocation of Transcribe or TranscribeSegment.
type Call struct {
	// Ctx is the context passed to the method.
	Ctx context.Context
	// Audio is the waveform passed to the method.
	Audio audio.Waveform
}

// Transcriber is a mock implementation of asr.Transcriber.
// The zero value reports word granularity and returns no units.
type Transcriber struct {
	mu sync.Mutex

	// Units is returned from Transcribe when Err is nil.
	Units []asr.Unit

	// Gran overrides the reported granularity. Empty means word.
	Gran asr.Granularity

	// Err, if non-nil, is returned from Transcribe.
	Err error

	// Delay, if set, is awaited before returning. Context cancellation
	// during the delay returns ctx.Err().
	Delay func(ctx context.Context) error

	// Calls records every Transcribe invocation in order.
	Calls []Call
}

var _ asr.Transcriber = (*Transcriber)(nil)

// Transcribe implements asr.Transcriber.
func (t *Transcriber) Transcribe(ctx context.Context, wav audio.Waveform) ([]asr.Unit, error) {
	t.mu.Lock()
	t.Calls = append(t.Calls, Call{Ctx: ctx, Audio: wav})
	delay, units, err := t.Delay, t.Units, t.Err
	t.mu.Unlock()

	if delay != nil {
		if derr := delay(ctx); derr != nil {
			return nil, derr
		}
	}
	if err != nil {
		return nil, err
	}
	return units, nil
}

// Granularity implements asr.Transcriber.
func (t *Transcriber) Granularity() asr.Granularity {
	if t.Gran == "" {
		return asr.GranularityWord
	}
	return t.Gran
}

// CallCount returns the number of recorded Transcribe invocations.
func (t *Transcriber) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Calls)
}

// SegmentTranscriber is a mock implementation of asr.SegmentTranscriber.
// Texts are returned one per call in order; calls beyond the slice get
// an empty string. Set Errs at matching indexes to inject per-segment
// failures.
type SegmentTranscriber struct {
	mu sync.Mutex

	// Texts holds the per-call transcription results.
	Texts []string

	// Errs holds per-call errors; a nil entry means success.
	Errs []error

	// Calls records every TranscribeSegment invocation in order.
	Calls []Call

	next int
}

var _ asr.SegmentTranscriber = (*SegmentTranscriber)(nil)

// TranscribeSegment implements asr.SegmentTranscriber.
func (t *SegmentTranscriber) TranscribeSegment(ctx context.Context, wav audio.Waveform) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Calls = append(t.Calls, Call{Ctx: ctx, Audio: wav})
	i := t.next
	t.next++

	if i < len(t.Errs) && t.Errs[i] != nil {
		return "", t.Errs[i]
	}
	if i < len(t.Texts) {
		return t.Texts[i], nil
	}
	return "", nil
}

// CallCount returns the number of recorded TranscribeSegment invocations.
func (t *SegmentTranscriber) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Calls)
}
