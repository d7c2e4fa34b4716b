package resilience

import (
	"context"

	"github.com/MrWong99/minutescribe/pkg/asr"
	"github.com/MrWong99/minutescribe/pkg/audio"
)

// ASRFallback implements [asr.Transcriber] with automatic failover across
// multiple transcription backends. Each backend has its own circuit breaker;
// when the primary fails or its breaker is open, the next healthy fallback is
// tried.
//
// All backends in a group must report the same granularity, since the
// speaker attribution strategy is chosen from it once per run.
type ASRFallback struct {
	group *FallbackGroup[asr.Transcriber]
}

// Compile-time interface assertion.
var _ asr.Transcriber = (*ASRFallback)(nil)

// NewASRFallback creates an [ASRFallback] with primary as the preferred backend.
func NewASRFallback(primary asr.Transcriber, primaryName string, cfg FallbackConfig) *ASRFallback {
	return &ASRFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional transcription provider as a fallback.
func (f *ASRFallback) AddFallback(name string, provider asr.Transcriber) {
	f.group.AddFallback(name, provider)
}

// Transcribe sends the recording to the first healthy provider and returns its
// units. If the primary fails, subsequent fallbacks are tried.
func (f *ASRFallback) Transcribe(ctx context.Context, wav audio.Waveform) ([]asr.Unit, error) {
	return ExecuteWithResult(f.group, func(t asr.Transcriber) ([]asr.Unit, error) {
		return t.Transcribe(ctx, wav)
	})
}

// Granularity returns the granularity of the first entry (the primary).
// This does not participate in failover because granularity is static metadata.
func (f *ASRFallback) Granularity() asr.Granularity {
	if len(f.group.entries) > 0 {
		return f.group.entries[0].value.Granularity()
	}
	return asr.GranularitySegment
}
