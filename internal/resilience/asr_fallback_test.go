package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/MrWong99/minutescribe/pkg/asr"
	asrmock "github.com/MrWong99/minutescribe/pkg/provider/asr/mock"
	"github.com/MrWong99/minutescribe/pkg/audio"
	"github.com/MrWong99/minutescribe/pkg/timespan"
)

func testWaveform() audio.Waveform {
	return audio.Waveform{Samples: make([]float32, 1600), SampleRate: 16000}
}

func TestASRFallback_PrimarySuccess(t *testing.T) {
	primary := &asrmock.Transcriber{
		Units: []asr.Unit{{Span: timespan.New(0, 1), Text: "from primary"}},
	}
	secondary := &asrmock.Transcriber{
		Units: []asr.Unit{{Span: timespan.New(0, 1), Text: "from secondary"}},
	}

	fb := NewASRFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	units, err := fb.Transcribe(context.Background(), testWaveform())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(units) != 1 || units[0].Text != "from primary" {
		t.Fatalf("units = %+v, want primary result", units)
	}
	if primary.CallCount() != 1 {
		t.Fatalf("primary called %d times, want 1", primary.CallCount())
	}
	if secondary.CallCount() != 0 {
		t.Fatalf("secondary called %d times, want 0", secondary.CallCount())
	}
}

func TestASRFallback_Failover(t *testing.T) {
	primary := &asrmock.Transcriber{Err: errors.New("primary down")}
	secondary := &asrmock.Transcriber{
		Units: []asr.Unit{{Span: timespan.New(0, 1), Text: "from secondary"}},
	}

	fb := NewASRFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	units, err := fb.Transcribe(context.Background(), testWaveform())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(units) != 1 || units[0].Text != "from secondary" {
		t.Fatalf("units = %+v, want secondary result", units)
	}
}

func TestASRFallback_AllFail(t *testing.T) {
	primary := &asrmock.Transcriber{Err: errors.New("primary down")}
	secondary := &asrmock.Transcriber{Err: errors.New("secondary down")}

	fb := NewASRFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	_, err := fb.Transcribe(context.Background(), testWaveform())
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("error = %v, want ErrAllFailed", err)
	}
}

func TestASRFallback_GranularityFromPrimary(t *testing.T) {
	primary := &asrmock.Transcriber{Gran: asr.GranularitySegment}
	secondary := &asrmock.Transcriber{Gran: asr.GranularityWord}

	fb := NewASRFallback(primary, "primary", FallbackConfig{})
	fb.AddFallback("secondary", secondary)

	if got := fb.Granularity(); got != asr.GranularitySegment {
		t.Errorf("Granularity = %q, want primary's %q", got, asr.GranularitySegment)
	}
}

func TestASRFallback_OpenBreakerSkipsPrimary(t *testing.T) {
	primary := &asrmock.Transcriber{Err: errors.New("primary down")}
	secondary := &asrmock.Transcriber{
		Units: []asr.Unit{{Span: timespan.New(0, 1), Text: "ok"}},
	}

	fb := NewASRFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 1},
	})
	fb.AddFallback("secondary", secondary)

	// First call trips the primary's breaker, second call should not
	// touch the primary at all.
	for range 2 {
		if _, err := fb.Transcribe(context.Background(), testWaveform()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if primary.CallCount() != 1 {
		t.Errorf("primary called %d times, want 1 (breaker open)", primary.CallCount())
	}
	if secondary.CallCount() != 2 {
		t.Errorf("secondary called %d times, want 2", secondary.CallCount())
	}
}
