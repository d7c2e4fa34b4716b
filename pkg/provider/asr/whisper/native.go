// This file contains the NativeTranscriber implementation backed by the
// whisper.cpp CGO bindings. The whisper.cpp static library (libwhisper.a)
// and headers (whisper.h) must be available at link time via LIBRARY_PATH
// and C_INCLUDE_PATH environment variables.

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/MrWong99/minutescribe/pkg/asr"
	"github.com/MrWong99/minutescribe/pkg/audio"
	"github.com/MrWong99/minutescribe/pkg/timespan"
)

// Compile-time assertion that NativeTranscriber satisfies asr.Transcriber.
var _ asr.Transcriber = (*NativeTranscriber)(nil)

// NativeTranscriber implements asr.Transcriber using the whisper.cpp Go
// bindings (CGO), eliminating HTTP overhead entirely. The model is
// loaded once at startup and shared across all transcriptions; each
// call creates its own inference context, so concurrent calls are safe.
//
// Token-level timing is enabled, so units carry word granularity.
type NativeTranscriber struct {
	model    whisperlib.Model
	language string
}

// NativeOption is a functional option for configuring a NativeTranscriber.
type NativeOption func(*NativeTranscriber)

// WithNativeLanguage sets the BCP-47 language code for transcription
// (e.g., "en", "de", "fr"). Defaults to "en".
func WithNativeLanguage(lang string) NativeOption {
	return func(t *NativeTranscriber) { t.language = lang }
}

// NewNative creates a NativeTranscriber that loads the whisper.cpp
// model from the given file path. The caller must call Close when the
// transcriber is no longer needed.
func NewNative(modelPath string, opts ...NativeOption) (*NativeTranscriber, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	t := &NativeTranscriber{
		model:    model,
		language: defaultLanguage,
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Name identifies the provider in logs and metrics.
func (t *NativeTranscriber) Name() string { return "whisper-native" }

// Granularity reports that units carry word-level timestamps derived
// from whisper.cpp token timing.
func (t *NativeTranscriber) Granularity() asr.Granularity { return asr.GranularityWord }

// Close releases the whisper model. Must be called when the transcriber
// is no longer needed.
func (t *NativeTranscriber) Close() error {
	if t.model != nil {
		return t.model.Close()
	}
	return nil
}

// Transcribe implements asr.Transcriber. The waveform is resampled to
// the 16 kHz mono format whisper.cpp expects before inference.
func (t *NativeTranscriber) Transcribe(ctx context.Context, wav audio.Waveform) ([]asr.Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("whisper: context already cancelled: %w", err)
	}

	if wav.SampleRate != whisperlib.SampleRate {
		wav = audio.Resample(wav, whisperlib.SampleRate)
	}
	samples := wav.Samples

	// Each context is NOT thread-safe, but the model can be shared
	// across goroutines.
	wctx, err := t.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("whisper: create context: %w", err)
	}

	if err := wctx.SetLanguage(t.language); err != nil {
		slog.Warn("whisper: failed to set language, using default", "language", t.language, "error", err)
	}
	wctx.SetTokenTimestamps(true)

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("whisper: process audio: %w", err)
	}

	var units []asr.Unit
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("whisper: read segment: %w", err)
		}
		units = append(units, tokensToWords(wctx, segment)...)
	}
	return units, nil
}

// tokensToWords regroups whisper subword tokens into word-level units.
// Whisper marks word boundaries with a leading space on the first token
// of each word.
func tokensToWords(wctx whisperlib.Context, segment whisperlib.Segment) []asr.Unit {
	var (
		units    []asr.Unit
		word     strings.Builder
		wordSpan timespan.Span
	)

	flush := func() {
		text := strings.TrimSpace(word.String())
		if text != "" {
			units = append(units, asr.Unit{Span: wordSpan, Text: text})
		}
		word.Reset()
	}

	for _, tok := range segment.Tokens {
		if !wctx.IsText(tok) {
			continue
		}
		start := tok.Start.Seconds()
		end := tok.End.Seconds()

		if strings.HasPrefix(tok.Text, " ") && word.Len() > 0 {
			flush()
		}
		if word.Len() == 0 {
			wordSpan = timespan.New(start, end)
		} else {
			wordSpan.End = end
		}
		word.WriteString(tok.Text)
	}
	flush()

	// Fall back to the segment span when token timing is unavailable.
	if len(units) == 0 {
		text := strings.TrimSpace(segment.Text)
		if text != "" {
			units = append(units, asr.Unit{
				Span: timespan.New(segment.Start.Seconds(), segment.End.Seconds()),
				Text: text,
			})
		}
	}
	return units
}
