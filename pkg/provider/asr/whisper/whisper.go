// Package whisper provides whisper.cpp-backed transcription providers.
//
// Two implementations are available:
//
//   - Transcriber talks to a running whisper-server binary over HTTP
//     (POST /inference) and reports segment-level timestamps.
//   - NativeTranscriber loads the model through the whisper.cpp CGO
//     bindings and reports word-level timestamps via token timing.
//
// Usage:
//
//	t, err := whisper.New("http://localhost:8080",
//	    whisper.WithLanguage("en"),
//	)
//	units, err := t.Transcribe(ctx, wav)
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/MrWong99/minutescribe/pkg/asr"
	"github.com/MrWong99/minutescribe/pkg/audio"
	"github.com/MrWong99/minutescribe/pkg/timespan"
)

const (
	defaultLanguage = "en"
	defaultTimeout  = 15 * time.Minute
)

// Compile-time assertions for both provider contracts.
var (
	_ asr.Transcriber        = (*Transcriber)(nil)
	_ asr.SegmentTranscriber = (*Transcriber)(nil)
)

// Option is a functional option for configuring a Transcriber.
type Option func(*Transcriber)

// WithModel sets the model identifier forwarded to the whisper.cpp
// server (e.g., "base.en", "small"). When empty the server uses
// whichever model it was started with.
func WithModel(model string) Option {
	return func(t *Transcriber) {
		t.model = model
	}
}

// WithLanguage sets the BCP-47 language code sent to the whisper.cpp
// server (e.g., "en", "de", "fr"). Defaults to "en".
func WithLanguage(lang string) Option {
	return func(t *Transcriber) {
		t.language = lang
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 15 minutes.
func WithTimeout(d time.Duration) Option {
	return func(t *Transcriber) {
		t.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client entirely.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transcriber) {
		t.httpClient = c
	}
}

// Transcriber implements asr.Transcriber backed by a whisper.cpp HTTP
// server. It is safe for concurrent use; the server serializes
// inference internally.
type Transcriber struct {
	serverURL  string
	model      string
	language   string
	httpClient *http.Client
}

// New creates a Transcriber that connects to the whisper.cpp HTTP
// server at serverURL (e.g., "http://localhost:8080"). serverURL must
// be non-empty.
func New(serverURL string, opts ...Option) (*Transcriber, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: serverURL must not be empty")
	}
	t := &Transcriber{
		serverURL:  serverURL,
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Name identifies the provider in logs and metrics.
func (t *Transcriber) Name() string { return "whisper" }

// Granularity reports that units carry segment-level timestamps.
// whisper.cpp segments typically span a phrase or sentence.
func (t *Transcriber) Granularity() asr.Granularity { return asr.GranularitySegment }

// inferenceResponse is the verbose_json shape returned by whisper-server.
type inferenceResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe implements asr.Transcriber. It uploads wav to the
// /inference endpoint requesting verbose JSON output and converts the
// returned segments into timestamped units.
func (t *Transcriber) Transcribe(ctx context.Context, wav audio.Waveform) ([]asr.Unit, error) {
	data, err := t.infer(ctx, wav, "verbose_json")
	if err != nil {
		return nil, err
	}

	var result inferenceResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("whisper: parse JSON response: %w", err)
	}

	units := make([]asr.Unit, 0, len(result.Segments))
	for _, seg := range result.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		units = append(units, asr.Unit{
			Span: timespan.New(seg.Start, seg.End),
			Text: text,
		})
	}
	return units, nil
}

// TranscribeSegment implements asr.SegmentTranscriber. It returns the
// plain transcribed text for a single pre-cut speech segment.
func (t *Transcriber) TranscribeSegment(ctx context.Context, wav audio.Waveform) (string, error) {
	data, err := t.infer(ctx, wav, "json")
	if err != nil {
		return "", err
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("whisper: parse JSON response: %w", err)
	}
	return strings.TrimSpace(result.Text), nil
}

// infer encodes wav as a WAV file and POSTs it to the /inference
// endpoint as multipart/form-data, returning the raw response body.
func (t *Transcriber) infer(ctx context.Context, wav audio.Waveform, responseFormat string) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := fw.Write(audio.EncodeWAV(wav)); err != nil {
		return nil, fmt.Errorf("whisper: write wav data: %w", err)
	}
	if err := mw.WriteField("response_format", responseFormat); err != nil {
		return nil, fmt.Errorf("whisper: write response_format field: %w", err)
	}
	if t.language != "" {
		if err := mw.WriteField("language", t.language); err != nil {
			return nil, fmt.Errorf("whisper: write language field: %w", err)
		}
	}
	if t.model != "" {
		if err := mw.WriteField("model", t.model); err != nil {
			return nil, fmt.Errorf("whisper: write model field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	endpoint := t.serverURL + "/inference"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whisper: read response body: %w", err)
	}
	return data, nil
}

// Ping checks whether the whisper server is reachable.
func (t *Transcriber) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.serverURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("whisper: create request: %w", err)
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whisper: ping: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("whisper: ping returned HTTP %d", resp.StatusCode)
	}
	return nil
}
