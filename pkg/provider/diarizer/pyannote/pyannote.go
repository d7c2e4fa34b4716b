// Package pyannote provides a speaker diarization provider backed by a
// pyannote.audio sidecar server.
//
// It connects to a running diarization server (which exposes a REST API
// at POST /diarize), uploads the meeting recording as a WAV file, and
// parses the returned speaker turns.
//
// Usage:
//
//	p, err := pyannote.New("http://localhost:8001",
//	    pyannote.WithTimeout(10*time.Minute),
//	)
//	turns, err := p.Diarize(ctx, wav)
package pyannote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/MrWong99/minutescribe/pkg/audio"
	"github.com/MrWong99/minutescribe/pkg/diarization"
	"github.com/MrWong99/minutescribe/pkg/timespan"
)

// defaultTimeout bounds a single diarization request. Diarizing an hour
// of audio on CPU can take several minutes, so this is generous.
const defaultTimeout = 15 * time.Minute

// Compile-time assertion that Provider implements diarization.Provider.
var _ diarization.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithTimeout sets the per-request HTTP timeout. Defaults to 15 minutes.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client entirely. Useful
// for injecting transports in tests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// WithNumSpeakers pins the expected speaker count. When zero (the
// default) the server estimates the count itself.
func WithNumSpeakers(n int) Option {
	return func(p *Provider) {
		p.numSpeakers = n
	}
}

// Provider implements diarization.Provider backed by a pyannote.audio
// HTTP sidecar. It is safe for concurrent use.
type Provider struct {
	serverURL   string
	numSpeakers int
	httpClient  *http.Client
}

// New creates a Provider that connects to the diarization server at
// serverURL (e.g., "http://localhost:8001"). serverURL must be
// non-empty.
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("pyannote: serverURL must not be empty")
	}
	p := &Provider{
		serverURL:  serverURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Name identifies the provider in logs and metrics.
func (p *Provider) Name() string { return "pyannote" }

// diarizeResponse is the JSON shape returned by the sidecar.
type diarizeResponse struct {
	Segments []struct {
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
		Speaker string  `json:"speaker"`
	} `json:"segments"`
	NumSpeakers int `json:"num_speakers"`
}

// Diarize implements diarization.Provider. It encodes wav as a mono WAV
// file, POSTs it to the /diarize endpoint as multipart/form-data, and
// converts the returned segments into speaker turns. An empty segment
// list is not an error; it indicates a recording without speech.
func (p *Provider) Diarize(ctx context.Context, wav audio.Waveform) ([]diarization.Turn, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("pyannote: create form file: %w", err)
	}
	if _, err := fw.Write(audio.EncodeWAV(wav)); err != nil {
		return nil, fmt.Errorf("pyannote: write wav data: %w", err)
	}
	if p.numSpeakers > 0 {
		if err := mw.WriteField("num_speakers", strconv.Itoa(p.numSpeakers)); err != nil {
			return nil, fmt.Errorf("pyannote: write num_speakers field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("pyannote: close multipart writer: %w", err)
	}

	endpoint := p.serverURL + "/diarize"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("pyannote: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pyannote: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pyannote: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("pyannote: read response body: %w", err)
	}

	var result diarizeResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("pyannote: parse JSON response: %w", err)
	}

	turns := make([]diarization.Turn, 0, len(result.Segments))
	for _, seg := range result.Segments {
		turns = append(turns, diarization.Turn{
			Span:    timespan.New(seg.Start, seg.End),
			Speaker: seg.Speaker,
		})
	}
	return turns, nil
}

// Ping checks whether the sidecar is reachable by issuing a GET against
// its health endpoint.
func (p *Provider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.serverURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("pyannote: create request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pyannote: ping: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pyannote: ping returned HTTP %d", resp.StatusCode)
	}
	return nil
}
