// Package vosk provides a transcription provider backed by a
// vosk-server instance speaking its WebSocket protocol.
//
// The recording is streamed to the server as raw PCM chunks. Vosk
// replies with one JSON message per chunk, either a partial hypothesis
// or a committed result; committed results carry per-word timestamps,
// so units have word granularity.
//
// Usage:
//
//	t, err := vosk.New("ws://localhost:2700")
//	units, err := t.Transcribe(ctx, wav)
package vosk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coder/websocket"

	"github.com/MrWong99/minutescribe/pkg/asr"
	"github.com/MrWong99/minutescribe/pkg/audio"
	"github.com/MrWong99/minutescribe/pkg/timespan"
)

// defaultChunkSeconds is how much audio each binary frame carries.
// Vosk's own client examples stream in chunks of this order.
const defaultChunkSeconds = 0.2

// Compile-time assertion that Transcriber implements asr.Transcriber.
var _ asr.Transcriber = (*Transcriber)(nil)

// Option is a functional option for configuring a Transcriber.
type Option func(*Transcriber)

// WithChunkSeconds sets the duration of audio sent per WebSocket frame.
// Defaults to 0.2 s.
func WithChunkSeconds(s float64) Option {
	return func(t *Transcriber) {
		t.chunkSeconds = s
	}
}

// Transcriber implements asr.Transcriber against a vosk-server
// WebSocket endpoint. Each Transcribe call opens its own connection, so
// concurrent calls are safe.
type Transcriber struct {
	serverURL    string
	chunkSeconds float64
}

// New creates a Transcriber that connects to the vosk-server at
// serverURL (e.g., "ws://localhost:2700"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Transcriber, error) {
	if serverURL == "" {
		return nil, errors.New("vosk: serverURL must not be empty")
	}
	t := &Transcriber{
		serverURL:    serverURL,
		chunkSeconds: defaultChunkSeconds,
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Name identifies the provider in logs and metrics.
func (t *Transcriber) Name() string { return "vosk" }

// Granularity reports that units carry word-level timestamps.
func (t *Transcriber) Granularity() asr.Granularity { return asr.GranularityWord }

// voskResult is the JSON shape of a committed recognition message.
// Partial messages carry a "partial" field instead and are skipped.
type voskResult struct {
	Result []struct {
		Conf  float64 `json:"conf"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Word  string  `json:"word"`
	} `json:"result"`
	Text string `json:"text"`
}

// Transcribe implements asr.Transcriber. It streams wav to the server
// chunk by chunk and collects the word timings from every committed
// result, including the final one triggered by the EOF marker.
func (t *Transcriber) Transcribe(ctx context.Context, wav audio.Waveform) ([]asr.Unit, error) {
	conn, _, err := websocket.Dial(ctx, t.serverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("vosk: dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// Raise the read limit; a long recording can commit large results.
	conn.SetReadLimit(16 << 20)

	cfg := fmt.Sprintf(`{"config": {"sample_rate": %d, "words": true}}`, wav.SampleRate)
	if err := conn.Write(ctx, websocket.MessageText, []byte(cfg)); err != nil {
		return nil, fmt.Errorf("vosk: send config: %w", err)
	}

	pcm := audio.EncodePCM16(wav)
	chunkBytes := int(t.chunkSeconds*float64(wav.SampleRate)) * 2
	if chunkBytes <= 0 {
		chunkBytes = len(pcm)
	}

	var units []asr.Unit

	// The server answers every audio frame with exactly one JSON
	// message, so writes and reads alternate.
	for off := 0; off < len(pcm); off += chunkBytes {
		end := min(off+chunkBytes, len(pcm))
		if err := conn.Write(ctx, websocket.MessageBinary, pcm[off:end]); err != nil {
			return nil, fmt.Errorf("vosk: send audio: %w", err)
		}
		msg, err := readMessage(ctx, conn)
		if err != nil {
			return nil, err
		}
		units = append(units, parseResult(msg)...)
	}

	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"eof": 1}`)); err != nil {
		return nil, fmt.Errorf("vosk: send eof: %w", err)
	}
	msg, err := readMessage(ctx, conn)
	if err != nil {
		return nil, err
	}
	units = append(units, parseResult(msg)...)

	return units, nil
}

// readMessage reads a single text frame from the server.
func readMessage(ctx context.Context, conn *websocket.Conn) ([]byte, error) {
	_, msg, err := conn.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("vosk: read response: %w", err)
	}
	return msg, nil
}

// parseResult extracts word units from a committed result message.
// Partial and malformed messages yield nothing.
func parseResult(data []byte) []asr.Unit {
	var res voskResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil
	}
	units := make([]asr.Unit, 0, len(res.Result))
	for _, w := range res.Result {
		if w.Word == "" {
			continue
		}
		units = append(units, asr.Unit{
			Span: timespan.New(w.Start, w.End),
			Text: w.Word,
		})
	}
	return units
}

// Ping verifies the server accepts WebSocket connections.
func (t *Transcriber) Ping(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, t.serverURL, nil)
	if err != nil {
		return fmt.Errorf("vosk: ping: %w", err)
	}
	return conn.Close(websocket.StatusNormalClosure, "ping")
}
