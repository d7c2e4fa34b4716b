// Package server exposes the meeting pipeline over HTTP.
//
// Endpoints:
//
//	POST /v1/meetings         upload a WAV recording and process it
//	GET  /v1/meetings         list archived meetings, newest first
//	GET  /v1/meetings/latest  fetch the most recent archived meeting
//	GET  /v1/latest           alias of /v1/meetings/latest
//	GET  /v1/meetings/{id}    fetch one archived meeting
//	GET  /healthz             liveness
//	GET  /readyz              readiness (provider + archive checks)
//	GET  /metrics             Prometheus scrape endpoint
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/minutescribe/internal/archive"
	"github.com/MrWong99/minutescribe/internal/health"
	"github.com/MrWong99/minutescribe/internal/observe"
	"github.com/MrWong99/minutescribe/internal/pipeline"
	"github.com/MrWong99/minutescribe/internal/transcript"
	"github.com/MrWong99/minutescribe/pkg/audio"
)

// defaultMaxUploadMB caps uploaded recordings when the config leaves
// max_upload_mb at zero.
const defaultMaxUploadMB = 512

// defaultListLimit is the page size for GET /v1/meetings when no limit
// query parameter is given.
const defaultListLimit = 20

// Processor runs one recording through the meeting pipeline. Satisfied
// by [pipeline.Pipeline]; tests substitute a stub.
type Processor interface {
	Process(ctx context.Context, wav audio.Waveform, title string) (*pipeline.Result, error)
}

// Config holds the network settings for the HTTP server.
type Config struct {
	// ListenAddr is the TCP address to listen on (e.g., ":8080").
	ListenAddr string

	// MaxUploadMB caps uploaded recording size in mebibytes. Zero means 512.
	MaxUploadMB int

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string
}

// Server is the minutescribe HTTP server. Create with New, start with
// Run, stop with Shutdown.
type Server struct {
	httpSrv   *http.Server
	processor Processor
	store     archive.Store
	maxUpload int64
	certFile  string
	keyFile   string
}

// New assembles the server around its dependencies. store may be nil
// when no archive is configured; the list and fetch endpoints then
// return 404.
func New(cfg Config, processor Processor, store archive.Store, checks *health.Handler, metrics *observe.Metrics) *Server {
	maxMB := cfg.MaxUploadMB
	if maxMB <= 0 {
		maxMB = defaultMaxUploadMB
	}

	s := &Server{
		processor: processor,
		store:     store,
		maxUpload: int64(maxMB) << 20,
		certFile:  cfg.TLSCertFile,
		keyFile:   cfg.TLSKeyFile,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/meetings", s.handleProcess)
	mux.HandleFunc("GET /v1/meetings", s.handleList)
	mux.HandleFunc("GET /v1/meetings/latest", s.handleLatest)
	mux.HandleFunc("GET /v1/latest", s.handleLatest)
	mux.HandleFunc("GET /v1/meetings/{id}", s.handleGet)
	mux.Handle("GET /metrics", promhttp.Handler())
	checks.Register(mux)

	s.httpSrv = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           observe.Middleware(metrics)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the server's root handler, including middleware.
// Used by tests via httptest.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Run listens until ctx is cancelled, then shuts down gracefully.
// Returns nil on a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.certFile != "" && s.keyFile != "" {
			err = s.httpSrv.ListenAndServeTLS(s.certFile, s.keyFile)
		} else {
			err = s.httpSrv.ListenAndServe()
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// ─── Handlers ────────────────────────────────────────────────────────────────

// meetingResponse is the JSON shape for a freshly processed meeting.
type meetingResponse struct {
	ID              int64                `json:"id,omitempty"`
	Title           string               `json:"title,omitempty"`
	DurationSeconds float64              `json:"duration_seconds"`
	Speakers        []string             `json:"speakers"`
	NoSpeech        bool                 `json:"no_speech"`
	Transcript      string               `json:"transcript"`
	Summary         string               `json:"summary,omitempty"`
	Corrections     []correctionResponse `json:"corrections,omitempty"`
}

type correctionResponse struct {
	Original   string  `json:"original"`
	Corrected  string  `json:"corrected"`
	Confidence float64 `json:"confidence"`
}

// archivedResponse is the JSON shape for a meeting fetched from the archive.
type archivedResponse struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title,omitempty"`
	Mode            string    `json:"mode"`
	DurationSeconds float64   `json:"duration_seconds"`
	Speakers        []string  `json:"speakers"`
	NoSpeech        bool      `json:"no_speech"`
	Transcript      string    `json:"transcript"`
	Summary         string    `json:"summary,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// handleProcess accepts a multipart upload with a "file" part holding a
// WAV recording and an optional "title" field, runs the pipeline, and
// returns the result.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	file, _, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart form must contain a \"file\" part")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	wav, err := audio.DecodeWAV(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "decode wav: "+err.Error())
		return
	}

	title := r.FormValue("title")

	result, err := s.processor.Process(r.Context(), wav, title)
	if err != nil {
		observe.Logger(r.Context()).Error("pipeline run failed", "title", title, "err", err)
		writeError(w, http.StatusBadGateway, "processing failed: "+err.Error())
		return
	}

	resp := meetingResponse{
		ID:              result.ArchiveID,
		Title:           title,
		DurationSeconds: wav.Duration(),
		Speakers:        result.Speakers,
		NoSpeech:        result.NoSpeech,
		Transcript:      result.Transcript,
		Summary:         result.Summary,
		Corrections:     toCorrectionResponses(result.Corrections),
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleList returns archived meetings, newest first. The "limit" query
// parameter caps the page size.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "no archive configured")
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	meetings, err := s.store.ListMeetings(r.Context(), limit)
	if err != nil {
		observe.Logger(r.Context()).Error("archive list failed", "err", err)
		writeError(w, http.StatusInternalServerError, "archive unavailable")
		return
	}

	resp := make([]archivedResponse, len(meetings))
	for i, m := range meetings {
		resp[i] = toArchivedResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLatest returns the most recently archived meeting.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "no archive configured")
		return
	}

	m, err := s.store.Latest(r.Context())
	if errors.Is(err, archive.ErrNotFound) {
		writeError(w, http.StatusNotFound, "archive is empty")
		return
	}
	if err != nil {
		observe.Logger(r.Context()).Error("archive fetch failed", "err", err)
		writeError(w, http.StatusInternalServerError, "archive unavailable")
		return
	}
	writeJSON(w, http.StatusOK, toArchivedResponse(m))
}

// handleGet returns one archived meeting by ID.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "no archive configured")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "meeting id must be an integer")
		return
	}

	m, err := s.store.Meeting(r.Context(), id)
	if errors.Is(err, archive.ErrNotFound) {
		writeError(w, http.StatusNotFound, "meeting not found")
		return
	}
	if err != nil {
		observe.Logger(r.Context()).Error("archive fetch failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "archive unavailable")
		return
	}
	writeJSON(w, http.StatusOK, toArchivedResponse(m))
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func toArchivedResponse(m archive.Meeting) archivedResponse {
	return archivedResponse{
		ID:              m.ID,
		Title:           m.Title,
		Mode:            m.Mode,
		DurationSeconds: m.DurationSeconds,
		Speakers:        m.Speakers,
		NoSpeech:        m.NoSpeech,
		Transcript:      m.Transcript,
		Summary:         m.Summary,
		CreatedAt:       m.CreatedAt,
	}
}

func toCorrectionResponses(cs []transcript.Correction) []correctionResponse {
	if len(cs) == 0 {
		return nil
	}
	out := make([]correctionResponse, len(cs))
	for i, c := range cs {
		out[i] = correctionResponse{
			Original:   c.Original,
			Corrected:  c.Corrected,
			Confidence: c.Confidence,
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
