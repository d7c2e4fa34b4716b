// Package app wires all minutescribe subsystems into a running service.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP until the context is cancelled, and
// Shutdown tears everything down in order.
//
// For testing, inject doubles via functional options (WithStore,
// WithMetrics, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/MrWong99/minutescribe/internal/archive"
	archivepg "github.com/MrWong99/minutescribe/internal/archive/postgres"
	"github.com/MrWong99/minutescribe/internal/config"
	"github.com/MrWong99/minutescribe/internal/health"
	"github.com/MrWong99/minutescribe/internal/observe"
	"github.com/MrWong99/minutescribe/internal/pipeline"
	"github.com/MrWong99/minutescribe/internal/server"
	"github.com/MrWong99/minutescribe/internal/transcript"
	"github.com/MrWong99/minutescribe/internal/transcript/phonetic"
	"github.com/MrWong99/minutescribe/pkg/asr"
	"github.com/MrWong99/minutescribe/pkg/audio"
	"github.com/MrWong99/minutescribe/pkg/diarization"
	"github.com/MrWong99/minutescribe/pkg/provider/summarize"
)

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured. Populated by main.go via the config
// registry.
type Providers struct {
	Diarizer   diarization.Provider
	ASR        asr.Transcriber
	Summarizer summarize.Summarizer

	// RebuildSummarizer, when set, is called on a prompt template
	// change detected by the config watcher. It returns a summarizer
	// using the new template, which replaces the active one on the
	// next pipeline swap. Without it, template changes need a restart.
	RebuildSummarizer func(summarize.PromptTemplate) (summarize.Summarizer, error)
}

// pinger is the optional health probe providers may expose.
type pinger interface {
	Ping(ctx context.Context) error
}

// named is implemented by providers that report a display name.
type named interface {
	Name() string
}

// App owns all subsystem lifetimes and serves the minutescribe HTTP API.
type App struct {
	cfg       *config.Config
	providers *Providers

	// Subsystems. The pipeline is behind an atomic pointer so config
	// reloads can swap in a rebuilt one without interrupting in-flight
	// requests.
	store    archive.Store
	metrics  *observe.Metrics
	pipe     atomic.Pointer[pipeline.Pipeline]
	srv      *server.Server
	watcher  *config.Watcher
	levelVar *slog.LevelVar

	// summarizer currently wired into the pipeline. Guarded by
	// reloadMu together with pipeline rebuilds.
	reloadMu   sync.Mutex
	summarizer summarize.Summarizer

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Compile-time check: the App feeds the HTTP layer directly.
var _ server.Processor = (*App)(nil)

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects an archive store instead of creating one from config.
func WithStore(s archive.Store) Option {
	return func(a *App) { a.store = s }
}

// WithMetrics injects a metrics instance instead of the global default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithLogLevelVar hands the App the level var backing the process
// logger so config reloads can adjust verbosity at runtime.
func WithLogLevelVar(v *slog.LevelVar) Option {
	return func(a *App) { a.levelVar = v }
}

// New creates an App by wiring all subsystems together. The providers
// struct comes from main.go (populated via the config registry).
//
// New performs all initialisation synchronously: archive connection,
// pipeline construction, health checks, and HTTP server assembly.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil || providers.Diarizer == nil {
		return nil, fmt.Errorf("app: a diarization provider is required")
	}

	a := &App{
		cfg:        cfg,
		providers:  providers,
		summarizer: providers.Summarizer,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// 1. Archive store.
	if err := a.initArchive(ctx); err != nil {
		return nil, fmt.Errorf("app: init archive: %w", err)
	}

	// 2. Pipeline.
	p, err := a.buildPipeline(cfg.Pipeline.Attendees)
	if err != nil {
		return nil, fmt.Errorf("app: build pipeline: %w", err)
	}
	a.pipe.Store(p)

	// 3. HTTP server with health checks.
	a.srv = server.New(serverConfig(cfg.Server), a, a.store, health.New(a.healthCheckers()...), a.metrics)

	return a, nil
}

// Process runs one recording through the current pipeline. Implements
// [server.Processor]; the indirection lets config reloads swap the
// pipeline under running requests.
func (a *App) Process(ctx context.Context, wav audio.Waveform, title string) (*pipeline.Result, error) {
	return a.pipe.Load().Process(ctx, wav, title)
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initArchive connects the PostgreSQL archive when a DSN is configured
// and no store was injected.
func (a *App) initArchive(ctx context.Context) error {
	if a.store != nil {
		return nil
	}

	dsn := a.cfg.Archive.PostgresDSN
	if dsn == "" {
		slog.Info("no archive configured, meetings will not be persisted")
		return nil
	}

	store, err := archivepg.NewStore(ctx, dsn)
	if err != nil {
		return err
	}
	a.store = store
	a.closers = append(a.closers, func() error {
		store.Close()
		return nil
	})
	return nil
}

// buildPipeline assembles a pipeline from the current config, providers,
// and the given attendee list.
func (a *App) buildPipeline(attendees []string) (*pipeline.Pipeline, error) {
	mode := pipeline.Mode(a.cfg.Pipeline.Mode)
	if a.cfg.Pipeline.Mode == "" {
		mode = pipeline.ModeParallel
	}

	opts := []pipeline.Option{
		pipeline.WithMode(mode),
		pipeline.WithMetrics(a.metrics),
	}

	switch mode {
	case pipeline.ModeSequential:
		st, ok := a.providers.ASR.(asr.SegmentTranscriber)
		if !ok {
			return nil, fmt.Errorf("asr provider %s cannot transcribe individual segments", providerName(a.providers.ASR))
		}
		opts = append(opts, pipeline.WithSegmentTranscriber(st))
	default:
		if a.providers.ASR == nil {
			return nil, fmt.Errorf("parallel mode requires an asr provider")
		}
		opts = append(opts, pipeline.WithTranscriber(a.providers.ASR))
	}

	if a.summarizer != nil {
		opts = append(opts, pipeline.WithSummarizer(a.summarizer))
	}
	if len(attendees) > 0 {
		corrector := transcript.NewCorrector(phonetic.New(), attendees)
		opts = append(opts, pipeline.WithCorrector(corrector))
	}
	if a.store != nil {
		opts = append(opts, pipeline.WithStore(a.store))
	}
	if n := a.cfg.Pipeline.SegmentWorkers; n > 0 {
		opts = append(opts, pipeline.WithSegmentWorkers(n))
	}

	return pipeline.New(a.providers.Diarizer, opts...)
}

// healthCheckers builds readiness checks for every subsystem that can
// report reachability.
func (a *App) healthCheckers() []health.Checker {
	var checkers []health.Checker

	if p, ok := a.providers.Diarizer.(pinger); ok {
		checkers = append(checkers, health.PingChecker(checkName("diarizer", a.providers.Diarizer), p.Ping))
	}
	if p, ok := a.providers.ASR.(pinger); ok {
		checkers = append(checkers, health.PingChecker(checkName("asr", a.providers.ASR), p.Ping))
	}
	if p, ok := a.store.(pinger); ok {
		checkers = append(checkers, health.PingChecker("archive", p.Ping))
	}

	return checkers
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves HTTP until ctx is cancelled. When configPath is non-empty,
// a config watcher applies hot-reloadable settings (log level,
// attendees, prompt template) while the server runs.
func (a *App) Run(ctx context.Context, configPath string) error {
	if configPath != "" {
		w, err := config.NewWatcher(configPath, a.applyConfigChange)
		if err != nil {
			slog.Warn("config watcher disabled", "path", configPath, "err", err)
		} else {
			a.watcher = w
			defer w.Stop()
		}
	}

	slog.Info("serving", "addr", a.cfg.Server.ListenAddr)
	return a.srv.Run(ctx)
}

// applyConfigChange reacts to a validated config reload. Only log
// level, attendees, and the prompt template take effect at runtime;
// provider and network changes need a restart.
func (a *App) applyConfigChange(old, new *config.Config) {
	diff := config.Diff(old, new)
	if !diff.HasChanges() {
		return
	}

	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	if diff.LogLevelChanged && a.levelVar != nil {
		a.levelVar.Set(slogLevel(diff.NewLogLevel))
		slog.Info("log level changed", "level", diff.NewLogLevel)
	}

	rebuild := diff.AttendeesChanged

	if diff.PromptTemplateChanged {
		if a.providers.RebuildSummarizer == nil {
			slog.Warn("prompt template changed but summarizer cannot be rebuilt, restart to apply")
		} else {
			tmpl, err := summarize.LoadPromptTemplate(diff.NewPromptTemplate)
			if err != nil {
				slog.Warn("ignoring prompt template change", "path", diff.NewPromptTemplate, "err", err)
			} else if s, err := a.providers.RebuildSummarizer(tmpl); err != nil {
				slog.Warn("ignoring prompt template change", "path", diff.NewPromptTemplate, "err", err)
			} else {
				a.summarizer = s
				rebuild = true
				slog.Info("prompt template reloaded", "path", diff.NewPromptTemplate)
			}
		}
	}

	if !rebuild {
		return
	}

	p, err := a.buildPipeline(new.Pipeline.Attendees)
	if err != nil {
		slog.Warn("keeping previous pipeline", "err", err)
		return
	}
	a.pipe.Store(p)
	slog.Info("pipeline rebuilt from config change", "attendees", len(new.Pipeline.Attendees))
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in reverse-init order. It respects
// the context deadline: if ctx expires before all closers finish,
// remaining closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		if a.watcher != nil {
			a.watcher.Stop()
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// serverConfig converts the config schema into the HTTP server's config.
func serverConfig(sc config.ServerConfig) server.Config {
	out := server.Config{
		ListenAddr:  sc.ListenAddr,
		MaxUploadMB: sc.MaxUploadMB,
	}
	if sc.TLS != nil {
		out.TLSCertFile = sc.TLS.CertFile
		out.TLSKeyFile = sc.TLS.KeyFile
	}
	return out
}

// checkName labels a readiness check with the provider's own name when
// it has one, falling back to the slot name.
func checkName(slot string, v any) string {
	if n, ok := v.(named); ok && n.Name() != "" {
		return slot + ":" + n.Name()
	}
	return slot
}

func providerName(v any) string {
	if n, ok := v.(named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", v)
}

// slogLevel maps a config log level to its slog equivalent.
func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}
