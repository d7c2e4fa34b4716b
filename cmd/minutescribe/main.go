// Command minutescribe is the meeting transcription and summarization server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/minutescribe/internal/app"
	"github.com/MrWong99/minutescribe/internal/config"
	"github.com/MrWong99/minutescribe/internal/observe"
	"github.com/MrWong99/minutescribe/internal/resilience"
	"github.com/MrWong99/minutescribe/pkg/asr"
	"github.com/MrWong99/minutescribe/pkg/diarization"
	voskasr "github.com/MrWong99/minutescribe/pkg/provider/asr/vosk"
	whisperasr "github.com/MrWong99/minutescribe/pkg/provider/asr/whisper"
	"github.com/MrWong99/minutescribe/pkg/provider/diarizer/pyannote"
	"github.com/MrWong99/minutescribe/pkg/provider/summarize"
	summanyllm "github.com/MrWong99/minutescribe/pkg/provider/summarize/anyllm"
	summopenai "github.com/MrWong99/minutescribe/pkg/provider/summarize/openai"
)

// version is stamped by the release build.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "minutescribe: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "minutescribe: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	// The level lives in a LevelVar so config reloads can adjust it at runtime.
	levelVar := new(slog.LevelVar)
	levelVar.Set(slogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar}))
	slog.SetDefault(logger)

	slog.Info("minutescribe starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "minutescribe",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(flushCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Summary prompt template ───────────────────────────────────────────────
	tmpl, err := summarize.LoadPromptTemplate(cfg.Pipeline.PromptTemplate)
	if err != nil {
		slog.Error("failed to load prompt template", "path", cfg.Pipeline.PromptTemplate, "err", err)
		return 1
	}

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg, tmpl)

	// ── Instantiate providers ─────────────────────────────────────────────────
	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}
	providers.RebuildSummarizer = func(t summarize.PromptTemplate) (summarize.Summarizer, error) {
		r := config.NewRegistry()
		registerBuiltinProviders(r, t)
		return r.CreateSummarizer(cfg.Providers.Summarizer)
	}

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg)

	application, err := app.New(ctx, cfg, providers, app.WithLogLevelVar(levelVar))
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := application.Run(ctx, *configPath); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// anyllmBackends lists the summarizer names served by the any-llm
// bridge. "openai" is deliberately absent; it goes through the OpenAI
// SDK provider, which also covers OpenAI-compatible local servers.
var anyllmBackends = []string{
	"anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
}

// registerBuiltinProviders wires all built-in provider factories into
// reg. Each factory receives a config.ProviderEntry and constructs the
// provider from the real implementation packages. The prompt template
// is baked into the summarizer factories.
func registerBuiltinProviders(reg *config.Registry, tmpl summarize.PromptTemplate) {
	// ── Diarizer ──────────────────────────────────────────────────────────────

	reg.RegisterDiarizer("pyannote", func(entry config.ProviderEntry) (diarization.Provider, error) {
		var opts []pyannote.Option
		if n := optInt(entry.Options, "num_speakers"); n > 0 {
			opts = append(opts, pyannote.WithNumSpeakers(n))
		}
		if d := optDuration(entry.Options, "timeout"); d > 0 {
			opts = append(opts, pyannote.WithTimeout(d))
		}
		return pyannote.New(entry.BaseURL, opts...)
	})

	// ── ASR ───────────────────────────────────────────────────────────────────

	reg.RegisterASR("whisper", func(entry config.ProviderEntry) (asr.Transcriber, error) {
		var opts []whisperasr.Option
		if entry.Model != "" {
			opts = append(opts, whisperasr.WithModel(entry.Model))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisperasr.WithLanguage(lang))
		}
		return whisperasr.New(entry.BaseURL, opts...)
	})

	reg.RegisterASR("whisper-native", func(entry config.ProviderEntry) (asr.Transcriber, error) {
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = optString(entry.Options, "model_path")
		}
		var opts []whisperasr.NativeOption
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisperasr.WithNativeLanguage(lang))
		}
		return whisperasr.NewNative(modelPath, opts...)
	})

	reg.RegisterASR("vosk", func(entry config.ProviderEntry) (asr.Transcriber, error) {
		var opts []voskasr.Option
		if s := optFloat(entry.Options, "chunk_seconds"); s > 0 {
			opts = append(opts, voskasr.WithChunkSeconds(s))
		}
		return voskasr.New(entry.BaseURL, opts...)
	})

	// ── Summarizer ────────────────────────────────────────────────────────────

	reg.RegisterSummarizer("openai", func(entry config.ProviderEntry) (summarize.Summarizer, error) {
		opts := []summopenai.Option{summopenai.WithPromptTemplate(tmpl)}
		if entry.BaseURL != "" {
			opts = append(opts, summopenai.WithBaseURL(entry.BaseURL))
		}
		if temp, ok := optFloatOK(entry.Options, "temperature"); ok {
			opts = append(opts, summopenai.WithTemperature(temp))
		}
		if n := optInt(entry.Options, "max_tokens"); n > 0 {
			opts = append(opts, summopenai.WithMaxTokens(n))
		}
		return summopenai.New(entry.APIKey, entry.Model, opts...)
	})

	for _, providerName := range anyllmBackends {
		reg.RegisterSummarizer(providerName, func(entry config.ProviderEntry) (summarize.Summarizer, error) {
			var backendOpts []anyllmlib.Option
			if entry.APIKey != "" {
				backendOpts = append(backendOpts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				backendOpts = append(backendOpts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			opts := []summanyllm.Option{summanyllm.WithPromptTemplate(tmpl)}
			if temp, ok := optFloatOK(entry.Options, "temperature"); ok {
				opts = append(opts, summanyllm.WithTemperature(temp))
			}
			if n := optInt(entry.Options, "max_tokens"); n > 0 {
				opts = append(opts, summanyllm.WithMaxTokens(n))
			}
			return summanyllm.New(providerName, entry.Model, backendOpts, opts...)
		})
	}
}

// buildProviders instantiates all providers named in cfg using the
// registry and returns them in an [app.Providers] struct.
func buildProviders(cfg *config.Config, reg *config.Registry) (*app.Providers, error) {
	ps := &app.Providers{}

	if name := cfg.Providers.Diarizer.Name; name != "" {
		p, err := reg.CreateDiarizer(cfg.Providers.Diarizer)
		if err != nil {
			return nil, fmt.Errorf("create diarizer provider %q: %w", name, err)
		}
		ps.Diarizer = p
		slog.Info("provider created", "kind", "diarizer", "name", name)
	}

	if name := cfg.Providers.ASR.Name; name != "" {
		p, err := reg.CreateASR(cfg.Providers.ASR)
		if err != nil {
			return nil, fmt.Errorf("create asr provider %q: %w", name, err)
		}
		ps.ASR = p
		slog.Info("provider created", "kind", "asr", "name", name)

		if fbs := cfg.Providers.ASR.Fallbacks; len(fbs) > 0 {
			group := resilience.NewASRFallback(p, name, resilience.FallbackConfig{})
			for _, fb := range fbs {
				fp, err := reg.CreateASR(fb)
				if err != nil {
					return nil, fmt.Errorf("create asr fallback %q: %w", fb.Name, err)
				}
				group.AddFallback(fb.Name, fp)
				slog.Info("fallback registered", "kind", "asr", "name", fb.Name)
			}
			ps.ASR = group
		}
	}

	if name := cfg.Providers.Summarizer.Name; name != "" {
		p, err := reg.CreateSummarizer(cfg.Providers.Summarizer)
		if err != nil {
			return nil, fmt.Errorf("create summarizer provider %q: %w", name, err)
		}
		ps.Summarizer = p
		slog.Info("provider created", "kind", "summarizer", "name", name)

		if fbs := cfg.Providers.Summarizer.Fallbacks; len(fbs) > 0 {
			group := resilience.NewSummarizerFallback(p, name, resilience.FallbackConfig{})
			for _, fb := range fbs {
				fp, err := reg.CreateSummarizer(fb)
				if err != nil {
					return nil, fmt.Errorf("create summarizer fallback %q: %w", fb.Name, err)
				}
				group.AddFallback(fb.Name, fp)
				slog.Info("fallback registered", "kind", "summarizer", "name", fb.Name)
			}
			ps.Summarizer = group
		}
	}

	return ps, nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║       minutescribe — startup          ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("Diarizer", cfg.Providers.Diarizer.Name, cfg.Providers.Diarizer.Model)
	printProvider("ASR", cfg.Providers.ASR.Name, cfg.Providers.ASR.Model)
	printProvider("Summarizer", cfg.Providers.Summarizer.Name, cfg.Providers.Summarizer.Model)
	mode := cfg.Pipeline.Mode
	if mode == "" {
		mode = "parallel"
	}
	fmt.Printf("║  Mode            : %-19s ║\n", mode)
	fmt.Printf("║  Attendees       : %-19d ║\n", len(cfg.Pipeline.Attendees))
	if cfg.Archive.PostgresDSN != "" {
		fmt.Printf("║  Archive         : %-19s ║\n", "postgres")
	} else {
		fmt.Printf("║  Archive         : %-19s ║\n", "(disabled)")
	}
	if cfg.Server.ListenAddr != "" {
		fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

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

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// optInt extracts an integer option. YAML decodes whole numbers as int.
func optInt(opts map[string]any, key string) int {
	if opts == nil {
		return 0
	}
	switch v := opts[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// optFloat extracts a float option, accepting ints for whole values.
func optFloat(opts map[string]any, key string) float64 {
	f, _ := optFloatOK(opts, key)
	return f
}

// optFloatOK reports whether the key held a numeric value. Needed for
// options where zero is meaningful (e.g., temperature).
func optFloatOK(opts map[string]any, key string) (float64, bool) {
	if opts == nil {
		return 0, false
	}
	switch v := opts[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// optDuration parses a Go duration string option (e.g., "10m").
func optDuration(opts map[string]any, key string) time.Duration {
	s := optString(opts, key)
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		slog.Warn("ignoring invalid duration option", "key", key, "value", s, "err", err)
		return 0
	}
	return d
}
