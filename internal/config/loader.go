package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"diarizer":   {"pyannote"},
	"asr":        {"whisper", "whisper-native", "vosk"},
	"summarizer": {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
}

// segmentCapableASR lists ASR providers that can transcribe pre-cut
// speech segments, a requirement of sequential mode.
var segmentCapableASR = []string{"whisper"}

// Load reads the YAML configuration file at path and returns a
// validated [Config]. It is a convenience wrapper around
// [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.MaxUploadMB < 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb %d must not be negative", cfg.Server.MaxUploadMB))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Pipeline
	mode := cfg.Pipeline.Mode
	if mode != "" && mode != "sequential" && mode != "parallel" {
		errs = append(errs, fmt.Errorf("pipeline.mode %q is invalid; valid values: sequential, parallel", mode))
	}
	if cfg.Pipeline.SegmentWorkers < 0 {
		errs = append(errs, fmt.Errorf("pipeline.segment_workers %d must not be negative", cfg.Pipeline.SegmentWorkers))
	}
	for i, name := range cfg.Pipeline.Attendees {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Errorf("pipeline.attendees[%d] must not be blank", i))
		}
	}

	// Providers
	if cfg.Providers.Diarizer.Name == "" {
		errs = append(errs, errors.New("providers.diarizer.name is required"))
	}
	if cfg.Providers.ASR.Name == "" {
		errs = append(errs, errors.New("providers.asr.name is required"))
	}
	validateProviderName("diarizer", cfg.Providers.Diarizer.Name)
	validateProviderName("asr", cfg.Providers.ASR.Name)
	validateProviderName("summarizer", cfg.Providers.Summarizer.Name)

	// Mode ↔ ASR cross-validation. Sequential mode submits individual
	// speech segments, which word-streaming providers cannot serve.
	if mode == "sequential" && cfg.Providers.ASR.Name != "" {
		if !slices.Contains(segmentCapableASR, cfg.Providers.ASR.Name) {
			errs = append(errs, fmt.Errorf("pipeline.mode %q requires a segment-capable ASR provider (one of: %s), got %q",
				mode, strings.Join(segmentCapableASR, ", "), cfg.Providers.ASR.Name))
		}
	}

	// Fallback chains
	if len(cfg.Providers.Diarizer.Fallbacks) > 0 {
		errs = append(errs, errors.New("providers.diarizer.fallbacks is not supported"))
	}
	if len(cfg.Providers.ASR.Fallbacks) > 0 && mode == "sequential" {
		errs = append(errs, errors.New("providers.asr.fallbacks requires pipeline.mode \"parallel\""))
	}
	for i, fb := range cfg.Providers.ASR.Fallbacks {
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("providers.asr.fallbacks[%d].name is required", i))
		}
		validateProviderName("asr", fb.Name)
	}
	for i, fb := range cfg.Providers.Summarizer.Fallbacks {
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("providers.summarizer.fallbacks[%d].name is required", i))
		}
		validateProviderName("summarizer", fb.Name)
	}

	// Availability warnings
	if cfg.Providers.Summarizer.Name == "" {
		slog.Warn("providers.summarizer is not configured; meetings will be transcribed but not summarized")
	}
	if cfg.Archive.PostgresDSN == "" {
		slog.Warn("archive.postgres_dsn is empty; processed meetings will not be persisted")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not
// found in the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
