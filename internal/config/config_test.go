package config_test

import (
	"errors"
	"testing"

	"github.com/MrWong99/minutescribe/internal/config"
	"github.com/MrWong99/minutescribe/pkg/asr"
	"github.com/MrWong99/minutescribe/pkg/diarization"
	asrmock "github.com/MrWong99/minutescribe/pkg/provider/asr/mock"
	diarmock "github.com/MrWong99/minutescribe/pkg/provider/diarizer/mock"
	"github.com/MrWong99/minutescribe/pkg/provider/summarize"
	summock "github.com/MrWong99/minutescribe/pkg/provider/summarize/mock"
)

func TestLogLevel_IsValid(t *testing.T) {
	t.Parallel()

	valid := []config.LogLevel{config.LogDebug, config.LogInfo, config.LogWarn, config.LogError}
	for _, l := range valid {
		if !l.IsValid() {
			t.Errorf("LogLevel(%q).IsValid() = false, want true", l)
		}
	}
	for _, l := range []config.LogLevel{"", "trace", "INFO"} {
		if l.IsValid() {
			t.Errorf("LogLevel(%q).IsValid() = true, want false", l)
		}
	}
}

func TestRegistry_CreateDiarizer(t *testing.T) {
	t.Parallel()

	r := config.NewRegistry()
	r.RegisterDiarizer("pyannote", func(e config.ProviderEntry) (diarization.Provider, error) {
		if e.BaseURL != "http://localhost:8001" {
			t.Errorf("factory received BaseURL %q", e.BaseURL)
		}
		return &diarmock.Provider{}, nil
	})

	p, err := r.CreateDiarizer(config.ProviderEntry{Name: "pyannote", BaseURL: "http://localhost:8001"})
	if err != nil {
		t.Fatalf("CreateDiarizer: %v", err)
	}
	if p == nil {
		t.Fatal("CreateDiarizer returned nil provider")
	}
}

func TestRegistry_CreateASR(t *testing.T) {
	t.Parallel()

	r := config.NewRegistry()
	r.RegisterASR("whisper", func(config.ProviderEntry) (asr.Transcriber, error) {
		return &asrmock.Transcriber{}, nil
	})

	if _, err := r.CreateASR(config.ProviderEntry{Name: "whisper"}); err != nil {
		t.Fatalf("CreateASR: %v", err)
	}
}

func TestRegistry_CreateSummarizer(t *testing.T) {
	t.Parallel()

	r := config.NewRegistry()
	r.RegisterSummarizer("openai", func(config.ProviderEntry) (summarize.Summarizer, error) {
		return &summock.Summarizer{}, nil
	})

	if _, err := r.CreateSummarizer(config.ProviderEntry{Name: "openai"}); err != nil {
		t.Fatalf("CreateSummarizer: %v", err)
	}
}

func TestRegistry_UnregisteredName(t *testing.T) {
	t.Parallel()

	r := config.NewRegistry()
	_, err := r.CreateDiarizer(config.ProviderEntry{Name: "nemo"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("error = %v, want ErrProviderNotRegistered", err)
	}
}

func TestRegistry_Overwrite(t *testing.T) {
	t.Parallel()

	r := config.NewRegistry()
	first := &asrmock.Transcriber{}
	second := &asrmock.Transcriber{}
	r.RegisterASR("whisper", func(config.ProviderEntry) (asr.Transcriber, error) { return first, nil })
	r.RegisterASR("whisper", func(config.ProviderEntry) (asr.Transcriber, error) { return second, nil })

	got, err := r.CreateASR(config.ProviderEntry{Name: "whisper"})
	if err != nil {
		t.Fatalf("CreateASR: %v", err)
	}
	if got != second {
		t.Error("later registration did not overwrite the earlier one")
	}
}
