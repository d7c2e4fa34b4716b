package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MrWong99/minutescribe/pkg/asr"
	"github.com/MrWong99/minutescribe/pkg/diarization"
	"github.com/MrWong99/minutescribe/pkg/provider/summarize"
)

// ErrProviderNotRegistered is returned by Create* methods when no
// factory has been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	diarizer   map[string]func(ProviderEntry) (diarization.Provider, error)
	asr        map[string]func(ProviderEntry) (asr.Transcriber, error)
	summarizer map[string]func(ProviderEntry) (summarize.Summarizer, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		diarizer:   make(map[string]func(ProviderEntry) (diarization.Provider, error)),
		asr:        make(map[string]func(ProviderEntry) (asr.Transcriber, error)),
		summarizer: make(map[string]func(ProviderEntry) (summarize.Summarizer, error)),
	}
}

// RegisterDiarizer registers a diarization provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterDiarizer(name string, factory func(ProviderEntry) (diarization.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diarizer[name] = factory
}

// RegisterASR registers a transcription provider factory under name.
func (r *Registry) RegisterASR(name string, factory func(ProviderEntry) (asr.Transcriber, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.asr[name] = factory
}

// RegisterSummarizer registers a summarization provider factory under name.
func (r *Registry) RegisterSummarizer(name string, factory func(ProviderEntry) (summarize.Summarizer, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summarizer[name] = factory
}

// CreateDiarizer instantiates a diarization provider using the factory
// registered under entry.Name. Returns [ErrProviderNotRegistered] if no
// factory has been registered for that name.
func (r *Registry) CreateDiarizer(entry ProviderEntry) (diarization.Provider, error) {
	r.mu.RLock()
	factory, ok := r.diarizer[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: diarizer/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateASR instantiates a transcription provider using the factory
// registered under entry.Name.
func (r *Registry) CreateASR(entry ProviderEntry) (asr.Transcriber, error) {
	r.mu.RLock()
	factory, ok := r.asr[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: asr/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateSummarizer instantiates a summarization provider using the
// factory registered under entry.Name.
func (r *Registry) CreateSummarizer(entry ProviderEntry) (summarize.Summarizer, error) {
	r.mu.RLock()
	factory, ok := r.summarizer[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: summarizer/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
