package config_test

import (
	"testing"

	"github.com/MrWong99/minutescribe/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			ListenAddr: ":8080",
			LogLevel:   config.LogInfo,
		},
		Pipeline: config.PipelineConfig{
			Mode:           "parallel",
			Attendees:      []string{"John Smith", "Maria Gonzalez"},
			PromptTemplate: "/etc/minutescribe/prompt.txt",
		},
	}
}

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()

	d := config.Diff(baseConfig(), baseConfig())
	if d.HasChanges() {
		t.Errorf("Diff of identical configs = %+v, want no changes", d)
	}
}

func TestDiff_LogLevel(t *testing.T) {
	t.Parallel()

	updated := baseConfig()
	updated.Server.LogLevel = config.LogDebug

	d := config.Diff(baseConfig(), updated)
	if !d.LogLevelChanged || d.NewLogLevel != config.LogDebug {
		t.Errorf("diff = %+v, want LogLevelChanged with debug", d)
	}
}

func TestDiff_Attendees(t *testing.T) {
	t.Parallel()

	updated := baseConfig()
	updated.Pipeline.Attendees = append(updated.Pipeline.Attendees, "Dimitri Petrov")

	d := config.Diff(baseConfig(), updated)
	if !d.AttendeesChanged {
		t.Error("AttendeesChanged = false, want true")
	}
	if len(d.NewAttendees) != 3 {
		t.Errorf("NewAttendees = %v", d.NewAttendees)
	}
}

func TestDiff_PromptTemplate(t *testing.T) {
	t.Parallel()

	updated := baseConfig()
	updated.Pipeline.PromptTemplate = "/etc/minutescribe/other.txt"

	d := config.Diff(baseConfig(), updated)
	if !d.PromptTemplateChanged || d.NewPromptTemplate != "/etc/minutescribe/other.txt" {
		t.Errorf("diff = %+v, want PromptTemplateChanged", d)
	}
}

func TestDiff_ProviderChangeIsNotHotReloadable(t *testing.T) {
	t.Parallel()

	updated := baseConfig()
	updated.Providers.ASR.Name = "vosk"

	d := config.Diff(baseConfig(), updated)
	if d.HasChanges() {
		t.Errorf("provider change reported as hot-reloadable: %+v", d)
	}
}
