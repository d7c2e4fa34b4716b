package config

import "slices"

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; provider and
// archive changes require a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// AttendeesChanged is true when the attendee list used for name
	// correction changed.
	AttendeesChanged bool
	NewAttendees     []string

	// PromptTemplateChanged is true when the summary prompt template
	// path changed.
	PromptTemplateChanged bool
	NewPromptTemplate     string
}

// HasChanges reports whether any hot-reloadable field changed.
func (d ConfigDiff) HasChanges() bool {
	return d.LogLevelChanged || d.AttendeesChanged || d.PromptTemplateChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if !slices.Equal(old.Pipeline.Attendees, new.Pipeline.Attendees) {
		d.AttendeesChanged = true
		d.NewAttendees = new.Pipeline.Attendees
	}

	if old.Pipeline.PromptTemplate != new.Pipeline.PromptTemplate {
		d.PromptTemplateChanged = true
		d.NewPromptTemplate = new.Pipeline.PromptTemplate
	}

	return d
}
