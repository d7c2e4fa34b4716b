// Package summarize defines the meeting summarization provider
// contract and the prompt template handed to LLM backends.
package summarize

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Summarizer turns a rendered "speaker: text" transcript into a free
// text meeting summary. Implementations wrap an LLM invocation and
// must be safe for concurrent use.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// DefaultSystemPrompt instructs the model on its role before the
// transcript is presented.
const DefaultSystemPrompt = "You are an assistant that writes concise, well-structured " +
	"meeting summaries. Capture decisions, action items with owners, and open questions. " +
	"Do not invent content that is not present in the transcript."

// DefaultUserTemplate is the prompt wrapped around the transcript when
// no template file is configured. The %s placeholder receives the
// rendered transcript.
const DefaultUserTemplate = "Summarize the following meeting transcript:\n\n%s"

// PromptTemplate renders the user prompt around a transcript.
type PromptTemplate struct {
	format string
}

// NewPromptTemplate builds a template from format, which must contain
// exactly one %s placeholder for the transcript.
func NewPromptTemplate(format string) (PromptTemplate, error) {
	if strings.Count(format, "%s") != 1 {
		return PromptTemplate{}, fmt.Errorf("prompt template must contain exactly one %%s placeholder")
	}
	return PromptTemplate{format: format}, nil
}

// LoadPromptTemplate reads a template file from path. An empty path
// yields [DefaultUserTemplate].
func LoadPromptTemplate(path string) (PromptTemplate, error) {
	if path == "" {
		return PromptTemplate{format: DefaultUserTemplate}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return PromptTemplate{}, fmt.Errorf("load prompt template: %w", err)
	}
	tpl, err := NewPromptTemplate(string(data))
	if err != nil {
		return PromptTemplate{}, fmt.Errorf("load prompt template %s: %w", path, err)
	}
	return tpl, nil
}

// Render substitutes the transcript into the template.
func (t PromptTemplate) Render(transcript string) string {
	format := t.format
	if format == "" {
		format = DefaultUserTemplate
	}
	return fmt.Sprintf(format, transcript)
}
