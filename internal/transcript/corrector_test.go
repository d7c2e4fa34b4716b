package transcript_test

import (
	"strings"
	"testing"

	"github.com/MrWong99/minutescribe/internal/transcript"
)

// stubMatcher matches any word present in its table.
type stubMatcher struct {
	table map[string]string
}

func (s *stubMatcher) Match(word string, names []string) (string, float64, bool) {
	if corrected, ok := s.table[strings.ToLower(word)]; ok {
		return corrected, 0.9, true
	}
	return word, 0, false
}

func TestCorrector_ReplacesMatchedNames(t *testing.T) {
	t.Parallel()

	matcher := &stubMatcher{table: map[string]string{"yonas": "Jonas"}}
	c := transcript.NewCorrector(matcher, []string{"Jonas"})

	utterances := []transcript.Utterance{
		{Speaker: "SPEAKER_0", Text: "thanks yonas for joining"},
	}
	got, corrections := c.Correct(utterances)

	if got[0].Text != "thanks Jonas for joining" {
		t.Errorf("Text = %q, want %q", got[0].Text, "thanks Jonas for joining")
	}
	if len(corrections) != 1 {
		t.Fatalf("len(corrections) = %d, want 1", len(corrections))
	}
	if corrections[0].Original != "yonas" || corrections[0].Corrected != "Jonas" {
		t.Errorf("correction = %+v", corrections[0])
	}
}

func TestCorrector_MultiWordNameConsumesWindow(t *testing.T) {
	t.Parallel()

	matcher := &stubMatcher{table: map[string]string{"anna lena": "Anna-Lena"}}
	c := transcript.NewCorrector(matcher, []string{"Anna-Lena"})

	got, corrections := c.Correct([]transcript.Utterance{
		{Speaker: "SPEAKER_1", Text: "ask anna lena about it"},
	})

	if got[0].Text != "ask Anna-Lena about it" {
		t.Errorf("Text = %q, want %q", got[0].Text, "ask Anna-Lena about it")
	}
	if len(corrections) != 1 {
		t.Errorf("len(corrections) = %d, want 1", len(corrections))
	}
}

func TestCorrector_NoMatcherPassesThrough(t *testing.T) {
	t.Parallel()

	in := []transcript.Utterance{{Speaker: "SPEAKER_0", Text: "unchanged text"}}

	got, corrections := transcript.NewCorrector(nil, []string{"Jonas"}).Correct(in)
	if got[0].Text != "unchanged text" || corrections != nil {
		t.Error("nil matcher should pass utterances through unchanged")
	}

	got, corrections = transcript.NewCorrector(&stubMatcher{}, nil).Correct(in)
	if got[0].Text != "unchanged text" || corrections != nil {
		t.Error("empty attendee list should pass utterances through unchanged")
	}
}

func TestCorrector_SpeakersAndSpansUntouched(t *testing.T) {
	t.Parallel()

	matcher := &stubMatcher{table: map[string]string{"bob": "Bob"}}
	in := []transcript.Utterance{
		{Speaker: "SPEAKER_0", Text: "bob speaking"},
	}
	in[0].Span.Start, in[0].Span.End = 1.5, 4.5

	got, _ := transcript.NewCorrector(matcher, []string{"Bob"}).Correct(in)
	if got[0].Speaker != "SPEAKER_0" || got[0].Span != in[0].Span {
		t.Errorf("speaker/span changed: %+v", got[0])
	}
	if in[0].Text != "bob speaking" {
		t.Error("input slice was modified")
	}
}
