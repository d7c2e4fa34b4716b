package phonetic_test

import (
	"testing"

	"github.com/MrWong99/minutescribe/internal/transcript/phonetic"
)

func TestMatcher_MishearingMatches(t *testing.T) {
	t.Parallel()

	m := phonetic.New()
	names := []string{"John", "Katharina", "Dimitri"}

	tests := []struct {
		word string
		want string
	}{
		// Same pronunciation, different spelling.
		{"jon", "John"},
		{"katarina", "Katharina"},
		{"demetri", "Dimitri"},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			t.Parallel()
			corrected, conf, matched := m.Match(tt.word, names)
			if !matched {
				t.Fatalf("Match(%q): matched=false, want true", tt.word)
			}
			if corrected != tt.want {
				t.Errorf("Match(%q): corrected=%q, want %q", tt.word, corrected, tt.want)
			}
			if conf < 0.7 {
				t.Errorf("Match(%q): confidence=%f, want >= 0.7", tt.word, conf)
			}
		})
	}
}

func TestMatcher_MultiWordName(t *testing.T) {
	t.Parallel()

	m := phonetic.New()
	names := []string{"Maria Gonzalez", "John"}

	corrected, conf, matched := m.Match("maria gonzales", names)
	if !matched {
		t.Fatal("Match: matched=false, want true")
	}
	if corrected != "Maria Gonzalez" {
		t.Errorf("corrected=%q, want %q", corrected, "Maria Gonzalez")
	}
	if conf < 0.7 {
		t.Errorf("confidence=%f, want >= 0.7", conf)
	}
}

func TestMatcher_NoMatchForOrdinaryWords(t *testing.T) {
	t.Parallel()

	m := phonetic.New()
	names := []string{"Katharina", "Dimitri"}

	corrected, conf, matched := m.Match("hello", names)
	if matched {
		t.Fatalf("Match(%q): matched=true, want false", "hello")
	}
	if corrected != "hello" {
		t.Errorf("corrected=%q, want original word back", corrected)
	}
	if conf != 0 {
		t.Errorf("confidence=%f, want 0", conf)
	}
}

func TestMatcher_ExactMatchHighConfidence(t *testing.T) {
	t.Parallel()

	m := phonetic.New()

	corrected, conf, matched := m.Match("dimitri", []string{"Dimitri", "John"})
	if !matched {
		t.Fatal("matched=false, want true")
	}
	if corrected != "Dimitri" {
		t.Errorf("corrected=%q, want original casing %q", corrected, "Dimitri")
	}
	if conf < 0.9 {
		t.Errorf("confidence=%f, want >= 0.9 for exact match", conf)
	}
}

func TestMatcher_ThresholdsReject(t *testing.T) {
	t.Parallel()

	m := phonetic.New(
		phonetic.WithPhoneticThreshold(0.99),
		phonetic.WithFuzzyThreshold(0.99),
	)

	if _, _, matched := m.Match("jon", []string{"John"}); matched {
		t.Error("near-match should be rejected at threshold 0.99")
	}
}

func TestMatcher_EmptyInputs(t *testing.T) {
	t.Parallel()

	m := phonetic.New()

	if _, _, matched := m.Match("john", nil); matched {
		t.Error("nil name list should never match")
	}
	if corrected, conf, matched := m.Match("", []string{"John"}); matched || corrected != "" || conf != 0 {
		t.Error("empty word should return unchanged with zero confidence")
	}
}
