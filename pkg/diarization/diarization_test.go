package diarization_test

import (
	"testing"

	"github.com/MrWong99/minutescribe/pkg/diarization"
	"github.com/MrWong99/minutescribe/pkg/timespan"
)

func turns(tt ...diarization.Turn) []diarization.Turn { return tt }

func turn(start, end float64, speaker string) diarization.Turn {
	return diarization.Turn{Span: timespan.New(start, end), Speaker: speaker}
}

func TestNewAnnotation_SortsAndDropsDegenerate(t *testing.T) {
	t.Parallel()

	a := diarization.NewAnnotation(turns(
		turn(5, 10, "SPEAKER_01"),
		turn(3, 3, "SPEAKER_02"), // zero length, dropped
		turn(0, 5, "SPEAKER_00"),
	))

	got := a.Turns()
	if len(got) != 2 {
		t.Fatalf("len(Turns()) = %d, want 2", len(got))
	}
	if got[0].Speaker != "SPEAKER_00" || got[1].Speaker != "SPEAKER_01" {
		t.Errorf("turns not sorted by start: %+v", got)
	}
}

func TestSpeakerAt_BoundaryTieBreak(t *testing.T) {
	t.Parallel()

	a := diarization.NewAnnotation(turns(
		turn(0, 5, "SPEAKER_0"),
		turn(5, 10, "SPEAKER_1"),
	))

	// A word midpoint at exactly 5.0, dilated by the lookup epsilon,
	// touches both turns. First stored turn wins, every time.
	probe := timespan.New(5, 5).Dilate(1e-4)
	for i := 0; i < 10; i++ {
		got, ok := a.SpeakerAt(probe)
		if !ok {
			t.Fatal("SpeakerAt returned no match")
		}
		if got != "SPEAKER_0" {
			t.Fatalf("SpeakerAt = %q, want SPEAKER_0", got)
		}
	}
}

func TestSpeakerAt_NoMatch(t *testing.T) {
	t.Parallel()

	a := diarization.NewAnnotation(turns(turn(0, 5, "SPEAKER_0")))
	if _, ok := a.SpeakerAt(timespan.New(20, 21)); ok {
		t.Error("SpeakerAt matched outside all turns")
	}
}

func TestSpeakerOver(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		turns  []diarization.Turn
		span   timespan.Span
		want   string
		wantOK bool
	}{
		{
			name:   "largest overlap wins",
			turns:  turns(turn(0, 6, "SPEAKER_0"), turn(6, 10, "SPEAKER_1")),
			span:   timespan.New(0, 10),
			want:   "SPEAKER_0",
			wantOK: true,
		},
		{
			name:   "tie goes to first in ordering",
			turns:  turns(turn(0, 5, "SPEAKER_0"), turn(5, 10, "SPEAKER_1")),
			span:   timespan.New(0, 10),
			want:   "SPEAKER_0",
			wantOK: true,
		},
		{
			name:   "split turns accumulate per speaker",
			turns:  turns(turn(0, 2, "SPEAKER_0"), turn(2, 5, "SPEAKER_1"), turn(5, 9, "SPEAKER_0")),
			span:   timespan.New(0, 9),
			want:   "SPEAKER_0",
			wantOK: true,
		},
		{
			name:   "no overlap",
			turns:  turns(turn(0, 5, "SPEAKER_0")),
			span:   timespan.New(10, 12),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := diarization.NewAnnotation(tt.turns)
			got, ok := a.SpeakerOver(tt.span)
			if ok != tt.wantOK {
				t.Fatalf("SpeakerOver ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("SpeakerOver = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOverlapTotals_OrderedByFirstAppearance(t *testing.T) {
	t.Parallel()

	a := diarization.NewAnnotation(turns(
		turn(0, 2, "SPEAKER_1"),
		turn(2, 4, "SPEAKER_0"),
		turn(4, 6, "SPEAKER_1"),
	))

	totals := a.OverlapTotals(timespan.New(0, 6))
	if len(totals) != 2 {
		t.Fatalf("len(totals) = %d, want 2", len(totals))
	}
	if totals[0].Speaker != "SPEAKER_1" || totals[0].Seconds != 4 {
		t.Errorf("totals[0] = %+v, want {SPEAKER_1 4}", totals[0])
	}
	if totals[1].Speaker != "SPEAKER_0" || totals[1].Seconds != 2 {
		t.Errorf("totals[1] = %+v, want {SPEAKER_0 2}", totals[1])
	}
}

func TestCrop(t *testing.T) {
	t.Parallel()

	a := diarization.NewAnnotation(turns(
		turn(0, 5, "SPEAKER_0"),
		turn(5, 10, "SPEAKER_1"),
		turn(12, 15, "SPEAKER_0"),
	))

	cropped := a.Crop(timespan.New(3, 11))
	got := cropped.Turns()
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Span != timespan.New(3, 5) {
		t.Errorf("first cropped span = %v, want [3,5)", got[0].Span)
	}
	if got[1].Span != timespan.New(5, 10) {
		t.Errorf("second cropped span = %v, want [5,10)", got[1].Span)
	}
}

func TestTimeline_MergesTouchingAndOverlapping(t *testing.T) {
	t.Parallel()

	a := diarization.NewAnnotation(turns(
		turn(0, 4, "SPEAKER_0"),
		turn(3, 6, "SPEAKER_1"), // overlaps previous
		turn(6, 8, "SPEAKER_0"), // touches previous
		turn(10, 12, "SPEAKER_1"),
	))

	got := a.Timeline()
	want := []timespan.Span{timespan.New(0, 8), timespan.New(10, 12)}
	if len(got) != len(want) {
		t.Fatalf("Timeline() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Timeline()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTimeline_Empty(t *testing.T) {
	t.Parallel()

	a := diarization.NewAnnotation(nil)
	if got := a.Timeline(); got != nil {
		t.Errorf("Timeline() = %v, want nil", got)
	}
}

func TestSpeakers(t *testing.T) {
	t.Parallel()

	a := diarization.NewAnnotation(turns(
		turn(0, 2, "SPEAKER_1"),
		turn(2, 4, "SPEAKER_0"),
		turn(4, 6, "SPEAKER_1"),
	))

	got := a.Speakers()
	want := []string{"SPEAKER_1", "SPEAKER_0"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Speakers() = %v, want %v", got, want)
	}
}
