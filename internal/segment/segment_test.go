package segment_test

import (
	"testing"

	"github.com/MrWong99/minutescribe/internal/segment"
	"github.com/MrWong99/minutescribe/pkg/audio"
	"github.com/MrWong99/minutescribe/pkg/diarization"
	"github.com/MrWong99/minutescribe/pkg/timespan"
)

func wave(seconds float64, rate int) audio.Waveform {
	return audio.Waveform{
		Samples:    make([]float32, int(seconds*float64(rate))),
		SampleRate: rate,
	}
}

func turn(start, end float64, speaker string) diarization.Turn {
	return diarization.Turn{Span: timespan.New(start, end), Speaker: speaker}
}

func TestSplit_CutsAlongTimelineSupport(t *testing.T) {
	t.Parallel()

	wav := wave(10, 16000)
	ann := diarization.NewAnnotation([]diarization.Turn{
		turn(0, 2, "SPEAKER_0"),
		turn(2, 4, "SPEAKER_1"), // touches previous, same support interval
		turn(6, 8, "SPEAKER_0"),
	})

	got := segment.Split(wav, ann)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Span != timespan.New(0, 4) {
		t.Errorf("segment 0 span = %v, want [0,4)", got[0].Span)
	}
	if got[1].Span != timespan.New(6, 8) {
		t.Errorf("segment 1 span = %v, want [6,8)", got[1].Span)
	}
	if len(got[0].Audio.Samples) != 4*16000 {
		t.Errorf("segment 0 samples = %d, want %d", len(got[0].Audio.Samples), 4*16000)
	}
}

func TestSplit_ClipsToAudioBounds(t *testing.T) {
	t.Parallel()

	wav := wave(5, 16000)
	ann := diarization.NewAnnotation([]diarization.Turn{
		turn(-1, 2, "SPEAKER_0"), // overhangs the start
		turn(4, 9, "SPEAKER_1"),  // overhangs the end
	})

	got := segment.Split(wav, ann)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Span != timespan.New(0, 2) {
		t.Errorf("segment 0 span = %v, want [0,2)", got[0].Span)
	}
	if got[1].Span != timespan.New(4, 5) {
		t.Errorf("segment 1 span = %v, want [4,5)", got[1].Span)
	}
}

func TestSplit_DiscardsSegmentsOutsideAudio(t *testing.T) {
	t.Parallel()

	wav := wave(5, 16000)
	ann := diarization.NewAnnotation([]diarization.Turn{
		turn(7, 9, "SPEAKER_0"), // entirely past the end
		turn(1, 2, "SPEAKER_1"),
	})

	got := segment.Split(wav, ann)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Span != timespan.New(1, 2) {
		t.Errorf("span = %v, want [1,2)", got[0].Span)
	}
}

func TestSplit_NoSpeechYieldsEmpty(t *testing.T) {
	t.Parallel()

	got := segment.Split(wave(5, 16000), diarization.NewAnnotation(nil))
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestSplit_OrderedByStart(t *testing.T) {
	t.Parallel()

	wav := wave(20, 8000)
	ann := diarization.NewAnnotation([]diarization.Turn{
		turn(15, 16, "SPEAKER_2"),
		turn(1, 2, "SPEAKER_0"),
		turn(8, 9, "SPEAKER_1"),
	})

	got := segment.Split(wav, ann)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Span.Start < got[i-1].Span.Start {
			t.Errorf("segment %d out of order", i)
		}
	}
}
