package timespan_test

import (
	"testing"

	"github.com/MrWong99/minutescribe/pkg/timespan"
)

func TestOverlap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b timespan.Span
		want float64
	}{
		{"partial", timespan.New(0, 10), timespan.New(5, 15), 5},
		{"contained", timespan.New(0, 10), timespan.New(2, 4), 2},
		{"identical", timespan.New(1, 3), timespan.New(1, 3), 2},
		{"disjoint", timespan.New(0, 1), timespan.New(2, 3), 0},
		{"touching", timespan.New(0, 5), timespan.New(5, 10), 0},
		{"degenerate", timespan.New(3, 3), timespan.New(0, 10), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.a.Overlap(tt.b); got != tt.want {
				t.Errorf("Overlap(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			// Overlap is symmetric.
			if got := tt.b.Overlap(tt.a); got != tt.want {
				t.Errorf("Overlap(%v, %v) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestClip(t *testing.T) {
	t.Parallel()

	bounds := timespan.New(0, 60)

	tests := []struct {
		name   string
		in     timespan.Span
		want   timespan.Span
		wantOK bool
	}{
		{"inside", timespan.New(1, 2), timespan.New(1, 2), true},
		{"overhang start", timespan.New(-3, 2), timespan.New(0, 2), true},
		{"overhang end", timespan.New(58, 70), timespan.New(58, 60), true},
		{"fully before", timespan.New(-5, -1), timespan.Span{}, false},
		{"fully after", timespan.New(61, 70), timespan.Span{}, false},
		{"zero length", timespan.New(5, 5), timespan.Span{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := tt.in.Clip(bounds)
			if ok != tt.wantOK {
				t.Fatalf("Clip(%v) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Clip(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMidAndDilate(t *testing.T) {
	t.Parallel()

	s := timespan.New(4.999, 5.001)
	if got := s.Mid(); got != 5.0 {
		t.Errorf("Mid() = %v, want 5.0", got)
	}

	d := timespan.New(5, 5).Dilate(1e-4)
	if !d.IsValid() {
		t.Error("dilated point span should be valid")
	}
	if !d.Contains(5) {
		t.Error("dilated span should contain its center")
	}
}

func TestContainsHalfOpen(t *testing.T) {
	t.Parallel()

	s := timespan.New(0, 5)
	if !s.Contains(0) {
		t.Error("Contains(0) = false, want true (closed start)")
	}
	if s.Contains(5) {
		t.Error("Contains(5) = true, want false (open end)")
	}
}
