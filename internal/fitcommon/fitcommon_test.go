package fitcommon

import (
	"math"
	"testing"
)

func TestParseNotes(t *testing.T) {
	notes, err := ParseNotes("60, 64,67")
	if err != nil {
		t.Fatalf("ParseNotes error: %v", err)
	}
	if len(notes) != 3 || notes[0] != 60 || notes[1] != 64 || notes[2] != 67 {
		t.Fatalf("unexpected notes: %v", notes)
	}
}

func TestParseNotesRejectsOutOfRange(t *testing.T) {
	if _, err := ParseNotes("60,130"); err == nil {
		t.Fatalf("expected error for note above 127")
	}
	if _, err := ParseNotes(""); err == nil {
		t.Fatalf("expected error for empty list")
	}
	if _, err := ParseNotes("abc"); err == nil {
		t.Fatalf("expected error for non-numeric note")
	}
}

func TestParseWorkers(t *testing.T) {
	if n, err := ParseWorkers("auto"); err != nil || n != 0 {
		t.Fatalf("ParseWorkers(auto) = %d, %v", n, err)
	}
	if n, err := ParseWorkers("4"); err != nil || n != 4 {
		t.Fatalf("ParseWorkers(4) = %d, %v", n, err)
	}
	if _, err := ParseWorkers("0"); err == nil {
		t.Fatalf("expected error for zero workers")
	}
}

func TestStereoToMono64(t *testing.T) {
	mono := StereoToMono64([]float32{1, 0, 0.5, 0.5, -1, 1})
	want := []float64{0.5, 0.5, 0}
	if len(mono) != len(want) {
		t.Fatalf("unexpected length %d", len(mono))
	}
	for i := range want {
		if math.Abs(mono[i]-want[i]) > 1e-9 {
			t.Fatalf("mono[%d] = %f, want %f", i, mono[i], want[i])
		}
	}
}

func TestStereoRMS(t *testing.T) {
	if got := StereoRMS([]float32{1, -1, 1, -1}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("expected RMS 1, got %f", got)
	}
	if got := StereoRMS(nil); got != 0 {
		t.Fatalf("expected RMS 0 for empty input, got %f", got)
	}
}
