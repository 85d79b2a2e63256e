package synth

import (
	"math"
	"testing"
)

func TestEngineSilentByDefault(t *testing.T) {
	e := New(48000, 8)
	for i := 0; i < 1000; i++ {
		l, r := e.RenderNext()
		if l != 0 || r != 0 {
			t.Fatalf("expected exact silence with no notes, got (%f, %f) at frame %d", l, r, i)
		}
	}
}

func TestEngineSilentWithChorusStaysQuiet(t *testing.T) {
	e := New(48000, 8)
	e.SetChorusMode(ChorusII)
	for i := 0; i < 48000; i++ {
		l, r := e.RenderNext()
		if math.Abs(float64(l)) > 0.01 || math.Abs(float64(r)) > 0.01 {
			t.Fatalf("expected near-silence from idle engine, got (%f, %f) at frame %d", l, r, i)
		}
	}
}

func TestEngineNoteOnProducesSound(t *testing.T) {
	e := New(48000, 8)
	e.NoteOn(60)
	out := make([]float32, 48000)
	for i := range out {
		out[i], _ = e.RenderNext()
	}
	if rms := windowRMS(out[24000:]); rms < 0.001 {
		t.Fatalf("expected audible output after note on, rms=%f", rms)
	}
}

func TestEngineNoteOutOfRangeIgnored(t *testing.T) {
	e := New(48000, 4)
	e.NoteOn(-1)
	e.NoteOn(128)
	e.NoteOff(-1)
	e.NoteOff(128)
	if n := countActive(e); n != 0 {
		t.Fatalf("expected no active voices after out-of-range notes, got %d", n)
	}
}

func TestEnginePoolSizeFixedUnderOverflow(t *testing.T) {
	e := New(48000, 8)
	for note := 60; note < 69; note++ {
		e.NoteOn(note)
	}
	if n := e.NumVoices(); n != 8 {
		t.Fatalf("expected pool to stay at 8 voices, got %d", n)
	}
	if n := countActive(e); n != 8 {
		t.Fatalf("expected all 8 voices active, got %d", n)
	}
	notes := assignedNotes(e)
	if len(notes) != 8 {
		t.Fatalf("expected 8 distinct notes held, got %d", len(notes))
	}
	// Exactly one of the nine notes was stolen.
	if _, held := notes[60]; held {
		t.Fatalf("expected the oldest note 60 to be the stolen one")
	}
	for note := 61; note < 69; note++ {
		if notes[note] != 1 {
			t.Fatalf("expected note %d held once, got %d", note, notes[note])
		}
	}
}

func TestEngineStealsOldestTrigger(t *testing.T) {
	e := New(48000, 2)
	e.NoteOn(90)
	e.NoteOn(5)
	e.NoteOn(60)

	notes := assignedNotes(e)
	if _, held := notes[90]; held {
		t.Fatalf("expected the first-triggered voice (note 90) to be stolen")
	}
	for _, note := range []int{5, 60} {
		if notes[note] != 1 {
			t.Fatalf("expected note %d still held, got %d", note, notes[note])
		}
	}
}

func TestEngineNoteOffReleasesOnlyMatching(t *testing.T) {
	e := New(48000, 8)
	e.NoteOn(60)
	e.NoteOn(64)
	e.NoteOn(67)
	e.NoteOff(64)

	notes := assignedNotes(e)
	if _, held := notes[64]; held {
		t.Fatalf("expected note 64 released")
	}
	for _, note := range []int{60, 67} {
		if notes[note] != 1 {
			t.Fatalf("expected note %d unaffected, got %d", note, notes[note])
		}
	}
}

func TestEngineRetriggerNeverDoublesNote(t *testing.T) {
	e := New(48000, 8)
	e.NoteOn(72)
	e.NoteOn(72)
	e.NoteOn(72)
	if notes := assignedNotes(e); notes[72] != 1 {
		t.Fatalf("expected exactly one voice on note 72, got %d", notes[72])
	}
}

func TestEngineProcessInterleavedLength(t *testing.T) {
	e := New(48000, 4)
	e.NoteOn(60)
	out := e.Process(256)
	if len(out) != 512 {
		t.Fatalf("expected 512 interleaved samples for 256 frames, got %d", len(out))
	}
	for i, s := range out {
		if !isFinite(s) {
			t.Fatalf("non-finite sample at %d: %f", i, s)
		}
	}
}

func TestEngineMinimumOneVoice(t *testing.T) {
	e := New(48000, 0)
	if e.NumVoices() != 1 {
		t.Fatalf("expected pool clamped to 1 voice, got %d", e.NumVoices())
	}
}

func TestEngineOutputBoundedUnderFullPolyphony(t *testing.T) {
	e := New(48000, 16)
	e.SetWaveform(WaveSquare)
	e.SetResonance(3)
	e.SetChorusMode(ChorusIV)
	e.SetReverbWet(0.5)
	for i := 0; i < 16; i++ {
		e.NoteOn(40 + i*3)
	}
	for i := 0; i < 48000; i++ {
		l, r := e.RenderNext()
		if !isFinite(l) || !isFinite(r) {
			t.Fatalf("non-finite output at frame %d: (%f, %f)", i, l, r)
		}
		if l < -2 || l > 2 || r < -2 || r > 2 {
			t.Fatalf("output out of bounds at frame %d: (%f, %f)", i, l, r)
		}
	}
}

func TestEngineConcurrentParameterWrites(t *testing.T) {
	e := New(48000, 8)
	e.NoteOn(60)
	e.NoteOn(64)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2000; i++ {
			e.SetCutoff(float32(200 + i))
			e.SetResonance(float32(i%4) * 0.9)
			e.SetAttack(0.01)
			e.SetChorusMix(0.4)
			e.SetReverbDecay(0.7)
			if i%100 == 0 {
				e.NoteOn(40 + i%40)
				e.SetChorusMode(ChorusMode(i % 5))
			}
		}
	}()
	for i := 0; i < 48000; i++ {
		l, r := e.RenderNext()
		if !isFinite(l) || !isFinite(r) {
			t.Fatalf("non-finite output under concurrent writes at frame %d", i)
		}
	}
	<-done
}
