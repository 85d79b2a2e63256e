package synth

import "testing"

func TestVoiceStartsInactive(t *testing.T) {
	v := NewVoice(48000, 1)
	if v.IsActive() {
		t.Fatalf("expected fresh voice to be inactive")
	}
	if v.note != -1 {
		t.Fatalf("expected unassigned note slot, got %d", v.note)
	}
	for i := 0; i < 100; i++ {
		if s := v.RenderNext(); s != 0 {
			t.Fatalf("expected silence from idle voice, got %f at sample %d", s, i)
		}
	}
}

func TestVoiceTriggerSetsFrequencyAndNote(t *testing.T) {
	v := NewVoice(48000, 1)
	v.Trigger(69)
	if v.note != 69 {
		t.Fatalf("expected note 69, got %d", v.note)
	}
	if !v.IsActive() {
		t.Fatalf("expected triggered voice to be active")
	}
	got := v.osc.frequency.Load()
	if got < 439 || got > 441 {
		t.Fatalf("expected oscillator near 440 Hz for note 69, got %f", got)
	}
}

func TestVoiceReleaseKeepsTailSounding(t *testing.T) {
	v := NewVoice(48000, 1)
	v.env.SetAttack(0.001)
	v.env.SetRelease(0.1)
	v.Trigger(60)
	for i := 0; i < 4800; i++ {
		v.RenderNext()
	}
	v.Release()
	if v.note != -1 {
		t.Fatalf("expected note slot cleared on release, got %d", v.note)
	}
	if !v.IsActive() {
		t.Fatalf("expected voice to keep sounding through its release tail")
	}
	for i := 0; v.IsActive(); i++ {
		v.RenderNext()
		if i > 4*48000 {
			t.Fatalf("release tail never ended")
		}
	}
	if v.env.Stage() != StageIdle {
		t.Fatalf("expected idle envelope after tail, got %v", v.env.Stage())
	}
}

func TestVoiceOutputBounded(t *testing.T) {
	v := NewVoice(48000, 5)
	v.osc.SetWaveform(WaveSquare)
	v.filter.SetResonance(3)
	v.Trigger(100)
	for i := 0; i < 48000; i++ {
		s := v.RenderNext()
		if !isFinite(s) || s < -2 || s > 2 {
			t.Fatalf("voice output out of bounds at sample %d: %f", i, s)
		}
	}
}
