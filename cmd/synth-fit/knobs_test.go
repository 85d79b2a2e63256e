package main

import (
	"testing"

	"github.com/cwbudde/algo-synth/synth"
)

func TestKnobDefsChorusToggle(t *testing.T) {
	base := knobDefs(false)
	withChorus := knobDefs(true)
	if len(withChorus) != len(base)+2 {
		t.Fatalf("expected 2 extra chorus knobs, got %d vs %d", len(withChorus), len(base))
	}
	for _, d := range base {
		if d.Name == "chorus_depth" || d.Name == "chorus_rate" {
			t.Fatalf("chorus knob %q present without chorus", d.Name)
		}
	}
}

func TestFromNormalizedMapsBounds(t *testing.T) {
	defs := knobDefs(false)
	lo := fromNormalized(make([]float64, len(defs)), defs)
	hi := fromNormalized(onesPosition(len(defs)), defs)
	for i, d := range defs {
		if lo.Vals[i] != d.Min {
			t.Fatalf("%s: expected min %f at pos 0, got %f", d.Name, d.Min, lo.Vals[i])
		}
		if hi.Vals[i] != d.Max {
			t.Fatalf("%s: expected max %f at pos 1, got %f", d.Name, d.Max, hi.Vals[i])
		}
	}
}

func TestFromNormalizedClampsOutOfRange(t *testing.T) {
	defs := knobDefs(false)
	pos := make([]float64, len(defs))
	for i := range pos {
		pos[i] = 7.5
	}
	c := fromNormalized(pos, defs)
	for i, d := range defs {
		if c.Vals[i] != d.Max {
			t.Fatalf("%s: expected clamp to max %f, got %f", d.Name, d.Max, c.Vals[i])
		}
	}
}

func TestToPatchRoundTrip(t *testing.T) {
	defs := knobDefs(true)
	pos := centerPosition(len(defs))
	c := fromNormalized(pos, defs)
	p := toPatch(defs, c)
	if p.Cutoff <= 80 || p.Cutoff >= 12000 {
		t.Fatalf("expected mid-range cutoff, got %f", p.Cutoff)
	}
	if p.ChorusRate <= 0 {
		t.Fatalf("expected positive chorus rate, got %f", p.ChorusRate)
	}

	e := synth.New(48000, 2)
	p.apply(e, synth.ChorusII)
	out := e.Process(64)
	if len(out) != 128 {
		t.Fatalf("expected engine to render after patch apply, got %d samples", len(out))
	}
}

func onesPosition(n int) []float64 {
	pos := make([]float64, n)
	for i := range pos {
		pos[i] = 1
	}
	return pos
}
