package main

import (
	"testing"

	"github.com/cwbudde/algo-synth/analysis"
	"github.com/cwbudde/algo-synth/synth"
)

func testConfig(t *testing.T) *optimizationConfig {
	t.Helper()
	cfg := &optimizationConfig{
		defs:         knobDefs(false),
		notes:        []int{69},
		chorus:       synth.ChorusOff,
		waveform:     synth.WaveSawtooth,
		sampleRate:   48000,
		duration:     0.5,
		releaseAfter: 0.3,
		topK:         3,
	}
	cfg.reference = renderCandidate(cfg, fromNormalized(centerPosition(len(cfg.defs)), cfg.defs))
	return cfg
}

func TestRenderCandidateProducesAudio(t *testing.T) {
	cfg := testConfig(t)
	mono := renderCandidate(cfg, fromNormalized(centerPosition(len(cfg.defs)), cfg.defs))
	if len(mono) != int(float64(cfg.sampleRate)*cfg.duration) {
		t.Fatalf("unexpected render length %d", len(mono))
	}
	var peak float64
	for _, v := range mono {
		if v > peak {
			peak = v
		}
	}
	if peak <= 0 {
		t.Fatalf("expected non-silent render")
	}
}

func TestEvaluateCandidateSelfMatchScoresLow(t *testing.T) {
	cfg := testConfig(t)
	m := evaluateCandidate(cfg, fromNormalized(centerPosition(len(cfg.defs)), cfg.defs))
	if m.Score > 0.1 {
		t.Fatalf("expected near-zero score matching the reference patch, got %f", m.Score)
	}
}

func TestUpdateTopCandidatesKeepsBestSorted(t *testing.T) {
	defs := knobDefs(false)
	c := fromNormalized(centerPosition(len(defs)), defs)
	var top []topCandidate
	for i, score := range []float64{0.8, 0.2, 0.5, 0.1} {
		top = updateTopCandidates(top, 3, i+1, analysis.Metrics{Score: score}, defs, c)
	}
	if len(top) != 3 {
		t.Fatalf("expected top list capped at 3, got %d", len(top))
	}
	if top[0].Score != 0.1 || top[1].Score != 0.2 || top[2].Score != 0.5 {
		t.Fatalf("top list not sorted by score: %+v", top)
	}
}

func TestReserveEvalStopsAtBudget(t *testing.T) {
	var evals int64
	for i := 0; i < 5; i++ {
		if _, ok := reserveEval(&evals, 3); ok != (i < 3) {
			t.Fatalf("unexpected reservation result at %d", i)
		}
	}
}
