package main

import (
	"math"

	"github.com/cwbudde/algo-synth/synth"
)

type knobDef struct {
	Name string
	Min  float64
	Max  float64
}

type candidate struct {
	Vals []float64
}

// patch is one fully resolved parameter set for the engine.
type patch struct {
	Attack      float64 `json:"attack"`
	Decay       float64 `json:"decay"`
	Sustain     float64 `json:"sustain"`
	Release     float64 `json:"release"`
	Cutoff      float64 `json:"cutoff"`
	Resonance   float64 `json:"resonance"`
	FilterDrive float64 `json:"filter_drive"`
	Saturation  float64 `json:"saturation"`
	Detune      float64 `json:"detune"`
	ReverbDecay float64 `json:"reverb_decay"`
	ReverbDamp  float64 `json:"reverb_damping"`
	ReverbWet   float64 `json:"reverb_wet"`
	ChorusDepth float64 `json:"chorus_depth"`
	ChorusRate  float64 `json:"chorus_rate"`
}

// knobDefs returns the searchable parameter space. Chorus knobs only enter
// the space when a chorus mode is active, since they are inert otherwise.
func knobDefs(withChorus bool) []knobDef {
	defs := []knobDef{
		{Name: "attack", Min: 0.001, Max: 2.0},
		{Name: "decay", Min: 0.001, Max: 2.0},
		{Name: "sustain", Min: 0.0, Max: 1.0},
		{Name: "release", Min: 0.01, Max: 4.0},
		{Name: "cutoff", Min: 80, Max: 12000},
		{Name: "resonance", Min: 0.0, Max: 3.5},
		{Name: "filter_drive", Min: 0.3, Max: 4.0},
		{Name: "saturation", Min: 0.0, Max: 2.0},
		{Name: "detune", Min: 0.0, Max: 0.01},
		{Name: "reverb_decay", Min: 0.0, Max: 0.98},
		{Name: "reverb_damping", Min: 0.0, Max: 1.0},
		{Name: "reverb_wet", Min: 0.0, Max: 0.8},
	}
	if withChorus {
		defs = append(defs,
			knobDef{Name: "chorus_depth", Min: 0.0, Max: 0.05},
			knobDef{Name: "chorus_rate", Min: 0.1, Max: 4.0},
		)
	}
	return defs
}

// fromNormalized maps an optimizer position in [0,1]^n onto knob ranges.
func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i := range defs {
		x := 0.0
		if i < len(pos) {
			x = clamp01(pos[i])
		}
		vals[i] = defs[i].Min + x*(defs[i].Max-defs[i].Min)
	}
	return candidate{Vals: vals}
}

// toPatch resolves a candidate against the knob definitions.
func toPatch(defs []knobDef, c candidate) patch {
	p := patch{ChorusRate: 0.5}
	for i, def := range defs {
		if i >= len(c.Vals) {
			break
		}
		v := c.Vals[i]
		switch def.Name {
		case "attack":
			p.Attack = v
		case "decay":
			p.Decay = v
		case "sustain":
			p.Sustain = v
		case "release":
			p.Release = v
		case "cutoff":
			p.Cutoff = v
		case "resonance":
			p.Resonance = v
		case "filter_drive":
			p.FilterDrive = v
		case "saturation":
			p.Saturation = v
		case "detune":
			p.Detune = v
		case "reverb_decay":
			p.ReverbDecay = v
		case "reverb_damping":
			p.ReverbDamp = v
		case "reverb_wet":
			p.ReverbWet = v
		case "chorus_depth":
			p.ChorusDepth = v
		case "chorus_rate":
			p.ChorusRate = v
		}
	}
	return p
}

// apply configures an engine with the patch.
func (p patch) apply(e *synth.Engine, chorus synth.ChorusMode) {
	e.SetAttack(float32(p.Attack))
	e.SetDecay(float32(p.Decay))
	e.SetSustain(float32(p.Sustain))
	e.SetRelease(float32(p.Release))
	e.SetCutoff(float32(p.Cutoff))
	e.SetResonance(float32(p.Resonance))
	e.SetFilterDrive(float32(p.FilterDrive))
	e.SetSaturation(float32(p.Saturation))
	e.SetDetune(float32(p.Detune))
	e.SetReverbDecay(float32(p.ReverbDecay))
	e.SetReverbDamping(float32(p.ReverbDamp))
	e.SetReverbWet(float32(p.ReverbWet))
	e.SetChorusMode(chorus)
	if chorus != synth.ChorusOff {
		e.SetChorusDepth(float32(p.ChorusDepth))
		e.SetChorusRate(float32(p.ChorusRate))
	}
}

func cloneCandidate(c candidate) candidate {
	out := candidate{Vals: make([]float64, len(c.Vals))}
	copy(out.Vals, c.Vals)
	return out
}

func clamp01(x float64) float64 {
	return math.Min(1, math.Max(0, x))
}
