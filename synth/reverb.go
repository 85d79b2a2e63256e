package synth

import (
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design/shelving"

	"github.com/cwbudde/algo-synth/dsp"
)

const (
	reverbMaxDecay = 0.98
	reverbNumLines = 4

	// Tail coloring: gentle low-shelf lift, high-shelf cut.
	reverbLowShelfHz   = 220.0
	reverbLowShelfDB   = 1.5
	reverbHighShelfHz  = 5200.0
	reverbHighShelfDB  = -3.5
	reverbModDepthSmps = 2.0
)

// Early reflection taps: delays in milliseconds with geometrically falling
// gains.
var reverbEarlyTapsMs = [...]float32{13.1, 19.7, 28.9, 41.3, 56.7}

// Late-field delay lengths in milliseconds, mutually prime-ish so the modes
// never align.
var reverbLineLengthsMs = [reverbNumLines]float32{37.3, 44.9, 53.3, 61.7}

// Per-line modulation rates in Hz, all slow and distinct to break up
// metallic ringing.
var reverbModRatesHz = [reverbNumLines]float32{0.31, 0.43, 0.57, 0.71}

type reverbLine struct {
	delay    *dsp.DelayLine
	length   float32
	lpState  float32
	modPhase float32
	modRate  float32
}

// Reverb is a delay-network ambience effect: a tapped early-reflection line
// feeding a four-line feedback delay network with per-line damping filters,
// slow modulation, and a two-band shelving equalizer on the tail. Decay is
// clamped below 1 so the feedback loop is always stable.
type Reverb struct {
	sampleRate float32

	decay   atomicFloat32
	damping atomicFloat32
	wet     atomicFloat32

	early     *dsp.DelayLine
	earlyTaps []int

	lines [reverbNumLines]reverbLine
	fb    [reverbNumLines]float32

	eq []*biquad.Section
}

// NewReverb creates a reverb sized for the given sample rate.
func NewReverb(sampleRate float32) *Reverb {
	r := &Reverb{sampleRate: sampleRate}
	r.decay.Store(0.5)
	r.damping.Store(0.4)
	r.wet.Store(0.3)

	maxEarly := reverbEarlyTapsMs[len(reverbEarlyTapsMs)-1]
	r.early = dsp.NewDelayLine(int(sampleRate*maxEarly/1000.0) + 4)
	r.earlyTaps = make([]int, len(reverbEarlyTapsMs))
	for i, ms := range reverbEarlyTapsMs {
		r.earlyTaps[i] = int(sampleRate * ms / 1000.0)
	}

	for i := range r.lines {
		length := sampleRate * reverbLineLengthsMs[i] / 1000.0
		r.lines[i] = reverbLine{
			delay:    dsp.NewDelayLine(int(length) + int(reverbModDepthSmps) + 4),
			length:   length,
			modPhase: float32(i) / reverbNumLines,
			modRate:  reverbModRatesHz[i],
		}
	}

	r.eq = buildTailEQ(float64(sampleRate))
	return r
}

// buildTailEQ designs the two shelving bands as biquad cascades. The design
// inputs are fixed and valid, so a failed design degrades to passthrough.
func buildTailEQ(sampleRate float64) []*biquad.Section {
	var sections []*biquad.Section
	low, err := shelving.ButterworthLowShelf(sampleRate, reverbLowShelfHz, reverbLowShelfDB, 1)
	if err != nil {
		low = []biquad.Coefficients{{B0: 1}}
	}
	high, err := shelving.ButterworthHighShelf(sampleRate, reverbHighShelfHz, reverbHighShelfDB, 1)
	if err != nil {
		high = []biquad.Coefficients{{B0: 1}}
	}
	for _, c := range low {
		sections = append(sections, biquad.NewSection(c))
	}
	for _, c := range high {
		sections = append(sections, biquad.NewSection(c))
	}
	return sections
}

// SetDecay sets the feedback decay, clamped to [0, 0.98] for stability.
func (r *Reverb) SetDecay(decay float32) {
	r.decay.Store(clampf(decay, 0, reverbMaxDecay))
}

// Decay returns the stored decay.
func (r *Reverb) Decay() float32 {
	return r.decay.Load()
}

// SetDamping sets the per-line lowpass damping amount, clamped to [0, 1].
func (r *Reverb) SetDamping(damping float32) {
	r.damping.Store(clampf(damping, 0, 1))
}

// SetWet sets the wet fraction, clamped to [0, 1].
func (r *Reverb) SetWet(wet float32) {
	r.wet.Store(clampf(wet, 0, 1))
}

// Process runs one sample through the network and returns the wet/dry mix.
// With wet == 0 the input passes through untouched.
func (r *Reverb) Process(input float32) float32 {
	wet := r.wet.Load()
	decay := r.decay.Load()
	damping := r.damping.Load()

	// Early reflections: weighted taps with geometric falloff.
	r.early.Write(input)
	var earlySum float32
	gain := float32(0.6)
	for _, tap := range r.earlyTaps {
		earlySum += gain * r.early.Read(tap)
		gain *= 0.72
	}
	earlySum += 0.25 * input

	// Late field: each line receives the input plus the decayed mean of the
	// other lines' damped outputs (off-diagonal coupling, zero diagonal).
	var fbNew [reverbNumLines]float32
	var late float32
	for i := range r.lines {
		line := &r.lines[i]

		line.modPhase += line.modRate / r.sampleRate
		if line.modPhase >= 1.0 {
			line.modPhase -= 1.0
		}
		readLen := line.length + reverbModDepthSmps*sin32(line.modPhase)

		raw := line.delay.ReadFractional(readLen)
		line.lpState = raw*(1.0-damping) + line.lpState*damping
		damped := dsp.FlushDenormals(line.lpState)

		var coupled float32
		for j := range r.fb {
			if j != i {
				coupled += r.fb[j]
			}
		}
		coupled /= reverbNumLines - 1

		line.delay.Write(earlySum*0.4 + decay*coupled)

		fbNew[i] = damped
		late += damped
	}
	r.fb = fbNew
	late *= 1.0 / reverbNumLines

	tail := earlySum*0.5 + late
	for _, s := range r.eq {
		tail = float32(s.ProcessSample(float64(tail)))
	}

	return (1.0-wet)*input + wet*tail
}
