package synth

const (
	filterMinCutoffHz  = 20.0
	filterMaxResonance = 4.0
	filterMinDrive     = 0.1
	filterMaxDrive     = 10.0
	filterMaxSaturate  = 2.0

	// Warping constant for the bilinear-style stage blend.
	filterWarp = 1.16

	// Thermal drift random walk: step size in Hz per sample, with a slow
	// exponential pull back toward zero to keep the walk bounded.
	filterDriftStepHz = 0.05
	filterDriftDecay  = 0.9999
)

// LadderFilter is a nonlinear four-stage lowpass modeled after classic
// transistor-ladder topologies. Each stage coefficient carries a fixed
// per-stage mismatch factor (component tolerance), and the cutoff wanders
// slightly via a bounded thermal-drift random walk. The final stage passes
// through an oversampled tanh saturation.
type LadderFilter struct {
	sampleRate float32

	cutoff     atomicFloat32
	resonance  atomicFloat32
	drive      atomicFloat32
	saturation atomicFloat32

	delay    [4]float32
	mismatch [4]float32
	drift    float32
	prevRaw  float32 // last pre-saturation stage-4 value
	prevOut  float32 // last filter output, feeds the resonance path
	rng      uint32
}

// NewLadderFilter creates a ladder filter with per-stage mismatch factors
// generated once from the given seed.
func NewLadderFilter(sampleRate float32, seed uint32) *LadderFilter {
	f := &LadderFilter{
		sampleRate: sampleRate,
		rng:        seed,
	}
	for i := range f.mismatch {
		// Transistor mismatch within +-0.5% of nominal.
		f.mismatch[i] = 1.0 + 0.005*randBipolar(&f.rng)
	}
	f.cutoff.Store(clampf(1000.0, filterMinCutoffHz, 0.49*sampleRate))
	f.resonance.Store(0.5)
	f.drive.Store(1.0)
	f.saturation.Store(1.0)
	return f
}

// SetCutoff sets the cutoff in Hz, clamped to (20, 0.49*sampleRate).
func (f *LadderFilter) SetCutoff(hz float32) {
	f.cutoff.Store(clampf(hz, filterMinCutoffHz, 0.49*f.sampleRate))
}

// Cutoff returns the stored cutoff in Hz.
func (f *LadderFilter) Cutoff() float32 {
	return f.cutoff.Load()
}

// SetResonance sets the feedback amount, clamped to [0, 4].
func (f *LadderFilter) SetResonance(r float32) {
	f.resonance.Store(clampf(r, 0, filterMaxResonance))
}

// SetDrive sets the input gain into the ladder, clamped to [0.1, 10].
func (f *LadderFilter) SetDrive(d float32) {
	f.drive.Store(clampf(d, filterMinDrive, filterMaxDrive))
}

// SetSaturation sets the output nonlinearity amount, clamped to [0, 2].
func (f *LadderFilter) SetSaturation(s float32) {
	f.saturation.Store(clampf(s, 0, filterMaxSaturate))
}

// Process filters one sample.
func (f *LadderFilter) Process(input float32) float32 {
	// Thermal drift: bounded random walk added to the cutoff in Hz.
	f.drift = (f.drift + filterDriftStepHz*randBipolar(&f.rng)) * filterDriftDecay

	cutoff := clampf(f.cutoff.Load()+f.drift, filterMinCutoffHz, 0.49*f.sampleRate)
	fc := cutoff / (0.5 * f.sampleRate)
	g := fc * filterWarp
	resonance := f.resonance.Load()
	feedback := resonance * (1.0 - 0.15*fc*fc)

	x := input*f.drive.Load() - feedback*f.prevOut

	for i := 0; i < 4; i++ {
		coeff := minf(g*f.mismatch[i], 1.0)
		f.delay[i] = x*coeff + f.delay[i]*(1.0-coeff)
		x = f.delay[i]
	}

	out := f.saturate(x)
	f.prevRaw = x
	f.prevOut = out
	return out
}

// saturate evaluates the tanh nonlinearity three times across the step from
// the previous raw stage-4 value to the current one and averages, a cheap
// oversampling of the nonlinear path.
func (f *LadderFilter) saturate(x float32) float32 {
	sat := f.saturation.Load()
	if sat <= 0 {
		return x
	}
	k := 1.0 + sat
	step := (x - f.prevRaw) / 3.0
	s1 := f.prevRaw + step
	s2 := f.prevRaw + 2.0*step
	sum := fastTanh(s1*k) + fastTanh(s2*k) + fastTanh(x*k)
	// Divide by k so small signals keep roughly unit gain.
	return sum / (3.0 * k)
}
