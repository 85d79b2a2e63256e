package synth

import "math"

// Waveform selects the oscillator's sample-generation formula.
type Waveform int32

const (
	WaveSine Waveform = iota
	WaveSquare
	WaveSawtooth
	WaveTriangle
)

func (w Waveform) String() string {
	switch w {
	case WaveSine:
		return "sine"
	case WaveSquare:
		return "square"
	case WaveSawtooth:
		return "sawtooth"
	case WaveTriangle:
		return "triangle"
	default:
		return "unknown"
	}
}

// ParseWaveform maps a name to a Waveform, defaulting to sawtooth.
func ParseWaveform(name string) Waveform {
	switch name {
	case "sine":
		return WaveSine
	case "square":
		return WaveSquare
	case "triangle":
		return WaveTriangle
	default:
		return WaveSawtooth
	}
}

// Oscillator is an anti-aliased periodic waveform generator. Square, sawtooth
// and triangle edges are corrected with PolyBLEP; sine needs no correction.
// Frequency, volume, waveform and detune are lock-free shared scalars written
// by the control thread and read once per sample by the render thread.
type Oscillator struct {
	sampleRate float32
	phase      float64
	tri        float32 // leaky integrator state for the triangle wave
	frequency  atomicFloat32
	volume     atomicFloat32
	detune     atomicFloat32
	waveform   atomicInt32
	rng        uint32
}

// NewOscillator creates an oscillator at the given sample rate.
func NewOscillator(sampleRate float32) *Oscillator {
	o := &Oscillator{
		sampleRate: sampleRate,
		rng:        0x1f2e3d4c,
	}
	o.frequency.Store(440.0)
	o.volume.Store(1.0)
	o.waveform.Store(int32(WaveSawtooth))
	return o
}

// SetFrequency sets the oscillator frequency in Hz, clamped below Nyquist.
func (o *Oscillator) SetFrequency(freq float32) {
	o.frequency.Store(clampf(freq, 0, 0.5*o.sampleRate))
}

// SetVolume sets the linear output gain, clamped to [0, 1].
func (o *Oscillator) SetVolume(volume float32) {
	o.volume.Store(clampf(volume, 0, 1))
}

// SetWaveform selects the waveform variant.
func (o *Oscillator) SetWaveform(w Waveform) {
	o.waveform.Store(int32(w))
}

// Waveform returns the currently selected waveform.
func (o *Oscillator) Waveform() Waveform {
	return Waveform(o.waveform.Load())
}

// SetDetune sets the per-sample random phase-increment jitter ratio,
// clamped to [0, 0.01].
func (o *Oscillator) SetDetune(ratio float32) {
	o.detune.Store(clampf(ratio, 0, 0.01))
}

// NextSample advances the phase by frequency/sampleRate and emits one sample
// of the selected waveform, scaled by volume.
func (o *Oscillator) NextSample() float32 {
	freq := o.frequency.Load()
	dt := float64(freq) / float64(o.sampleRate)
	if d := o.detune.Load(); d > 0 {
		dt *= 1.0 + float64(d*randBipolar(&o.rng))
	}

	o.phase += dt
	if o.phase >= 1.0 {
		o.phase -= math.Floor(o.phase)
	}
	t := o.phase

	var sample float32
	switch Waveform(o.waveform.Load()) {
	case WaveSine:
		sample = float32(math.Sin(2.0 * math.Pi * t))
	case WaveSquare:
		if t < 0.5 {
			sample = 1.0
		} else {
			sample = -1.0
		}
		sample += polyBlep(t, dt)
		sample -= polyBlep(math.Mod(t+0.5, 1.0), dt)
	case WaveSawtooth:
		sample = float32(2.0*t - 1.0)
		sample -= polyBlep(t, dt)
	case WaveTriangle:
		// Leaky integration of the corrected square yields a band-limited
		// triangle without accumulating DC.
		sq := float32(-1.0)
		if t < 0.5 {
			sq = 1.0
		}
		sq += polyBlep(t, dt)
		sq -= polyBlep(math.Mod(t+0.5, 1.0), dt)
		g := minf(float32(dt)*4.0, 1.0)
		o.tri = g*sq + (1.0-g)*o.tri
		sample = o.tri
	}

	sample = softClip(sample)
	return sample * o.volume.Load()
}

// polyBlep computes the polynomial band-limited step correction for a
// discontinuity near phase t, with dt = frequency/sampleRate as the
// correction window width.
func polyBlep(t float64, dt float64) float32 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return float32(t + t - t*t - 1.0)
	}
	if t > 1.0-dt {
		t = (t - 1.0) / dt
		return float32(t*t + t + t + 1.0)
	}
	return 0
}

// softClip applies a gentle nonlinearity for analog character.
func softClip(x float32) float32 {
	return x * fastTanh(1.5-0.5*x*x)
}
