package synth

import (
	"math"

	"github.com/cwbudde/algo-synth/dsp"
)

// ChorusMode selects the ensemble character: off, or one of four voice
// configurations with increasing density.
type ChorusMode int32

const (
	ChorusOff ChorusMode = iota
	ChorusI
	ChorusII
	ChorusIII
	ChorusIV
)

func (m ChorusMode) String() string {
	switch m {
	case ChorusOff:
		return "off"
	case ChorusI:
		return "I"
	case ChorusII:
		return "II"
	case ChorusIII:
		return "III"
	case ChorusIV:
		return "IV"
	default:
		return "unknown"
	}
}

// ParseChorusMode maps a name to a ChorusMode, defaulting to off.
func ParseChorusMode(name string) ChorusMode {
	switch name {
	case "I", "i", "1":
		return ChorusI
	case "II", "ii", "2":
		return ChorusII
	case "III", "iii", "3":
		return ChorusIII
	case "IV", "iv", "4":
		return ChorusIV
	default:
		return ChorusOff
	}
}

const chorusMaxDelayMs = 40.0

// chorusVoice is one modulated delay tap with independent left/right LFO
// state. Rates and depths are slightly randomized so voices never phase-lock.
type chorusVoice struct {
	phaseLeft   float32
	phaseRight  float32
	rateLeft    float32
	rateRight   float32
	depth       float32
	smoothDepth float32
}

// Chorus is a multi-tap modulated delay effect with feedback, pre-filtering,
// saturation and noise dithering. Structural mutation (SetMode, SetRate,
// SetDepth replace or re-randomize the voice set) must be serialized with the
// render thread by the owning engine.
type Chorus struct {
	sampleRate float32
	bufLeft    *dsp.DelayLine
	bufRight   *dsp.DelayLine
	mode       ChorusMode
	voices     []chorusVoice

	rate      float32
	depth     float32
	feedback  atomicFloat32
	wetDryMix atomicFloat32
	satDrive  atomicFloat32

	// One-pole pre-filters, normalized cutoffs fixed at construction.
	lpPrev     float32
	lpCutoff   float32
	hpPrevIn   float32
	hpPrevOut  float32
	hpCutoff   float32
	noisePrev  float32
	noiseLevel float32
	rng        uint32
}

// NewChorus creates a bypassed chorus sized for the maximum modulation delay.
func NewChorus(sampleRate float32) *Chorus {
	size := int(sampleRate * chorusMaxDelayMs / 1000.0)
	c := &Chorus{
		sampleRate: sampleRate,
		bufLeft:    dsp.NewDelayLine(size),
		bufRight:   dsp.NewDelayLine(size),
		mode:       ChorusOff,
		rate:       0.5,
		depth:      0.5,
		lpCutoff:   8000.0 / sampleRate,
		hpCutoff:   20.0 / sampleRate,
		noiseLevel: 0.0005,
		rng:        0x6a09e667,
	}
	c.feedback.Store(0.25)
	c.wetDryMix.Store(0.5)
	c.satDrive.Store(1.2)
	c.voices = []chorusVoice{
		c.newVoice(0.513, 0.515, 0.7),
		c.newVoice(0.75, 0.753, 0.6),
		c.newVoice(0.95, 0.953, 0.5),
	}
	return c
}

func (c *Chorus) newVoice(rateLeft, rateRight, depth float32) chorusVoice {
	return chorusVoice{
		phaseLeft:   randUniform(&c.rng),
		phaseRight:  randUniform(&c.rng),
		rateLeft:    rateLeft,
		rateRight:   rateRight,
		depth:       depth,
		smoothDepth: depth,
	}
}

// Mode returns the current chorus mode.
func (c *Chorus) Mode() ChorusMode {
	return c.mode
}

// SetMode replaces the chorus-voice set with the mode's configuration and
// resets modulation history.
func (c *Chorus) SetMode(mode ChorusMode) {
	c.mode = mode
	switch mode {
	case ChorusOff:
		c.voices = nil
		c.wetDryMix.Store(0)
	case ChorusI:
		c.voices = []chorusVoice{c.newVoice(0.513, 0.515, 0.00535)}
		c.wetDryMix.Store(0.5)
	case ChorusII:
		c.voices = []chorusVoice{c.newVoice(0.863, 0.865, 0.00535)}
		c.wetDryMix.Store(0.8)
	case ChorusIII:
		c.voices = []chorusVoice{
			c.newVoice(0.513, 0.515, 0.0037),
			c.newVoice(0.863, 0.865, 0.0037),
		}
		c.wetDryMix.Store(0.5)
	case ChorusIV:
		c.voices = []chorusVoice{
			c.newVoice(0.5, 0.502, 0.007),
			c.newVoice(0.75, 0.752, 0.006),
			c.newVoice(1.0, 1.002, 0.005),
			c.newVoice(1.25, 1.252, 0.004),
		}
		c.wetDryMix.Store(0.6)
	}
}

// SetRate sets the modulation rate in Hz, clamped to [0.1, 10]. Each voice's
// actual rate is re-randomized within +-10% so voices stay unsynchronized.
func (c *Chorus) SetRate(rate float32) {
	c.rate = clampf(rate, 0.1, 10)
	for i := range c.voices {
		c.voices[i].rateLeft = c.rate * (0.9 + randUniform(&c.rng)*0.2)
		c.voices[i].rateRight = c.rate * (0.9 + randUniform(&c.rng)*0.2)
	}
}

// SetDepth sets the modulation depth, clamped to [0, 1], re-randomized per
// voice within +-10%.
func (c *Chorus) SetDepth(depth float32) {
	c.depth = clampf(depth, 0, 1)
	for i := range c.voices {
		c.voices[i].depth = c.depth * (0.9 + randUniform(&c.rng)*0.2)
	}
}

// SetFeedback sets the delay feedback gain, clamped to [0, 0.99].
func (c *Chorus) SetFeedback(feedback float32) {
	c.feedback.Store(clampf(feedback, 0, 0.99))
}

// SetWetDryMix sets the wet fraction, clamped to [0, 1].
func (c *Chorus) SetWetDryMix(mix float32) {
	c.wetDryMix.Store(clampf(mix, 0, 1))
}

// SetDrive sets the saturation drive, clamped to [1, 10].
func (c *Chorus) SetDrive(drive float32) {
	c.satDrive.Store(clampf(drive, 1, 10))
}

// Process runs one input sample through the ensemble and returns a stereo
// pair. Mode off returns the input unchanged on both channels.
func (c *Chorus) Process(input float32) (float32, float32) {
	if c.mode == ChorusOff {
		return input, input
	}

	filtered := c.lowpass(c.highpass(input))

	// Feedback taps the oldest sample of each channel.
	fbLeft := c.bufLeft.Read(c.bufLeft.Size())
	fbRight := c.bufRight.Read(c.bufRight.Size())
	fb := (fbLeft + fbRight) * 0.5
	withFeedback := filtered + clampf(c.feedback.Load()*fb, -1, 1)

	c.bufLeft.Write(withFeedback)
	c.bufRight.Write(withFeedback)

	left, right := c.modulatedTaps(withFeedback)

	noise := c.dither()
	left += noise
	right += noise

	drive := c.satDrive.Load()
	left = fastTanh(left * drive)
	right = fastTanh(right * drive)

	wet := clampf(c.wetDryMix.Load(), 0, 1)
	outLeft := (1.0-wet)*input + wet*left
	outRight := (1.0-wet)*input + wet*right
	return clampf(outLeft, -1, 1), clampf(outRight, -1, 1)
}

// modulatedTaps sums the cubic-interpolated fractional-delay reads of every
// chorus voice. Two slightly detuned LFO components per channel thicken the
// modulation.
func (c *Chorus) modulatedTaps(input float32) (float32, float32) {
	if len(c.voices) == 0 {
		return input, input
	}

	maxDelay := float32(c.bufLeft.Size() - 3)
	var left, right float32
	for i := range c.voices {
		v := &c.voices[i]
		v.phaseLeft += v.rateLeft / c.sampleRate
		if v.phaseLeft >= 1.0 {
			v.phaseLeft -= 1.0
		}
		v.phaseRight += v.rateRight / c.sampleRate
		if v.phaseRight >= 1.0 {
			v.phaseRight -= 1.0
		}

		v.smoothDepth += (v.depth - v.smoothDepth) * 0.001

		lfoLeft := (sin32(v.phaseLeft)*0.51+0.5)*0.5 +
			(sin32(v.phaseLeft*1.101)*0.5+0.5)*0.5
		lfoRight := (sin32(v.phaseRight)*0.5+0.51)*0.5 +
			(sin32(v.phaseRight*1.1)*0.5+0.5)*0.5

		delayLeft := clampf(v.smoothDepth*c.sampleRate*lfoLeft, 2, maxDelay)
		delayRight := clampf(v.smoothDepth*c.sampleRate*lfoRight, 2, maxDelay)

		left += c.bufLeft.ReadCubic(delayLeft)
		right += c.bufRight.ReadCubic(delayRight)
	}

	n := float32(len(c.voices))
	left = left/n + input*0.5
	right = right/n + input*0.5
	return left, right
}

// dither produces a tiny smoothed noise floor that masks zipper artifacts
// from the modulated reads.
func (c *Chorus) dither() float32 {
	fresh := c.noiseLevel * randBipolar(&c.rng)
	out := (c.noisePrev + fresh) * 0.5
	c.noisePrev = fresh
	return out
}

func (c *Chorus) lowpass(input float32) float32 {
	alpha := c.lpCutoff / (c.lpCutoff + 1.0)
	c.lpPrev += alpha * (input - c.lpPrev) * 0.5
	return c.lpPrev
}

func (c *Chorus) highpass(input float32) float32 {
	alpha := 1.0 / (1.0 + c.hpCutoff)
	out := alpha * (c.hpPrevOut + input - c.hpPrevIn)
	c.hpPrevIn = input
	c.hpPrevOut = out
	return out
}

// sin32 evaluates sin(2*pi*phase) in float32.
func sin32(phase float32) float32 {
	return float32(math.Sin(2.0 * math.Pi * float64(phase)))
}
