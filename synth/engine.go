package synth

import (
	"sync"

	"github.com/cwbudde/algo-approx"
)

// Engine is the polyphonic voice manager: it owns a fixed pool of voices,
// allocates and steals them for incoming notes, mixes their output with
// constant-power normalization, and routes the mix through the reverb and
// chorus. The pool size never changes after construction.
//
// Note events and structural parameter changes (waveform, chorus mode/rate/
// depth) share one short mutex with the render thread; all scalar tunables
// are lock-free atomics that never block either side.
type Engine struct {
	sampleRate int

	mu     sync.Mutex
	voices []*Voice
	seq    uint64

	reverb *Reverb
	chorus *Chorus
}

// New creates an engine with a fixed pool of numVoices voices at the given
// sample rate.
func New(sampleRate int, numVoices int) *Engine {
	if numVoices < 1 {
		numVoices = 1
	}
	e := &Engine{
		sampleRate: sampleRate,
		voices:     make([]*Voice, numVoices),
		reverb:     NewReverb(float32(sampleRate)),
		chorus:     NewChorus(float32(sampleRate)),
	}
	for i := range e.voices {
		// Distinct seeds give each voice its own mismatch/drift character.
		e.voices[i] = NewVoice(float32(sampleRate), uint32(0x2545f491+i*0x9e3779b9))
	}
	return e
}

// SampleRate returns the render sample rate in Hz.
func (e *Engine) SampleRate() int {
	return e.sampleRate
}

// NumVoices returns the fixed pool size.
func (e *Engine) NumVoices() int {
	return len(e.voices)
}

// NoteOn triggers a note in 0..127. A voice already sounding the same note is
// retriggered; with no inactive voice available, the oldest-triggered voice
// is stolen.
func (e *Engine) NoteOn(note int) {
	if note < 0 || note > 127 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	// Retrigger semantics: never let two voices sound the same note.
	for _, v := range e.voices {
		if v.note == note {
			v.Release()
		}
	}

	var target *Voice
	for _, v := range e.voices {
		if !v.IsActive() {
			target = v
			break
		}
	}
	if target == nil {
		// Steal the voice with the smallest trigger sequence (true oldest,
		// not smallest note number).
		target = e.voices[0]
		for _, v := range e.voices[1:] {
			if v.seq < target.seq {
				target = v
			}
		}
	}

	e.seq++
	target.seq = e.seq
	target.Trigger(note)
}

// NoteOff releases every voice assigned to the note.
func (e *Engine) NoteOff(note int) {
	if note < 0 || note > 127 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, v := range e.voices {
		if v.note == note {
			v.Release()
		}
	}
}

// RenderNext produces one stereo frame: active voices are summed, normalized
// by 1/sqrt(N), then routed through reverb and chorus.
func (e *Engine) RenderNext() (float32, float32) {
	e.mu.Lock()
	var sum float32
	active := 0
	for _, v := range e.voices {
		if v.IsActive() {
			sum += v.RenderNext()
			active++
		}
	}
	if active > 0 {
		sum *= 1.0 / approx.FastSqrt(float32(active))
	}
	left, right := e.chorus.Process(e.reverb.Process(sum))
	e.mu.Unlock()
	return left, right
}

// Process renders a block of frames as interleaved stereo. The returned
// slice is the only allocation; rendering itself is allocation-free.
func (e *Engine) Process(numFrames int) []float32 {
	out := make([]float32, numFrames*2)
	for i := 0; i < numFrames; i++ {
		l, r := e.RenderNext()
		out[i*2] = l
		out[i*2+1] = r
	}
	return out
}

// SetWaveform selects the oscillator waveform on every voice.
func (e *Engine) SetWaveform(w Waveform) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, v := range e.voices {
		v.osc.SetWaveform(w)
	}
}

// SetVolume sets the per-voice oscillator gain, clamped to [0, 1].
func (e *Engine) SetVolume(volume float32) {
	for _, v := range e.voices {
		v.osc.SetVolume(volume)
	}
}

// SetDetune sets the per-sample oscillator jitter ratio on every voice.
func (e *Engine) SetDetune(ratio float32) {
	for _, v := range e.voices {
		v.osc.SetDetune(ratio)
	}
}

// SetAttack sets the envelope attack time in seconds on every voice.
func (e *Engine) SetAttack(seconds float32) {
	for _, v := range e.voices {
		v.env.SetAttack(seconds)
	}
}

// SetDecay sets the envelope decay time in seconds on every voice.
func (e *Engine) SetDecay(seconds float32) {
	for _, v := range e.voices {
		v.env.SetDecay(seconds)
	}
}

// SetSustain sets the envelope sustain level on every voice.
func (e *Engine) SetSustain(level float32) {
	for _, v := range e.voices {
		v.env.SetSustain(level)
	}
}

// SetRelease sets the envelope release time in seconds on every voice.
func (e *Engine) SetRelease(seconds float32) {
	for _, v := range e.voices {
		v.env.SetRelease(seconds)
	}
}

// SetCutoff sets the filter cutoff in Hz on every voice.
func (e *Engine) SetCutoff(hz float32) {
	for _, v := range e.voices {
		v.filter.SetCutoff(hz)
	}
}

// SetResonance sets the filter resonance on every voice.
func (e *Engine) SetResonance(r float32) {
	for _, v := range e.voices {
		v.filter.SetResonance(r)
	}
}

// SetFilterDrive sets the ladder input drive on every voice.
func (e *Engine) SetFilterDrive(d float32) {
	for _, v := range e.voices {
		v.filter.SetDrive(d)
	}
}

// SetSaturation sets the ladder output saturation on every voice.
func (e *Engine) SetSaturation(s float32) {
	for _, v := range e.voices {
		v.filter.SetSaturation(s)
	}
}

// SetChorusMode replaces the chorus configuration.
func (e *Engine) SetChorusMode(mode ChorusMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chorus.SetMode(mode)
}

// SetChorusRate sets the chorus modulation rate in Hz.
func (e *Engine) SetChorusRate(rate float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chorus.SetRate(rate)
}

// SetChorusDepth sets the chorus modulation depth.
func (e *Engine) SetChorusDepth(depth float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chorus.SetDepth(depth)
}

// SetChorusFeedback sets the chorus feedback gain.
func (e *Engine) SetChorusFeedback(feedback float32) {
	e.chorus.SetFeedback(feedback)
}

// SetChorusMix sets the chorus wet fraction.
func (e *Engine) SetChorusMix(mix float32) {
	e.chorus.SetWetDryMix(mix)
}

// SetChorusDrive sets the chorus saturation drive.
func (e *Engine) SetChorusDrive(drive float32) {
	e.chorus.SetDrive(drive)
}

// SetReverbDecay sets the reverb feedback decay.
func (e *Engine) SetReverbDecay(decay float32) {
	e.reverb.SetDecay(decay)
}

// SetReverbDamping sets the reverb damping amount.
func (e *Engine) SetReverbDamping(damping float32) {
	e.reverb.SetDamping(damping)
}

// SetReverbWet sets the reverb wet fraction.
func (e *Engine) SetReverbWet(wet float32) {
	e.reverb.SetWet(wet)
}
