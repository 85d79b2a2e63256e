package synth

// EnvelopeStage identifies the ADSR state machine's current stage.
type EnvelopeStage int

const (
	StageIdle EnvelopeStage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

func (s EnvelopeStage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	default:
		return "unknown"
	}
}

// Envelope is an ADSR amplitude state machine. Stage and level belong to the
// render thread; the four time/level parameters are lock-free shared scalars
// read once per sample.
type Envelope struct {
	sampleRate  float32
	stage       EnvelopeStage
	level       float32
	timeInStage float32
	attack      atomicFloat32
	decay       atomicFloat32
	sustain     atomicFloat32
	release     atomicFloat32
}

// NewEnvelope creates an idle envelope with default ADSR settings.
func NewEnvelope(sampleRate float32) *Envelope {
	e := &Envelope{sampleRate: sampleRate}
	e.attack.Store(0.1)
	e.decay.Store(0.1)
	e.sustain.Store(0.7)
	e.release.Store(0.2)
	return e
}

// NoteOn moves to Attack from the current level, so a retrigger ramps up
// without a click.
func (e *Envelope) NoteOn() {
	e.stage = StageAttack
	e.timeInStage = 0
}

// NoteOff moves to Release from any stage.
func (e *Envelope) NoteOff() {
	e.stage = StageRelease
	e.timeInStage = 0
}

// Stage returns the current stage.
func (e *Envelope) Stage() EnvelopeStage {
	return e.stage
}

// SetAttack sets the attack time in seconds, clamped to [0.001, 10].
func (e *Envelope) SetAttack(seconds float32) {
	e.attack.Store(clampf(seconds, 0.001, 10))
}

// SetDecay sets the decay time in seconds, clamped to [0.001, 10].
func (e *Envelope) SetDecay(seconds float32) {
	e.decay.Store(clampf(seconds, 0.001, 10))
}

// SetSustain sets the sustain level, clamped to [0, 1].
func (e *Envelope) SetSustain(level float32) {
	e.sustain.Store(clampf(level, 0, 1))
}

// SetRelease sets the release time in seconds, clamped to [0.001, 10].
func (e *Envelope) SetRelease(seconds float32) {
	e.release.Store(clampf(seconds, 0.001, 10))
}

// NextSample advances the state machine by one sample and returns the new
// level in [0, 1].
func (e *Envelope) NextSample() float32 {
	switch e.stage {
	case StageAttack:
		attack := e.attack.Load()
		e.level += 1.0 / (attack * e.sampleRate)
		if e.level >= 1.0 {
			e.level = 1.0
			e.stage = StageDecay
			e.timeInStage = 0
		}
	case StageDecay:
		decay := e.decay.Load()
		sustain := e.sustain.Load()
		e.level -= (1.0 - sustain) / (decay * e.sampleRate)
		if e.level <= sustain {
			e.level = sustain
			e.stage = StageSustain
		}
	case StageSustain:
		// Hold until NoteOff.
	case StageRelease:
		release := e.release.Load()
		e.level -= e.level / (release * e.sampleRate)
		if e.level < 0.001 {
			e.level = 0
			e.stage = StageIdle
		}
	case StageIdle:
		e.level = 0
	}
	e.timeInStage += 1.0 / e.sampleRate
	return e.level
}
