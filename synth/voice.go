package synth

// Voice couples one oscillator, one envelope and one filter, and tracks the
// note it is sounding. A released voice keeps sounding through its release
// tail after the note slot is cleared.
type Voice struct {
	osc    *Oscillator
	env    *Envelope
	filter *LadderFilter
	note   int    // -1 when unassigned
	seq    uint64 // engine trigger sequence, for oldest-first stealing
}

// NewVoice creates a silent, unassigned voice.
func NewVoice(sampleRate float32, seed uint32) *Voice {
	return &Voice{
		osc:    NewOscillator(sampleRate),
		env:    NewEnvelope(sampleRate),
		filter: NewLadderFilter(sampleRate, seed),
		note:   -1,
	}
}

// Trigger points the voice at a note: sets the oscillator frequency and
// restarts the envelope.
func (v *Voice) Trigger(note int) {
	v.osc.SetFrequency(NoteToFrequency(note))
	v.env.NoteOn()
	v.note = note
}

// Release starts the envelope's release phase and clears the note slot; the
// envelope continues independently.
func (v *Voice) Release() {
	v.env.NoteOff()
	v.note = -1
}

// IsActive reports whether the voice is assigned or still sounding its
// release tail.
func (v *Voice) IsActive() bool {
	return v.note >= 0 || v.env.Stage() != StageIdle
}

// RenderNext produces one sample: oscillator shaped by the envelope, pushed
// through the ladder filter.
func (v *Voice) RenderNext() float32 {
	return v.filter.Process(v.osc.NextSample() * v.env.NextSample())
}
