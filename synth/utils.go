package synth

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

// NoteToFrequency converts a MIDI note number to its equal-tempered
// frequency in Hz (A4 = note 69 = 440 Hz).
func NoteToFrequency(note int) float32 {
	const a4Freq = 440.0
	const a4Note = 69
	exponent := float32(note-a4Note) / 12.0
	return a4Freq * pow2Approx(exponent)
}

func pow2Approx(x float32) float32 {
	const ln2 = 0.69314718055994530942
	return approx.FastExp(x * ln2)
}

// fastTanh is a clamped polynomial tanh approximation for the audio hot path.
func fastTanh(x float32) float32 {
	if x > 3 {
		return 1
	}
	if x < -3 {
		return -1
	}
	x2 := x * x
	return clampf(x*(27+x2)/(27+9*x2), -1, 1)
}

func clampf(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func minf(a float32, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func isFinite(x float32) bool {
	return !math.IsNaN(float64(x)) && !math.IsInf(float64(x), 0)
}
