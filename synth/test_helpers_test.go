package synth

import "math"

// renderMono pulls n samples from a render function into a slice.
func renderMono(n int, next func() float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = next()
	}
	return out
}

func windowRMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func peakAbs(samples []float32) float32 {
	var peak float32
	for _, s := range samples {
		if s > peak {
			peak = s
		}
		if -s > peak {
			peak = -s
		}
	}
	return peak
}

// countActive returns the number of active voices in an engine pool.
func countActive(e *Engine) int {
	n := 0
	for _, v := range e.voices {
		if v.IsActive() {
			n++
		}
	}
	return n
}

// assignedNotes returns the set of notes currently held by the pool.
func assignedNotes(e *Engine) map[int]int {
	notes := make(map[int]int)
	for _, v := range e.voices {
		if v.note >= 0 {
			notes[v.note]++
		}
	}
	return notes
}
