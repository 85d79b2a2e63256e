package synth

// xorshift32 advances a 32-bit xorshift state and returns the next value.
// Each DSP component owns its own state word, so the render thread never
// touches a shared generator.
func xorshift32(state *uint32) uint32 {
	x := *state
	if x == 0 {
		x = 0x9e3779b9
	}
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	*state = x
	return x
}

// randUniform returns a sample in [0, 1).
func randUniform(state *uint32) float32 {
	return float32(xorshift32(state)) * (1.0 / 4294967296.0)
}

// randBipolar returns a sample in [-1, 1).
func randBipolar(state *uint32) float32 {
	return 2.0*randUniform(state) - 1.0
}
