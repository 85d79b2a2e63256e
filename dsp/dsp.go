package dsp

// DelayLine implements a circular buffer for delay (no heap allocations
// after construction).
type DelayLine struct {
	buffer   []float32
	writePos int
	size     int
}

// NewDelayLine creates a new delay line with the given size in samples.
func NewDelayLine(size int) *DelayLine {
	if size < 4 {
		size = 4
	}
	return &DelayLine{
		buffer: make([]float32, size),
		size:   size,
	}
}

// Size returns the delay line length in samples.
func (d *DelayLine) Size() int {
	return d.size
}

// Write writes a sample and advances the write position.
func (d *DelayLine) Write(sample float32) {
	d.buffer[d.writePos] = sample
	d.writePos = (d.writePos + 1) % d.size
}

// Read reads the sample written delay steps ago.
func (d *DelayLine) Read(delay int) float32 {
	readPos := ((d.writePos-delay)%d.size + d.size) % d.size
	return d.buffer[readPos]
}

// ReadFractional reads with fractional delay using linear interpolation.
func (d *DelayLine) ReadFractional(delay float32) float32 {
	intDelay := int(delay)
	frac := delay - float32(intDelay)

	sample1 := d.Read(intDelay)
	sample2 := d.Read(intDelay + 1)

	return sample1 + frac*(sample2-sample1)
}

// ReadCubic reads with fractional delay using 4-point cubic interpolation
// across the neighboring samples, for smooth modulated-delay reads.
func (d *DelayLine) ReadCubic(delay float32) float32 {
	intDelay := int(delay)
	frac := delay - float32(intDelay)

	y0 := d.Read(intDelay + 1)
	y1 := d.Read(intDelay)
	y2 := d.Read(intDelay - 1)
	y3 := d.Read(intDelay - 2)

	return CubicInterpolate(y0, y1, y2, y3, frac)
}

// CubicInterpolate evaluates a 4-point cubic between y1 and y2 at fractional
// position mu in [0, 1).
func CubicInterpolate(y0, y1, y2, y3, mu float32) float32 {
	mu2 := mu * mu
	a0 := y3 - y2 - y0 + y1
	a1 := y0 - y1 - a0
	a2 := y2 - y0
	a3 := y1
	return a0*mu*mu2 + a1*mu2 + a2*mu + a3
}

// Reset clears the delay line.
func (d *DelayLine) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}

// FlushDenormals converts denormal numbers to zero to avoid performance
// issues in long feedback tails.
func FlushDenormals(x float32) float32 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0.0
	}
	return x
}
