package dsp

import (
	"math"
	"testing"
)

func TestDelayLineRoundTrip(t *testing.T) {
	d := NewDelayLine(16)
	for i := 0; i < 40; i++ {
		d.Write(float32(i))
	}
	for delay := 1; delay <= 16; delay++ {
		want := float32(40 - delay)
		if got := d.Read(delay); got != want {
			t.Fatalf("Read(%d) = %f, want %f", delay, got, want)
		}
	}
}

func TestDelayLineMinimumSize(t *testing.T) {
	d := NewDelayLine(0)
	if d.Size() != 4 {
		t.Fatalf("expected minimum size 4, got %d", d.Size())
	}
}

func TestDelayLineReadFractionalInterpolates(t *testing.T) {
	d := NewDelayLine(8)
	// A ramp makes linear interpolation exact.
	for i := 0; i < 8; i++ {
		d.Write(float32(i))
	}
	got := d.ReadFractional(2.5)
	want := float32(5.5) // halfway between Read(2)=6 and Read(3)=5
	if math.Abs(float64(got-want)) > 1e-6 {
		t.Fatalf("ReadFractional(2.5) = %f, want %f", got, want)
	}
}

func TestCubicInterpolateEndpoints(t *testing.T) {
	y0, y1, y2, y3 := float32(0.1), float32(0.4), float32(0.9), float32(0.3)
	if got := CubicInterpolate(y0, y1, y2, y3, 0); got != y1 {
		t.Fatalf("expected mu=0 to return y1=%f, got %f", y1, got)
	}
	got := CubicInterpolate(y0, y1, y2, y3, 1)
	if math.Abs(float64(got-y2)) > 1e-6 {
		t.Fatalf("expected mu=1 to return y2=%f, got %f", y2, got)
	}
}

func TestCubicInterpolateRampMidpoint(t *testing.T) {
	// On collinear points the curve recrosses the line at the midpoint.
	got := CubicInterpolate(1, 2, 3, 4, 0.5)
	if math.Abs(float64(got-2.5)) > 1e-6 {
		t.Fatalf("cubic on ramp at mu=0.5: got %f, want 2.5", got)
	}
}

func TestDelayLineReadCubicContinuity(t *testing.T) {
	d := NewDelayLine(32)
	phase := 0.0
	for i := 0; i < 32; i++ {
		d.Write(float32(math.Sin(phase)))
		phase += 0.3
	}
	// Sweeping the fractional part across a smooth signal must not jump.
	prev := d.ReadCubic(10)
	for delay := float32(10); delay < 10.99; delay += 0.01 {
		got := d.ReadCubic(delay)
		if math.Abs(float64(got-prev)) > 0.05 {
			t.Fatalf("discontinuity at delay %f: %f -> %f", delay, prev, got)
		}
		prev = got
	}
}

func TestDelayLineReset(t *testing.T) {
	d := NewDelayLine(8)
	for i := 0; i < 8; i++ {
		d.Write(1)
	}
	d.Reset()
	for delay := 1; delay <= 8; delay++ {
		if got := d.Read(delay); got != 0 {
			t.Fatalf("expected zero after reset at delay %d, got %f", delay, got)
		}
	}
}

func TestFlushDenormals(t *testing.T) {
	if got := FlushDenormals(1e-38); got != 0 {
		t.Fatalf("expected denormal flushed to zero, got %g", got)
	}
	if got := FlushDenormals(0.5); got != 0.5 {
		t.Fatalf("expected normal value untouched, got %g", got)
	}
	if got := FlushDenormals(-1e-35); got != 0 {
		t.Fatalf("expected tiny negative flushed to zero, got %g", got)
	}
}
