package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	fitcommon "github.com/cwbudde/algo-synth/internal/fitcommon"
	"github.com/cwbudde/algo-synth/synth"
)

func main() {
	// Command-line flags
	notes := flag.String("notes", "69", "Comma-separated MIDI note numbers (69 = A4 = 440 Hz)")
	duration := flag.Float64("duration", 2.0, "Duration in seconds")
	releaseAfter := flag.Float64("release-after", 1.0, "Send NoteOff after this many seconds")
	decayDBFS := flag.Float64("decay-dbfs", math.Inf(1), "Auto-stop when stereo block RMS falls below this dBFS (e.g. -90). Disabled by default")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks required to stop in auto-decay mode")
	minDuration := flag.Float64("min-duration", 0.5, "Minimum render duration in seconds when using -decay-dbfs")
	maxDuration := flag.Float64("max-duration", 20.0, "Maximum render duration in seconds when using -decay-dbfs")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	voices := flag.Int("voices", 16, "Polyphony (voice pool size)")
	output := flag.String("output", "output.wav", "Output WAV file path")

	waveform := flag.String("waveform", "sawtooth", "Oscillator waveform: sine, square, sawtooth, triangle")
	attack := flag.Float64("attack", 0.1, "Envelope attack in seconds")
	decay := flag.Float64("decay", 0.1, "Envelope decay in seconds")
	sustain := flag.Float64("sustain", 0.7, "Envelope sustain level 0-1")
	release := flag.Float64("release", 0.2, "Envelope release in seconds")
	cutoff := flag.Float64("cutoff", 1000, "Filter cutoff in Hz")
	resonance := flag.Float64("resonance", 0.5, "Filter resonance 0-4")
	chorusMode := flag.String("chorus", "off", "Chorus mode: off, I, II, III, IV")
	reverbDecay := flag.Float64("reverb-decay", 0.5, "Reverb decay 0-0.98")
	reverbWet := flag.Float64("reverb-wet", 0.3, "Reverb wet fraction 0-1")
	flag.Parse()

	noteList, err := fitcommon.ParseNotes(*notes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -notes: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Rendering notes %v for %.2f seconds at %d Hz (%s, chorus %s)...\n",
		noteList, *duration, *sampleRate, *waveform, *chorusMode)

	e := synth.New(*sampleRate, *voices)
	e.SetWaveform(synth.ParseWaveform(*waveform))
	e.SetAttack(float32(*attack))
	e.SetDecay(float32(*decay))
	e.SetSustain(float32(*sustain))
	e.SetRelease(float32(*release))
	e.SetCutoff(float32(*cutoff))
	e.SetResonance(float32(*resonance))
	e.SetChorusMode(synth.ParseChorusMode(*chorusMode))
	e.SetReverbDecay(float32(*reverbDecay))
	e.SetReverbWet(float32(*reverbWet))

	for _, n := range noteList {
		e.NoteOn(n)
	}

	blockSize := 128
	autoStop := !math.IsInf(*decayDBFS, 1)

	var totalFrames int
	if !autoStop {
		totalFrames = int(float64(*sampleRate) * (*duration))
		if totalFrames < 1 {
			totalFrames = 1
		}
	}

	initialFrames := totalFrames
	if autoStop {
		initialFrames = int(float64(*sampleRate) * (*minDuration))
		if initialFrames < blockSize {
			initialFrames = blockSize
		}
	}
	samples := make([]float32, 0, initialFrames*2)

	releaseAtFrame := int(float64(*sampleRate) * (*releaseAfter))
	if releaseAtFrame < 0 {
		releaseAtFrame = 0
	}
	noteReleased := false
	releaseAll := func() {
		for _, n := range noteList {
			e.NoteOff(n)
		}
		noteReleased = true
	}

	framesRendered := 0
	if autoStop {
		minFrames := int(float64(*sampleRate) * (*minDuration))
		maxFrames := int(float64(*sampleRate) * (*maxDuration))
		if maxFrames < minFrames {
			maxFrames = minFrames
		}
		if maxFrames < 1 {
			maxFrames = blockSize
		}

		thresholdLin := math.Pow(10.0, *decayDBFS/20.0)
		belowCount := 0
		if *decayHoldBlocks < 1 {
			*decayHoldBlocks = 1
		}
		for framesRendered < maxFrames {
			framesToRender := blockSize
			if framesRendered+framesToRender > maxFrames {
				framesToRender = maxFrames - framesRendered
			}

			if !noteReleased && framesRendered >= releaseAtFrame {
				releaseAll()
			}

			block := e.Process(framesToRender)
			samples = append(samples, block...)
			framesRendered += framesToRender

			if framesRendered >= minFrames {
				if fitcommon.StereoRMS(block) < thresholdLin {
					belowCount++
					if belowCount >= *decayHoldBlocks {
						break
					}
				} else {
					belowCount = 0
				}
			}
		}
		totalFrames = framesRendered
		fmt.Printf("Auto-stop at %d frames (%.3fs), threshold %.1f dBFS\n",
			totalFrames, float64(totalFrames)/float64(*sampleRate), *decayDBFS)
	} else {
		for framesRendered < totalFrames {
			framesToRender := blockSize
			if framesRendered+framesToRender > totalFrames {
				framesToRender = totalFrames - framesRendered
			}

			if !noteReleased && framesRendered >= releaseAtFrame {
				releaseAll()
			}

			block := e.Process(framesToRender)
			samples = append(samples, block...)
			framesRendered += framesToRender
		}
	}

	if err := fitcommon.WriteStereoInterleavedWAV(*output, samples, *sampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully wrote %s (%d frames)\n", *output, totalFrames)
}
