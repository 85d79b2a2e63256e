package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-synth/analysis"
	fitcommon "github.com/cwbudde/algo-synth/internal/fitcommon"
	"github.com/cwbudde/algo-synth/synth"
)

func main() {
	referencePath := flag.String("reference", "", "Reference WAV path (required)")
	candidatePath := flag.String("candidate", "", "Candidate WAV path; if empty, render candidate from the synth engine")
	sampleRate := flag.Int("sample-rate", 48000, "Analysis sample rate in Hz")
	jsonOut := flag.Bool("json", false, "Print metrics as JSON")
	writeCandidate := flag.String("write-candidate", "", "Optional path to write rendered candidate WAV")

	notes := flag.String("notes", "69", "Comma-separated MIDI notes for rendered candidate")
	duration := flag.Float64("duration", 3.0, "Rendered candidate duration in seconds")
	releaseAfter := flag.Float64("release-after", 1.5, "Note hold time before NoteOff for rendered candidate")
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

	if *referencePath == "" {
		die("missing required -reference")
	}

	ref, refSR, err := fitcommon.ReadWAVMono(*referencePath)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	ref, err = fitcommon.ResampleIfNeeded(ref, refSR, *sampleRate)
	if err != nil {
		die("failed to resample reference: %v", err)
	}

	var cand []float64
	if *candidatePath != "" {
		candRaw, candSR, err := fitcommon.ReadWAVMono(*candidatePath)
		if err != nil {
			die("failed to read candidate: %v", err)
		}
		cand, err = fitcommon.ResampleIfNeeded(candRaw, candSR, *sampleRate)
		if err != nil {
			die("failed to resample candidate: %v", err)
		}
	} else {
		noteList, err := fitcommon.ParseNotes(*notes)
		if err != nil {
			die("failed to parse -notes: %v", err)
		}

		e := synth.New(*sampleRate, fitcommon.MinInt(16, len(noteList)*2))
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

		stereo := renderStereo(e, noteList, *sampleRate, *duration, *releaseAfter)
		cand = fitcommon.StereoToMono64(stereo)
		if *writeCandidate != "" {
			if err := fitcommon.WriteStereoInterleavedWAV(*writeCandidate, stereo, *sampleRate); err != nil {
				die("failed to write candidate wav: %v", err)
			}
		}
	}

	metrics := analysis.Compare(ref, cand, *sampleRate)
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(metrics); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}

	fmt.Printf("Reference frames: %d\n", metrics.ReferenceFrames)
	fmt.Printf("Candidate frames: %d\n", metrics.CandidateFrames)
	fmt.Printf("Aligned frames:   %d\n", metrics.AlignedFrames)
	fmt.Printf("Lag:              %d samples (%.3f ms)\n", metrics.LagSamples, 1000.0*float64(metrics.LagSamples)/float64(metrics.SampleRate))
	fmt.Println()
	fmt.Printf("Time RMSE:        %.6f\n", metrics.TimeRMSE)
	fmt.Printf("Envelope RMSE:    %.1f dB\n", metrics.EnvelopeRMSEDB)
	fmt.Printf("Spectral RMSE:    %.1f dB\n", metrics.SpectralRMSEDB)
	fmt.Printf("Decay diff:       %.1f dB/s (ref=%.1f cand=%.1f)\n",
		metrics.DecayDiffDBPerS, metrics.RefDecayDBPerS, metrics.CandDecayDBPerS)
	fmt.Println()
	fmt.Printf("Score:            %.4f  (0 best, 1 worst)\n", metrics.Score)
	fmt.Printf("Similarity:       %.2f%%\n", metrics.Similarity*100.0)
}

func renderStereo(e *synth.Engine, notes []int, sampleRate int, duration, releaseAfter float64) []float32 {
	totalFrames := int(float64(sampleRate) * duration)
	if totalFrames < 1 {
		totalFrames = 1
	}
	releaseAtFrame := int(float64(sampleRate) * releaseAfter)
	if releaseAtFrame < 0 {
		releaseAtFrame = 0
	}

	for _, n := range notes {
		e.NoteOn(n)
	}

	blockSize := 128
	stereo := make([]float32, 0, totalFrames*2)
	framesRendered := 0
	noteReleased := false
	for framesRendered < totalFrames {
		framesToRender := blockSize
		if framesRendered+framesToRender > totalFrames {
			framesToRender = totalFrames - framesRendered
		}
		if !noteReleased && framesRendered >= releaseAtFrame {
			for _, n := range notes {
				e.NoteOff(n)
			}
			noteReleased = true
		}
		stereo = append(stereo, e.Process(framesToRender)...)
		framesRendered += framesToRender
	}
	return stereo
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
