package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cwbudde/algo-synth/analysis"
	fitcommon "github.com/cwbudde/algo-synth/internal/fitcommon"
	"github.com/cwbudde/algo-synth/synth"
)

type fitReport struct {
	Reference  string          `json:"reference"`
	Notes      []int           `json:"notes"`
	Waveform   string          `json:"waveform"`
	Chorus     string          `json:"chorus"`
	SampleRate int             `json:"sample_rate"`
	Variant    string          `json:"variant"`
	Evals      int             `json:"evals"`
	ElapsedS   float64         `json:"elapsed_s"`
	Metrics    analysis.Metrics `json:"metrics"`
	Patch      patch           `json:"patch"`
	Top        []topCandidate  `json:"top"`
}

func main() {
	referencePath := flag.String("reference", "", "Reference WAV file to match (required)")
	notes := flag.String("notes", "69", "Comma-separated MIDI notes rendered per evaluation")
	waveform := flag.String("waveform", "sawtooth", "Oscillator waveform: sine, square, sawtooth, triangle")
	chorusMode := flag.String("chorus", "off", "Chorus mode: off, I, II, III, IV")
	duration := flag.Float64("duration", 3.0, "Render duration per evaluation in seconds")
	releaseAfter := flag.Float64("release-after", 1.5, "Send NoteOff after this many seconds")
	sampleRate := flag.Int("sample-rate", 48000, "Evaluation sample rate in Hz")
	maxEvals := flag.Int("max-evals", 2000, "Maximum candidate evaluations")
	timeBudget := flag.Float64("time-budget", 600, "Wall-clock budget in seconds")
	reportEvery := flag.Int("report-every", 100, "Print progress every N evaluations (0 disables)")
	variant := flag.String("variant", "desma", "Mayfly variant: default, desma, olce, eobbma, gsasma, mpma, aoblmoa")
	pop := flag.Int("pop", 12, "Mayfly population size")
	roundEvals := flag.Int("round-evals", 400, "Evaluation budget per mayfly round")
	workersRaw := flag.String("workers", "auto", "Parallel optimization workers (integer or 'auto')")
	seed := flag.Int64("seed", 1, "Optimizer random seed")
	topK := flag.Int("top-k", 5, "Number of best candidates kept in the report")
	output := flag.String("output", "fit-report.json", "Output report JSON path")
	renderBest := flag.String("render-best", "", "Optional WAV path for the best candidate's render")
	flag.Parse()

	if *referencePath == "" {
		fmt.Fprintln(os.Stderr, "missing -reference")
		flag.Usage()
		os.Exit(2)
	}

	noteList, err := fitcommon.ParseNotes(*notes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -notes: %v\n", err)
		os.Exit(1)
	}
	workers, err := fitcommon.ParseWorkers(*workersRaw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -workers: %v\n", err)
		os.Exit(1)
	}

	reference, refRate, err := fitcommon.ReadWAVMono(*referencePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading reference: %v\n", err)
		os.Exit(1)
	}
	reference, err = fitcommon.ResampleIfNeeded(reference, refRate, *sampleRate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resampling reference: %v\n", err)
		os.Exit(1)
	}

	chorus := synth.ParseChorusMode(*chorusMode)
	cfg := &optimizationConfig{
		reference:        reference,
		defs:             knobDefs(chorus != synth.ChorusOff),
		notes:            noteList,
		chorus:           chorus,
		waveform:         synth.ParseWaveform(*waveform),
		sampleRate:       *sampleRate,
		duration:         *duration,
		releaseAfter:     *releaseAfter,
		seed:             *seed,
		timeBudget:       *timeBudget,
		maxEvals:         *maxEvals,
		reportEvery:      *reportEvery,
		mayflyVariant:    *variant,
		mayflyPop:        *pop,
		mayflyRoundEvals: *roundEvals,
		workers:          workers,
		topK:             *topK,
	}

	fmt.Printf("Fitting %s: notes=%v waveform=%s chorus=%s evals=%d budget=%.0fs\n",
		*referencePath, noteList, *waveform, chorus, *maxEvals, *timeBudget)

	start := time.Now()
	result, err := runOptimization(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Optimization failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done: evals=%d elapsed=%.1fs score=%.4f similarity=%.2f%%\n",
		result.evals, time.Since(start).Seconds(), result.bestMetrics.Score, result.bestMetrics.Similarity*100.0)

	report := fitReport{
		Reference:  *referencePath,
		Notes:      noteList,
		Waveform:   *waveform,
		Chorus:     chorus.String(),
		SampleRate: *sampleRate,
		Variant:    *variant,
		Evals:      result.evals,
		ElapsedS:   result.elapsed,
		Metrics:    result.bestMetrics,
		Patch:      result.bestPatch,
		Top:        result.top,
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *output)

	if *renderBest != "" {
		mono := renderCandidate(cfg, result.best)
		samples := make([]float32, len(mono))
		for i, v := range mono {
			samples[i] = float32(v)
		}
		if err := fitcommon.WriteMonoWAV(*renderBest, samples, *sampleRate); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing best render: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *renderBest)
	}
}
