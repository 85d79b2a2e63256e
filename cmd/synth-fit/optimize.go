package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/mayfly"

	"github.com/cwbudde/algo-synth/analysis"
	fitcommon "github.com/cwbudde/algo-synth/internal/fitcommon"
	"github.com/cwbudde/algo-synth/synth"
)

type topCandidate struct {
	Eval       int                `json:"eval"`
	Score      float64            `json:"score"`
	Similarity float64            `json:"similarity"`
	Knobs      map[string]float64 `json:"knobs"`
}

type optimizationConfig struct {
	reference        []float64
	defs             []knobDef
	notes            []int
	chorus           synth.ChorusMode
	waveform         synth.Waveform
	sampleRate       int
	duration         float64
	releaseAfter     float64
	seed             int64
	timeBudget       float64
	maxEvals         int
	reportEvery      int
	mayflyVariant    string
	mayflyPop        int
	mayflyRoundEvals int
	workers          int
	topK             int
}

type optimizationResult struct {
	best        candidate
	bestMetrics analysis.Metrics
	bestPatch   patch
	top         []topCandidate
	evals       int
	elapsed     float64
}

type optimizationState struct {
	mu       sync.Mutex
	best     candidate
	bestEval analysis.Metrics
	top      []topCandidate
}

// renderCandidate renders the candidate patch over the fit notes and returns
// the mono mix.
func renderCandidate(cfg *optimizationConfig, c candidate) []float64 {
	p := toPatch(cfg.defs, c)
	e := synth.New(cfg.sampleRate, fitcommon.MinInt(16, len(cfg.notes)*2))
	e.SetWaveform(cfg.waveform)
	p.apply(e, cfg.chorus)

	for _, n := range cfg.notes {
		e.NoteOn(n)
	}

	totalFrames := int(float64(cfg.sampleRate) * cfg.duration)
	releaseAtFrame := int(float64(cfg.sampleRate) * cfg.releaseAfter)
	blockSize := 128

	out := make([]float32, 0, totalFrames*2)
	rendered := 0
	released := false
	for rendered < totalFrames {
		n := blockSize
		if rendered+n > totalFrames {
			n = totalFrames - rendered
		}
		if !released && rendered >= releaseAtFrame {
			for _, note := range cfg.notes {
				e.NoteOff(note)
			}
			released = true
		}
		out = append(out, e.Process(n)...)
		rendered += n
	}
	return fitcommon.StereoToMono64(out)
}

func evaluateCandidate(cfg *optimizationConfig, c candidate) analysis.Metrics {
	mono := renderCandidate(cfg, c)
	return analysis.Compare(cfg.reference, mono, cfg.sampleRate)
}

func runOptimization(cfg *optimizationConfig) (*optimizationResult, error) {
	start := time.Now()
	deadline := start.Add(time.Duration(cfg.timeBudget * float64(time.Second)))
	variant := strings.ToLower(cfg.mayflyVariant)

	initial := fromNormalized(centerPosition(len(cfg.defs)), cfg.defs)
	initialMetrics := evaluateCandidate(cfg, initial)
	fmt.Printf("Start score=%.4f similarity=%.2f%%\n", initialMetrics.Score, initialMetrics.Similarity*100.0)

	state := &optimizationState{
		best:     cloneCandidate(initial),
		bestEval: initialMetrics,
		top:      updateTopCandidates(nil, cfg.topK, 1, initialMetrics, cfg.defs, initial),
	}

	var evals int64 = 1
	var rounds int64
	var improves int64

	workers := cfg.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if time.Now().After(deadline) {
					return
				}
				remaining := cfg.maxEvals - int(atomic.LoadInt64(&evals))
				if remaining <= 0 {
					return
				}

				round := atomic.AddInt64(&rounds, 1)
				budget := fitcommon.MinInt(cfg.mayflyRoundEvals, remaining)
				iters := budget / (2 * cfg.mayflyPop)
				if iters < 1 {
					iters = 1
				}

				mayflyConfig, err := newMayflyConfig(variant, cfg.mayflyPop, len(cfg.defs), iters)
				if err != nil {
					fmt.Fprintf(os.Stderr, "mayfly round %d setup failed: %v\n", round, err)
					return
				}
				mayflyConfig.Rand = rand.New(rand.NewSource(cfg.seed + round*7919))
				mayflyConfig.ObjectiveFunc = func(pos []float64) float64 {
					if time.Now().After(deadline) {
						return currentBestScore(state) + 1.0
					}
					evalNum, ok := reserveEval(&evals, cfg.maxEvals)
					if !ok {
						return currentBestScore(state) + 1.0
					}

					cand := fromNormalized(pos, cfg.defs)
					metrics := evaluateCandidate(cfg, cand)

					state.mu.Lock()
					state.top = updateTopCandidates(state.top, cfg.topK, int(evalNum), metrics, cfg.defs, cand)
					improved := metrics.Score < state.bestEval.Score
					if improved {
						state.best = cloneCandidate(cand)
						state.bestEval = metrics
					}
					bestScore := state.bestEval.Score
					state.mu.Unlock()

					if improved {
						n := atomic.AddInt64(&improves, 1)
						fmt.Printf("Improved #%d eval=%d score=%.4f sim=%.2f%%\n",
							n, evalNum, metrics.Score, metrics.Similarity*100.0)
					}
					if cfg.reportEvery > 0 && evalNum%int64(cfg.reportEvery) == 0 {
						fmt.Printf("Progress eval=%d/%d elapsed=%.1fs best=%.4f\n",
							evalNum, cfg.maxEvals, time.Since(start).Seconds(), bestScore)
					}
					return metrics.Score
				}

				if _, err := runMayfly(mayflyConfig); err != nil {
					fmt.Fprintf(os.Stderr, "mayfly round %d failed: %v\n", round, err)
				}
			}
		}()
	}
	wg.Wait()

	state.mu.Lock()
	defer state.mu.Unlock()
	return &optimizationResult{
		best:        cloneCandidate(state.best),
		bestMetrics: state.bestEval,
		bestPatch:   toPatch(cfg.defs, state.best),
		top:         cloneTopCandidates(state.top),
		evals:       int(atomic.LoadInt64(&evals)),
		elapsed:     time.Since(start).Seconds(),
	}, nil
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "", "default":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	nm := int(math.Round(0.05 * float64(pop)))
	if nm < 1 {
		nm = 1
	}
	cfg.NM = nm
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}

func reserveEval(evals *int64, maxEvals int) (int64, bool) {
	for {
		cur := atomic.LoadInt64(evals)
		if cur >= int64(maxEvals) {
			return 0, false
		}
		if atomic.CompareAndSwapInt64(evals, cur, cur+1) {
			return cur + 1, true
		}
	}
}

func currentBestScore(state *optimizationState) float64 {
	state.mu.Lock()
	score := state.bestEval.Score
	state.mu.Unlock()
	return score
}

func centerPosition(dims int) []float64 {
	pos := make([]float64, dims)
	for i := range pos {
		pos[i] = 0.5
	}
	return pos
}

func updateTopCandidates(top []topCandidate, topK int, eval int, metrics analysis.Metrics, defs []knobDef, cand candidate) []topCandidate {
	entry := topCandidate{
		Eval:       eval,
		Score:      metrics.Score,
		Similarity: metrics.Similarity,
		Knobs:      make(map[string]float64, len(defs)),
	}
	for i, d := range defs {
		if i < len(cand.Vals) {
			entry.Knobs[d.Name] = cand.Vals[i]
		}
	}
	top = append(top, entry)
	sort.Slice(top, func(a, b int) bool { return top[a].Score < top[b].Score })
	if topK > 0 && len(top) > topK {
		top = top[:topK]
	}
	return top
}

func cloneTopCandidates(top []topCandidate) []topCandidate {
	out := make([]topCandidate, len(top))
	for i, t := range top {
		out[i] = topCandidate{
			Eval:       t.Eval,
			Score:      t.Score,
			Similarity: t.Similarity,
			Knobs:      make(map[string]float64, len(t.Knobs)),
		}
		for k, v := range t.Knobs {
			out[i].Knobs[k] = v
		}
	}
	return out
}
