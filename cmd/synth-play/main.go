package main

import (
	"context"
	"encoding/binary"
	"flag"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ebitengine/oto/v3"
	"gitlab.com/gomidi/rtmididrv"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-synth/synth"
)

func main() {
	sampleRate := flag.Int("sample-rate", 48000, "Playback sample rate in Hz")
	voices := flag.Int("voices", 16, "Polyphony (voice pool size)")
	waveform := flag.String("waveform", "sawtooth", "Oscillator waveform: sine, square, sawtooth, triangle")
	attack := flag.Float64("attack", 0.05, "Envelope attack in seconds")
	decay := flag.Float64("decay", 0.1, "Envelope decay in seconds")
	sustain := flag.Float64("sustain", 0.7, "Envelope sustain level 0-1")
	release := flag.Float64("release", 0.3, "Envelope release in seconds")
	cutoff := flag.Float64("cutoff", 2000, "Filter cutoff in Hz")
	resonance := flag.Float64("resonance", 0.5, "Filter resonance 0-4")
	chorusMode := flag.String("chorus", "off", "Chorus mode: off, I, II, III, IV")
	reverbWet := flag.Float64("reverb-wet", 0.2, "Reverb wet fraction 0-1")
	useMIDI := flag.Bool("midi", true, "Listen on the first MIDI input port")
	demo := flag.Bool("demo", false, "Play a demo arpeggio instead of waiting for MIDI input")
	flag.Parse()
	log.SetFlags(log.Lshortfile)

	e := synth.New(*sampleRate, *voices)
	e.SetWaveform(synth.ParseWaveform(*waveform))
	e.SetAttack(float32(*attack))
	e.SetDecay(float32(*decay))
	e.SetSustain(float32(*sustain))
	e.SetRelease(float32(*release))
	e.SetCutoff(float32(*cutoff))
	e.SetResonance(float32(*resonance))
	e.SetChorusMode(synth.ParseChorusMode(*chorusMode))
	e.SetReverbWet(float32(*reverbWet))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-signalCh
		log.Printf("caught signal %s: shutting down...\n", sig)
		cancel()
	}()

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   *sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		log.Fatalf("failed to initialize audio: %v\n", err)
	}
	<-ready

	player := otoCtx.NewPlayer(&engineReader{engine: e})
	player.Play()
	defer player.Close()

	g, ctx := errgroup.WithContext(ctx)
	if *demo {
		g.Go(func() error {
			return playDemo(ctx, e)
		})
	} else if *useMIDI {
		midiCh := listenToMIDIIn(ctx)
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case msg, ok := <-midiCh:
					if !ok {
						return nil
					}
					handleMIDI(e, msg)
				}
			}
		})
	} else {
		g.Go(func() error {
			<-ctx.Done()
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Fatalf("error: %v\n", err)
	}
}

// engineReader adapts the engine to the little-endian float32 stream the
// audio backend pulls from.
type engineReader struct {
	engine *synth.Engine
}

func (r *engineReader) Read(p []byte) (int, error) {
	// 2 channels x 4 bytes per frame.
	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	block := r.engine.Process(frames)
	for i, s := range block {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return frames * 8, nil
}

// handleMIDI reacts to channel voice messages; a NoteOn with velocity zero
// counts as NoteOff.
func handleMIDI(e *synth.Engine, msg []byte) {
	if len(msg) < 3 {
		return
	}
	status := msg[0] & 0xf0
	note := int(msg[1])
	velocity := msg[2]
	switch status {
	case 0x90:
		if velocity == 0 {
			e.NoteOff(note)
		} else {
			e.NoteOn(note)
		}
	case 0x80:
		e.NoteOff(note)
	}
}

// listenToMIDIIn opens the first MIDI input port and forwards raw messages
// until the context is cancelled.
func listenToMIDIIn(ctx context.Context) <-chan []byte {
	ch := make(chan []byte, 1024)
	go func() {
		defer close(ch)
		drv, err := rtmididrv.New()
		if err != nil {
			log.Printf("failed to initialize MIDI driver: %v\n", err)
			return
		}
		defer drv.Close()

		ins, err := drv.Ins()
		if err != nil {
			log.Printf("failed to get MIDI inputs: %v\n", err)
			return
		}
		if len(ins) == 0 {
			log.Println("no MIDI input ports found")
			return
		}
		in := ins[0]
		if err := in.Open(); err != nil {
			log.Printf("failed to open MIDI input: %v\n", err)
			return
		}
		defer in.Close()
		log.Printf("listening on %s\n", in.String())

		if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
			msg := make([]byte, len(data))
			copy(msg, data)
			select {
			case ch <- msg:
			default:
			}
		}); err != nil {
			log.Printf("failed to set MIDI listener: %v\n", err)
			return
		}
		defer in.StopListening()

		<-ctx.Done()
	}()
	return ch
}

// playDemo arpeggiates a minor chord until interrupted.
func playDemo(ctx context.Context, e *synth.Engine) error {
	notes := []int{57, 60, 64, 69, 64, 60}
	i := 0
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	var last int = -1
	for {
		select {
		case <-ctx.Done():
			if last >= 0 {
				e.NoteOff(last)
			}
			return ctx.Err()
		case <-ticker.C:
			if last >= 0 {
				e.NoteOff(last)
			}
			n := notes[i%len(notes)]
			e.NoteOn(n)
			last = n
			i++
		}
	}
}
