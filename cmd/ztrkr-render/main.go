// Command ztrkr-render plays a project against a simulated clock and writes
// the audio tracks to a WAV file, and optionally the MIDI tracks to a
// Standard MIDI File.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/wav"

	"ztrkr/config"
	"ztrkr/midi"
	"ztrkr/router"
	"ztrkr/sequencer"
	"ztrkr/voice"
)

func main() {
	file := flag.String("file", "", "project document (default: built-in demo)")
	output := flag.String("o", "out.wav", "WAV file to write")
	midPath := flag.String("mid", "", "also write midi tracks to this .mid file")
	seconds := flag.Float64("seconds", 8, "length to render")
	song := flag.Int("song", -1, "render song n instead of pattern 1")
	seed := flag.Int64("seed", 1, "probability seed")
	gain := flag.Float64("gain", -0.5, "output gain, added to unity")
	configPath := flag.String("config", "", "config file for machines and sample rate")
	flag.Parse()

	if err := run(*file, *output, *midPath, *seconds, *song, *seed, *gain, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "ztrkr-render: %v\n", err)
		os.Exit(1)
	}
}

func run(file, output, midPath string, seconds float64, song int, seed int64, gain float64, configPath string) error {
	cfg := config.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFile(configPath); err != nil {
			return err
		}
	}

	project := sequencer.NewDemoProject(cfg.Kit)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		if project, err = sequencer.DecodeProject(data); err != nil {
			return err
		}
	}

	pctx := sequencer.NewPlaybackContext(project)
	pctx.Song = song
	sr := beep.SampleRate(cfg.Audio.SampleRate)
	engine := voice.NewEngine(cfg.Audio.Machines)
	renderer := voice.NewRenderer(engine, sr)

	clock := &sequencer.ManualClock{}
	rec := midi.NewRecorder(clock)
	tr := sequencer.NewTransport(pctx, clock, router.New(engine, rec),
		sequencer.WithLookahead(cfg.Transport.Lookahead),
		sequencer.WithRand(rand.New(rand.NewSource(seed))),
	)
	if err := tr.Start(); err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()

	s := beep.Take(sr.N(time.Duration(seconds*float64(time.Second))), drive(tr, clock, renderer))
	format := beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, &effects.Gain{Streamer: s, Gain: gain}, format); err != nil {
		return fmt.Errorf("encode %s: %w", output, err)
	}
	fmt.Printf("wrote %s (%.1fs at %d Hz)\n", output, seconds, sr)

	if midPath == "" {
		return nil
	}
	tr.Stop()
	mf, err := os.Create(midPath)
	if err != nil {
		return err
	}
	defer mf.Close()
	if err := rec.WriteSMF(mf); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d midi messages)\n", midPath, rec.Len())
	return nil
}

// drive advances the clock with the audio, ticking the transport before
// each slice so every note is on its timeline before it is rendered.
func drive(tr *sequencer.Transport, clock *sequencer.ManualClock, r *voice.Renderer) beep.Streamer {
	slice := r.SampleRate().N(sequencer.DefaultTickInterval)
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for done := 0; done < len(samples); {
			n := min(slice, len(samples)-done)
			clock.Set(r.Time())
			tr.Tick()
			r.Stream(samples[done : done+n])
			done += n
		}
		return len(samples), true
	})
}
