package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"ztrkr/config"
	"ztrkr/debug"
	"ztrkr/midi"
	"ztrkr/router"
	"ztrkr/sequencer"
	"ztrkr/store"
	"ztrkr/theme"
	"ztrkr/tui"
	"ztrkr/voice"
)

func main() {
	configPath := flag.String("config", "", "config file (default ~/.config/ztrkr/config.yaml)")
	file := flag.String("file", "", "project document to play (JSON or YAML)")
	projectName := flag.String("project", "", "saved project to load, newest save first")
	song := flag.Int("song", -1, "play song n instead of pattern 1")
	palette := flag.String("palette", "", "GIMP .gpl palette for the UI")
	save := flag.Bool("save", false, "save the project to the store on quit")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Debug {
		if err := debug.Enable(); err != nil {
			fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	if *projectName == "" {
		*projectName = cfg.Project
	}
	st, err := store.Default()
	if err != nil {
		fmt.Fprintf(os.Stderr, "store: %v\n", err)
		os.Exit(1)
	}
	project, err := loadProject(st, *file, *projectName, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "project: %v\n", err)
		os.Exit(1)
	}

	pctx := sequencer.NewPlaybackContext(project)
	pctx.Song = *song
	if err := pctx.Check(); err != nil {
		fmt.Fprintf(os.Stderr, "project: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Audio tracks drive the voice engine on the sequencer clock; nothing
	// renders it live, so its timelines are pruned as time passes.
	clock := sequencer.NewWallClock()
	engine := voice.NewEngine(cfg.Audio.Machines)
	go pruneLoop(ctx, engine, clock)

	out := midi.NewOutput(clock)
	go out.Run(ctx)

	var deviceMgr *midi.DeviceManager
	if cfg.MIDI.Enabled {
		deviceMgr = midi.NewDeviceManager(out, cfg.MIDI.Port)
		go deviceMgr.Run(ctx)
	}

	rt := router.New(engine, out)
	tr := sequencer.NewTransport(pctx, clock, rt,
		sequencer.WithLookahead(cfg.Transport.Lookahead),
		sequencer.WithTickInterval(cfg.Transport.TickInterval),
	)
	go tr.Run(ctx)

	m := tui.NewModel(tr, project, deviceMgr, theme.New(theme.LoadOrDefault(*palette)))
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	tr.Stop()
	if *save {
		name := *projectName
		if name == "" {
			name = project.Name
		}
		filename, err := st.Save(name, "", project)
		if err != nil {
			fmt.Fprintf(os.Stderr, "save: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("saved %s/%s\n", name, filename)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func loadProject(st *store.Store, file, name string, cfg *config.Config) (*sequencer.Project, error) {
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		return sequencer.DecodeProject(data)
	case name != "":
		return st.Load(name, "")
	}
	p := sequencer.NewDemoProject(cfg.Kit)
	p.Tempo = cfg.Tempo
	p.Patterns[0].Tempo = cfg.Tempo
	return p, nil
}

func pruneLoop(ctx context.Context, engine *voice.Engine, clock sequencer.Clock) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			engine.Prune(clock.Now())
		}
	}
}
