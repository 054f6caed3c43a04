package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"ztrkr/voice"
)

func TestLoadFileMissing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Fatalf("missing file gave %+v", cfg)
	}
}

func TestLoadFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
tempo: 96
kit: rd8
transport:
  lookahead: 150ms
audio:
  machines: [kick, snare, saw, noise, sine, sine, sine, sine, sine, sine, sine, sine, sine, sine, sine, triangle]
midi:
  port: RD-8
  enabled: false
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Tempo != 96 || cfg.Kit != "rd8" {
		t.Fatalf("tempo/kit = %v/%q", cfg.Tempo, cfg.Kit)
	}
	if cfg.Transport.Lookahead != 150*time.Millisecond || cfg.Transport.TickInterval != 25*time.Millisecond {
		t.Fatalf("transport = %+v", cfg.Transport)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Fatalf("sample rate default lost: %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Machines[2] != voice.Sawtooth || cfg.Audio.Machines[15] != voice.Triangle {
		t.Fatalf("machines = %v", cfg.Audio.Machines)
	}
	if cfg.MIDI.Port != "RD-8" || cfg.MIDI.Enabled {
		t.Fatalf("midi = %+v", cfg.MIDI)
	}
}

func TestLoadFileRejects(t *testing.T) {
	cases := map[string]string{
		"tempo":        "tempo: 900\n",
		"lookahead":    "transport:\n  tickInterval: 50ms\n  lookahead: 10ms\n",
		"machine":      "audio:\n  machines: [fm]\n",
		"sample rate":  "audio:\n  sampleRate: 100\n",
		"not yaml":     "tempo: [\n",
		"machine type": "audio:\n  machines: [sine, sine]\n",
	}
	for name, data := range cases {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFile(path); err == nil {
			t.Errorf("%s: loaded %q", name, data)
		}
	}
}

func TestSaveFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.Tempo = 133
	cfg.Audio.Machines[0] = voice.Kick
	cfg.MIDI.Port = "IAC"
	if err := cfg.SaveFile(path); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Fatalf("round trip: got %+v, want %+v", got, cfg)
	}
}
