package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"ztrkr/voice"
)

// TransportConfig tunes the lookahead scheduler.
type TransportConfig struct {
	TickInterval time.Duration `yaml:"tickInterval"`
	Lookahead    time.Duration `yaml:"lookahead"`
}

// AudioConfig describes the offline renderer.
type AudioConfig struct {
	SampleRate int                                 `yaml:"sampleRate"`
	Machines   [voice.NumMachines]voice.MachineType `yaml:"machines,flow"`
}

// MIDIConfig names the output port. An empty port takes the first one found.
type MIDIConfig struct {
	Port    string `yaml:"port,omitempty"`
	Enabled bool   `yaml:"enabled"`
}

// Config is the main configuration structure
type Config struct {
	Tempo     float64         `yaml:"tempo"`
	Kit       string          `yaml:"kit"`
	Project   string          `yaml:"project,omitempty"`
	Transport TransportConfig `yaml:"transport"`
	Audio     AudioConfig     `yaml:"audio"`
	MIDI      MIDIConfig      `yaml:"midi"`
	Debug     bool            `yaml:"debug"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Tempo: 120,
		Kit:   "gm",
		Transport: TransportConfig{
			TickInterval: 25 * time.Millisecond,
			Lookahead:    100 * time.Millisecond,
		},
		Audio: AudioConfig{
			SampleRate: 44100,
			Machines:   voice.DefaultMachineTypes(),
		},
		MIDI: MIDIConfig{Enabled: true},
	}
}

// Dir returns the config directory, ~/.config/ztrkr.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ztrkr"), nil
}

// Path returns the full path to config.yaml
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. Fields the file leaves out keep their
// defaults; a missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the player cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Tempo < 20 || c.Tempo > 300:
		return fmt.Errorf("tempo %v out of range 20..300", c.Tempo)
	case c.Transport.TickInterval <= 0:
		return fmt.Errorf("transport.tickInterval must be positive")
	case c.Transport.Lookahead < c.Transport.TickInterval:
		return fmt.Errorf("transport.lookahead %v shorter than tickInterval %v",
			c.Transport.Lookahead, c.Transport.TickInterval)
	case c.Audio.SampleRate < 8000:
		return fmt.Errorf("audio.sampleRate %d too low", c.Audio.SampleRate)
	}
	for i, m := range c.Audio.Machines {
		if m == "" {
			return fmt.Errorf("audio.machines[%d] is empty", i)
		}
	}
	return nil
}

// Save writes the config to its default path.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory.
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
