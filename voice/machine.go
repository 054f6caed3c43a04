package voice

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

// MachineType selects a machine's signal topology.
type MachineType string

const (
	Sine     MachineType = "sine"
	Triangle MachineType = "triangle"
	Square   MachineType = "square"
	Sawtooth MachineType = "sawtooth"
	Noise    MachineType = "noise"
	Kick     MachineType = "kick"
	Snare    MachineType = "snare"
)

// MachineTypes lists every known machine type.
var MachineTypes = []MachineType{Sine, Triangle, Square, Sawtooth, Noise, Kick, Snare}

// ParseMachineType accepts a machine type name; "saw" is an alias.
func ParseMachineType(s string) (MachineType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "saw" {
		return Sawtooth, nil
	}
	for _, t := range MachineTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown machine type %q", s)
}

func (t MachineType) MarshalText() ([]byte, error) {
	return []byte(t), nil
}

func (t *MachineType) UnmarshalText(b []byte) error {
	v, err := ParseMachineType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Waveform is an oscillator shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
	WaveSquare
	WaveSawtooth
)

// waveform maps the pitched machine types onto oscillator shapes.
func (t MachineType) waveform() (Waveform, bool) {
	switch t {
	case Sine:
		return WaveSine, true
	case Triangle:
		return WaveTriangle, true
	case Square:
		return WaveSquare, true
	case Sawtooth:
		return WaveSawtooth, true
	}
	return 0, false
}

type FilterKind int

const (
	Lowpass FilterKind = iota
	Highpass
)

// Synthesis constants.
const (
	FilterStartCutoff = 2000.0 // Hz, where the pitched sweep begins
	FilterEndCutoff   = 200.0  // Hz, where it lands
	FilterQ           = 1.0
	FilterSweep       = 0.5 // seconds

	NoiseCutoffRatio = 4.0  // noise cutoff relative to the note frequency
	NoiseSweepRatio  = 0.25 // noise cutoff end relative to its start

	KickStartFreq = 150.0
	KickEndFreq   = 0.001
	KickSweep     = 0.5

	SnareHighpass  = 1000.0
	SnareBodyFreq  = 180.0
	SnareBodyLevel = 0.5
	SnareBodyDecay = 0.25 // fraction of the envelope the body tone lasts

	EnvelopeFloor = 0.001 // decay target relative to the peak

	MinFreq = 0.0
	MaxFreq = 20000.0
)

// Note is a note delivered to a machine. Time is on the audio clock.
type Note struct {
	Number   int
	Velocity int
	Duration int // milliseconds
	Time     float64
}

// Filter is a biquad stage with automatable cutoff and resonance.
type Filter struct {
	Kind      FilterKind
	Frequency *Param
	Q         *Param
}

// Chain is source -> optional filter -> gain. Sources are an oscillator
// or the shared noise loop.
type Chain struct {
	Name      string
	Noise     bool
	Shape     Waveform
	Frequency *Param
	Filter    *Filter
	Gain      *Param
}

// Machine is one voice: its chains summed into an output gain. Note
// replaces pending automation atomically with respect to rendering.
type Machine struct {
	Type   MachineType
	Chains []*Chain
	Output *Param

	mu     sync.Mutex
	params map[string]*Param
}

// NewMachine builds the topology for typ. Unknown types fall back to sine.
func NewMachine(typ MachineType) *Machine {
	shape, pitched := typ.waveform()
	if !pitched && typ != Noise && typ != Kick && typ != Snare {
		typ, shape, pitched = Sine, WaveSine, true
	}
	m := &Machine{Type: typ, params: make(map[string]*Param)}
	m.Output = m.param("output.gain", 1, 0, 1)

	if pitched {
		c := &Chain{Shape: shape}
		c.Frequency = m.param("osc.frequency", 440, MinFreq, MaxFreq)
		c.Filter = m.filter("filter", Lowpass, FilterStartCutoff)
		c.Gain = m.param("gain", 0, 0, 1)
		m.Chains = []*Chain{c}
		return m
	}

	switch typ {
	case Noise:
		c := &Chain{Noise: true}
		c.Filter = m.filter("filter", Lowpass, FilterStartCutoff)
		c.Gain = m.param("gain", 0, 0, 1)
		m.Chains = []*Chain{c}
	case Kick:
		c := &Chain{Shape: WaveSine}
		c.Frequency = m.param("osc.frequency", KickStartFreq, MinFreq, MaxFreq)
		c.Gain = m.param("gain", 0, 0, 1)
		m.Chains = []*Chain{c}
	case Snare:
		noise := &Chain{Name: "noise", Noise: true}
		noise.Filter = m.filter("noise.filter", Highpass, SnareHighpass)
		noise.Gain = m.param("noise.gain", 0, 0, 1)
		body := &Chain{Name: "body", Shape: WaveTriangle}
		body.Frequency = m.param("body.frequency", SnareBodyFreq, MinFreq, MaxFreq)
		body.Gain = m.param("body.gain", 0, 0, 1)
		m.Chains = []*Chain{noise, body}
	}
	return m
}

func (m *Machine) param(name string, def, lo, hi float64) *Param {
	p := newParam(name, def, lo, hi)
	m.params[name] = p
	return p
}

func (m *Machine) filter(prefix string, kind FilterKind, cutoff float64) *Filter {
	return &Filter{
		Kind:      kind,
		Frequency: m.param(prefix+".frequency", cutoff, 10, MaxFreq),
		Q:         m.param(prefix+".q", FilterQ, 0.0001, 1000),
	}
}

// ParamNames lists the machine's automatable parameters.
func (m *Machine) ParamNames() []string {
	names := make([]string, 0, len(m.params))
	for n := range m.params {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Timeline returns a copy of the named parameter's events, or nil.
func (m *Machine) Timeline(name string) []AutomationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.params[name]
	if !ok {
		return nil
	}
	return p.Events()
}

// ValueAt evaluates the named parameter at t.
func (m *Machine) ValueAt(name string, t float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.params[name]; ok {
		return p.ValueAt(t)
	}
	return 0
}

// MIDIToFreq converts a note number to Hz, A4 (69) = 440.
func MIDIToFreq(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}

// EnvelopeDuration is how long a note of durationMs takes to decay.
func EnvelopeDuration(durationMs int) float64 {
	return 5 * float64(durationMs) / 1000
}

// Note schedules n. Everything pending from n.Time on is cancelled first
// and held at its value there, so a sounding note keeps decaying right up
// to the retrigger.
func (m *Machine) Note(n Note) {
	num := min(max(n.Number, 0), 127)
	vel := min(max(n.Velocity, 0), 127)
	when := n.Time
	freq := MIDIToFreq(num)
	peak := float64(vel) / 127
	env := EnvelopeDuration(max(n.Duration, 1))

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.params {
		p.CancelAndHoldAtTime(when)
	}

	switch m.Type {
	case Noise:
		c := m.Chains[0]
		cutoff := min(max(freq*NoiseCutoffRatio, 20), MaxFreq)
		c.Filter.Q.SetValueAtTime(FilterQ, when)
		c.Filter.Frequency.SetValueAtTime(cutoff, when)
		c.Filter.Frequency.ExponentialRampToValueAtTime(cutoff*NoiseSweepRatio, when+FilterSweep)
		envelope(c.Gain, peak, when, env)
	case Kick:
		c := m.Chains[0]
		c.Frequency.SetValueAtTime(KickStartFreq, when)
		c.Frequency.ExponentialRampToValueAtTime(KickEndFreq, when+KickSweep)
		envelope(c.Gain, peak, when, env)
	case Snare:
		noise, body := m.Chains[0], m.Chains[1]
		noise.Filter.Q.SetValueAtTime(FilterQ, when)
		noise.Filter.Frequency.SetValueAtTime(SnareHighpass, when)
		envelope(noise.Gain, peak, when, env)
		body.Frequency.SetValueAtTime(SnareBodyFreq, when)
		envelope(body.Gain, peak*SnareBodyLevel, when, env*SnareBodyDecay)
	default:
		c := m.Chains[0]
		c.Frequency.SetValueAtTime(freq, when)
		c.Filter.Q.SetValueAtTime(FilterQ, when)
		c.Filter.Frequency.SetValueAtTime(FilterStartCutoff, when)
		c.Filter.Frequency.ExponentialRampToValueAtTime(FilterEndCutoff, when+FilterSweep)
		envelope(c.Gain, peak, when, env)
	}
}

// envelope jumps g to peak at when and decays it exponentially to
// EnvelopeFloor*peak over dur. A zero peak is a silent note.
func envelope(g *Param, peak, when, dur float64) {
	g.SetValueAtTime(peak, when)
	if peak <= 0 {
		return
	}
	g.ExponentialRampToValueAtTime(peak*EnvelopeFloor, when+dur)
}
