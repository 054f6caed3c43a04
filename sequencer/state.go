package sequencer

import "math"

// Grid dimensions. Every pattern has exactly NumTracks tracks and every
// track exactly NumSteps step slots.
const (
	NumTracks   = 16
	NumSteps    = 16
	NumChannels = 16
)

// Infinite is the master length of a per-track pattern that never wraps.
const Infinite = -1

// MaxMasterLength bounds finite per-track master lengths.
const MaxMasterLength = 1024

// DefaultChangeLength is the pattern-change boundary, in sixteenths, of an
// infinite pattern that leaves changeLength unset.
const DefaultChangeLength = 16

type TempoMode string

const (
	TempoGlobal     TempoMode = "global"
	TempoPerPattern TempoMode = "per-pattern"
)

type ScaleMode string

const (
	ScalePerPattern ScaleMode = "per-pattern"
	ScalePerTrack   ScaleMode = "per-track"
)

type TrackType string

const (
	TrackAudio TrackType = "audio"
	TrackMIDI  TrackType = "midi"
)

type TrigType string

const (
	TrigNote TrigType = "note"
	TrigLock TrigType = "lock"
)

type SongEnd string

const (
	SongLoop SongEnd = "loop"
	SongStop SongEnd = "stop"
)

type RowTempoMode string

const (
	RowTempoSong       RowTempoMode = "song"
	RowTempoPerPattern RowTempoMode = "per-pattern"
	RowTempoPerRow     RowTempoMode = "per-row"
)

// Project is the root of the persisted document. Mutes here apply on top
// of whatever the playing pattern or song row mutes.
type Project struct {
	Name     string
	Tempo    float64
	Mutes    Set16
	Patterns []*Pattern
	Songs    []*Song
}

// Pattern is a grid of 16 tracks plus the timing settings they play with.
// Tempo and Scale are zero when unset; Length is Infinite for a per-track
// pattern whose master clock never wraps.
type Pattern struct {
	Name         string
	TempoMode    TempoMode
	Tempo        float64
	Swing        float64
	ScaleMode    ScaleMode
	Length       int
	Scale        float64
	ChangeLength int
	Mutes        Set16
	Tracks       [NumTracks]Track
}

// Track holds defaults for its note trigs and the 16 step slots. A nil
// step is an empty slot. Length and Scale are zero when unset.
type Track struct {
	Type        TrackType
	Length      int
	Scale       float64
	Channel     int
	NoteNumber  int
	Velocity    int
	Duration    int
	Probability float64
	Steps       [NumSteps]*Trig
}

// Trig is a single step entry. Nil fields fall back to a pending lock or
// to the track default.
type Trig struct {
	Type        TrigType `json:"type" yaml:"type"`
	NoteNumber  *int     `json:"noteNumber,omitempty" yaml:"noteNumber,omitempty"`
	Velocity    *int     `json:"velocity,omitempty" yaml:"velocity,omitempty"`
	Duration    *int     `json:"duration,omitempty" yaml:"duration,omitempty"`
	Probability *float64 `json:"probability,omitempty" yaml:"probability,omitempty"`
	Channel     *int     `json:"channel,omitempty" yaml:"channel,omitempty"`
}

type Song struct {
	Name  string
	Tempo float64
	Rows  []*SongRow
	End   SongEnd
}

// SongRow plays one pattern Repeat times. Length and Mutes override the
// pattern's own values for the row when set.
type SongRow struct {
	Label     string
	Pattern   int
	Repeat    int
	Length    int
	Mutes     *Set16
	TempoMode RowTempoMode
	Tempo     float64
}

// NewProject creates a project with one default pattern and no songs.
func NewProject() *Project {
	return &Project{
		Tempo:    120,
		Patterns: []*Pattern{NewPattern()},
		Songs:    []*Song{},
	}
}

// NewPattern creates a pattern with all 16 tracks populated, track i on
// channel i, notes taken from the default kit.
func NewPattern() *Pattern {
	return NewPatternWithKit(DefaultKit)
}

// NewPatternWithKit is NewPattern with track default notes from the named kit.
func NewPatternWithKit(kit string) *Pattern {
	p := &Pattern{
		TempoMode: TempoPerPattern,
		Tempo:     120,
		Swing:     50,
		ScaleMode: ScalePerPattern,
		Length:    NumSteps,
		Scale:     1,
	}
	for i := range p.Tracks {
		p.Tracks[i] = NewTrack(i)
	}
	ApplyKit(p, kit)
	return p
}

// NewTrack creates an empty audio track on the given channel.
func NewTrack(channel int) Track {
	return Track{
		Type:        TrackAudio,
		Channel:     channel,
		NoteNumber:  60,
		Velocity:    100,
		Duration:    100,
		Probability: 1,
	}
}

// NewNoteTrig returns a note trig with no overrides.
func NewNoteTrig() *Trig { return &Trig{Type: TrigNote} }

// NewLockTrig returns a lock trig with no overrides.
func NewLockTrig() *Trig { return &Trig{Type: TrigLock} }

// IsInfinite reports whether the master clock of p never wraps.
func (p *Pattern) IsInfinite() bool {
	return p.Length == Infinite
}

// TrackScale returns the step-duration multiplier track i plays at.
func (p *Pattern) TrackScale(i int) float64 {
	if p.ScaleMode == ScalePerTrack {
		if s := p.Tracks[i].Scale; s > 0 {
			return s
		}
		return 1
	}
	if p.Scale > 0 {
		return p.Scale
	}
	return 1
}

// TrackLength returns the number of steps track i cycles through.
func (p *Pattern) TrackLength(i int) int {
	if p.ScaleMode == ScalePerTrack && p.Tracks[i].Length > 0 {
		return p.Tracks[i].Length
	}
	if p.Length <= 0 || p.Length > NumSteps {
		return NumSteps
	}
	return p.Length
}

// CycleLength returns the master cycle length in sixteenths for a master
// length of n steps, or +Inf.
func (p *Pattern) CycleLength(n int) float64 {
	if n == Infinite {
		return math.Inf(1)
	}
	if p.ScaleMode == ScalePerTrack {
		return float64(n)
	}
	s := p.Scale
	if s <= 0 {
		s = 1
	}
	return float64(n) * s
}

// ChangeBoundary returns the pattern-change period in sixteenths for an
// infinite pattern.
func (p *Pattern) ChangeBoundary() float64 {
	if p.ChangeLength > 0 {
		return float64(p.ChangeLength)
	}
	return DefaultChangeLength
}

// Clone returns a deep copy of the pattern.
func (p *Pattern) Clone() *Pattern {
	c := *p
	for i := range c.Tracks {
		for s, trig := range c.Tracks[i].Steps {
			if trig != nil {
				c.Tracks[i].Steps[s] = trig.Clone()
			}
		}
	}
	return &c
}

// Clone returns a deep copy of the trig.
func (t *Trig) Clone() *Trig {
	c := &Trig{Type: t.Type}
	c.NoteNumber = cloneInt(t.NoteNumber)
	c.Velocity = cloneInt(t.Velocity)
	c.Duration = cloneInt(t.Duration)
	c.Channel = cloneInt(t.Channel)
	if t.Probability != nil {
		v := *t.Probability
		c.Probability = &v
	}
	return c
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// IntPtr and FloatPtr help build trig overrides.
func IntPtr(v int) *int { return &v }

func FloatPtr(v float64) *float64 { return &v }
