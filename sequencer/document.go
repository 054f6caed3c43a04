package sequencer

import (
	"encoding/json"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// ValidationError reports a document field that is missing, malformed or
// out of range.
type ValidationError struct {
	Path string
	Msg  string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return "invalid project: " + e.Msg
	}
	return fmt.Sprintf("invalid project: %s: %s", e.Path, e.Msg)
}

func invalid(path, format string, args ...any) error {
	return &ValidationError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// Document shapes. Pointers distinguish a missing field from a zero value,
// slices let the 16-slot arity be checked instead of silently truncated.

type projectDoc struct {
	Name     string        `json:"name,omitempty" yaml:"name,omitempty"`
	Tempo    *float64      `json:"tempo" yaml:"tempo"`
	Mutes    Set16         `json:"mutes" yaml:"mutes"`
	Patterns []*patternDoc `json:"patterns" yaml:"patterns"`
	Songs    []*songDoc    `json:"songs" yaml:"songs"`
}

type patternDoc struct {
	Name         string      `json:"name,omitempty" yaml:"name,omitempty"`
	TempoMode    TempoMode   `json:"tempoMode" yaml:"tempoMode"`
	Tempo        *float64    `json:"tempo,omitempty" yaml:"tempo,omitempty"`
	Swing        *float64    `json:"swing" yaml:"swing"`
	ScaleMode    ScaleMode   `json:"scaleMode" yaml:"scaleMode"`
	Length       *int        `json:"length" yaml:"length"`
	Scale        *float64    `json:"scale,omitempty" yaml:"scale,omitempty"`
	ChangeLength *int        `json:"changeLength,omitempty" yaml:"changeLength,omitempty"`
	Mutes        Set16       `json:"mutes" yaml:"mutes"`
	Tracks       []*trackDoc `json:"tracks" yaml:"tracks"`

	// hasLength is set when the length key is present, even as null.
	hasLength bool
}

func (d *patternDoc) UnmarshalJSON(data []byte) error {
	type plain patternDoc
	if err := json.Unmarshal(data, (*plain)(d)); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	_, d.hasLength = keys["length"]
	return nil
}

func (d *patternDoc) UnmarshalYAML(n *yaml.Node) error {
	type plain patternDoc
	if err := n.Decode((*plain)(d)); err != nil {
		return err
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == "length" {
			d.hasLength = true
		}
	}
	return nil
}

type trackDoc struct {
	Type        TrackType `json:"type" yaml:"type"`
	Length      *int      `json:"length,omitempty" yaml:"length,omitempty"`
	Scale       *float64  `json:"scale,omitempty" yaml:"scale,omitempty"`
	Channel     *int      `json:"channel" yaml:"channel"`
	NoteNumber  *int      `json:"noteNumber" yaml:"noteNumber"`
	Velocity    *int      `json:"velocity" yaml:"velocity"`
	Duration    *int      `json:"duration" yaml:"duration"`
	Probability *float64  `json:"probability" yaml:"probability"`
	Steps       []*Trig   `json:"steps" yaml:"steps"`
}

type songDoc struct {
	Name  string    `json:"name,omitempty" yaml:"name,omitempty"`
	Tempo *float64  `json:"tempo,omitempty" yaml:"tempo,omitempty"`
	Rows  []*rowDoc `json:"rows" yaml:"rows"`
	End   SongEnd   `json:"end" yaml:"end"`
}

type rowDoc struct {
	Label     string       `json:"label,omitempty" yaml:"label,omitempty"`
	Pattern   *int         `json:"pattern" yaml:"pattern"`
	Repeat    *int         `json:"repeat,omitempty" yaml:"repeat,omitempty"`
	Length    *int         `json:"length,omitempty" yaml:"length,omitempty"`
	Mutes     *Set16       `json:"mutes,omitempty" yaml:"mutes,omitempty"`
	TempoMode RowTempoMode `json:"tempoMode" yaml:"tempoMode"`
	Tempo     *float64     `json:"tempo,omitempty" yaml:"tempo,omitempty"`
}

// optInt reads an optional count that must be at least 1 when present.
// Zero is the unset value in memory, so a written zero would not survive
// a round trip.
func optInt(path string, v *int) (int, error) {
	if v == nil {
		return 0, nil
	}
	if *v < 1 {
		return 0, invalid(path, "must be at least 1, got %d", *v)
	}
	return *v, nil
}

// optFloat reads an optional value that must be positive when present.
func optFloat(path string, v *float64) (float64, error) {
	if v == nil {
		return 0, nil
	}
	if !(*v > 0) || math.IsInf(*v, 0) {
		return 0, invalid(path, "must be positive, got %v", *v)
	}
	return *v, nil
}

// DecodeProject parses a project document and validates it. JSON is tried
// first; YAML is accepted as a fallback.
func DecodeProject(data []byte) (*Project, error) {
	var doc projectDoc
	if jsonErr := json.Unmarshal(data, &doc); jsonErr != nil {
		doc = projectDoc{}
		if yamlErr := yaml.Unmarshal(data, &doc); yamlErr != nil {
			return nil, fmt.Errorf("decode project: json: %v, yaml: %w", jsonErr, yamlErr)
		}
	}
	p, err := doc.project()
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// EncodeProject writes p as indented JSON. Infinite pattern lengths are
// written as null.
func EncodeProject(p *Project) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return json.MarshalIndent(newProjectDoc(p), "", "  ")
}

func (d *projectDoc) project() (*Project, error) {
	if d.Tempo == nil {
		return nil, invalid("tempo", "required")
	}
	p := &Project{
		Name:     d.Name,
		Tempo:    *d.Tempo,
		Mutes:    d.Mutes,
		Patterns: make([]*Pattern, len(d.Patterns)),
		Songs:    make([]*Song, len(d.Songs)),
	}
	for i, pd := range d.Patterns {
		path := fmt.Sprintf("patterns[%d]", i)
		if pd == nil {
			return nil, invalid(path, "null pattern")
		}
		pat, err := pd.pattern(path)
		if err != nil {
			return nil, err
		}
		p.Patterns[i] = pat
	}
	for i, sd := range d.Songs {
		path := fmt.Sprintf("songs[%d]", i)
		if sd == nil {
			return nil, invalid(path, "null song")
		}
		song, err := sd.song(path)
		if err != nil {
			return nil, err
		}
		p.Songs[i] = song
	}
	return p, nil
}

func (d *songDoc) song(path string) (*Song, error) {
	tempo, err := optFloat(path+".tempo", d.Tempo)
	if err != nil {
		return nil, err
	}
	s := &Song{Name: d.Name, Tempo: tempo, End: d.End}
	if d.Rows != nil {
		s.Rows = make([]*SongRow, len(d.Rows))
	}
	for i, rd := range d.Rows {
		rpath := fmt.Sprintf("%s.rows[%d]", path, i)
		if rd == nil {
			return nil, invalid(rpath, "null row")
		}
		if rd.Pattern == nil {
			return nil, invalid(rpath+".pattern", "required")
		}
		r := &SongRow{
			Label:     rd.Label,
			Pattern:   *rd.Pattern,
			Mutes:     rd.Mutes,
			TempoMode: rd.TempoMode,
		}
		if r.Repeat, err = optInt(rpath+".repeat", rd.Repeat); err != nil {
			return nil, err
		}
		if r.Length, err = optInt(rpath+".length", rd.Length); err != nil {
			return nil, err
		}
		if r.Tempo, err = optFloat(rpath+".tempo", rd.Tempo); err != nil {
			return nil, err
		}
		s.Rows[i] = r
	}
	return s, nil
}

func (d *patternDoc) pattern(path string) (*Pattern, error) {
	if d.Swing == nil {
		return nil, invalid(path+".swing", "required")
	}
	if !d.hasLength {
		return nil, invalid(path+".length", "required, null for infinite")
	}
	if len(d.Tracks) != NumTracks {
		return nil, invalid(path+".tracks", "want %d tracks, got %d", NumTracks, len(d.Tracks))
	}
	p := &Pattern{
		Name:      d.Name,
		TempoMode: d.TempoMode,
		Swing:     *d.Swing,
		ScaleMode: d.ScaleMode,
		Length:    Infinite,
		Mutes:     d.Mutes,
	}
	var err error
	if d.Length != nil {
		if p.Length, err = optInt(path+".length", d.Length); err != nil {
			return nil, err
		}
	}
	if p.Tempo, err = optFloat(path+".tempo", d.Tempo); err != nil {
		return nil, err
	}
	if p.Scale, err = optFloat(path+".scale", d.Scale); err != nil {
		return nil, err
	}
	if p.ChangeLength, err = optInt(path+".changeLength", d.ChangeLength); err != nil {
		return nil, err
	}
	for i, td := range d.Tracks {
		tpath := fmt.Sprintf("%s.tracks[%d]", path, i)
		if td == nil {
			return nil, invalid(tpath, "null track")
		}
		t, err := td.track(tpath)
		if err != nil {
			return nil, err
		}
		p.Tracks[i] = t
	}
	return p, nil
}

func (d *trackDoc) track(path string) (Track, error) {
	var t Track
	switch {
	case d.Channel == nil:
		return t, invalid(path+".channel", "required")
	case d.NoteNumber == nil:
		return t, invalid(path+".noteNumber", "required")
	case d.Velocity == nil:
		return t, invalid(path+".velocity", "required")
	case d.Duration == nil:
		return t, invalid(path+".duration", "required")
	case d.Probability == nil:
		return t, invalid(path+".probability", "required")
	case len(d.Steps) != NumSteps:
		return t, invalid(path+".steps", "want %d steps, got %d", NumSteps, len(d.Steps))
	}
	t = Track{
		Type:        d.Type,
		Channel:     *d.Channel,
		NoteNumber:  *d.NoteNumber,
		Velocity:    *d.Velocity,
		Duration:    *d.Duration,
		Probability: *d.Probability,
	}
	var err error
	if t.Length, err = optInt(path+".length", d.Length); err != nil {
		return t, err
	}
	if t.Scale, err = optFloat(path+".scale", d.Scale); err != nil {
		return t, err
	}
	copy(t.Steps[:], d.Steps)
	return t, nil
}

func newProjectDoc(p *Project) *projectDoc {
	tempo := p.Tempo
	d := &projectDoc{
		Name:     p.Name,
		Tempo:    &tempo,
		Mutes:    p.Mutes,
		Patterns: make([]*patternDoc, len(p.Patterns)),
		Songs:    make([]*songDoc, len(p.Songs)),
	}
	for i, pat := range p.Patterns {
		d.Patterns[i] = newPatternDoc(pat)
	}
	for i, s := range p.Songs {
		d.Songs[i] = newSongDoc(s)
	}
	return d
}

func newSongDoc(s *Song) *songDoc {
	d := &songDoc{Name: s.Name, End: s.End}
	if s.Tempo > 0 {
		d.Tempo = FloatPtr(s.Tempo)
	}
	if s.Rows != nil {
		d.Rows = make([]*rowDoc, len(s.Rows))
	}
	for i, r := range s.Rows {
		rd := &rowDoc{
			Label:     r.Label,
			Pattern:   IntPtr(r.Pattern),
			Mutes:     r.Mutes,
			TempoMode: r.TempoMode,
		}
		if r.Repeat > 0 {
			rd.Repeat = IntPtr(r.Repeat)
		}
		if r.Length > 0 {
			rd.Length = IntPtr(r.Length)
		}
		if r.Tempo > 0 {
			rd.Tempo = FloatPtr(r.Tempo)
		}
		d.Rows[i] = rd
	}
	return d
}

func newPatternDoc(p *Pattern) *patternDoc {
	swing := p.Swing
	d := &patternDoc{
		Name:      p.Name,
		TempoMode: p.TempoMode,
		Swing:     &swing,
		ScaleMode: p.ScaleMode,
		Mutes:     p.Mutes,
		Tracks:    make([]*trackDoc, NumTracks),
	}
	if p.Tempo > 0 {
		v := p.Tempo
		d.Tempo = &v
	}
	if !p.IsInfinite() {
		v := p.Length
		d.Length = &v
	}
	if p.Scale > 0 {
		v := p.Scale
		d.Scale = &v
	}
	if p.ChangeLength > 0 {
		v := p.ChangeLength
		d.ChangeLength = &v
	}
	for i := range p.Tracks {
		t := &p.Tracks[i]
		td := &trackDoc{
			Type:        t.Type,
			Channel:     IntPtr(t.Channel),
			NoteNumber:  IntPtr(t.NoteNumber),
			Velocity:    IntPtr(t.Velocity),
			Duration:    IntPtr(t.Duration),
			Probability: FloatPtr(t.Probability),
			Steps:       t.Steps[:],
		}
		if t.Length > 0 {
			td.Length = IntPtr(t.Length)
		}
		if t.Scale > 0 {
			td.Scale = FloatPtr(t.Scale)
		}
		d.Tracks[i] = td
	}
	return d
}
