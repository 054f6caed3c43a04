package sequencer

import (
	"fmt"
	"math"
)

// Validate checks enums, ranges and cross-field rules of the whole project.
// The first problem found is returned as a *ValidationError.
func (p *Project) Validate() error {
	if !(p.Tempo > 0) || math.IsInf(p.Tempo, 0) {
		return invalid("tempo", "must be positive, got %v", p.Tempo)
	}
	if len(p.Patterns) == 0 {
		return invalid("patterns", "at least one pattern required")
	}
	for i, pat := range p.Patterns {
		path := fmt.Sprintf("patterns[%d]", i)
		if pat == nil {
			return invalid(path, "null pattern")
		}
		if err := pat.validate(path); err != nil {
			return err
		}
	}
	for i, s := range p.Songs {
		path := fmt.Sprintf("songs[%d]", i)
		if s == nil {
			return invalid(path, "null song")
		}
		if err := s.validate(path, len(p.Patterns)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pattern) validate(path string) error {
	switch p.TempoMode {
	case TempoGlobal:
	case TempoPerPattern:
		if !(p.Tempo > 0) {
			return invalid(path+".tempo", "required in per-pattern tempo mode")
		}
	case "":
		return invalid(path+".tempoMode", "required")
	default:
		return invalid(path+".tempoMode", "unknown mode %q", p.TempoMode)
	}
	if p.Tempo < 0 {
		return invalid(path+".tempo", "must be positive, got %v", p.Tempo)
	}
	if p.Swing < 0 || p.Swing > 100 {
		return invalid(path+".swing", "must be within 0..100, got %v", p.Swing)
	}
	switch p.ScaleMode {
	case ScalePerPattern:
		if p.IsInfinite() {
			return invalid(path+".length", "infinite length requires per-track scale mode")
		}
		if p.Length < 1 || p.Length > NumSteps {
			return invalid(path+".length", "must be within 1..%d, got %d", NumSteps, p.Length)
		}
		if p.ChangeLength != 0 {
			return invalid(path+".changeLength", "only valid in per-track scale mode")
		}
	case ScalePerTrack:
		if !p.IsInfinite() && (p.Length < 1 || p.Length > MaxMasterLength) {
			return invalid(path+".length", "must be within 1..%d or null, got %d", MaxMasterLength, p.Length)
		}
		if p.ChangeLength < 0 || p.ChangeLength > MaxMasterLength {
			return invalid(path+".changeLength", "must be within 1..%d, got %d", MaxMasterLength, p.ChangeLength)
		}
	case "":
		return invalid(path+".scaleMode", "required")
	default:
		return invalid(path+".scaleMode", "unknown mode %q", p.ScaleMode)
	}
	if p.Scale < 0 {
		return invalid(path+".scale", "must be positive, got %v", p.Scale)
	}
	for i := range p.Tracks {
		if err := p.Tracks[i].validate(fmt.Sprintf("%s.tracks[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (t *Track) validate(path string) error {
	switch t.Type {
	case TrackAudio, TrackMIDI:
	case "":
		return invalid(path+".type", "required")
	default:
		return invalid(path+".type", "unknown track type %q", t.Type)
	}
	if t.Length < 0 || t.Length > NumSteps {
		return invalid(path+".length", "must be within 1..%d, got %d", NumSteps, t.Length)
	}
	if t.Scale < 0 {
		return invalid(path+".scale", "must be positive, got %v", t.Scale)
	}
	if err := checkFields(path, &t.Channel, &t.NoteNumber, &t.Velocity, &t.Duration, &t.Probability); err != nil {
		return err
	}
	for i, trig := range t.Steps {
		if trig == nil {
			continue
		}
		spath := fmt.Sprintf("%s.steps[%d]", path, i)
		switch trig.Type {
		case TrigNote, TrigLock:
		case "":
			return invalid(spath+".type", "required")
		default:
			return invalid(spath+".type", "unknown trig type %q", trig.Type)
		}
		if err := checkFields(spath, trig.Channel, trig.NoteNumber, trig.Velocity, trig.Duration, trig.Probability); err != nil {
			return err
		}
	}
	return nil
}

// checkFields range-checks the note fields shared by tracks and trigs.
// Nil pointers are unset overrides and pass.
func checkFields(path string, channel, note, velocity, duration *int, probability *float64) error {
	if channel != nil && (*channel < 0 || *channel >= NumChannels) {
		return invalid(path+".channel", "must be within 0..15, got %d", *channel)
	}
	if note != nil && (*note < 0 || *note > 127) {
		return invalid(path+".noteNumber", "must be within 0..127, got %d", *note)
	}
	if velocity != nil && (*velocity < 0 || *velocity > 127) {
		return invalid(path+".velocity", "must be within 0..127, got %d", *velocity)
	}
	if duration != nil && *duration < 0 {
		return invalid(path+".duration", "must not be negative, got %d", *duration)
	}
	if probability != nil && (*probability < 0 || *probability > 1 || math.IsNaN(*probability)) {
		return invalid(path+".probability", "must be within 0..1, got %v", *probability)
	}
	return nil
}

func (s *Song) validate(path string, numPatterns int) error {
	switch s.End {
	case SongLoop, SongStop:
	case "":
		return invalid(path+".end", "required")
	default:
		return invalid(path+".end", "unknown end mode %q", s.End)
	}
	if s.Tempo < 0 {
		return invalid(path+".tempo", "must be positive, got %v", s.Tempo)
	}
	for i, r := range s.Rows {
		rpath := fmt.Sprintf("%s.rows[%d]", path, i)
		if r == nil {
			return invalid(rpath, "null row")
		}
		if r.Pattern < 0 || r.Pattern >= numPatterns {
			return invalid(rpath+".pattern", "no pattern %d", r.Pattern)
		}
		if r.Repeat < 0 {
			return invalid(rpath+".repeat", "must not be negative, got %d", r.Repeat)
		}
		if r.Length < 0 || r.Length > MaxMasterLength {
			return invalid(rpath+".length", "must be within 1..%d, got %d", MaxMasterLength, r.Length)
		}
		switch r.TempoMode {
		case RowTempoSong, RowTempoPerPattern:
		case RowTempoPerRow:
			if !(r.Tempo > 0) {
				return invalid(rpath+".tempo", "required in per-row tempo mode")
			}
		case "":
			return invalid(rpath+".tempoMode", "required")
		default:
			return invalid(rpath+".tempoMode", "unknown mode %q", r.TempoMode)
		}
	}
	return nil
}
