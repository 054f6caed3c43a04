package sequencer

import (
	"math"
	"strconv"
)

// Tempo limits applied by SetTempo.
const (
	MinTempo = 20
	MaxTempo = 300
)

// StepDuration returns the length in seconds of one step at tempo bpm with
// the given scale multiplier. Steps are sixteenth notes.
func StepDuration(tempo, scale float64) float64 {
	return 60 / tempo / 4 * scale
}

// SwingOffset returns how far step is pushed from its straight position.
// Only odd steps move: forward above 50, backward below it, by at most half
// a step at 0 and 100.
func SwingOffset(swing float64, step int, stepDuration float64) float64 {
	if step%2 == 0 {
		return 0
	}
	return (swing - 50) / 50 * stepDuration / 2
}

// ResolveTempo picks the tempo in effect for pattern p, optionally played
// from row of song. The most specific level set wins: row, pattern, song,
// then project.
func ResolveTempo(project *Project, p *Pattern, song *Song, row *SongRow) float64 {
	if row != nil && row.TempoMode == RowTempoPerRow && row.Tempo > 0 {
		return row.Tempo
	}
	songTempoOnly := row != nil && row.TempoMode == RowTempoSong
	if p != nil && !songTempoOnly && p.TempoMode == TempoPerPattern && p.Tempo > 0 {
		return p.Tempo
	}
	if song != nil && song.Tempo > 0 {
		return song.Tempo
	}
	return project.Tempo
}

// ScaleString formats a scale as a multiplier or divider, e.g. "x2", "/4".
func ScaleString(scale float64) string {
	if scale >= 1 {
		return "x" + formatNumber(scale)
	}
	return "/" + formatNumber(1/scale)
}

// ProbabilityString formats a probability as "1" or a "1/n" ratio.
func ProbabilityString(p float64) string {
	if p == 1 {
		return "1"
	}
	return "1/" + formatNumber(math.Round(100/p)/100)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
