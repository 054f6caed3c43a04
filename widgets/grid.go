package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ztrkr/sequencer"
	"ztrkr/theme"
)

// StepRow is what RenderStepRow needs to draw one track.
type StepRow struct {
	Index    int
	Track    *sequencer.Track
	Length   int
	Playhead int // -1 when stopped
	Muted    bool
}

// RenderStepRow renders "01 A ●·◆·▶··· ch01" for one track.
func RenderStepRow(th *theme.Theme, row StepRow) string {
	base := lipgloss.NewStyle().Foreground(th.FG())
	dim := lipgloss.NewStyle().Foreground(th.Muted())
	hit := lipgloss.NewStyle().Foreground(th.Active())
	head := lipgloss.NewStyle().Foreground(th.Success())

	kind := "A"
	if row.Track.Type == sequencer.TrackMIDI {
		kind = "M"
	}
	label := fmt.Sprintf("%02d %s ", row.Index+1, kind)

	var cells strings.Builder
	for s := 0; s < sequencer.NumSteps; s++ {
		trig := row.Track.Steps[s]
		switch {
		case s >= row.Length:
			cells.WriteString(dim.Render(string(th.Symbols.StepBeyond)))
		case s == row.Playhead:
			cells.WriteString(head.Render(string(th.Symbols.StepPlayhead)))
		case trig == nil:
			cells.WriteString(dim.Render(string(th.Symbols.StepEmpty)))
		case trig.Type == sequencer.TrigLock:
			cells.WriteString(base.Render(string(th.Symbols.StepLock)))
		default:
			cells.WriteString(hit.Render(string(th.Symbols.StepNote)))
		}
	}

	suffix := fmt.Sprintf(" ch%02d", row.Track.Channel+1)
	if row.Muted {
		return dim.Render(label) + cells.String() + dim.Render(suffix+" mute")
	}
	return base.Render(label) + cells.String() + dim.Render(suffix)
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
