package widgets

import (
	"strings"
	"testing"

	"ztrkr/sequencer"
	"ztrkr/theme"
)

func TestRenderStepRow(t *testing.T) {
	th := theme.New(theme.Plasma())
	trk := sequencer.NewTrack(2)
	trk.Type = sequencer.TrackMIDI
	trk.Steps[0] = sequencer.NewNoteTrig()
	trk.Steps[1] = sequencer.NewLockTrig()

	out := RenderStepRow(th, StepRow{Index: 0, Track: &trk, Length: 8, Playhead: 3})
	for _, want := range []string{"01 M", "●", "◆", "▶", "-", "ch03"} {
		if !strings.Contains(out, want) {
			t.Errorf("row %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "mute") {
		t.Errorf("unmuted row says mute: %q", out)
	}

	muted := RenderStepRow(th, StepRow{Index: 9, Track: &trk, Length: 16, Playhead: -1, Muted: true})
	if !strings.Contains(muted, "10 M") || !strings.Contains(muted, "mute") || strings.Contains(muted, "-") {
		t.Errorf("muted row = %q", muted)
	}
}

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{{Title: "Transport", Keys: []KeyBinding{{"space", "play/stop"}}}})
	if out != "Transport\n  space        play/stop" {
		t.Fatalf("help = %q", out)
	}
}
