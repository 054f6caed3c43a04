package sequencer

import "sort"

// DrumKit assigns a default note number to each of the 16 track slots.
type DrumKit struct {
	Name  string
	Notes [NumTracks]uint8
}

// SlotNames labels the track slots the kits are laid out for.
var SlotNames = [NumTracks]string{
	"kick", "snare", "closed hh", "open hh",
	"low tom", "mid tom", "high tom", "crash",
	"ride", "clap", "rimshot", "cowbell",
	"clave", "maracas", "low conga", "high conga",
}

// DefaultKit is the kit new patterns are built with.
const DefaultKit = "gm"

var kits = map[string]DrumKit{
	"gm": {
		Name:  "General MIDI",
		Notes: [NumTracks]uint8{36, 38, 42, 46, 41, 43, 45, 49, 51, 39, 37, 56, 75, 70, 64, 63},
	},
	// RD-8 puts its snare on 40 and spreads the toms wider than GM.
	"rd8": {
		Name:  "Behringer RD-8",
		Notes: [NumTracks]uint8{36, 40, 42, 46, 45, 48, 50, 49, 51, 39, 37, 56, 75, 70, 64, 63},
	},
	"tr8s": {
		Name:  "Roland TR-8S",
		Notes: [NumTracks]uint8{36, 38, 42, 46, 41, 43, 45, 49, 51, 39, 37, 56, 75, 70, 62, 63},
	},
	// ER-1 only answers on its first ten slots; the rest keep GM notes.
	"er1": {
		Name:  "Korg ER-1",
		Notes: [NumTracks]uint8{36, 38, 42, 46, 40, 41, 43, 49, 45, 39, 37, 56, 75, 70, 64, 63},
	},
}

// KitNames returns the available kit names in sorted order.
func KitNames() []string {
	names := make([]string, 0, len(kits))
	for name := range kits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetKit returns a kit by name, falling back to the default kit.
func GetKit(name string) DrumKit {
	if kit, ok := kits[name]; ok {
		return kit
	}
	return kits[DefaultKit]
}

// ApplyKit rewrites the default note number of every track in p.
func ApplyKit(p *Pattern, name string) {
	kit := GetKit(name)
	for i := range p.Tracks {
		p.Tracks[i].NoteNumber = int(kit.Notes[i])
	}
}
