package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Status bytes, before the channel nibble is added.
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0
)

// AllNotesOffCC is the channel-mode controller that releases every held note.
const AllNotesOffCC uint8 = 123

// NumChannels is the number of MIDI channels an all-channels flush covers.
const NumChannels = 16

// Event is a MIDI message waiting for its send time, in clock seconds.
type Event struct {
	Time float64
	Msg  gomidi.Message
	seq  uint64
}

// NoteOnMsg builds [0x90|ch, note, vel].
func NoteOnMsg(ch, note, vel uint8) gomidi.Message {
	return gomidi.NoteOn(ch&0x0F, note&0x7F, vel&0x7F)
}

// NoteOffMsg builds [0x80|ch, note, vel], keeping the release velocity.
func NoteOffMsg(ch, note, vel uint8) gomidi.Message {
	return gomidi.NoteOffVelocity(ch&0x0F, note&0x7F, vel&0x7F)
}

// AllNotesOffMsg builds [0xB0|ch, 123, 0].
func AllNotesOffMsg(ch uint8) gomidi.Message {
	return gomidi.ControlChange(ch&0x0F, AllNotesOffCC, 0)
}
