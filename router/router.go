// Package router delivers scheduled note events to the voice engine or to
// MIDI output, depending on the track they came from.
package router

import (
	"sync"

	"ztrkr/debug"
	"ztrkr/sequencer"
	"ztrkr/voice"
)

// Voices is where audio-track notes go.
type Voices interface {
	Note(slot int, n voice.Note) error
}

// MIDI is where midi-track notes go. Times are on the sequencer clock.
type MIDI interface {
	Note(ch, note, vel uint8, start, dur float64)
	Clear()
	AllChannelsAllNotesOff()
}

// Router implements sequencer.Sink.
type Router struct {
	voices Voices
	midi   MIDI

	mu          sync.Mutex
	audioOffset float64
}

// New returns a router. Either destination may be nil; events for a
// missing destination are dropped.
func New(voices Voices, midi MIDI) *Router {
	return &Router{voices: voices, midi: midi}
}

// SetAudioOffset sets the difference audio clock minus sequencer clock.
func (r *Router) SetAudioOffset(d float64) {
	r.mu.Lock()
	r.audioOffset = d
	r.mu.Unlock()
}

// AudioTime converts a sequencer timestamp to the audio clock.
func (r *Router) AudioTime(t float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return t + r.audioOffset
}

// Route sends ev to the machine owned by the track's channel for audio
// tracks, or as a note-on/note-off pair on ev.Channel for midi tracks.
func (r *Router) Route(ev sequencer.NoteEvent, track *sequencer.Track) {
	switch track.Type {
	case sequencer.TrackAudio:
		if r.voices == nil {
			return
		}
		err := r.voices.Note(track.Channel, voice.Note{
			Number:   ev.NoteNumber,
			Velocity: ev.Velocity,
			Duration: ev.Duration,
			Time:     r.AudioTime(ev.Timestamp),
		})
		if err != nil {
			debug.Log("router", "track %d: %v", ev.TrackIndex, err)
		}
	case sequencer.TrackMIDI:
		if r.midi == nil {
			debug.LogEvery(64, "router", "no midi output, dropped note %d", ev.NoteNumber)
			return
		}
		r.midi.Note(
			uint8(ev.Channel), uint8(ev.NoteNumber), uint8(ev.Velocity),
			ev.Timestamp, float64(ev.Duration)/1000,
		)
	}
}

// Stop cancels MIDI not yet sent and releases every channel.
func (r *Router) Stop() {
	if r.midi == nil {
		return
	}
	r.midi.Clear()
	r.midi.AllChannelsAllNotesOff()
}
