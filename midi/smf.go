package midi

import (
	"fmt"
	"io"
	"math"
	"sort"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// SMF export resolution. Event times are seconds, so the file carries one
// fixed tempo and every tempo change is already baked into the ticks.
const (
	smfResolution = 960
	smfTempo      = 120.0
)

// Recorder collects the messages an Output would send and writes them as
// a Standard MIDI File, one track per channel that has events.
type Recorder struct {
	clock Clock

	mu     sync.Mutex
	events []Event
	seq    uint64
}

func NewRecorder(clock Clock) *Recorder {
	return &Recorder{clock: clock}
}

func (r *Recorder) add(at float64, msg gomidi.Message) {
	r.mu.Lock()
	r.seq++
	r.events = append(r.events, Event{Time: at, Msg: msg, seq: r.seq})
	r.mu.Unlock()
}

// Note records a note-on at start and its note-off dur seconds later.
func (r *Recorder) Note(ch, note, vel uint8, start, dur float64) {
	r.add(start, NoteOnMsg(ch, note, vel))
	r.add(start+dur, NoteOffMsg(ch, note, vel))
}

// Clear forgets everything recorded after the current clock time.
func (r *Recorder) Clear() {
	now := r.clock.Now()
	r.mu.Lock()
	kept := r.events[:0]
	for _, ev := range r.events {
		if ev.Time <= now {
			kept = append(kept, ev)
		}
	}
	r.events = kept
	r.mu.Unlock()
}

// AllChannelsAllNotesOff records all-notes-off on every channel now.
func (r *Recorder) AllChannelsAllNotesOff() {
	now := r.clock.Now()
	for ch := uint8(0); ch < NumChannels; ch++ {
		r.add(now, AllNotesOffMsg(ch))
	}
}

// Len returns the number of recorded messages.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func secondsToTicks(t float64) uint32 {
	return uint32(math.Round(max(t, 0) * smfResolution * smfTempo / 60))
}

// WriteSMF writes a format 1 file: a tempo track, then one track per
// channel in channel order.
func (r *Recorder) WriteSMF(w io.Writer) error {
	r.mu.Lock()
	events := make([]Event, len(r.events))
	copy(events, r.events)
	r.mu.Unlock()

	sort.Slice(events, func(i, j int) bool {
		if events[i].Time != events[j].Time {
			return events[i].Time < events[j].Time
		}
		return events[i].seq < events[j].seq
	})

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(smfResolution)

	var tempo smf.Track
	tempo.Add(0, smf.MetaMeter(4, 4))
	tempo.Add(0, smf.MetaTempo(smfTempo))
	tempo.Close(0)
	if err := sm.Add(tempo); err != nil {
		return fmt.Errorf("tempo track: %w", err)
	}

	var byChannel [NumChannels][]Event
	for _, ev := range events {
		var ch uint8
		if !ev.Msg.GetChannel(&ch) {
			continue
		}
		byChannel[ch] = append(byChannel[ch], ev)
	}

	for ch, evs := range byChannel {
		if len(evs) == 0 {
			continue
		}
		var track smf.Track
		track.Add(0, smf.MetaTrackSequenceName(fmt.Sprintf("ch%02d", ch+1)))
		var last uint32
		for _, ev := range evs {
			tick := secondsToTicks(ev.Time)
			track.Add(tick-last, ev.Msg)
			last = tick
		}
		track.Close(0)
		if err := sm.Add(track); err != nil {
			return fmt.Errorf("channel %d track: %w", ch+1, err)
		}
	}

	if _, err := sm.WriteTo(w); err != nil {
		return fmt.Errorf("write smf: %w", err)
	}
	return nil
}
