package sequencer

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"ztrkr/debug"
)

// NoteEvent is a fired note with the absolute clock time it should sound at.
type NoteEvent struct {
	TrackIndex int
	NoteNumber int
	Velocity   int
	Duration   int // milliseconds
	Channel    int
	Timestamp  float64
}

// Sink receives the events the transport schedules. Route is called with
// the transport lock held and must not block or call back into it.
type Sink interface {
	Route(ev NoteEvent, track *Track)
	Stop()
}

const (
	DefaultLookahead    = 100 * time.Millisecond
	DefaultTickInterval = 25 * time.Millisecond

	maxStepsPerTick = 4096
	posEpsilon      = 1e-9
)

type Option func(*Transport)

// WithLookahead sets how far past the current time each tick schedules.
func WithLookahead(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.lookahead = d
		}
	}
}

// WithTickInterval sets how often Run calls Tick.
func WithTickInterval(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithRand sets the source of probability rolls.
func WithRand(r Rand) Option {
	return func(t *Transport) {
		if r != nil {
			t.rnd = r
		}
	}
}

// trackCursor is one track's modular step counter. Positions are master
// positions measured in sixteenths since Start.
type trackCursor struct {
	nextPos float64
	step    int
	last    int
	lock    Lock
}

// Transport turns the playing pattern into timed NoteEvents. A single
// master position drives all tracks; it maps to clock time through one
// tempo anchor, so every track stays phase-locked across tempo changes.
type Transport struct {
	mu    sync.Mutex
	ctx   *PlaybackContext
	clock Clock
	sink  Sink
	rnd   Rand

	lookahead time.Duration
	interval  time.Duration

	running bool
	pattern int
	next    int
	song    int
	row     int
	repeat  int

	tempo      float64
	anchorTime float64
	anchorPos  float64
	frontier   float64

	cycleStart  float64
	cycleLen    float64
	resetOnWrap bool

	cursors [NumTracks]trackCursor
	late    int

	interruptChan chan struct{}
}

func NewTransport(ctx *PlaybackContext, clock Clock, sink Sink, opts ...Option) *Transport {
	t := &Transport{
		ctx:           ctx,
		clock:         clock,
		sink:          sink,
		rnd:           rand.New(rand.NewSource(time.Now().UnixNano())),
		lookahead:     DefaultLookahead,
		interval:      DefaultTickInterval,
		next:          -1,
		song:          -1,
		interruptChan: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins playback from step 0 at the current clock reading.
func (t *Transport) Start() error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return nil
	}
	if err := t.ctx.Check(); err != nil {
		t.mu.Unlock()
		return fmt.Errorf("start: %w", err)
	}

	now := t.clock.Now()
	t.running = true
	t.pattern = t.ctx.Pattern
	t.song = t.ctx.Song
	t.next = -1
	t.late = 0
	if t.song >= 0 {
		t.row = 0
		t.enterRow()
	}
	t.tempo = 0
	t.anchorTime = now
	t.anchorPos = 0
	t.frontier = 0
	for i := range t.cursors {
		t.cursors[i] = trackCursor{last: -1}
	}
	t.enter(0, true)
	debug.Log("transport", "start pattern=%d song=%d tempo=%.1f", t.pattern, t.song, t.tempo)
	t.mu.Unlock()

	t.interrupt()
	return nil
}

// Stop halts scheduling immediately and tells the sink to silence
// anything still pending.
func (t *Transport) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	t.next = -1
	debug.Log("transport", "stop at pos=%.2f", t.frontier)
	t.mu.Unlock()

	t.sink.Stop()
}

// Reconfigure swaps the playback context. A running transport restarts
// from step 0 on the new context.
func (t *Transport) Reconfigure(ctx *PlaybackContext) error {
	if err := ctx.Check(); err != nil {
		return fmt.Errorf("reconfigure: %w", err)
	}
	t.mu.Lock()
	wasRunning := t.running
	t.mu.Unlock()

	if wasRunning {
		t.Stop()
	}
	t.mu.Lock()
	t.ctx = ctx
	t.mu.Unlock()
	if wasRunning {
		return t.Start()
	}
	return nil
}

func (t *Transport) Playing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// QueuePattern switches to pattern i at the next master boundary. When
// stopped the selection changes immediately. Queuing during a song leaves
// song mode at that boundary.
func (t *Transport) QueuePattern(i int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.ctx.Project.Patterns) {
		return fmt.Errorf("%w: %d", ErrPatternIndex, i)
	}
	if !t.running {
		t.ctx.Pattern = i
		t.ctx.Song = -1
		return nil
	}
	t.next = i
	return nil
}

// SetTempo changes the tempo at whichever level currently decides it, so
// the change is audible. The value is clamped to MinTempo..MaxTempo.
func (t *Transport) SetTempo(bpm float64) {
	bpm = clampFloat(bpm, MinTempo, MaxTempo)
	t.mu.Lock()
	*t.tempoSource() = bpm
	t.mu.Unlock()
	t.interrupt()
}

// Tempo returns the tempo in effect for the current selection.
func (t *Transport) Tempo() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resolveTempo()
}

// Tick schedules every step whose time falls before now plus the
// lookahead. Steps that are already late are still emitted, stamped with
// the current time. Returns the number of events routed.
func (t *Transport) Tick() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return 0
	}

	now := t.clock.Now()
	horizon := now + t.lookahead.Seconds()
	if tempo := t.resolveTempo(); tempo != t.tempo {
		t.retempo(t.frontier, tempo)
	}

	emitted := 0
	for n := 0; n < maxStepsPerTick && t.running; n++ {
		track, pos := t.nextStep()
		boundary := t.cycleStart + t.cycleLen
		if boundary <= pos+posEpsilon {
			if t.timeAt(boundary) >= horizon {
				break
			}
			t.frontier = boundary
			t.wrap(boundary)
			continue
		}
		if t.timeAt(pos)+t.swingLead() >= horizon {
			break
		}
		t.frontier = pos
		if t.step(track, pos, now) {
			emitted++
		}
	}
	return emitted
}

// Run drives Tick until ctx is done.
func (t *Transport) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.interruptChan:
			t.Tick()
		case <-ticker.C:
			t.Tick()
		}
	}
}

func (t *Transport) interrupt() {
	select {
	case t.interruptChan <- struct{}{}:
	default:
	}
}

func (t *Transport) timeAt(pos float64) float64 {
	return t.anchorTime + (pos-t.anchorPos)*StepDuration(t.tempo, 1)
}

// retempo re-anchors the master clock at pos so events before pos keep
// their times and later ones follow the new tempo.
func (t *Transport) retempo(pos, tempo float64) {
	if tempo == t.tempo {
		return
	}
	if t.tempo > 0 {
		t.anchorTime = t.timeAt(pos)
		t.anchorPos = pos
	}
	debug.Log("transport", "tempo %.1f -> %.1f at pos=%.2f", t.tempo, tempo, pos)
	t.tempo = tempo
}

// swingLead is the largest amount, as a non-positive number of seconds,
// that swing below 50 pulls an odd step ahead of its straight time.
func (t *Transport) swingLead() float64 {
	pat := t.current()
	if pat.Swing >= 50 {
		return 0
	}
	lead := 0.0
	for i := range pat.Tracks {
		lead = min(lead, SwingOffset(pat.Swing, 1, StepDuration(t.tempo, pat.TrackScale(i))))
	}
	return lead
}

func (t *Transport) nextStep() (int, float64) {
	track, pos := 0, t.cursors[0].nextPos
	for i := 1; i < NumTracks; i++ {
		if p := t.cursors[i].nextPos; p < pos-posEpsilon {
			track, pos = i, p
		}
	}
	return track, pos
}

// step advances track i past the step at pos and routes it if it fires.
func (t *Transport) step(i int, pos, now float64) bool {
	pat := t.current()
	c := &t.cursors[i]
	length := pat.TrackLength(i)
	scale := pat.TrackScale(i)
	idx := c.step % length
	c.step = (idx + 1) % length
	c.last = idx
	c.nextPos = pos + scale

	if t.muted(i) {
		return false
	}
	track := &pat.Tracks[i]
	d := Evaluate(track, idx, &c.lock, t.rnd)
	if !d.Fire {
		return false
	}

	ts := t.timeAt(pos) + SwingOffset(pat.Swing, idx, StepDuration(t.tempo, scale))
	if ts < now {
		t.late++
		debug.LogEvery(16, "transport", "late step track=%d by %.1fms", i, (now-ts)*1000)
		ts = now
	}
	t.sink.Route(NoteEvent{
		TrackIndex: i,
		NoteNumber: d.Note.NoteNumber,
		Velocity:   d.Note.Velocity,
		Duration:   d.Note.Duration,
		Channel:    d.Note.Channel,
		Timestamp:  ts,
	}, track)
	return true
}

// wrap handles a master boundary at pos: song rows advance, queued
// patterns take over, and the next cycle begins.
func (t *Transport) wrap(pos float64) {
	changed := false
	switch {
	case t.next >= 0:
		t.pattern = t.next
		t.next = -1
		t.song = -1
		changed = true
	case t.song >= 0:
		t.repeat--
		if t.repeat > 0 {
			break
		}
		song := t.ctx.Project.Songs[t.song]
		t.row++
		if t.row >= len(song.Rows) {
			if song.End == SongStop {
				t.running = false
				debug.Log("transport", "song %d ended", t.song)
				return
			}
			t.row = 0
		}
		t.enterRow()
		changed = true
	}

	if changed {
		for i := range t.cursors {
			t.cursors[i].lock.Reset()
		}
	}
	t.enter(pos, changed || t.resetOnWrap)
}

// enterRow selects the pattern of the current song row.
func (t *Transport) enterRow() {
	song := t.ctx.Project.Songs[t.song]
	if t.row >= len(song.Rows) {
		t.row = 0
	}
	r := song.Rows[t.row]
	t.pattern = r.Pattern
	t.repeat = max(r.Repeat, 1)
}

// enter starts a master cycle at pos for the current pattern.
func (t *Transport) enter(pos float64, reset bool) {
	pat := t.current()
	length := pat.Length
	if r := t.currentRow(); r != nil && r.Length > 0 {
		length = r.Length
	}
	t.cycleStart = pos
	if length == Infinite {
		t.cycleLen = pat.ChangeBoundary()
		t.resetOnWrap = false
	} else {
		t.cycleLen = pat.CycleLength(length)
		t.resetOnWrap = true
	}
	t.retempo(pos, t.resolveTempo())

	if reset {
		for i := range t.cursors {
			t.cursors[i].nextPos = pos
			t.cursors[i].step = 0
		}
	}
}

func (t *Transport) current() *Pattern {
	patterns := t.ctx.Project.Patterns
	if t.pattern < 0 || t.pattern >= len(patterns) {
		t.pattern = 0
	}
	return patterns[t.pattern]
}

func (t *Transport) currentSong() *Song {
	if t.song < 0 || t.song >= len(t.ctx.Project.Songs) {
		return nil
	}
	return t.ctx.Project.Songs[t.song]
}

func (t *Transport) currentRow() *SongRow {
	s := t.currentSong()
	if s == nil || t.row >= len(s.Rows) {
		return nil
	}
	return s.Rows[t.row]
}

func (t *Transport) muted(i int) bool {
	if t.ctx.Project.Mutes.Has(i) {
		return true
	}
	if r := t.currentRow(); r != nil && r.Mutes != nil {
		return r.Mutes.Has(i)
	}
	return t.current().Mutes.Has(i)
}

// selection returns what is playing, or what would play on Start.
func (t *Transport) selection() (*Pattern, *Song, *SongRow) {
	if t.running {
		return t.current(), t.currentSong(), t.currentRow()
	}
	p := t.ctx.Project
	if song := t.ctx.song(); song != nil && len(song.Rows) > 0 {
		row := song.Rows[0]
		if row.Pattern >= 0 && row.Pattern < len(p.Patterns) {
			return p.Patterns[row.Pattern], song, row
		}
	}
	if t.ctx.Pattern >= 0 && t.ctx.Pattern < len(p.Patterns) {
		return p.Patterns[t.ctx.Pattern], nil, nil
	}
	return nil, nil, nil
}

func (t *Transport) resolveTempo() float64 {
	pat, song, row := t.selection()
	return ResolveTempo(t.ctx.Project, pat, song, row)
}

func (t *Transport) tempoSource() *float64 {
	pat, song, row := t.selection()
	if row != nil && row.TempoMode == RowTempoPerRow && row.Tempo > 0 {
		return &row.Tempo
	}
	songOnly := row != nil && row.TempoMode == RowTempoSong
	if pat != nil && !songOnly && pat.TempoMode == TempoPerPattern && pat.Tempo > 0 {
		return &pat.Tempo
	}
	if song != nil && song.Tempo > 0 {
		return &song.Tempo
	}
	return &t.ctx.Project.Tempo
}

// Status is a snapshot of the transport for display.
type Status struct {
	Running bool
	Tempo   float64
	Swing   float64
	Pattern int
	Next    int
	Song    int
	Row     int
	Steps   [NumTracks]int
	Lengths [NumTracks]int
	Muted   Set16
	Late    int
}

func (t *Transport) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Status{
		Running: t.running,
		Tempo:   t.resolveTempo(),
		Pattern: t.ctx.Pattern,
		Next:    t.next,
		Song:    t.ctx.Song,
		Row:     -1,
		Late:    t.late,
	}
	pat, _, _ := t.selection()
	if t.running {
		s.Pattern = t.pattern
		s.Song = t.song
		if t.song >= 0 {
			s.Row = t.row
		}
	}
	for i := range s.Steps {
		s.Steps[i] = -1
		if t.running {
			s.Steps[i] = t.cursors[i].last
		}
		if pat != nil {
			s.Lengths[i] = pat.TrackLength(i)
			if t.running && t.muted(i) {
				s.Muted.Add(i)
			} else if !t.running && (pat.Mutes.Has(i) || t.ctx.Project.Mutes.Has(i)) {
				s.Muted.Add(i)
			}
		}
	}
	if pat != nil {
		s.Swing = pat.Swing
	}
	return s
}
