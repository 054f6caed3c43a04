package sequencer

// Rand is the random source probability rolls draw from. *math/rand.Rand
// satisfies it.
type Rand interface {
	Float64() float64
}

// Lock accumulates the overrides of lock trigs a track has passed since
// its last fired note. A newer lock replaces only the fields it sets.
type Lock struct {
	NoteNumber  *int
	Velocity    *int
	Duration    *int
	Probability *float64
	Channel     *int
}

// Merge folds the overrides of t into l.
func (l *Lock) Merge(t *Trig) {
	if t.NoteNumber != nil {
		l.NoteNumber = cloneInt(t.NoteNumber)
	}
	if t.Velocity != nil {
		l.Velocity = cloneInt(t.Velocity)
	}
	if t.Duration != nil {
		l.Duration = cloneInt(t.Duration)
	}
	if t.Probability != nil {
		v := *t.Probability
		l.Probability = &v
	}
	if t.Channel != nil {
		l.Channel = cloneInt(t.Channel)
	}
}

func (l *Lock) Reset() { *l = Lock{} }

func (l *Lock) Empty() bool {
	return l.NoteNumber == nil && l.Velocity == nil && l.Duration == nil &&
		l.Probability == nil && l.Channel == nil
}

// Note is a resolved note trig, before it gets a timestamp.
type Note struct {
	NoteNumber  int
	Velocity    int
	Duration    int // milliseconds
	Channel     int
	Probability float64
}

// FireDecision is the outcome of evaluating one step.
type FireDecision struct {
	Fire bool
	Note Note
}

// Evaluate decides whether step of track fires. Lock trigs are merged into
// pending and never fire. A note trig resolves each field as
// trig override, then pending lock, then track default, and fires when a
// fresh draw from rnd falls below its probability; firing consumes pending.
func Evaluate(track *Track, step int, pending *Lock, rnd Rand) FireDecision {
	if step < 0 || step >= NumSteps {
		return FireDecision{}
	}
	trig := track.Steps[step]
	if trig == nil {
		return FireDecision{}
	}
	if trig.Type == TrigLock {
		pending.Merge(trig)
		return FireDecision{}
	}
	if trig.Type != TrigNote {
		return FireDecision{}
	}

	n := Note{
		NoteNumber:  clampInt(resolveInt(trig.NoteNumber, pending.NoteNumber, track.NoteNumber), 0, 127),
		Velocity:    clampInt(resolveInt(trig.Velocity, pending.Velocity, track.Velocity), 0, 127),
		Duration:    max(resolveInt(trig.Duration, pending.Duration, track.Duration), 1),
		Channel:     clampInt(resolveInt(trig.Channel, pending.Channel, track.Channel), 0, NumChannels-1),
		Probability: clampFloat(resolveFloat(trig.Probability, pending.Probability, track.Probability), 0, 1),
	}
	if rnd.Float64() >= n.Probability {
		return FireDecision{}
	}
	pending.Reset()
	return FireDecision{Fire: true, Note: n}
}

func resolveInt(trig, lock *int, def int) int {
	if trig != nil {
		return *trig
	}
	if lock != nil {
		return *lock
	}
	return def
}

func resolveFloat(trig, lock *float64, def float64) float64 {
	if trig != nil {
		return *trig
	}
	if lock != nil {
		return *lock
	}
	return def
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func clampFloat(v, lo, hi float64) float64 {
	if v != v {
		return lo
	}
	return min(max(v, lo), hi)
}
