package voice

import (
	"math"
	"sort"
)

// CurveKind is how a parameter travels to an event's value.
type CurveKind int

const (
	// CurveSet jumps to the value at the event time.
	CurveSet CurveKind = iota
	// CurveLinear ramps linearly from the previous event.
	CurveLinear
	// CurveExponential ramps exponentially from the previous event.
	CurveExponential
)

func (c CurveKind) String() string {
	switch c {
	case CurveSet:
		return "set"
	case CurveLinear:
		return "linear"
	case CurveExponential:
		return "exponential"
	}
	return "unknown"
}

// minExpValue is the floor for exponential ramp endpoints, which cannot
// reach or cross zero.
const minExpValue = 1e-7

// AutomationEvent is one entry of a parameter timeline.
type AutomationEvent struct {
	Time  float64
	Value float64
	Curve CurveKind
}

// Param is a time-indexed parameter. Events are kept sorted by time; a
// value before the first event is the default. Param is not safe for
// concurrent use, its owning Machine serializes access.
type Param struct {
	name   string
	def    float64
	lo, hi float64
	events []AutomationEvent
}

func newParam(name string, def, lo, hi float64) *Param {
	return &Param{name: name, def: def, lo: lo, hi: hi}
}

func (p *Param) Name() string { return p.name }

func (p *Param) Default() float64 { return p.def }

func (p *Param) clamp(v float64) float64 {
	if math.IsNaN(v) {
		return p.def
	}
	return min(max(v, p.lo), p.hi)
}

func (p *Param) insert(ev AutomationEvent) {
	ev.Value = p.clamp(ev.Value)
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].Time > ev.Time })
	p.events = append(p.events, AutomationEvent{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = ev
}

// SetValueAtTime jumps to v at t.
func (p *Param) SetValueAtTime(v, t float64) {
	p.insert(AutomationEvent{Time: t, Value: v, Curve: CurveSet})
}

// LinearRampToValueAtTime ramps linearly from the previous event to v at t.
func (p *Param) LinearRampToValueAtTime(v, t float64) {
	p.insert(AutomationEvent{Time: t, Value: v, Curve: CurveLinear})
}

// ExponentialRampToValueAtTime ramps exponentially from the previous event
// to v at t. v is raised to a small positive floor.
func (p *Param) ExponentialRampToValueAtTime(v, t float64) {
	p.insert(AutomationEvent{Time: t, Value: max(v, minExpValue), Curve: CurveExponential})
}

// CancelScheduledValues removes every event at or after t.
func (p *Param) CancelScheduledValues(t float64) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].Time >= t })
	p.events = p.events[:i]
}

// CancelAndHoldAtTime removes every event at or after t but keeps the
// value the timeline had at t. A ramp in progress is cut short at t along
// its own curve.
func (p *Param) CancelAndHoldAtTime(t float64) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].Time >= t })
	if i == len(p.events) {
		return
	}
	next := p.events[i]
	v := p.ValueAt(t)
	p.events = p.events[:i]
	if i > 0 && next.Curve != CurveSet {
		p.events = append(p.events, AutomationEvent{Time: t, Value: v, Curve: next.Curve})
	}
}

// Events returns a copy of the timeline.
func (p *Param) Events() []AutomationEvent {
	out := make([]AutomationEvent, len(p.events))
	copy(out, p.events)
	return out
}

// ValueAt evaluates the timeline at t.
func (p *Param) ValueAt(t float64) float64 {
	// index of the first event after t
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].Time > t })

	prevTime, prevValue := 0.0, p.def
	if i > 0 {
		prev := p.events[i-1]
		prevTime, prevValue = prev.Time, prev.Value
	}
	if i == len(p.events) {
		return prevValue
	}

	next := p.events[i]
	if i == 0 {
		// A ramp with no start point holds the default until it arrives.
		return p.def
	}
	switch next.Curve {
	case CurveLinear:
		f := (t - prevTime) / (next.Time - prevTime)
		return prevValue + (next.Value-prevValue)*f
	case CurveExponential:
		if prevValue <= 0 || next.Value <= 0 {
			return prevValue
		}
		f := (t - prevTime) / (next.Time - prevTime)
		return prevValue * math.Pow(next.Value/prevValue, f)
	}
	return prevValue
}

// Prune drops events that can no longer affect values at or after t,
// keeping the last one before t as the starting point.
func (p *Param) Prune(t float64) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].Time > t })
	if i <= 1 {
		return
	}
	p.events = append(p.events[:0], p.events[i-1:]...)
}
