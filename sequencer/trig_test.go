package sequencer

import (
	"math/rand"
	"testing"
)

// fixedRand always draws the same value.
type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

func trackWith(steps map[int]*Trig) *Track {
	t := NewTrack(0)
	for i, trig := range steps {
		t.Steps[i] = trig
	}
	return &t
}

func TestEvaluateProbabilityOneAlwaysFires(t *testing.T) {
	tr := trackWith(map[int]*Trig{0: NewNoteTrig()})
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 10000; i++ {
		var lock Lock
		if d := Evaluate(tr, 0, &lock, rnd); !d.Fire {
			t.Fatalf("draw %d: probability 1 did not fire", i)
		}
	}
	var lock Lock
	if d := Evaluate(tr, 0, &lock, fixedRand(0.9999999)); !d.Fire {
		t.Fatal("probability 1 did not fire on a draw just below 1")
	}
}

func TestEvaluateProbabilityZeroNeverFires(t *testing.T) {
	trig := NewNoteTrig()
	trig.Probability = FloatPtr(0)
	tr := trackWith(map[int]*Trig{3: trig})
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 10000; i++ {
		var lock Lock
		if d := Evaluate(tr, 3, &lock, rnd); d.Fire {
			t.Fatalf("draw %d: probability 0 fired", i)
		}
	}
	var lock Lock
	if d := Evaluate(tr, 3, &lock, fixedRand(0)); d.Fire {
		t.Fatal("probability 0 fired on a zero draw")
	}
}

func TestEvaluateProbabilityIsRerolled(t *testing.T) {
	trig := NewNoteTrig()
	trig.Probability = FloatPtr(0.5)
	tr := trackWith(map[int]*Trig{0: trig})
	rnd := rand.New(rand.NewSource(42))

	fired := 0
	for i := 0; i < 10000; i++ {
		var lock Lock
		if Evaluate(tr, 0, &lock, rnd).Fire {
			fired++
		}
	}
	if fired < 4500 || fired > 5500 {
		t.Fatalf("probability 0.5 fired %d/10000 times", fired)
	}
}

func TestEvaluateEmptyStep(t *testing.T) {
	tr := trackWith(nil)
	lock := Lock{Velocity: IntPtr(10)}
	if d := Evaluate(tr, 5, &lock, fixedRand(0)); d.Fire {
		t.Fatal("empty step fired")
	}
	if lock.Velocity == nil || *lock.Velocity != 10 {
		t.Fatal("empty step touched the pending lock")
	}
	if d := Evaluate(tr, NumSteps, &lock, fixedRand(0)); d.Fire {
		t.Fatal("out of range step fired")
	}
}

func TestLockAppliesToNextNoteOnly(t *testing.T) {
	lock := NewLockTrig()
	lock.Velocity = IntPtr(20)
	lock.NoteNumber = IntPtr(50)
	tr := trackWith(map[int]*Trig{
		0: lock,
		2: NewNoteTrig(),
		4: NewNoteTrig(),
	})

	var pending Lock
	if d := Evaluate(tr, 0, &pending, fixedRand(0)); d.Fire {
		t.Fatal("lock trig fired")
	}
	if pending.Empty() {
		t.Fatal("lock trig did not fill the pending lock")
	}
	Evaluate(tr, 1, &pending, fixedRand(0))

	first := Evaluate(tr, 2, &pending, fixedRand(0))
	if !first.Fire || first.Note.Velocity != 20 || first.Note.NoteNumber != 50 {
		t.Fatalf("first note after lock = %+v, want velocity 20 note 50", first)
	}
	if !pending.Empty() {
		t.Fatal("firing did not consume the lock")
	}

	second := Evaluate(tr, 4, &pending, fixedRand(0))
	if second.Note.Velocity != tr.Velocity || second.Note.NoteNumber != tr.NoteNumber {
		t.Fatalf("second note = %+v, want track defaults", second)
	}
}

func TestNewestLockWinsPerField(t *testing.T) {
	older := NewLockTrig()
	older.Velocity = IntPtr(20)
	older.Duration = IntPtr(300)
	newer := NewLockTrig()
	newer.Velocity = IntPtr(90)
	tr := trackWith(map[int]*Trig{0: older, 1: newer, 2: NewNoteTrig()})

	var pending Lock
	Evaluate(tr, 0, &pending, fixedRand(0))
	Evaluate(tr, 1, &pending, fixedRand(0))
	d := Evaluate(tr, 2, &pending, fixedRand(0))
	if d.Note.Velocity != 90 {
		t.Fatalf("velocity = %d, want newest lock 90", d.Note.Velocity)
	}
	if d.Note.Duration != 300 {
		t.Fatalf("duration = %d, want older lock 300", d.Note.Duration)
	}
}

func TestTrigOverrideBeatsLock(t *testing.T) {
	lock := NewLockTrig()
	lock.Velocity = IntPtr(20)
	note := NewNoteTrig()
	note.Velocity = IntPtr(110)
	tr := trackWith(map[int]*Trig{0: lock, 1: note})

	var pending Lock
	Evaluate(tr, 0, &pending, fixedRand(0))
	if d := Evaluate(tr, 1, &pending, fixedRand(0)); d.Note.Velocity != 110 {
		t.Fatalf("velocity = %d, want trig override 110", d.Note.Velocity)
	}
}

func TestLockSurvivesFailedRoll(t *testing.T) {
	lock := NewLockTrig()
	lock.NoteNumber = IntPtr(40)
	note := NewNoteTrig()
	note.Probability = FloatPtr(0.5)
	tr := trackWith(map[int]*Trig{0: lock, 1: note})

	var pending Lock
	Evaluate(tr, 0, &pending, fixedRand(0))
	if d := Evaluate(tr, 1, &pending, fixedRand(0.9)); d.Fire {
		t.Fatal("roll of 0.9 against 0.5 fired")
	}
	if pending.NoteNumber == nil {
		t.Fatal("failed roll consumed the lock")
	}
	if d := Evaluate(tr, 1, &pending, fixedRand(0.1)); !d.Fire || d.Note.NoteNumber != 40 {
		t.Fatalf("retry = %+v, want note 40", d)
	}
}

func TestEvaluateClampsResolvedValues(t *testing.T) {
	note := NewNoteTrig()
	note.Velocity = IntPtr(300)
	note.NoteNumber = IntPtr(-4)
	note.Channel = IntPtr(20)
	note.Duration = IntPtr(0)
	tr := trackWith(map[int]*Trig{0: note})

	var pending Lock
	d := Evaluate(tr, 0, &pending, fixedRand(0))
	want := Note{NoteNumber: 0, Velocity: 127, Duration: 1, Channel: 15, Probability: 1}
	if d.Note != want {
		t.Fatalf("note = %+v, want %+v", d.Note, want)
	}
}
