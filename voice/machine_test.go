package voice

import (
	"reflect"
	"testing"
)

func TestParseMachineType(t *testing.T) {
	cases := map[string]MachineType{
		"sine":   Sine,
		" Kick ": Kick,
		"saw":    Sawtooth,
		"SNARE":  Snare,
	}
	for in, want := range cases {
		got, err := ParseMachineType(in)
		if err != nil || got != want {
			t.Errorf("ParseMachineType(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMachineType("fm"); err == nil {
		t.Error("unknown type accepted")
	}
}

func TestMIDIToFreq(t *testing.T) {
	if got := MIDIToFreq(69); got != 440 {
		t.Fatalf("A4 = %v", got)
	}
	if got := MIDIToFreq(81); !approx(got, 880, 1e-9) {
		t.Fatalf("A5 = %v", got)
	}
	if got := MIDIToFreq(60); !approx(got, 261.6256, 1e-3) {
		t.Fatalf("C4 = %v", got)
	}
}

func TestMachineParams(t *testing.T) {
	cases := []struct {
		typ  MachineType
		want []string
	}{
		{Sine, []string{"filter.frequency", "filter.q", "gain", "osc.frequency", "output.gain"}},
		{Noise, []string{"filter.frequency", "filter.q", "gain", "output.gain"}},
		{Kick, []string{"gain", "osc.frequency", "output.gain"}},
		{Snare, []string{"body.frequency", "body.gain", "noise.filter.frequency", "noise.filter.q", "noise.gain", "output.gain"}},
	}
	for _, c := range cases {
		if got := NewMachine(c.typ).ParamNames(); !reflect.DeepEqual(got, c.want) {
			t.Errorf("%s params = %v, want %v", c.typ, got, c.want)
		}
	}
	if typ := NewMachine("organ").Type; typ != Sine {
		t.Errorf("unknown machine type became %q, want sine", typ)
	}
}

func TestPitchedNote(t *testing.T) {
	m := NewMachine(Square)
	m.Note(Note{Number: 69, Velocity: 127, Duration: 100, Time: 1})

	if got := m.ValueAt("osc.frequency", 1.2); got != 440 {
		t.Fatalf("frequency = %v, want 440", got)
	}
	if got := m.ValueAt("filter.frequency", 1); got != FilterStartCutoff {
		t.Fatalf("cutoff at note = %v", got)
	}
	if got := m.ValueAt("filter.frequency", 1+FilterSweep); !approx(got, FilterEndCutoff, 1e-6) {
		t.Fatalf("cutoff after sweep = %v", got)
	}
	if got := m.ValueAt("gain", 1); got != 1 {
		t.Fatalf("peak gain = %v, want 1", got)
	}
	if got := m.ValueAt("gain", 1.5); !approx(got, EnvelopeFloor, 1e-9) {
		t.Fatalf("gain after 500ms envelope = %v, want %v", got, EnvelopeFloor)
	}
	if got := m.ValueAt("gain", 0.5); got != 0 {
		t.Fatalf("gain before note = %v", got)
	}
}

func TestKickSweep(t *testing.T) {
	m := NewMachine(Kick)
	m.Note(Note{Number: 36, Velocity: 100, Duration: 100, Time: 0})

	ev := m.Timeline("osc.frequency")
	if len(ev) != 2 {
		t.Fatalf("frequency timeline = %+v", ev)
	}
	if ev[0].Value != KickStartFreq || ev[0].Curve != CurveSet {
		t.Fatalf("start = %+v", ev[0])
	}
	if ev[1].Time != KickSweep || ev[1].Curve != CurveExponential || !approx(ev[1].Value, KickEndFreq, 1e-12) {
		t.Fatalf("end = %+v", ev[1])
	}
	if mid := m.ValueAt("osc.frequency", 0.25); mid >= KickStartFreq || mid <= KickEndFreq {
		t.Fatalf("mid sweep = %v", mid)
	}
}

func TestSnareLayers(t *testing.T) {
	m := NewMachine(Snare)
	m.Note(Note{Number: 38, Velocity: 127, Duration: 200, Time: 0})

	if got := m.ValueAt("noise.filter.frequency", 0); got != SnareHighpass {
		t.Fatalf("highpass = %v", got)
	}
	if got := m.ValueAt("body.gain", 0); got != SnareBodyLevel {
		t.Fatalf("body level = %v", got)
	}
	bodyEnd := EnvelopeDuration(200) * SnareBodyDecay
	if got := m.ValueAt("body.gain", bodyEnd); !approx(got, SnareBodyLevel*EnvelopeFloor, 1e-9) {
		t.Fatalf("body at %v = %v", bodyEnd, got)
	}
	if got := m.ValueAt("noise.gain", bodyEnd); got <= SnareBodyLevel*EnvelopeFloor {
		t.Fatalf("noise decayed with the body: %v", got)
	}
}

func TestRetriggerCancelsPending(t *testing.T) {
	m := NewMachine(Sine)
	m.Note(Note{Number: 60, Velocity: 127, Duration: 1000, Time: 0})
	decay := []float64{m.ValueAt("gain", 0.05), m.ValueAt("gain", 0.099)}
	m.Note(Note{Number: 72, Velocity: 64, Duration: 100, Time: 0.1})

	for i, at := range []float64{0.05, 0.099} {
		if got := m.ValueAt("gain", at); !approx(got, decay[i], 1e-9) {
			t.Fatalf("gain at %v = %v before the retrigger, was %v", at, got, decay[i])
		}
	}

	ev := m.Timeline("gain")
	if len(ev) != 4 {
		t.Fatalf("gain timeline = %+v", ev)
	}
	if ev[1].Time != 0.1 || ev[1].Curve != CurveExponential || ev[1].Value >= 1 {
		t.Fatalf("old envelope not held at the retrigger: %+v", ev[1])
	}
	if ev[2].Time != 0.1 || ev[2].Curve != CurveSet || !approx(ev[2].Value, 64.0/127, 1e-12) {
		t.Fatalf("retrigger start = %+v", ev[2])
	}
	if ev[3].Time != 0.6 {
		t.Fatalf("old envelope survived: %+v", ev)
	}
	if got := m.ValueAt("gain", 0.1); !approx(got, 64.0/127, 1e-12) {
		t.Fatalf("gain at retrigger = %v", got)
	}
	if got := m.ValueAt("osc.frequency", 0.05); !approx(got, MIDIToFreq(60), 1e-9) {
		t.Fatalf("first note pitch = %v", got)
	}
	if got := m.ValueAt("osc.frequency", 0.2); !approx(got, MIDIToFreq(72), 1e-9) {
		t.Fatalf("second note pitch = %v", got)
	}
}

func TestVelocityZeroIsSilent(t *testing.T) {
	m := NewMachine(Sine)
	m.Note(Note{Number: 60, Velocity: 0, Duration: 100, Time: 0})

	ev := m.Timeline("gain")
	if len(ev) != 1 || ev[0].Value != 0 {
		t.Fatalf("gain timeline = %+v, want a single set to 0", ev)
	}
}

func TestNoteClampsInput(t *testing.T) {
	m := NewMachine(Sine)
	m.Note(Note{Number: 200, Velocity: 500, Duration: -5, Time: 0})

	if got := m.ValueAt("gain", 0); got != 1 {
		t.Fatalf("gain = %v, want 1", got)
	}
	if got := m.ValueAt("osc.frequency", 0); !approx(got, MIDIToFreq(127), 1e-9) {
		t.Fatalf("frequency = %v", got)
	}
	ev := m.Timeline("gain")
	if end := ev[len(ev)-1].Time; !approx(end, EnvelopeDuration(1), 1e-12) {
		t.Fatalf("envelope ends at %v", end)
	}
}

func TestNoiseCutoffFollowsPitch(t *testing.T) {
	m := NewMachine(Noise)
	m.Note(Note{Number: 69, Velocity: 100, Duration: 100, Time: 0})
	if got := m.ValueAt("filter.frequency", 0); got != 440*NoiseCutoffRatio {
		t.Fatalf("cutoff = %v", got)
	}
	want := 440 * NoiseCutoffRatio * NoiseSweepRatio
	if got := m.ValueAt("filter.frequency", FilterSweep); !approx(got, want, 1e-6) {
		t.Fatalf("cutoff after sweep = %v, want %v", got, want)
	}
}

func TestEngineSlots(t *testing.T) {
	e := NewEngine(DefaultMachineTypes())
	if got := e.Types()[4]; got != Kick {
		t.Fatalf("slot 4 = %q, want kick", got)
	}
	if err := e.Note(16, Note{}); err == nil {
		t.Fatal("slot 16 accepted")
	}
	if err := e.Note(5, Note{Number: 38, Velocity: 100, Duration: 100, Time: 0}); err != nil {
		t.Fatal(err)
	}
	e.Prune(10)
	if ev := e.Machine(5).Timeline("body.gain"); len(ev) != 1 {
		t.Fatalf("prune kept %d body events, want 1", len(ev))
	}
}
