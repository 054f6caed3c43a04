package sequencer

// NewDemoProject returns a one-pattern beat for first runs: kick on the
// quarters, snare on 2 and 4, swung hats with an accent lock, and a
// probabilistic clap.
func NewDemoProject(kit string) *Project {
	p := NewProject()
	p.Name = "demo"
	pat := NewPatternWithKit(kit)
	pat.Name = "basic"
	pat.Swing = 58
	// machines 3, 4 and 5 are noise, kick and snare in the default bank
	pat.Tracks[0].Channel = 4
	pat.Tracks[1].Channel = 5
	pat.Tracks[2].Channel = 3

	for _, s := range []int{0, 4, 8, 12} {
		pat.Tracks[0].Steps[s] = NewNoteTrig()
	}
	for _, s := range []int{4, 12} {
		pat.Tracks[1].Steps[s] = NewNoteTrig()
	}
	for s := 0; s < NumSteps; s += 2 {
		pat.Tracks[2].Steps[s] = NewNoteTrig()
	}
	pat.Tracks[2].Velocity = 70
	accent := NewLockTrig()
	accent.Velocity = IntPtr(120)
	pat.Tracks[2].Steps[7] = accent

	clap := NewNoteTrig()
	clap.Probability = FloatPtr(0.5)
	pat.Tracks[9].Steps[14] = clap

	p.Patterns[0] = pat
	return p
}
