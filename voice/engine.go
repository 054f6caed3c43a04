package voice

import "fmt"

// NumMachines is the size of the machine bank, one per channel.
const NumMachines = 16

// DefaultMachineTypes is the bank layout used when none is configured.
func DefaultMachineTypes() [NumMachines]MachineType {
	types := [NumMachines]MachineType{Sine, Square, Sawtooth, Noise, Kick, Snare}
	for i := 6; i < NumMachines; i++ {
		types[i] = Sine
	}
	return types
}

// Engine is a fixed bank of machines addressed by slot.
type Engine struct {
	machines [NumMachines]*Machine
}

func NewEngine(types [NumMachines]MachineType) *Engine {
	e := &Engine{}
	for i, t := range types {
		e.machines[i] = NewMachine(t)
	}
	return e
}

// Machine returns the machine in slot, or nil.
func (e *Engine) Machine(slot int) *Machine {
	if slot < 0 || slot >= NumMachines {
		return nil
	}
	return e.machines[slot]
}

// Note plays n on the machine in slot.
func (e *Engine) Note(slot int, n Note) error {
	m := e.Machine(slot)
	if m == nil {
		return fmt.Errorf("no machine in slot %d", slot)
	}
	m.Note(n)
	return nil
}

// Types returns the type of every slot.
func (e *Engine) Types() [NumMachines]MachineType {
	var types [NumMachines]MachineType
	for i, m := range e.machines {
		types[i] = m.Type
	}
	return types
}

// Prune discards automation that ended before t on every machine. The
// renderer does this as it goes; without one, call it periodically.
func (e *Engine) Prune(t float64) {
	for _, m := range e.machines {
		m.mu.Lock()
		for _, p := range m.params {
			p.Prune(t)
		}
		m.mu.Unlock()
	}
}
