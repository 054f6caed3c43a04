package sequencer

import (
	"encoding/json"
	"fmt"
	"math/bits"

	"gopkg.in/yaml.v3"
)

// Set16 is a set of track indices 0..15, used for mutes. It is stored as
// a bitmask in memory and as a sorted array in documents.
type Set16 uint16

func (s Set16) Has(i int) bool {
	return i >= 0 && i < NumTracks && s&(1<<uint(i)) != 0
}

func (s *Set16) Add(i int) {
	if i >= 0 && i < NumTracks {
		*s |= 1 << uint(i)
	}
}

func (s *Set16) Remove(i int) {
	if i >= 0 && i < NumTracks {
		*s &^= 1 << uint(i)
	}
}

func (s *Set16) Toggle(i int) {
	if s.Has(i) {
		s.Remove(i)
	} else {
		s.Add(i)
	}
}

func (s Set16) Len() int {
	return bits.OnesCount16(uint16(s))
}

// Slice returns the members in ascending order.
func (s Set16) Slice() []int {
	out := make([]int, 0, s.Len())
	for i := 0; i < NumTracks; i++ {
		if s.Has(i) {
			out = append(out, i)
		}
	}
	return out
}

// NewSet16 builds a set from indices, rejecting out-of-range members.
func NewSet16(members ...int) (Set16, error) {
	var s Set16
	for _, m := range members {
		if m < 0 || m >= NumTracks {
			return 0, fmt.Errorf("track index %d out of range 0..%d", m, NumTracks-1)
		}
		s.Add(m)
	}
	return s, nil
}

func (s Set16) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

func (s *Set16) UnmarshalJSON(data []byte) error {
	var members []int
	if err := json.Unmarshal(data, &members); err != nil {
		return fmt.Errorf("mutes: %w", err)
	}
	set, err := NewSet16(members...)
	if err != nil {
		return fmt.Errorf("mutes: %w", err)
	}
	*s = set
	return nil
}

func (s Set16) MarshalYAML() (any, error) {
	return s.Slice(), nil
}

func (s *Set16) UnmarshalYAML(value *yaml.Node) error {
	var members []int
	if err := value.Decode(&members); err != nil {
		return fmt.Errorf("mutes: %w", err)
	}
	set, err := NewSet16(members...)
	if err != nil {
		return fmt.Errorf("mutes: %w", err)
	}
	*s = set
	return nil
}
