package theme

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

type RGB [3]uint8

// Palette is an ordered color ramp. The UI samples it by role with Lookup.
type Palette struct {
	Name   string
	Colors []RGB
}

// plasma runs dark purple through magenta to yellow.
var plasma = []RGB{
	{13, 8, 135}, {75, 3, 161}, {125, 3, 168}, {168, 34, 150},
	{203, 70, 121}, {229, 107, 93}, {248, 148, 65}, {253, 195, 40},
	{240, 249, 33},
}

// Plasma returns the built-in palette.
func Plasma() *Palette {
	return &Palette{Name: "plasma", Colors: slices.Clone(plasma)}
}

// LoadOrDefault loads the GPL palette at path, falling back to Plasma when
// path is empty or the file is unusable.
func LoadOrDefault(path string) *Palette {
	if path == "" {
		return Plasma()
	}
	p, err := LoadGPL(path)
	if err != nil {
		return Plasma()
	}
	return p
}

func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := ParseGPL(f)
	if err != nil {
		return nil, fmt.Errorf("palette %s: %w", path, err)
	}
	return p, nil
}

// ParseGPL reads a GIMP palette. Each color row is "R G B [label]"; the
// header, Columns line and comments are skipped.
func ParseGPL(r io.Reader) (*Palette, error) {
	p := &Palette{}
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "", line[0] == '#', strings.HasPrefix(line, "GIMP"), strings.HasPrefix(line, "Columns:"):
			continue
		case strings.HasPrefix(line, "Name:"):
			p.Name = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
			continue
		}
		c, err := parseColor(strings.Fields(line))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		p.Colors = append(p.Colors, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(p.Colors) == 0 {
		return nil, errors.New("no colors")
	}
	return p, nil
}

func parseColor(fields []string) (RGB, error) {
	var c RGB
	if len(fields) < 3 {
		return c, fmt.Errorf("want R G B, got %q", strings.Join(fields, " "))
	}
	for k := range c {
		v, err := strconv.ParseUint(fields[k], 10, 8)
		if err != nil {
			return c, fmt.Errorf("channel %q: want 0..255", fields[k])
		}
		c[k] = uint8(v)
	}
	return c, nil
}

// Lookup samples the ramp at norm, clamped to 0..1, blending the two
// nearest colors.
func (p *Palette) Lookup(norm float64) RGB {
	last := len(p.Colors) - 1
	if last == 0 || norm <= 0 {
		return p.Colors[0]
	}
	if norm >= 1 {
		return p.Colors[last]
	}

	pos := norm * float64(last)
	i := int(pos)
	t := pos - float64(i)
	a, b := p.Colors[i], p.Colors[i+1]
	var c RGB
	for k := range c {
		c[k] = uint8(float64(a[k]) + (float64(b[k])-float64(a[k]))*t)
	}
	return c
}
