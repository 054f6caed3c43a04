package theme

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const gpl = `GIMP Palette
Name: mono
Columns: 2
# comment
  0   0   0	black
255 255 255	white
`

func TestLoadGPL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.gpl")
	if err := os.WriteFile(path, []byte(gpl), 0644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadGPL(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "mono" || len(p.Colors) != 2 {
		t.Fatalf("palette = %+v", p)
	}
	if got := p.Lookup(0.5); got != (RGB{127, 127, 127}) {
		t.Fatalf("Lookup(0.5) = %v", got)
	}
	if got := New(p).Color(RoleSuccess); got != "#ffffff" {
		t.Fatalf("success color = %q", got)
	}
}

func TestLoadOrDefault(t *testing.T) {
	if p := LoadOrDefault(""); p.Name != "plasma" {
		t.Fatalf("empty path gave %q", p.Name)
	}
	if p := LoadOrDefault(filepath.Join(t.TempDir(), "missing.gpl")); p.Name != "plasma" {
		t.Fatalf("missing file gave %q", p.Name)
	}
	empty := filepath.Join(t.TempDir(), "empty.gpl")
	os.WriteFile(empty, []byte("GIMP Palette\n"), 0644)
	if _, err := LoadGPL(empty); err == nil {
		t.Fatal("palette without colors loaded")
	}
}

func TestParseGPLRejectsBadRows(t *testing.T) {
	for _, c := range []struct {
		name, text, line string
	}{
		{"short row", "GIMP Palette\n10 20\n", "line 2"},
		{"out of range", "GIMP Palette\n# ramp\n0 0 0\n0 300 0 hot\n", "line 4"},
		{"not a number", "GIMP Palette\nred green blue\n", "line 2"},
	} {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseGPL(strings.NewReader(c.text))
			if err == nil || !strings.Contains(err.Error(), c.line) {
				t.Fatalf("err = %v, want one naming %s", err, c.line)
			}
		})
	}
}

func TestLookupEdges(t *testing.T) {
	single := &Palette{Colors: []RGB{{1, 2, 3}}}
	for _, norm := range []float64{-1, 0, 0.5, 1, 2} {
		if got := single.Lookup(norm); got != (RGB{1, 2, 3}) {
			t.Fatalf("single color Lookup(%v) = %v", norm, got)
		}
	}

	p := Plasma()
	if got := p.Lookup(-3); got != plasma[0] {
		t.Fatalf("Lookup(-3) = %v", got)
	}
	if got := p.Lookup(7); got != plasma[len(plasma)-1] {
		t.Fatalf("Lookup(7) = %v", got)
	}
	if got := p.Lookup(0.5); got != plasma[4] {
		t.Fatalf("Lookup(0.5) = %v, want the middle stop %v", got, plasma[4])
	}
	down := &Palette{Colors: []RGB{{255, 255, 255}, {0, 0, 0}}}
	if got := down.Lookup(0.5); got != (RGB{127, 127, 127}) {
		t.Fatalf("descending Lookup(0.5) = %v", got)
	}
}
