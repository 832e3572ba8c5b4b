package theme

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMidnightRoles(t *testing.T) {
	t.Parallel()

	th := New(Midnight())
	cases := map[int]string{
		RoleTitle: "#ff4fe6",
		RoleLine:  "#ff3b3b",
		RoleAxis:  "#00ffc8",
	}
	for role, want := range cases {
		if got := th.Hex(role); got != want {
			t.Errorf("role %d: got %s want %s", role, got, want)
		}
	}
	if th.Palette.Name != "Midnight in Motion" {
		t.Fatalf("palette name: %q", th.Palette.Name)
	}
}

func TestParseGPL(t *testing.T) {
	t.Parallel()

	src := "GIMP Palette\nName: Two\nColumns: 2\n# comment\n0 0 0 black\n255 255 255\n300 0 0 bogus\n1 2\n"
	p, err := ParseGPL(strings.NewReader(src), "two.gpl")
	if err != nil {
		t.Fatalf("ParseGPL: %v", err)
	}
	if len(p.Colors) != 2 {
		t.Fatalf("colors: %v", p.Colors)
	}
	if got := p.Lookup(0.5); got != (RGB{127, 127, 127}) {
		t.Fatalf("Lookup(0.5) = %v", got)
	}
	if p.Index(9) != (RGB{255, 255, 255}) || p.Index(-1) != (RGB{0, 0, 0}) {
		t.Fatalf("Index should clamp")
	}
}

func TestLoadGPLErrors(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.gpl")
	if err := os.WriteFile(path, []byte("GIMP Palette\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadGPL(path); err == nil {
		t.Fatalf("expected error for palette without colours")
	}
	if _, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.gpl")); err == nil {
		t.Fatalf("expected error for missing palette")
	}
	if p, err := LoadOrDefault(""); err != nil || len(p.Colors) != 11 {
		t.Fatalf("LoadOrDefault(\"\"): %v %v", p, err)
	}
}
