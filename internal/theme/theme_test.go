package theme

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	in := `
// overlay palette
Name: test
Scrim: #00000080
selectionborder: #f00
Unknown: #123456
`
	th, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if th.Name != "test" {
		t.Fatalf("name = %q", th.Name)
	}
	if th.Scrim != (color.RGBA{0, 0, 0, 128}) {
		t.Fatalf("scrim = %v", th.Scrim)
	}
	if th.SelectionBorder != (color.RGBA{255, 0, 0, 255}) {
		t.Fatalf("border = %v", th.SelectionBorder)
	}
	if th.Foreground != Default().Foreground {
		t.Fatalf("missing keys should keep defaults")
	}
	if _, err := Parse(strings.NewReader("Scrim: black")); err == nil {
		t.Fatalf("expected error for invalid colour")
	}
}

func TestEmbeddedThemesLoad(t *testing.T) {
	l := &Loader{}
	for _, name := range []string{"light", "dark", "high-contrast"} {
		th, err := l.Load(name)
		if err != nil {
			t.Fatalf("Load(%s): %v", name, err)
		}
		if th.Name != name {
			t.Fatalf("Load(%s).Name = %q", name, th.Name)
		}
	}
	if _, err := l.Load("nope"); err == nil {
		t.Fatalf("expected error for unknown theme")
	}
}

func TestLoaderOrder(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "mine.theme"), []byte("Name: mine\nForeground: #010203\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	custom := &Theme{Name: "inline"}
	l := &Loader{ConfigDir: dir, Custom: map[string]*Theme{"dark": custom}}

	if th, _ := l.Load("dark"); th != custom {
		t.Fatalf("rc themes should win over embedded ones")
	}
	th, err := l.Load("mine")
	if err != nil || th.Foreground != (color.RGBA{1, 2, 3, 255}) {
		t.Fatalf("config dir theme = %+v %v", th, err)
	}
	th, err = l.Load(filepath.Join(dir, "mine.theme"))
	if err != nil || th.Name != "mine" {
		t.Fatalf("path theme = %+v %v", th, err)
	}
	names := strings.Join(l.Names(), ",")
	if names != "dark,high-contrast,light,mine" {
		t.Fatalf("names = %s", names)
	}
}

func TestFormatColorRoundTrip(t *testing.T) {
	for _, c := range Fields(Default()) {
		if c.Color.A != 255 {
			continue
		}
		got, err := ParseColor(FormatColor(c.Color))
		if err != nil || got != c.Color {
			t.Fatalf("%s: %v -> %s -> %v", c.Key, c.Color, FormatColor(c.Color), got)
		}
	}
}
