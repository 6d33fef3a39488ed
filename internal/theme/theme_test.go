package theme

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseColor(t *testing.T) {
	cases := map[string]color.RGBA{
		"#112233":   {0x11, 0x22, 0x33, 0xFF},
		"#11223344": {0x11, 0x22, 0x33, 0x44},
	}
	for in, want := range cases {
		got, err := ParseColor(in)
		if err != nil {
			t.Fatalf("ParseColor(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseColor(%q) = %v, want %v", in, got, want)
		}
		if FormatColor(got) != in {
			t.Errorf("FormatColor(%v) = %q, want %q", got, FormatColor(got), in)
		}
	}
	for _, bad := range []string{"112233", "#1122", "#GG2233"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("ParseColor(%q) succeeded", bad)
		}
	}
}

func TestParseKeepsDefaultsForMissingKeys(t *testing.T) {
	th, err := Parse(strings.NewReader("Name: mine\noverlayborder: #010203\nUnknown: #FFFFFF\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if th.Name != "mine" {
		t.Errorf("Name = %q", th.Name)
	}
	if th.OverlayBorder != (color.RGBA{1, 2, 3, 255}) {
		t.Errorf("OverlayBorder = %v", th.OverlayBorder)
	}
	if th.HandleFill != Default().HandleFill {
		t.Errorf("HandleFill lost its default: %v", th.HandleFill)
	}
	if _, err := Parse(strings.NewReader("OverlayFill: red\n")); err == nil {
		t.Errorf("expected an error for a bad color")
	}
}

func TestFormatRoundTrip(t *testing.T) {
	in := Default()
	in.OverlayFill = color.RGBA{9, 8, 7, 6}
	var sb strings.Builder
	if err := Format(&sb, in); err != nil {
		t.Fatalf("Format: %v", err)
	}
	out, err := Parse(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if *out != *in {
		t.Fatalf("round trip changed theme:\n%+v\n%+v", in, out)
	}
}

func TestLoaderOrder(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "custom.theme"), []byte("Name: FromDir\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := &Loader{ConfigDir: dir, Extra: map[string]*Theme{"inline": {Name: "Inline"}}}

	for name, want := range map[string]string{
		"":       "Default",
		"inline": "Inline",
		"dark":   "Dark",
		"Light":  "Light",
		"custom": "FromDir",
	} {
		th, err := l.Load(name)
		if err != nil {
			t.Fatalf("Load(%q): %v", name, err)
		}
		if th.Name != want {
			t.Errorf("Load(%q).Name = %q, want %q", name, th.Name, want)
		}
	}
	if _, err := l.Load("missing"); err == nil {
		t.Errorf("expected missing theme error")
	}
}

func TestEmbeddedNames(t *testing.T) {
	got := strings.Join(EmbeddedNames(), ",")
	if got != "contrast,dark,light" {
		t.Fatalf("EmbeddedNames = %s", got)
	}
}
