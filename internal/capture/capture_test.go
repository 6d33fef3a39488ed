package capture

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

type fakeBackend struct {
	root        *image.RGBA
	monitors    []Monitor
	rootErr     error
	monitorsErr error
}

func (f fakeBackend) Root() (*image.RGBA, error) {
	if f.rootErr != nil {
		return nil, f.rootErr
	}
	return f.root, nil
}

func (f fakeBackend) Monitors() ([]Monitor, error) {
	if f.monitorsErr != nil {
		return nil, f.monitorsErr
	}
	return f.monitors, nil
}

func useBackend(t *testing.T, b screenBackend) {
	t.Helper()
	prev := backend
	backend = b
	t.Cleanup(func() { backend = prev })
}

func twoMonitors() []Monitor {
	return []Monitor{
		{Index: 0, Name: "HDMI-1", Rect: image.Rect(0, 0, 4, 2)},
		{Index: 1, Name: "eDP-1", Rect: image.Rect(4, 0, 6, 2), Primary: true},
	}
}

func TestScreenCropsToMonitor(t *testing.T) {
	root := image.NewRGBA(image.Rect(0, 0, 6, 2))
	root.Set(5, 1, color.RGBA{1, 2, 3, 255})
	useBackend(t, fakeBackend{root: root, monitors: twoMonitors()})

	img, err := Screen("primary")
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 2, 2) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if got := img.RGBAAt(1, 1); got != (color.RGBA{1, 2, 3, 255}) {
		t.Fatalf("pixel = %v", got)
	}

	full, err := Screen("")
	if err != nil || full != root {
		t.Fatalf("Screen(\"\") did not return the root image: %v", err)
	}
}

func TestScreenWrapsBackendErrors(t *testing.T) {
	rootErr := errors.New("no X")
	useBackend(t, fakeBackend{rootErr: rootErr})
	if _, err := Screen(""); !errors.Is(err, rootErr) {
		t.Fatalf("expected wrapped root error, got %v", err)
	}

	monErr := errors.New("no randr")
	useBackend(t, fakeBackend{root: image.NewRGBA(image.Rect(0, 0, 1, 1)), monitorsErr: monErr})
	if _, err := Screen("0"); !errors.Is(err, monErr) {
		t.Fatalf("expected wrapped monitor error, got %v", err)
	}
}

func TestFindMonitor(t *testing.T) {
	mons := twoMonitors()
	cases := map[string]string{
		"":        "HDMI-1",
		"primary": "eDP-1",
		"#1":      "eDP-1",
		"0":       "HDMI-1",
		"edp":     "eDP-1",
	}
	for sel, want := range cases {
		got, err := FindMonitor(mons, sel)
		if err != nil {
			t.Fatalf("FindMonitor(%q): %v", sel, err)
		}
		if got.Name != want {
			t.Errorf("FindMonitor(%q) = %s, want %s", sel, got.Name, want)
		}
	}
	for _, sel := range []string{"5", "DP-9"} {
		if _, err := FindMonitor(mons, sel); err == nil {
			t.Errorf("FindMonitor(%q) succeeded", sel)
		}
	}
	if _, err := FindMonitor(nil, ""); !errors.Is(err, errNoMonitors) {
		t.Errorf("expected errNoMonitors, got %v", err)
	}
}

func TestZPixmapToRGBA(t *testing.T) {
	// Two BGRX pixels per row with four bytes of row padding.
	data := []byte{
		10, 20, 30, 0, 40, 50, 60, 0, 0, 0, 0, 0,
		70, 80, 90, 0, 1, 2, 3, 0, 0, 0, 0, 0,
	}
	img, err := zPixmapToRGBA(data, 2, 2, 32)
	if err != nil {
		t.Fatalf("zPixmapToRGBA: %v", err)
	}
	if got := img.RGBAAt(1, 0); got != (color.RGBA{60, 50, 40, 255}) {
		t.Errorf("pixel (1,0) = %v", got)
	}
	if got := img.RGBAAt(0, 1); got != (color.RGBA{90, 80, 70, 255}) {
		t.Errorf("pixel (0,1) = %v", got)
	}
	if _, err := zPixmapToRGBA(data, 2, 2, 16); err == nil {
		t.Errorf("16 bpp accepted")
	}
	if _, err := zPixmapToRGBA(data[:5], 2, 2, 32); err == nil {
		t.Errorf("short data accepted")
	}
}
