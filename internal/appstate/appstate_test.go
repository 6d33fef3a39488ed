package appstate

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/osdasl/internal/annotation"
	"github.com/example/osdasl/internal/broadcast"
	"github.com/example/osdasl/internal/geom"
	"github.com/example/osdasl/internal/manager"
	"github.com/example/osdasl/internal/viewer"
)

func newTestApp(t *testing.T, opts ...Option) *AppState {
	t.Helper()
	clock := time.Unix(1700000000, 0)
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	s := viewer.NewSurface(
		viewer.WithViewportSize(100, 100),
		viewer.WithImageSize(img.Bounds().Size()),
		viewer.WithClock(func() time.Time { return clock }),
	)
	m := manager.New(s, broadcast.NewHub())
	t.Cleanup(m.Destroy)
	a := New(img, s, m, opts...)
	a.now = func() time.Time { return clock }
	return a
}

func TestShortcutOf(t *testing.T) {
	tests := []struct {
		in   key.Event
		want KeyShortcut
	}{
		{key.Event{Rune: 'C', Code: key.CodeC, Modifiers: key.ModControl | key.ModShift}, KeyShortcut{Rune: 'c', Modifiers: key.ModControl | key.ModShift}},
		{key.Event{Rune: 'f', Code: key.CodeF, Modifiers: key.ModAlt}, KeyShortcut{Rune: 'f'}},
		{key.Event{Rune: -1, Code: key.CodeEscape}, KeyShortcut{Code: key.CodeEscape}},
	}
	for _, tt := range tests {
		if got := shortcutOf(tt.in); got != tt.want {
			t.Errorf("shortcutOf(%v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestKeymapDispatch(t *testing.T) {
	km := newKeymap()
	var calls []string
	km.register("one", func() { calls = append(calls, "one") }, KeyShortcut{Rune: 'x', Modifiers: key.ModControl})
	km.register("two", func() { calls = append(calls, "two") }, KeyShortcut{Code: key.CodeHome})

	if !km.dispatch(key.Event{Rune: 'X', Modifiers: key.ModControl, Direction: key.DirPress}) {
		t.Fatalf("ctrl+x not dispatched")
	}
	if km.dispatch(key.Event{Rune: 'x', Modifiers: key.ModControl, Direction: key.DirRelease}) {
		t.Fatalf("release dispatched")
	}
	if km.dispatch(key.Event{Rune: 'x', Direction: key.DirPress}) {
		t.Fatalf("plain x dispatched")
	}
	if !km.dispatch(key.Event{Rune: -1, Code: key.CodeHome, Direction: key.DirPress}) {
		t.Fatalf("home not dispatched")
	}
	if strings.Join(calls, ",") != "one,two" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestStatusText(t *testing.T) {
	tests := []struct {
		count    int
		selected string
		zoom     float64
		width    int
		message  string
		want     string
	}{
		{0, "", 100, 100, "", "0 annotations | 100%"},
		{1, "a", 150, 100, "", "1 annotation | selected a | 150%"},
		{2, "", 50, 0, "saved x.png", "2 annotations | saved x.png"},
	}
	for _, tt := range tests {
		if got := statusText(tt.count, tt.selected, tt.zoom, tt.width, tt.message); got != tt.want {
			t.Errorf("statusText = %q, want %q", got, tt.want)
		}
	}
}

func TestStatusFollowsSession(t *testing.T) {
	a := newTestApp(t)
	a.manager.Activate()
	a.surface.HandleMouse(mouse.Event{X: 50, Y: 50, Button: mouse.ButtonLeft, Direction: mouse.DirPress})
	a.surface.HandleMouse(mouse.Event{X: 50, Y: 50, Button: mouse.ButtonLeft, Direction: mouse.DirRelease})
	id, ok := a.manager.Selected()
	if !ok {
		t.Fatalf("click did not select a new annotation")
	}
	if got, want := a.Status(), "1 annotation | selected "+id+" | 100%"; got != want {
		t.Fatalf("Status = %q, want %q", got, want)
	}
	a.setMessage("hello")
	if !strings.HasSuffix(a.Status(), "| hello") {
		t.Fatalf("message missing from %q", a.Status())
	}
	a.now = func() time.Time { return a.messageUntil.Add(time.Millisecond) }
	if strings.Contains(a.Status(), "hello") {
		t.Fatalf("message did not expire: %q", a.Status())
	}
}

func TestZoomShortcuts(t *testing.T) {
	a := newTestApp(t)
	km := a.keymap(func() {})
	km.dispatch(key.Event{Rune: '=', Direction: key.DirPress})
	if got := a.surface.Zoom(); got != 125 {
		t.Fatalf("zoom after zoom in = %v, want 125", got)
	}
	km.dispatch(key.Event{Rune: 'f', Direction: key.DirPress})
	if got := a.surface.Zoom(); got != 100 {
		t.Fatalf("zoom after fit = %v, want 100", got)
	}
	quit := false
	km = a.keymap(func() { quit = true })
	km.dispatch(key.Event{Rune: 'q', Modifiers: key.ModControl, Direction: key.DirPress})
	if !quit {
		t.Fatalf("ctrl+q did not quit")
	}
}

func TestResizeReservesStatusBar(t *testing.T) {
	a := newTestApp(t)
	a.resize(300, 220)
	if got := a.surface.Size(); got != image.Pt(300, 200) {
		t.Fatalf("surface size = %v", got)
	}
	a.resize(10, 5)
	if got := a.surface.Size(); got.Y != 1 {
		t.Fatalf("surface height = %d, want 1", got.Y)
	}
}

func TestSave(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.png")
	a := newTestApp(t, WithOutput(out))
	a.manager.Restore([]*annotation.Init{
		{ID: "a", Location: geom.NewRect(0.1, 0.1, 0.5, 0.5).Array()},
	})
	km := a.keymap(func() {})
	km.dispatch(key.Event{Rune: 's', Modifiers: key.ModControl, Direction: key.DirPress})
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, _, _, alpha := img.At(10, 30).RGBA(); alpha == 0 {
		t.Fatalf("annotation border missing from export")
	}
	if !strings.HasPrefix(a.currentMessage(), "saved ") {
		t.Fatalf("message = %q", a.currentMessage())
	}
}

func TestScene(t *testing.T) {
	a := newTestApp(t)
	a.manager.Restore([]*annotation.Init{
		{ID: "a", Location: geom.NewRect(0.1, 0.1, 0.2, 0.2).Array()},
	})
	sc := a.scene()
	if sc.Image != a.Image || len(sc.Overlays) != 1 || sc.Overlays[0].ID != "a" {
		t.Fatalf("unexpected scene %+v", sc)
	}
	if sc.Bounds != geom.NewRect(0, 0, 100, 100) {
		t.Fatalf("image bounds = %+v", sc.Bounds)
	}
}
