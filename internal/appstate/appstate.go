// Package appstate runs the desktop window that shows an image with its
// annotations and feeds pointer and keyboard input to the viewer surface.
package appstate

import (
	"context"
	"fmt"
	"image"
	"log"
	"strings"
	"time"
	"unicode"

	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"

	"github.com/example/osdasl/internal/render"
	"github.com/example/osdasl/internal/theme"
)

// frameDropThreshold caps how many in-flight paints a new paint may cancel
// in a row, so a busy pointer cannot starve the window of frames.
const frameDropThreshold = 10

const messageDuration = 2 * time.Second

// zoomStep is the factor applied by the zoom shortcuts.
const zoomStep = 1.25

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// shortcutOf normalizes a key event for lookup. Printable keys match by
// lowercase rune, the rest by code. Modifiers other than control and
// shift are ignored.
func shortcutOf(e key.Event) KeyShortcut {
	mods := e.Modifiers & (key.ModControl | key.ModShift)
	if e.Rune > 0 {
		return KeyShortcut{Rune: unicode.ToLower(e.Rune), Modifiers: mods}
	}
	return KeyShortcut{Code: e.Code, Modifiers: mods}
}

// keymap binds shortcuts to named actions.
type keymap struct {
	keys    map[KeyShortcut]string
	actions map[string]func()
}

func newKeymap() *keymap {
	return &keymap{keys: map[KeyShortcut]string{}, actions: map[string]func(){}}
}

func (k *keymap) register(name string, fn func(), keys ...KeyShortcut) {
	k.actions[name] = fn
	for _, sc := range keys {
		k.keys[sc] = name
	}
}

// dispatch runs the action bound to e and reports whether one was found.
func (k *keymap) dispatch(e key.Event) bool {
	if e.Direction == key.DirRelease {
		return false
	}
	name, ok := k.keys[shortcutOf(e)]
	if !ok {
		return false
	}
	if fn := k.actions[name]; fn != nil {
		fn()
	}
	return true
}

type paintState struct {
	width, height int
	scene         render.Scene
	theme         *theme.Theme
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()

	render.Frame(b.RGBA(), st.scene, st.theme)
	if ctx.Err() != nil {
		return
	}
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

// statusText summarizes the annotation set for the status bar. zoom is
// pixels per normalized unit and imageWidth the source width in pixels.
func statusText(count int, selected string, zoom float64, imageWidth int, message string) string {
	parts := []string{plural(count, "annotation")}
	if selected != "" {
		parts = append(parts, "selected "+selected)
	}
	if imageWidth > 0 {
		parts = append(parts, fmt.Sprintf("%.0f%%", zoom/float64(imageWidth)*100))
	}
	if message != "" {
		parts = append(parts, message)
	}
	return strings.Join(parts, " | ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
