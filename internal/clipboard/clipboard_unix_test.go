//go:build linux || freebsd || openbsd || netbsd || dragonfly

package clipboard

import (
	"errors"
	"sync"
	"testing"
)

func TestWriteJSONWithoutDisplay(t *testing.T) {
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")

	initOnce = sync.Once{}
	initErr = nil

	err := WriteJSON([]map[string]any{{"id": "a", "location": []float64{0, 0, 1, 1}}})
	if !errors.Is(err, errNoDisplay) {
		t.Fatalf("expected errNoDisplay, got %v", err)
	}
}

func TestWriteJSONEncodeError(t *testing.T) {
	if err := WriteJSON(make(chan int)); err == nil {
		t.Fatalf("expected an encode error")
	}
}
