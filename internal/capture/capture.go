// Package capture grabs the desktop so it can be annotated.
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"strconv"
	"strings"
)

// Monitor describes one output in the screen layout.
type Monitor struct {
	Index   int
	Name    string
	Rect    image.Rectangle
	Primary bool
}

var errNoMonitors = errors.New("no monitors available")

type screenBackend interface {
	Monitors() ([]Monitor, error)
	Root() (*image.RGBA, error)
}

var backend screenBackend = platformBackend{}

// Screen captures the whole desktop. A non-empty display selector crops
// the result to that monitor.
func Screen(display string) (*image.RGBA, error) {
	img, err := backend.Root()
	if err != nil {
		return nil, fmt.Errorf("capture screen: %w", err)
	}
	if display == "" {
		return img, nil
	}
	monitors, err := backend.Monitors()
	if err != nil {
		return nil, fmt.Errorf("capture display %q: %w", display, err)
	}
	mon, err := FindMonitor(monitors, display)
	if err != nil {
		return nil, err
	}
	return cropToRect(img, mon.Rect)
}

// Monitors lists the outputs of the current screen.
func Monitors() ([]Monitor, error) {
	return backend.Monitors()
}

// FindMonitor resolves a selector: "primary", an index (optionally
// prefixed with #) or part of the output name.
func FindMonitor(monitors []Monitor, selector string) (Monitor, error) {
	if len(monitors) == 0 {
		return Monitor{}, errNoMonitors
	}
	sel := strings.ToLower(strings.TrimSpace(selector))
	switch sel {
	case "":
		return monitors[0], nil
	case "primary":
		for _, mon := range monitors {
			if mon.Primary {
				return mon, nil
			}
		}
		return monitors[0], nil
	}
	if idx, err := strconv.Atoi(strings.TrimPrefix(sel, "#")); err == nil {
		if idx < 0 || idx >= len(monitors) {
			return Monitor{}, fmt.Errorf("monitor index %d out of range", idx)
		}
		return monitors[idx], nil
	}
	for _, mon := range monitors {
		if strings.Contains(strings.ToLower(mon.Name), sel) {
			return mon, nil
		}
	}
	return Monitor{}, fmt.Errorf("monitor %q not found", selector)
}

func cropToRect(src *image.RGBA, rect image.Rectangle) (*image.RGBA, error) {
	rect = rect.Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("requested region outside captured image")
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)
	return dst, nil
}
