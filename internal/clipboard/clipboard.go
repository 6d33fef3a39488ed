// Package clipboard publishes the annotation set and rendered views to the
// system clipboard.
package clipboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var errNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

// WriteJSON encodes v as indented JSON and writes it as clipboard text.
func WriteJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("clipboard: encode: %w", err)
	}
	return WriteText(string(b))
}
