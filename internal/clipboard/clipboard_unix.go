//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && cgo

package clipboard

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"sync"

	"golang.design/x/clipboard"
)

var errWriteFailed = errors.New("clipboard: write rejected")

var (
	initOnce sync.Once
	initErr  error
)

func ensureInit() error {
	initOnce.Do(func() {
		if !hasDisplay() {
			initErr = errNoDisplay
			return
		}
		initErr = clipboard.Init()
	})
	return initErr
}

// put hands data to the system clipboard. A nil change channel means the
// selection could not be acquired.
func put(format clipboard.Format, data []byte) error {
	if err := ensureInit(); err != nil {
		return err
	}
	if clipboard.Write(format, data) == nil {
		return errWriteFailed
	}
	return nil
}

// WriteImage publishes img as PNG.
func WriteImage(img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	return put(clipboard.FmtImage, buf.Bytes())
}

// WriteText publishes UTF-8 text.
func WriteText(text string) error {
	return put(clipboard.FmtText, []byte(text))
}
