//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package capture

import (
	"errors"
	"image"
)

var errUnsupported = errors.New("screen capture requires X11")

type platformBackend struct{}

func (platformBackend) Root() (*image.RGBA, error) { return nil, errUnsupported }

func (platformBackend) Monitors() ([]Monitor, error) { return nil, errUnsupported }
