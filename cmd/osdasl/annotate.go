package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/example/osdasl/internal/annotation"
	"github.com/example/osdasl/internal/appstate"
	"github.com/example/osdasl/internal/broadcast"
	"github.com/example/osdasl/internal/capture"
	"github.com/example/osdasl/internal/manager"
	"github.com/example/osdasl/internal/notify"
	"github.com/example/osdasl/internal/store"
	"github.com/example/osdasl/internal/viewer"
)

var captureScreenFn = capture.Screen

var dialBridgeFn = broadcast.DialBridge

// annotateCmd represents the annotate subcommand.
type annotateCmd struct {
	*root
	fs          *flag.FlagSet
	file        string
	output      string
	annotations string
	channel     string
	display     string
	capture     bool
	dbus        bool
	clickToAdd  bool
	keyboard    bool
}

func (a *annotateCmd) FlagSet() *flag.FlagSet {
	return a.fs
}

func (a *annotateCmd) Program() string {
	return a.subcommand("annotate")
}

func parseAnnotateCmd(args []string, r *root) (*annotateCmd, error) {
	fs := flag.NewFlagSet("annotate", flag.ContinueOnError)
	a := &annotateCmd{root: r, fs: fs}
	cfg := r.config
	fs.StringVar(&a.output, "output", "annotated.png", "file written by Ctrl+S")
	fs.StringVar(&a.annotations, "annotations", cfg.Annotations, "JSON file to restore annotations from and mirror changes to")
	fs.StringVar(&a.channel, "channel", cfg.Channel, "broadcast channel events are published on")
	fs.StringVar(&a.display, "display", "", "monitor to capture: primary, an index or part of its name")
	fs.BoolVar(&a.capture, "capture", false, "annotate a capture of the screen instead of a file")
	fs.BoolVar(&a.dbus, "dbus", cfg.Broadcast.DBus, "bridge events onto the D-Bus session bus")
	fs.BoolVar(&a.clickToAdd, "click-to-add", cfg.Activate.ClickToAdd, "create an annotation on canvas click")
	fs.BoolVar(&a.keyboard, "keys", cfg.Activate.KeyboardShortcuts, "enable Delete, Backspace and Escape")
	fs.Usage = usageFunc(a)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, &UsageError{of: a}
		}
		return nil, err
	}
	switch {
	case a.capture && fs.NArg() > 0:
		return nil, &UsageError{of: a, msg: "an image file cannot be combined with -capture"}
	case !a.capture && fs.NArg() != 1:
		return nil, &UsageError{of: a, msg: "expected one image file"}
	case !a.capture:
		a.file = fs.Arg(0)
	}
	return a, nil
}

func (a *annotateCmd) loadImage() (*image.RGBA, error) {
	if a.capture {
		img, err := captureScreenFn(a.display)
		if err != nil {
			return nil, fmt.Errorf("failed to capture screen: %w", err)
		}
		return img, nil
	}
	f, err := os.Open(a.file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", a.file, err)
	}
	img := image.NewRGBA(image.Rect(0, 0, dec.Bounds().Dx(), dec.Bounds().Dy()))
	draw.Draw(img, img.Bounds(), dec, dec.Bounds().Min, draw.Src)
	return img, nil
}

// session is an annotation manager with its subscribers attached.
type session struct {
	surface *viewer.Surface
	manager *manager.Manager
	closers []func()
}

func (s *session) Close() {
	s.manager.Destroy()
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// subscribe runs fn over every message on a new receiving channel. The
// closer lets fn finish the messages already queued for it.
func (s *session) subscribe(hub *broadcast.Hub, name string, fn func(<-chan []byte)) {
	ch := hub.Open(name)
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(ch.Messages())
	}()
	s.closers = append(s.closers, func() {
		ch.Drain()
		<-done
	})
}

// newSession wires the manager for an image of the given size. Subscribers
// join the hub before any annotation can be created.
func (a *annotateCmd) newSession(size image.Point, hub *broadcast.Hub) (*session, error) {
	s := &session{
		surface: viewer.NewSurface(viewer.WithImageSize(size), viewer.WithViewportSize(size.X, size.Y)),
	}
	var inits []*annotation.Init
	if a.annotations != "" {
		var err error
		if inits, err = store.Load(a.annotations); err != nil {
			return nil, err
		}
		s.subscribe(hub, a.channel, store.NewMirror(a.annotations).Run)
	}
	if n := notify.FromConfig(a.config.Notify, nil); n.Any() {
		s.subscribe(hub, a.channel, n.Run)
	}
	if a.dbus {
		b, err := dialBridgeFn(hub, a.channel)
		if err != nil {
			log.Printf("dbus: %v", err)
		} else {
			s.closers = append(s.closers, func() {
				if err := b.Close(); err != nil {
					log.Printf("dbus: %v", err)
				}
			})
		}
	}

	s.manager = manager.New(s.surface, hub, manager.WithChannelName(a.channel))
	s.manager.SetAnnotationOptions(manager.AnnotationOptions{
		Selectable: manager.Bool(a.config.Annotation.Selectable),
		Removable:  manager.Bool(a.config.Annotation.Removable),
		Draggable:  manager.Bool(a.config.Annotation.Draggable),
		Resizable:  manager.Bool(a.config.Annotation.Resizable),
	})
	s.manager.Restore(inits)
	s.manager.Activate(manager.WithClickToAdd(a.clickToAdd), manager.WithKeyboardShortcut(a.keyboard))
	return s, nil
}

func (a *annotateCmd) Run() error {
	img, err := a.loadImage()
	if err != nil {
		return err
	}
	s, err := a.newSession(img.Bounds().Size(), broadcast.DefaultHub())
	if err != nil {
		return err
	}
	defer s.Close()

	title := "osdasl"
	if a.file != "" {
		title = "osdasl - " + a.file
	}
	st := appstate.New(img, s.surface, s.manager,
		appstate.WithOutput(a.output),
		appstate.WithTitle(title),
		appstate.WithTheme(a.activeTheme),
	)
	st.Run()
	return nil
}
