package appstate

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"sync"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/osdasl/internal/clipboard"
	"github.com/example/osdasl/internal/geom"
	"github.com/example/osdasl/internal/manager"
	"github.com/example/osdasl/internal/render"
	"github.com/example/osdasl/internal/theme"
	"github.com/example/osdasl/internal/viewer"
)

// AppState holds the window configuration and the annotation session it
// displays.
type AppState struct {
	Image  *image.RGBA
	Output string
	Title  string
	Theme  *theme.Theme

	surface *viewer.Surface
	manager *manager.Manager

	message      string
	messageUntil time.Time
	now          func() time.Time

	onClose   func()
	closeOnce sync.Once
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithOutput sets the file written by the save shortcut.
func WithOutput(out string) Option { return func(a *AppState) { a.Output = out } }

// WithTitle sets the window title.
func WithTitle(title string) Option { return func(a *AppState) { a.Title = title } }

// WithTheme sets the colors used to paint the window.
func WithTheme(t *theme.Theme) Option { return func(a *AppState) { a.Theme = t } }

// WithOnClose registers a callback run once when the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// New returns an AppState showing img through surface. The surface must
// have been created with the image size and mgr must already be attached
// to it.
func New(img *image.RGBA, surface *viewer.Surface, mgr *manager.Manager, opts ...Option) *AppState {
	a := &AppState{
		Image:   img,
		Output:  "annotated.png",
		Title:   "osdasl",
		Theme:   theme.Default(),
		surface: surface,
		manager: mgr,
		now:     time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		if a.onClose != nil {
			a.onClose()
		}
	})
}

func (a *AppState) setMessage(msg string) {
	log.Print(msg)
	a.message = msg
	a.messageUntil = a.now().Add(messageDuration)
}

func (a *AppState) currentMessage() string {
	if a.message != "" && a.now().Before(a.messageUntil) {
		return a.message
	}
	return ""
}

// Export renders the annotation set onto a copy of the image.
func (a *AppState) Export() *image.RGBA {
	return render.Export(a.Image, a.manager.Annotations(), a.Theme)
}

// Save writes the exported image to Output as PNG.
func (a *AppState) Save() error {
	out, err := os.Create(a.Output)
	if err != nil {
		return err
	}
	if err := png.Encode(out, a.Export()); err != nil {
		if cerr := out.Close(); cerr != nil {
			log.Printf("save: closing file: %v", cerr)
		}
		return err
	}
	return out.Close()
}

// Status returns the status bar text.
func (a *AppState) Status() string {
	id, _ := a.manager.Selected()
	return statusText(a.manager.Len(), id, a.surface.Zoom(), a.Image.Bounds().Dx(), a.currentMessage())
}

// scene snapshots the surface for painting. It must run on the event loop.
func (a *AppState) scene() render.Scene {
	return render.Scene{
		Image:    a.Image,
		Bounds:   a.surface.ImageBounds(),
		Overlays: a.surface.Snapshot(),
		Status:   a.Status(),
	}
}

func (a *AppState) keymap(quit func()) *keymap {
	km := newKeymap()
	km.register("copy", func() {
		if err := clipboard.WriteJSON(a.manager.Annotations()); err != nil {
			log.Printf("copy: %v", err)
			return
		}
		a.setMessage("annotations copied to clipboard")
	}, KeyShortcut{Rune: 'c', Modifiers: key.ModControl})
	km.register("copyimage", func() {
		if err := clipboard.WriteImage(a.Export()); err != nil {
			log.Printf("copy image: %v", err)
			return
		}
		a.setMessage("image copied to clipboard")
	}, KeyShortcut{Rune: 'c', Modifiers: key.ModControl | key.ModShift})
	km.register("save", func() {
		if err := a.Save(); err != nil {
			log.Printf("save: %v", err)
			return
		}
		a.setMessage(fmt.Sprintf("saved %s", a.Output))
	}, KeyShortcut{Rune: 's', Modifiers: key.ModControl})
	km.register("fit", a.surface.Fit, KeyShortcut{Rune: 'f'})
	km.register("zoomin", func() { a.zoom(zoomStep) },
		KeyShortcut{Rune: '+', Modifiers: key.ModShift}, KeyShortcut{Rune: '+'}, KeyShortcut{Rune: '='})
	km.register("zoomout", func() { a.zoom(1 / zoomStep) }, KeyShortcut{Rune: '-'})
	km.register("quit", quit, KeyShortcut{Rune: 'q', Modifiers: key.ModControl})
	return km
}

func (a *AppState) zoom(factor float64) {
	sz := a.surface.Size()
	a.surface.ZoomAt(geom.Pt(float64(sz.X)/2, float64(sz.Y)/2), factor)
}

// resize gives the surface everything except the status bar.
func (a *AppState) resize(width, height int) {
	h := height - render.StatusHeight
	if h < 1 {
		h = 1
	}
	a.surface.Resize(width, h)
}

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() { driver.Main(a.Main) }

// Main runs the window on s until it is closed.
func (a *AppState) Main(s screen.Screen) {
	b := a.Image.Bounds()
	width, height := b.Dx(), b.Dy()+render.StatusHeight
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: a.Title})
	if err != nil {
		log.Printf("new window: %v", err)
		a.notifyClose()
		return
	}
	defer w.Release()
	defer a.notifyClose()

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	defer close(paintCh)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, s, w, st)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()
	stopPainting := func() {
		paintMu.Lock()
		if paintCancel != nil {
			paintCancel()
		}
		paintMu.Unlock()
	}

	done := false
	km := a.keymap(func() { done = true })
	sized := false
	a.resize(width, height)

	for !done {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				stopPainting()
				return
			}
			if e.Crosses(lifecycle.StageFocused) == lifecycle.CrossOff {
				a.surface.Leave()
				w.Send(paint.Event{})
			}
		case size.Event:
			width, height = e.WidthPx, e.HeightPx
			a.resize(width, height)
			if !sized {
				a.surface.Fit()
				sized = true
			}
			w.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			st := paintState{width: width, height: height, scene: a.scene(), theme: a.Theme}
			select {
			case paintCh <- st:
			default:
				// Replace the queued frame with the newer one.
				select {
				case <-paintCh:
				default:
				}
				paintCh <- st
			}
		case mouse.Event:
			a.surface.HandleMouse(e)
			w.Send(paint.Event{})
		case key.Event:
			if km.dispatch(e) {
				if a.message != "" {
					time.AfterFunc(messageDuration, func() { w.Send(paint.Event{}) })
				}
			} else {
				a.surface.HandleKey(e)
			}
			w.Send(paint.Event{})
		case error:
			log.Printf("window: %v", e)
		}
	}
	stopPainting()
}
