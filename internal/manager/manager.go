// Package manager owns a set of annotations on one viewer. It decides
// selection and deletion for the whole set, turns canvas clicks and key
// presses into annotation lifecycle changes, and publishes every change as
// a JSON Event on a named broadcast channel.
package manager

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"golang.org/x/mobile/event/key"

	"github.com/example/osdasl/internal/annotation"
	"github.com/example/osdasl/internal/broadcast"
	"github.com/example/osdasl/internal/channel"
	"github.com/example/osdasl/internal/geom"
	"github.com/example/osdasl/internal/viewer"
)

// DefaultChannelName is the broadcast channel used when none is given.
const DefaultChannelName = "osdasl"

// DefaultSize is the edge length of an annotation created by a click.
const DefaultSize = 0.04

// Manager coordinates the annotations of a single viewer. It is driven by
// the viewer's event loop and is not safe for concurrent use.
type Manager struct {
	viewer      viewer.Viewer
	channelName string
	newID       func() string
	logger      *log.Logger

	port        *channel.Port[annotation.Notice]
	pub         *broadcast.Channel
	annotations map[string]*annotation.Annotation
	activate    annotation.ActivateOptions
	disposers   []func()
	destroyed   bool
}

// Option configures a Manager during creation.
type Option func(*Manager)

// WithChannelName sets the broadcast channel events are published on.
func WithChannelName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.channelName = name
		}
	}
}

// WithIDFunc replaces the id source for annotations created by clicks.
func WithIDFunc(fn func() string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// WithLogger sets the logger used for unexpected conditions.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// TimestampIDs returns an id source producing osdasl_<unix millis>. Two
// calls within the same millisecond still yield distinct ids.
func TimestampIDs(now func() time.Time) func() string {
	var last int64
	return func() string {
		ms := now().UnixMilli()
		if ms <= last {
			ms = last + 1
		}
		last = ms
		return fmt.Sprintf("osdasl_%d", ms)
	}
}

// New creates an empty manager publishing on hub. A nil hub means
// broadcast.DefaultHub.
func New(v viewer.Viewer, hub *broadcast.Hub, opts ...Option) *Manager {
	if hub == nil {
		hub = broadcast.DefaultHub()
	}
	m := &Manager{
		viewer:      v,
		channelName: DefaultChannelName,
		newID:       TimestampIDs(time.Now),
		logger:      log.Default(),
		annotations: make(map[string]*annotation.Annotation),
		activate:    annotation.DefaultActivateOptions(),
	}
	for _, o := range opts {
		o(m)
	}
	m.port = channel.NewPort[annotation.Notice]()
	m.port.OnMessage(m.onNotice)
	m.pub = hub.Publisher(m.channelName)
	m.disposers = append(m.disposers, func() {
		m.port.Close()
		m.pub.Close()
	})
	return m
}

// ChannelName returns the broadcast channel events are published on.
func (m *Manager) ChannelName() string { return m.channelName }

// AnnotationOptions overrides individual activation options. Nil fields
// keep their current value.
type AnnotationOptions struct {
	Selectable *bool
	Removable  *bool
	Draggable  *bool
	Resizable  *bool
}

// Bool returns a pointer to b for use in AnnotationOptions.
func Bool(b bool) *bool { return &b }

// SetAnnotationOptions merges o into the options used for annotations
// added from now on. Existing annotations keep their interactions.
func (m *Manager) SetAnnotationOptions(o AnnotationOptions) {
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&m.activate.Selectable, o.Selectable)
	set(&m.activate.Removable, o.Removable)
	set(&m.activate.Draggable, o.Draggable)
	set(&m.activate.Resizable, o.Resizable)
}

// Restore adds one annotation per non-nil init without publishing
// anything. An init whose id is already present is skipped.
func (m *Manager) Restore(inits []*annotation.Init) {
	if m.destroyed {
		return
	}
	for _, init := range inits {
		if init == nil {
			continue
		}
		if err := annotation.ValidID(init.ID); err != nil {
			m.logger.Printf("manager: restore: %v skipped", err)
			continue
		}
		if _, ok := m.annotations[init.ID]; ok {
			m.logger.Printf("manager: restore: duplicate id %q skipped", init.ID)
			continue
		}
		m.add(*init)
	}
}

type activateConfig struct {
	clickToAdd       bool
	keyboardShortcut bool
}

// ActivateOption configures Activate.
type ActivateOption func(*activateConfig)

// WithClickToAdd toggles creating annotations by clicking the canvas.
func WithClickToAdd(on bool) ActivateOption {
	return func(c *activateConfig) { c.clickToAdd = on }
}

// WithKeyboardShortcut toggles Delete, Backspace and Escape handling.
func WithKeyboardShortcut(on bool) ActivateOption {
	return func(c *activateConfig) { c.keyboardShortcut = on }
}

// Activate installs the viewer handlers. Both click-to-add and keyboard
// shortcuts are on unless disabled by opts. Everything installed here is
// reversed by Destroy.
func (m *Manager) Activate(opts ...ActivateOption) {
	if m.destroyed {
		return
	}
	cfg := activateConfig{clickToAdd: true, keyboardShortcut: true}
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.clickToAdd {
		// Click-to-zoom and click-to-add share the same gesture.
		m.setClickToZoom(false)
		reg := m.viewer.AddHandler(viewer.CanvasClick, m.onCanvasClick)
		m.disposers = append(m.disposers, func() {
			m.setClickToZoom(true)
			m.viewer.RemoveHandler(reg)
		})
	}

	if cfg.keyboardShortcut {
		regs := []viewer.Registration{
			m.viewer.AddHandler(viewer.CanvasKey, m.onCanvasKey),
			// Key events are only raised while the surface has focus.
			m.viewer.AddHandler(viewer.CanvasEnter, func(*viewer.Event) { m.viewer.Focus() }),
			m.viewer.AddHandler(viewer.CanvasExit, func(*viewer.Event) { m.viewer.Blur() }),
		}
		m.disposers = append(m.disposers, func() {
			for _, r := range regs {
				m.viewer.RemoveHandler(r)
			}
		})
	}
}

func (m *Manager) setClickToZoom(on bool) {
	for _, t := range viewer.DeviceTypes {
		m.viewer.GestureSettingsByDeviceType(t).ClickToZoom = on
	}
}

// Destroy undoes Activate, closes the notice port and the publisher, and
// destroys every annotation. The manager is unusable afterwards.
func (m *Manager) Destroy() {
	if m.destroyed {
		return
	}
	m.destroyed = true
	for i := len(m.disposers) - 1; i >= 0; i-- {
		m.disposers[i]()
	}
	m.disposers = nil
	for _, a := range m.annotations {
		a.Destroy()
	}
	clear(m.annotations)
}

// Annotations returns the current set sorted by id.
func (m *Manager) Annotations() []annotation.Init {
	out := make([]annotation.Init, 0, len(m.annotations))
	for _, a := range m.annotations {
		out = append(out, a.Init())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Selected returns the id of the selected annotation.
func (m *Manager) Selected() (string, bool) {
	for id, a := range m.annotations {
		if a.Selected() {
			return id, true
		}
	}
	return "", false
}

// Len returns the number of live annotations.
func (m *Manager) Len() int { return len(m.annotations) }

func (m *Manager) add(init annotation.Init) *annotation.Annotation {
	a := annotation.New(annotation.Host{Viewer: m.viewer, Port: m.port}, init)
	a.Render()
	a.Activate(m.activate)
	m.annotations[init.ID] = a
	return a
}

func (m *Manager) nextID() string {
	id := strings.ReplaceAll(m.newID(), viewer.ElementSeparator, "_")
	if id == "" {
		id = "osdasl"
	}
	base := id
	for i := 1; m.annotations[id] != nil; i++ {
		id = fmt.Sprintf("%s_%d", base, i)
	}
	return id
}

// selectAnnotation makes target the only selected annotation. An empty
// target deselects everything.
func (m *Manager) selectAnnotation(target string) {
	for id, a := range m.annotations {
		a.Select(id == target)
	}
}

func (m *Manager) deleteAnnotation(id string) {
	a, ok := m.annotations[id]
	if !ok {
		return
	}
	delete(m.annotations, id)
	a.Destroy()
}

func (m *Manager) anySelected() bool {
	_, ok := m.Selected()
	return ok
}

func (m *Manager) publish(t EventType, data any) {
	b, err := json.Marshal(Event{Type: t, Data: data})
	if err != nil {
		m.logger.Printf("manager: marshal %s: %v", t, err)
		return
	}
	m.pub.Post(b)
}

func (m *Manager) onNotice(n annotation.Notice) {
	a, ok := m.annotations[n.ID]
	if !ok {
		return
	}
	switch n.Type {
	case annotation.RemoveHandleClick:
		if a.Selected() {
			m.publish(EventDeselected, nil)
		}
		m.deleteAnnotation(n.ID)
		m.publish(EventRemoved, a.Init())
	case annotation.HostClick:
		m.selectAnnotation(n.ID)
		m.publish(EventSelected, IDRef{ID: n.ID})
	case annotation.HostDragEnd, annotation.ResizeHandleDragEnd:
		m.publish(EventUpdated, a.Init())
	}
}

func (m *Manager) onCanvasClick(ev *viewer.Event) {
	if !ev.Quick {
		return
	}
	if m.anySelected() {
		m.selectAnnotation("")
		m.publish(EventDeselected, nil)
		return
	}

	p := m.viewer.PointFromPixel(ev.Position)
	id := m.nextID()
	loc := geom.NewRect(p.X-DefaultSize/2, p.Y-DefaultSize/2, DefaultSize, DefaultSize)
	a := m.add(annotation.NewInit(id, loc))
	m.publish(EventAdded, a.Init())

	m.selectAnnotation(id)
	m.publish(EventSelected, IDRef{ID: id})
}

func (m *Manager) onCanvasKey(ev *viewer.Event) {
	switch ev.Key.Code {
	case key.CodeDeleteForward, key.CodeDeleteBackspace:
		for _, id := range m.selectedIDs() {
			m.publish(EventDeselected, nil)
			m.deleteAnnotation(id)
			m.publish(EventRemoved, IDRef{ID: id})
		}
		ev.PreventDefault()
	case key.CodeEscape:
		m.selectAnnotation("")
		m.publish(EventDeselected, nil)
	}
}

func (m *Manager) selectedIDs() []string {
	var ids []string
	for id, a := range m.annotations {
		if a.Selected() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
