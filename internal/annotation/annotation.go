// Package annotation implements a single rectangular annotation rendered
// as a viewer overlay. An Annotation never decides selection or deletion
// itself: it reports what the user did through its notice port and lets
// its owner apply the policy.
package annotation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/example/osdasl/internal/geom"
	"github.com/example/osdasl/internal/viewer"
)

// NoticeType names a raw interaction reported by an annotation.
type NoticeType string

const (
	HostClick           NoticeType = "host:click"
	HostDragEnd         NoticeType = "host:dragEnd"
	RemoveHandleClick   NoticeType = "removeHandle:click"
	ResizeHandleDragEnd NoticeType = "resizeHandle:dragEnd"
)

// Notice is posted to the owner whenever the user finishes an interaction.
type Notice struct {
	Type NoticeType
	ID   string
}

// Poster receives notices. *channel.Port[Notice] satisfies it.
type Poster interface {
	Post(Notice)
}

// Viewer is the subset of viewer capabilities an annotation needs.
type Viewer interface {
	viewer.Overlays
	viewer.Coordinates
	viewer.Trackers
	viewer.Idle
}

// Host bundles the collaborators an annotation is built with.
type Host struct {
	Viewer Viewer
	Port   Poster
}

// Init is the persisted and wire form of an annotation.
type Init struct {
	ID       string     `json:"id"`
	Location [4]float64 `json:"location"`
}

// ErrInvalidID is returned for ids that cannot name an annotation.
var ErrInvalidID = errors.New("invalid annotation id")

// ValidID rejects empty ids and ids containing viewer.ElementSeparator,
// which would collide with the element ids of another annotation's parts.
func ValidID(id string) error {
	if id == "" || strings.Contains(id, viewer.ElementSeparator) {
		return fmt.Errorf("%w %q", ErrInvalidID, id)
	}
	return nil
}

// NewInit builds an Init from a rectangle.
func NewInit(id string, loc geom.Rect) Init {
	return Init{ID: id, Location: loc.Array()}
}

// Rect returns the location as a rectangle.
func (i Init) Rect() geom.Rect {
	return geom.RectFromArray(i.Location)
}

// ActivateOptions selects which interactions are wired on activation.
type ActivateOptions struct {
	Selectable bool
	Removable  bool
	Draggable  bool
	Resizable  bool
}

// DefaultActivateOptions enables every interaction.
func DefaultActivateOptions() ActivateOptions {
	return ActivateOptions{Selectable: true, Removable: true, Draggable: true, Resizable: true}
}

const (
	partRemove       = "remove"
	partResizePrefix = "resize-"
)

type trackerEntry struct {
	name    string
	tracker viewer.Tracker
}

// Annotation is one rectangle on the viewer.
type Annotation struct {
	viewer   Viewer
	port     Poster
	id       string
	location geom.Rect
	selected bool

	rendered  bool
	activated bool
	destroyed bool
	trackers  []trackerEntry
}

// New creates an unrendered, unselected annotation.
func New(host Host, init Init) *Annotation {
	return &Annotation{
		viewer:   host.Viewer,
		port:     host.Port,
		id:       init.ID,
		location: init.Rect(),
	}
}

// ID returns the annotation id.
func (a *Annotation) ID() string { return a.id }

// Location returns the current rectangle.
func (a *Annotation) Location() geom.Rect { return a.location }

// Selected reports the selection flag.
func (a *Annotation) Selected() bool { return a.selected }

// Init returns the serialized form.
func (a *Annotation) Init() Init {
	return NewInit(a.id, a.location)
}

// MarshalJSON encodes the annotation as {"id", "location": [x, y, w, h]}.
func (a *Annotation) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Init())
}

func (a *Annotation) notify(t NoticeType) {
	if a.destroyed || a.port == nil {
		return
	}
	a.port.Post(Notice{Type: t, ID: a.id})
}

// Render attaches the overlay at the current location. It may be called
// once.
func (a *Annotation) Render() {
	if a.rendered {
		panic(fmt.Sprintf("annotation %s: rendered twice", a.id))
	}
	a.rendered = true
	a.viewer.AddOverlay(a.id, a.location)
}

// Activate wires the interactions enabled in opts onto the rendered
// overlay. It may be called once, after Render.
func (a *Annotation) Activate(opts ActivateOptions) {
	if !a.rendered {
		panic(fmt.Sprintf("annotation %s: activated before render", a.id))
	}
	if a.activated {
		panic(fmt.Sprintf("annotation %s: activated twice", a.id))
	}
	a.activated = true

	host := viewer.TrackerHandlers{}
	if opts.Selectable {
		host.Click = func(ev viewer.ClickEvent) {
			if !ev.Quick {
				return
			}
			a.notify(HostClick)
		}
	}
	if opts.Draggable {
		host.Drag = func(ev viewer.DragEvent) {
			a.viewer.SetMarker(a.id, viewer.MarkerDragging, true)
			a.move(a.location.Translate(a.viewer.DeltaPointsFromPixels(ev.Delta)))
		}
		host.DragEnd = func() {
			a.viewer.SetMarker(a.id, viewer.MarkerDragging, false)
			a.notify(HostDragEnd)
		}
	}
	a.track("overlay", a.id, host)

	if opts.Removable {
		a.viewer.AddOverlayPart(a.id, viewer.Part{Name: partRemove, Kind: viewer.PartRemove})
		a.track("removeHandle", viewer.Element(a.id, partRemove), viewer.TrackerHandlers{
			Click: func(ev viewer.ClickEvent) {
				if !ev.Quick {
					return
				}
				a.notify(RemoveHandleClick)
			},
		})
	}

	if opts.Resizable {
		for _, corner := range geom.Corners {
			a.activateResize(corner)
		}
	}
}

func (a *Annotation) activateResize(corner geom.Corner) {
	name := partResizePrefix + corner.String()
	element := viewer.Element(a.id, name)
	a.viewer.AddOverlayPart(a.id, viewer.Part{Name: name, Kind: viewer.PartResize, Corner: corner})
	a.track("resizeHandle:"+corner.String(), element, viewer.TrackerHandlers{
		Drag: func(ev viewer.DragEvent) {
			a.viewer.SetMarker(element, viewer.MarkerDragging, true)
			a.move(a.location.Resize(corner, a.viewer.DeltaPointsFromPixels(ev.Delta)))
		},
		DragEnd: func() {
			a.viewer.SetMarker(element, viewer.MarkerDragging, false)
			a.notify(ResizeHandleDragEnd)
		},
	})
}

func (a *Annotation) track(name, element string, h viewer.TrackerHandlers) {
	a.trackers = append(a.trackers, trackerEntry{name: name, tracker: a.viewer.Track(element, h)})
}

func (a *Annotation) move(loc geom.Rect) {
	if a.destroyed {
		return
	}
	a.location = loc
	a.viewer.UpdateOverlay(a.id, loc)
}

// Select sets the selection flag and the selected marker. Setting the
// current value again does nothing.
func (a *Annotation) Select(selected bool) {
	if a.selected == selected {
		return
	}
	a.selected = selected
	if a.rendered && !a.destroyed {
		a.viewer.SetMarker(a.id, viewer.MarkerSelected, selected)
	}
}

// Destroy removes the overlay right away and releases the trackers once
// the current dispatch has finished, so a tracker is never torn down from
// inside its own callback. No notices are posted afterwards.
func (a *Annotation) Destroy() {
	if a.destroyed {
		return
	}
	a.destroyed = true
	if a.rendered {
		a.viewer.RemoveOverlay(a.id)
	}
	trackers := a.trackers
	a.trackers = nil
	if len(trackers) == 0 {
		return
	}
	a.viewer.Defer(func() {
		for _, t := range trackers {
			t.tracker.Destroy()
		}
	})
}

// Destroyed reports whether Destroy was called.
func (a *Annotation) Destroyed() bool { return a.destroyed }
