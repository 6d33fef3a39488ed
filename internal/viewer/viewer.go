// Package viewer describes the image viewer capabilities the annotation
// layer consumes and provides Surface, a headless implementation driven by
// golang.org/x/mobile input events.
package viewer

import (
	"golang.org/x/mobile/event/key"

	"github.com/example/osdasl/internal/geom"
)

// EventName identifies a canvas level event.
type EventName string

const (
	CanvasClick EventName = "canvas-click"
	CanvasKey   EventName = "canvas-key"
	CanvasEnter EventName = "canvas-enter"
	CanvasExit  EventName = "canvas-exit"
)

// DeviceType names an input device family with its own gesture settings.
type DeviceType string

const (
	DeviceMouse   DeviceType = "mouse"
	DeviceTouch   DeviceType = "touch"
	DevicePen     DeviceType = "pen"
	DeviceUnknown DeviceType = "unknown"
)

// DeviceTypes lists every device family known to the viewer.
var DeviceTypes = []DeviceType{DeviceMouse, DeviceTouch, DevicePen, DeviceUnknown}

// GestureSettings holds per-device gesture toggles.
type GestureSettings struct {
	ClickToZoom bool
}

// Event is delivered to canvas handlers.
type Event struct {
	Name EventName
	// Position is the pointer location in pixels for pointer events.
	Position geom.Point
	// Quick is set for clicks the gesture layer classified as a tap.
	Quick  bool
	Device DeviceType
	// Key carries the originating key event for CanvasKey.
	Key key.Event

	defaultPrevented bool
}

// PreventDefault suppresses the viewer's own handling of the event.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether a handler called PreventDefault.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// Handler receives canvas events.
type Handler func(*Event)

// Registration identifies an installed handler so it can be removed.
type Registration struct {
	name EventName
	id   uint64
}

// Name returns the event the registration listens to.
func (r Registration) Name() EventName { return r.name }

// PartKind distinguishes interaction handles attached to an overlay.
type PartKind int

const (
	PartRemove PartKind = iota
	PartResize
)

// Part is a small interaction region attached to an overlay.
type Part struct {
	Name   string
	Kind   PartKind
	Corner geom.Corner
}

// ElementSeparator joins an overlay id and a part name. Overlay ids must
// not contain it.
const ElementSeparator = "/"

// Element returns the element id of part name on overlay id.
func Element(id, part string) string {
	return id + ElementSeparator + part
}

// Overlay markers understood by renderers.
const (
	MarkerSelected = "-selected"
	MarkerDragging = "-dragging"
)

// Overlays manages rectangles positioned in normalized space.
type Overlays interface {
	AddOverlay(id string, loc geom.Rect)
	UpdateOverlay(id string, loc geom.Rect)
	RemoveOverlay(id string)
	AddOverlayPart(id string, part Part)
	// SetMarker toggles a visual marker on an overlay or part element.
	SetMarker(element, marker string, on bool)
}

// Coordinates converts between pixels and normalized space.
type Coordinates interface {
	PointFromPixel(p geom.Point) geom.Point
	DeltaPointsFromPixels(d geom.Point) geom.Point
}

// Events registers canvas handlers.
type Events interface {
	AddHandler(name EventName, h Handler) Registration
	RemoveHandler(r Registration)
}

// Gestures exposes per-device gesture settings.
type Gestures interface {
	GestureSettingsByDeviceType(t DeviceType) *GestureSettings
}

// Focuser controls keyboard focus of the surface.
type Focuser interface {
	Focus()
	Blur()
	Focused() bool
}

// ClickEvent is delivered to element trackers on pointer release.
type ClickEvent struct {
	Position geom.Point
	Quick    bool
}

// DragEvent carries one drag step. Delta is in pixels since the previous step.
type DragEvent struct {
	Position geom.Point
	Delta    geom.Point
}

// TrackerHandlers are the callbacks of an element tracker. Nil callbacks
// are skipped.
type TrackerHandlers struct {
	Click   func(ClickEvent)
	Drag    func(DragEvent)
	DragEnd func()
}

// Tracker is an installed set of element callbacks.
type Tracker interface {
	Destroy()
}

// Trackers wires pointer callbacks onto overlay elements.
type Trackers interface {
	Track(element string, h TrackerHandlers) Tracker
}

// Idle schedules work after the current event dispatch completes. Outside
// a dispatch the work runs at once.
type Idle interface {
	Defer(fn func())
}

// Viewer is the complete capability set the annotation manager consumes.
type Viewer interface {
	Overlays
	Coordinates
	Events
	Gestures
	Focuser
	Trackers
	Idle
}
