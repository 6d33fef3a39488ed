package viewer

import (
	"image"
	"math"
	"time"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/osdasl/internal/geom"
)

const (
	// HandleSize is the edge length in pixels of remove and resize handles.
	HandleSize = 10
	// DefaultClickDistThreshold is how far in pixels the pointer may travel
	// between press and release for the gesture to still count as a click.
	DefaultClickDistThreshold = 5.0
	// DefaultClickTimeThreshold bounds the press duration of a quick click.
	DefaultClickTimeThreshold = 300 * time.Millisecond

	zoomPerClick  = 2.0
	zoomPerScroll = 1.2
)

type overlay struct {
	id    string
	loc   geom.Rect
	parts []Part
}

type handlerEntry struct {
	id uint64
	fn Handler
}

type tracker struct {
	s         *Surface
	element   string
	handlers  TrackerHandlers
	destroyed bool
}

func (t *tracker) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	if t.s.trackers[t.element] == t {
		delete(t.s.trackers, t.element)
	}
}

type pointerState struct {
	down      bool
	dragging  bool
	element   string
	start     geom.Point
	last      geom.Point
	pressedAt time.Time
}

// Surface is a headless viewer. It keeps the viewport transform, the
// overlay list and the handler registry, and turns raw mouse and key
// events into canvas events and element tracker callbacks. It is not safe
// for concurrent use: feed it from a single event loop.
type Surface struct {
	width, height int
	aspect        float64
	origin        geom.Point
	zoom          float64

	overlays []*overlay
	byID     map[string]*overlay
	markers  map[string]map[string]bool
	trackers map[string]*tracker

	handlers map[EventName][]handlerEntry
	nextID   uint64
	gestures map[DeviceType]*GestureSettings

	focused bool
	inside  bool
	pointer pointerState
	idle    []func()
	depth   int

	clickDist float64
	clickTime time.Duration
	now       func() time.Time
}

// SurfaceOption configures a Surface during creation.
type SurfaceOption func(*Surface)

// WithViewportSize sets the pixel size of the visible canvas.
func WithViewportSize(w, h int) SurfaceOption {
	return func(s *Surface) { s.width, s.height = w, h }
}

// WithImageSize sets the pixel size of the displayed image. Normalized
// space spans [0,1] horizontally and [0,h/w] vertically.
func WithImageSize(size image.Point) SurfaceOption {
	return func(s *Surface) {
		if size.X > 0 && size.Y > 0 {
			s.aspect = float64(size.Y) / float64(size.X)
		}
	}
}

// WithClock replaces time.Now for gesture timing.
func WithClock(now func() time.Time) SurfaceOption {
	return func(s *Surface) { s.now = now }
}

// WithClickThresholds overrides the quick click classification limits.
func WithClickThresholds(dist float64, d time.Duration) SurfaceOption {
	return func(s *Surface) { s.clickDist, s.clickTime = dist, d }
}

// NewSurface creates a Surface fitted to its viewport.
func NewSurface(opts ...SurfaceOption) *Surface {
	s := &Surface{
		width:     800,
		height:    600,
		aspect:    1,
		byID:      make(map[string]*overlay),
		markers:   make(map[string]map[string]bool),
		trackers:  make(map[string]*tracker),
		handlers:  make(map[EventName][]handlerEntry),
		gestures:  make(map[DeviceType]*GestureSettings),
		clickDist: DefaultClickDistThreshold,
		clickTime: DefaultClickTimeThreshold,
		now:       time.Now,
	}
	for _, dt := range DeviceTypes {
		s.gestures[dt] = &GestureSettings{ClickToZoom: true}
	}
	for _, o := range opts {
		o(s)
	}
	s.Fit()
	return s
}

// Fit resets the viewport so the whole image is visible and centered.
func (s *Surface) Fit() {
	w, h := float64(s.width), float64(s.height)
	if w <= 0 || h <= 0 {
		s.zoom = 1
		return
	}
	s.zoom = math.Min(w, h/s.aspect)
	s.origin = geom.Pt(0.5-w/(2*s.zoom), s.aspect/2-h/(2*s.zoom))
}

// Resize changes the viewport size keeping the current zoom level.
func (s *Surface) Resize(w, h int) {
	s.width, s.height = w, h
}

// Size returns the viewport size in pixels.
func (s *Surface) Size() image.Point {
	return image.Pt(s.width, s.height)
}

// Zoom returns the number of pixels per normalized unit.
func (s *Surface) Zoom() float64 { return s.zoom }

// ZoomAt scales the view by factor keeping the normalized point under p
// fixed on screen.
func (s *Surface) ZoomAt(p geom.Point, factor float64) {
	if factor <= 0 {
		return
	}
	anchor := s.PointFromPixel(p)
	s.zoom *= factor
	s.origin = anchor.Sub(p.Scale(1 / s.zoom))
}

// PointFromPixel maps a pixel location to normalized space.
func (s *Surface) PointFromPixel(p geom.Point) geom.Point {
	return s.origin.Add(p.Scale(1 / s.zoom))
}

// PixelFromPoint maps a normalized location to pixels.
func (s *Surface) PixelFromPoint(p geom.Point) geom.Point {
	return p.Sub(s.origin).Scale(s.zoom)
}

// DeltaPointsFromPixels converts a pixel delta to a normalized delta.
func (s *Surface) DeltaPointsFromPixels(d geom.Point) geom.Point {
	return d.Scale(1 / s.zoom)
}

func (s *Surface) pixelRect(r geom.Rect) geom.Rect {
	tl := s.PixelFromPoint(r.TopLeft())
	return geom.NewRect(tl.X, tl.Y, r.Width*s.zoom, r.Height*s.zoom)
}

// ImageBounds returns the pixel rectangle covered by the image.
func (s *Surface) ImageBounds() geom.Rect {
	return s.pixelRect(geom.NewRect(0, 0, 1, s.aspect))
}

// AddOverlay implements Overlays. Adding an existing id replaces its location.
func (s *Surface) AddOverlay(id string, loc geom.Rect) {
	if o, ok := s.byID[id]; ok {
		o.loc = loc
		return
	}
	o := &overlay{id: id, loc: loc}
	s.overlays = append(s.overlays, o)
	s.byID[id] = o
}

// UpdateOverlay implements Overlays.
func (s *Surface) UpdateOverlay(id string, loc geom.Rect) {
	if o, ok := s.byID[id]; ok {
		o.loc = loc
	}
}

// RemoveOverlay implements Overlays. Element markers go with the overlay.
func (s *Surface) RemoveOverlay(id string) {
	o, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	for i, cur := range s.overlays {
		if cur == o {
			s.overlays = append(s.overlays[:i], s.overlays[i+1:]...)
			break
		}
	}
	delete(s.markers, id)
	for _, p := range o.parts {
		delete(s.markers, Element(id, p.Name))
	}
}

// AddOverlayPart implements Overlays.
func (s *Surface) AddOverlayPart(id string, part Part) {
	if o, ok := s.byID[id]; ok {
		o.parts = append(o.parts, part)
	}
}

// SetMarker implements Overlays.
func (s *Surface) SetMarker(element, marker string, on bool) {
	m := s.markers[element]
	if on {
		if m == nil {
			m = make(map[string]bool)
			s.markers[element] = m
		}
		m[marker] = true
		return
	}
	if m != nil {
		delete(m, marker)
	}
}

// HasMarker reports whether marker is set on element.
func (s *Surface) HasMarker(element, marker string) bool {
	return s.markers[element][marker]
}

// OverlayBounds returns the normalized location of overlay id.
func (s *Surface) OverlayBounds(id string) (geom.Rect, bool) {
	o, ok := s.byID[id]
	if !ok {
		return geom.Rect{}, false
	}
	return o.loc, true
}

// PartView describes a rendered interaction handle.
type PartView struct {
	Element string
	Part    Part
	Bounds  geom.Rect
	Markers map[string]bool
}

// OverlayView describes a rendered overlay in pixels.
type OverlayView struct {
	ID      string
	Bounds  geom.Rect
	Markers map[string]bool
	Parts   []PartView
}

func copyMarkers(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Snapshot returns the overlays in paint order with pixel geometry.
func (s *Surface) Snapshot() []OverlayView {
	out := make([]OverlayView, 0, len(s.overlays))
	for _, o := range s.overlays {
		v := OverlayView{
			ID:      o.id,
			Bounds:  s.pixelRect(o.loc).Canon(),
			Markers: copyMarkers(s.markers[o.id]),
		}
		for _, p := range o.parts {
			el := Element(o.id, p.Name)
			v.Parts = append(v.Parts, PartView{
				Element: el,
				Part:    p,
				Bounds:  s.partBounds(o, p),
				Markers: copyMarkers(s.markers[el]),
			})
		}
		out = append(out, v)
	}
	return out
}

func (s *Surface) partBounds(o *overlay, p Part) geom.Rect {
	px := s.pixelRect(o.loc)
	var c geom.Point
	switch p.Kind {
	case PartResize:
		c = p.Corner.Point(px)
	default:
		canon := px.Canon()
		c = geom.TopRight.Point(canon).Add(geom.Pt(HandleSize, -HandleSize))
	}
	half := float64(HandleSize) / 2
	return geom.NewRect(c.X-half, c.Y-half, HandleSize, HandleSize)
}

// HitTest returns the element under pixel p, or "" for bare canvas.
// Later overlays are on top; parts sit above their overlay body.
func (s *Surface) HitTest(p geom.Point) string {
	for i := len(s.overlays) - 1; i >= 0; i-- {
		o := s.overlays[i]
		for j := len(o.parts) - 1; j >= 0; j-- {
			if s.partBounds(o, o.parts[j]).Contains(p) {
				return Element(o.id, o.parts[j].Name)
			}
		}
		if s.pixelRect(o.loc).Contains(p) {
			return o.id
		}
	}
	return ""
}

// AddHandler implements Events.
func (s *Surface) AddHandler(name EventName, h Handler) Registration {
	s.nextID++
	s.handlers[name] = append(s.handlers[name], handlerEntry{id: s.nextID, fn: h})
	return Registration{name: name, id: s.nextID}
}

// RemoveHandler implements Events. Unknown registrations are ignored.
func (s *Surface) RemoveHandler(r Registration) {
	list := s.handlers[r.name]
	for i, e := range list {
		if e.id == r.id {
			s.handlers[r.name] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// HandlerCount returns the number of handlers installed for name.
func (s *Surface) HandlerCount(name EventName) int {
	return len(s.handlers[name])
}

func (s *Surface) raise(ev *Event) {
	// Handlers may add or remove registrations while running.
	list := append([]handlerEntry(nil), s.handlers[ev.Name]...)
	for _, e := range list {
		e.fn(ev)
	}
}

// GestureSettingsByDeviceType implements Gestures.
func (s *Surface) GestureSettingsByDeviceType(t DeviceType) *GestureSettings {
	g, ok := s.gestures[t]
	if !ok {
		g = &GestureSettings{ClickToZoom: true}
		s.gestures[t] = g
	}
	return g
}

// Focus implements Focuser.
func (s *Surface) Focus() { s.focused = true }

// Blur implements Focuser.
func (s *Surface) Blur() { s.focused = false }

// Focused implements Focuser.
func (s *Surface) Focused() bool { return s.focused }

// Track implements Trackers. A later tracker on the same element replaces
// the earlier one.
func (s *Surface) Track(element string, h TrackerHandlers) Tracker {
	t := &tracker{s: s, element: element, handlers: h}
	s.trackers[element] = t
	return t
}

// TrackerCount returns the number of live trackers.
func (s *Surface) TrackerCount() int {
	return len(s.trackers)
}

// Defer implements Idle. Inside a dispatch, fn runs once the dispatch
// returns; outside of one it runs immediately.
func (s *Surface) Defer(fn func()) {
	if s.depth == 0 {
		fn()
		return
	}
	s.idle = append(s.idle, fn)
}

// dispatch marks the start of an input dispatch. The returned func ends
// it and runs the work deferred meanwhile.
func (s *Surface) dispatch() func() {
	s.Flush()
	s.depth++
	return func() {
		s.depth--
		if s.depth == 0 {
			s.Flush()
		}
	}
}

// Flush runs any deferred work still pending.
func (s *Surface) Flush() {
	for len(s.idle) > 0 {
		queue := s.idle
		s.idle = nil
		for _, fn := range queue {
			fn()
		}
	}
}

func (s *Surface) inBounds(p geom.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < float64(s.width) && p.Y < float64(s.height)
}

func (s *Surface) trackerFor(element string) *tracker {
	if element == "" {
		return nil
	}
	t := s.trackers[element]
	if t == nil || t.destroyed {
		return nil
	}
	return t
}

// HandleMouse feeds one pointer event through the gesture classifier.
func (s *Surface) HandleMouse(e mouse.Event) {
	defer s.dispatch()()

	p := geom.Pt(float64(e.X), float64(e.Y))
	s.crossing(p)

	switch e.Button {
	case mouse.ButtonWheelUp:
		if e.Direction == mouse.DirStep || e.Direction == mouse.DirPress {
			s.ZoomAt(p, zoomPerScroll)
		}
		return
	case mouse.ButtonWheelDown:
		if e.Direction == mouse.DirStep || e.Direction == mouse.DirPress {
			s.ZoomAt(p, 1/zoomPerScroll)
		}
		return
	}

	switch e.Direction {
	case mouse.DirPress:
		if e.Button != mouse.ButtonLeft || !s.inBounds(p) {
			return
		}
		// The release of the previous press was lost.
		s.cancelGesture()
		s.pointer = pointerState{
			down:      true,
			element:   s.HitTest(p),
			start:     p,
			last:      p,
			pressedAt: s.now(),
		}
	case mouse.DirNone:
		if !s.pointer.down {
			return
		}
		s.move(p)
	case mouse.DirRelease:
		if e.Button != mouse.ButtonLeft || !s.pointer.down {
			return
		}
		s.move(p)
		s.release(p, e.Modifiers)
	}
}

func (s *Surface) crossing(p geom.Point) {
	in := s.inBounds(p)
	switch {
	case in && !s.inside:
		s.inside = true
		s.raise(&Event{Name: CanvasEnter, Position: p, Device: DeviceMouse})
	case !in && s.inside:
		s.inside = false
		s.raise(&Event{Name: CanvasExit, Position: p, Device: DeviceMouse})
	}
}

// Leave reports that the pointer left the surface, e.g. when the host
// window loses focus.
func (s *Surface) Leave() {
	defer s.dispatch()()
	s.cancelGesture()
	if s.inside {
		s.inside = false
		s.raise(&Event{Name: CanvasExit, Position: s.pointer.last, Device: DeviceMouse})
	}
}

// cancelGesture ends a press that will not see its release. A drag in
// progress is finished through DragEnd; no click is reported.
func (s *Surface) cancelGesture() {
	ps := s.pointer
	if !ps.down {
		return
	}
	s.pointer = pointerState{last: ps.last}
	if !ps.dragging {
		return
	}
	if t := s.trackerFor(ps.element); t != nil && t.handlers.DragEnd != nil {
		t.handlers.DragEnd()
	}
}

func (s *Surface) move(p geom.Point) {
	ps := &s.pointer
	if p == ps.last {
		return
	}
	if !ps.dragging && p.Sub(ps.start).Len() > s.clickDist {
		ps.dragging = true
	}
	if ps.dragging {
		delta := p.Sub(ps.last)
		if t := s.trackerFor(ps.element); t != nil {
			if t.handlers.Drag != nil {
				t.handlers.Drag(DragEvent{Position: p, Delta: delta})
			}
		} else if ps.element == "" {
			s.origin = s.origin.Sub(s.DeltaPointsFromPixels(delta))
		}
	}
	ps.last = p
}

func (s *Surface) release(p geom.Point, mods key.Modifiers) {
	ps := s.pointer
	s.pointer = pointerState{last: p}
	quick := !ps.dragging && s.now().Sub(ps.pressedAt) <= s.clickTime

	if ps.element != "" {
		t := s.trackerFor(ps.element)
		if t == nil {
			return
		}
		if ps.dragging && t.handlers.DragEnd != nil {
			t.handlers.DragEnd()
		}
		// The first callback may have destroyed the tracker.
		if !t.destroyed && t.handlers.Click != nil {
			t.handlers.Click(ClickEvent{Position: p, Quick: quick})
		}
		return
	}

	ev := &Event{Name: CanvasClick, Position: p, Quick: quick, Device: DeviceMouse}
	s.raise(ev)
	if ev.DefaultPrevented() || !quick || !s.GestureSettingsByDeviceType(DeviceMouse).ClickToZoom {
		return
	}
	factor := zoomPerClick
	if mods&key.ModShift != 0 {
		factor = 1 / zoomPerClick
	}
	s.ZoomAt(p, factor)
}

// HandleKey delivers a key press to canvas-key handlers while focused.
func (s *Surface) HandleKey(e key.Event) {
	defer s.dispatch()()
	if !s.focused || e.Direction == key.DirRelease {
		return
	}
	s.raise(&Event{Name: CanvasKey, Key: e, Device: DeviceUnknown})
}

var _ Viewer = (*Surface)(nil)
