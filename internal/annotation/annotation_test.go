package annotation

import (
	"encoding/json"
	"errors"
	"image"
	"math"
	"testing"

	"golang.org/x/mobile/event/mouse"

	"github.com/example/osdasl/internal/geom"
	"github.com/example/osdasl/internal/viewer"
)

const eps = 1e-9

type recorder struct {
	notices []Notice
	onPost  func(Notice)
}

func (r *recorder) Post(n Notice) {
	r.notices = append(r.notices, n)
	if r.onPost != nil {
		r.onPost(n)
	}
}

type countingViewer struct {
	*viewer.Surface
	markerCalls int
}

func (c *countingViewer) SetMarker(element, marker string, on bool) {
	c.markerCalls++
	c.Surface.SetMarker(element, marker, on)
}

func newSurface() *viewer.Surface {
	return viewer.NewSurface(viewer.WithViewportSize(1000, 1000), viewer.WithImageSize(image.Pt(1000, 1000)))
}

func newActive(t *testing.T, s Viewer, opts ActivateOptions) (*Annotation, *recorder) {
	t.Helper()
	rec := &recorder{}
	a := New(Host{Viewer: s, Port: rec}, Init{ID: "a", Location: [4]float64{0.1, 0.1, 0.2, 0.2}})
	a.Render()
	a.Activate(opts)
	return a, rec
}

func drag(s *viewer.Surface, from, to geom.Point) {
	s.HandleMouse(mouse.Event{X: float32(from.X), Y: float32(from.Y), Button: mouse.ButtonLeft, Direction: mouse.DirPress})
	s.HandleMouse(mouse.Event{X: float32(to.X), Y: float32(to.Y), Direction: mouse.DirNone})
	s.HandleMouse(mouse.Event{X: float32(to.X), Y: float32(to.Y), Button: mouse.ButtonLeft, Direction: mouse.DirRelease})
}

func click(s *viewer.Surface, p geom.Point) {
	s.HandleMouse(mouse.Event{X: float32(p.X), Y: float32(p.Y), Button: mouse.ButtonLeft, Direction: mouse.DirPress})
	s.HandleMouse(mouse.Event{X: float32(p.X), Y: float32(p.Y), Button: mouse.ButtonLeft, Direction: mouse.DirRelease})
}

func rectNear(a, b geom.Rect) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps &&
		math.Abs(a.Width-b.Width) <= eps && math.Abs(a.Height-b.Height) <= eps
}

func TestRenderAddsOverlay(t *testing.T) {
	s := newSurface()
	a, _ := newActive(t, s, DefaultActivateOptions())
	got, ok := s.OverlayBounds("a")
	if !ok || got != a.Location() {
		t.Fatalf("overlay = %+v, %v", got, ok)
	}
	if a.Selected() {
		t.Fatalf("new annotation should not be selected")
	}
}

func TestActivateBeforeRenderPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	a := New(Host{Viewer: newSurface(), Port: &recorder{}}, Init{ID: "x"})
	a.Activate(DefaultActivateOptions())
}

func TestQuickClickPostsHostClick(t *testing.T) {
	s := newSurface()
	a, rec := newActive(t, s, DefaultActivateOptions())
	click(s, geom.Pt(200, 200))
	if len(rec.notices) != 1 || rec.notices[0] != (Notice{Type: HostClick, ID: "a"}) {
		t.Fatalf("notices = %+v", rec.notices)
	}
	if a.Selected() {
		t.Fatalf("click must not select on its own")
	}
}

func TestBodyDragTranslatesAndPostsDragEnd(t *testing.T) {
	s := newSurface()
	a, rec := newActive(t, s, DefaultActivateOptions())
	drag(s, geom.Pt(200, 200), geom.Pt(250, 230))
	want := geom.NewRect(0.15, 0.13, 0.2, 0.2)
	if !rectNear(a.Location(), want) {
		t.Fatalf("location = %+v, want %+v", a.Location(), want)
	}
	if got, _ := s.OverlayBounds("a"); !rectNear(got, want) {
		t.Fatalf("overlay not updated: %+v", got)
	}
	if len(rec.notices) != 1 || rec.notices[0].Type != HostDragEnd {
		t.Fatalf("notices = %+v", rec.notices)
	}
	if s.HasMarker("a", viewer.MarkerDragging) {
		t.Fatalf("dragging marker left on")
	}
}

func TestResizeTopLeftHandle(t *testing.T) {
	s := newSurface()
	a, rec := newActive(t, s, DefaultActivateOptions())
	drag(s, geom.Pt(100, 100), geom.Pt(150, 50))
	want := geom.NewRect(0.15, 0.05, 0.15, 0.25)
	if !rectNear(a.Location(), want) {
		t.Fatalf("location = %+v, want %+v", a.Location(), want)
	}
	if len(rec.notices) != 1 || rec.notices[0].Type != ResizeHandleDragEnd {
		t.Fatalf("notices = %+v", rec.notices)
	}
}

func TestResizeEveryCornerKeepsOppositeCorner(t *testing.T) {
	for _, corner := range geom.Corners {
		t.Run(corner.String(), func(t *testing.T) {
			s := newSurface()
			a, _ := newActive(t, s, DefaultActivateOptions())
			before := a.Location()
			start := corner.Point(before).Scale(1000)
			drag(s, start, start.Add(geom.Pt(30, 40)))
			after := a.Location()
			fixedBefore := corner.Opposite().Point(before)
			fixedAfter := corner.Opposite().Point(after)
			if math.Abs(fixedBefore.X-fixedAfter.X) > eps || math.Abs(fixedBefore.Y-fixedAfter.Y) > eps {
				t.Fatalf("opposite corner moved from %+v to %+v", fixedBefore, fixedAfter)
			}
			if want := before.Resize(corner, geom.Pt(0.03, 0.04)); !rectNear(after, want) {
				t.Fatalf("location = %+v, want %+v", after, want)
			}
		})
	}
}

func TestRemoveHandleClick(t *testing.T) {
	s := newSurface()
	_, rec := newActive(t, s, DefaultActivateOptions())
	click(s, geom.Pt(310, 90))
	if len(rec.notices) != 1 || rec.notices[0].Type != RemoveHandleClick {
		t.Fatalf("notices = %+v", rec.notices)
	}
	if _, ok := s.OverlayBounds("a"); !ok {
		t.Fatalf("remove click must not destroy the annotation itself")
	}
}

func TestCapabilitiesLimitWiring(t *testing.T) {
	s := newSurface()
	a, rec := newActive(t, s, ActivateOptions{})
	click(s, geom.Pt(200, 200))
	drag(s, geom.Pt(200, 200), geom.Pt(260, 260))
	drag(s, geom.Pt(100, 100), geom.Pt(150, 150))
	if len(rec.notices) != 0 {
		t.Fatalf("disabled interactions posted %+v", rec.notices)
	}
	if a.Location() != geom.NewRect(0.1, 0.1, 0.2, 0.2) {
		t.Fatalf("location changed to %+v", a.Location())
	}
	if views := s.Snapshot(); len(views) != 1 || len(views[0].Parts) != 0 {
		t.Fatalf("unexpected parts %+v", views)
	}
}

func TestSelectIsIdempotent(t *testing.T) {
	cv := &countingViewer{Surface: newSurface()}
	a, rec := newActive(t, cv, DefaultActivateOptions())
	a.Select(true)
	a.Select(true)
	if cv.markerCalls != 1 {
		t.Fatalf("expected one visual change, got %d", cv.markerCalls)
	}
	if !a.Selected() || !cv.HasMarker("a", viewer.MarkerSelected) {
		t.Fatalf("selection not applied")
	}
	a.Select(false)
	if a.Selected() || cv.HasMarker("a", viewer.MarkerSelected) {
		t.Fatalf("deselection not applied")
	}
	if len(rec.notices) != 0 {
		t.Fatalf("select must not post notices, got %+v", rec.notices)
	}
}

func TestDestroyFromOwnCallback(t *testing.T) {
	s := newSurface()
	rec := &recorder{}
	a := New(Host{Viewer: s, Port: rec}, Init{ID: "a", Location: [4]float64{0.1, 0.1, 0.2, 0.2}})
	rec.onPost = func(n Notice) {
		if n.Type == RemoveHandleClick {
			a.Destroy()
			if _, ok := s.OverlayBounds("a"); ok {
				t.Fatalf("overlay must be removed synchronously")
			}
			if s.TrackerCount() == 0 {
				t.Fatalf("trackers must outlive the dispatch that destroyed them")
			}
		}
	}
	a.Render()
	a.Activate(DefaultActivateOptions())

	click(s, geom.Pt(310, 90))
	if s.TrackerCount() != 0 {
		t.Fatalf("trackers not released after dispatch: %d", s.TrackerCount())
	}
	click(s, geom.Pt(200, 200))
	if len(rec.notices) != 1 {
		t.Fatalf("destroyed annotation posted %+v", rec.notices)
	}
	a.Destroy()
}

func TestJSONRoundTrip(t *testing.T) {
	a := New(Host{Viewer: newSurface()}, Init{ID: "osdasl_1", Location: [4]float64{0.48, 0.48, 0.04, 0.04}})
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"id":"osdasl_1","location":[0.48,0.48,0.04,0.04]}` {
		t.Fatalf("json = %s", data)
	}
	var init Init
	if err := json.Unmarshal(data, &init); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	b := New(Host{Viewer: newSurface()}, init)
	if b.ID() != a.ID() || b.Location() != a.Location() || b.Selected() {
		t.Fatalf("round trip mismatch: %+v vs %+v", b.Init(), a.Init())
	}
}

func TestValidID(t *testing.T) {
	if err := ValidID("osdasl_1"); err != nil {
		t.Fatalf("ValidID: %v", err)
	}
	for _, id := range []string{"", "a" + viewer.ElementSeparator + "remove", viewer.ElementSeparator} {
		if err := ValidID(id); !errors.Is(err, ErrInvalidID) {
			t.Fatalf("ValidID(%q) = %v", id, err)
		}
	}
}
