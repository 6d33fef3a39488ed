package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/example/osdasl/internal/annotation"
	"github.com/example/osdasl/internal/geom"
	"github.com/example/osdasl/internal/theme"
	"github.com/example/osdasl/internal/viewer"
)

func testTheme() *theme.Theme {
	return &theme.Theme{
		Background:       color.RGBA{1, 1, 1, 255},
		OverlayBorder:    color.RGBA{200, 0, 0, 255},
		OverlaySelected:  color.RGBA{0, 200, 0, 255},
		OverlayDragging:  color.RGBA{0, 0, 200, 255},
		HandleFill:       color.RGBA{250, 250, 250, 255},
		HandleBorder:     color.RGBA{10, 10, 10, 255},
		RemoveHandle:     color.RGBA{255, 0, 255, 255},
		RemoveGlyph:      color.RGBA{255, 255, 0, 255},
		StatusBackground: color.RGBA{30, 30, 30, 255},
		StatusText:       color.RGBA{240, 240, 240, 255},
		CheckerLight:     color.RGBA{2, 2, 2, 255},
		CheckerDark:      color.RGBA{3, 3, 3, 255},
	}
}

func TestPixelRect(t *testing.T) {
	got := PixelRect(geom.NewRect(10.4, 20.6, -5, 4))
	want := image.Rect(5, 21, 10, 25)
	if got != want {
		t.Fatalf("PixelRect = %v, want %v", got, want)
	}
}

func TestOverlayBorderFollowsMarkers(t *testing.T) {
	th := testTheme()
	tests := []struct {
		name    string
		markers map[string]bool
		want    color.RGBA
	}{
		{"plain", nil, th.OverlayBorder},
		{"selected", map[string]bool{viewer.MarkerSelected: true}, th.OverlaySelected},
		{"dragging", map[string]bool{viewer.MarkerSelected: true, viewer.MarkerDragging: true}, th.OverlayDragging},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, 100, 100))
			Overlays(img, []viewer.OverlayView{{
				ID:      "a",
				Bounds:  geom.NewRect(20, 20, 40, 40),
				Markers: tt.markers,
			}}, th)
			if got := img.RGBAAt(20, 40); got != tt.want {
				t.Fatalf("border = %v, want %v", got, tt.want)
			}
			if got := img.RGBAAt(40, 40); got != (color.RGBA{}) {
				t.Fatalf("interior = %v, want transparent", got)
			}
		})
	}
}

func TestOverlayHandles(t *testing.T) {
	th := testTheme()
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	Overlays(img, []viewer.OverlayView{{
		ID:     "a",
		Bounds: geom.NewRect(20, 20, 40, 40),
		Parts: []viewer.PartView{
			{Part: viewer.Part{Kind: viewer.PartRemove}, Bounds: geom.NewRect(65, 5, 10, 10)},
			{Part: viewer.Part{Kind: viewer.PartResize}, Bounds: geom.NewRect(15, 15, 10, 10)},
		},
	}}, th)
	if got := img.RGBAAt(66, 13); got != th.RemoveHandle {
		t.Fatalf("remove handle = %v, want %v", got, th.RemoveHandle)
	}
	if got := img.RGBAAt(67, 7); got != th.RemoveGlyph {
		t.Fatalf("remove glyph = %v, want %v", got, th.RemoveGlyph)
	}
	if got := img.RGBAAt(17, 18); got != th.HandleFill {
		t.Fatalf("resize handle = %v, want %v", got, th.HandleFill)
	}
	if got := img.RGBAAt(15, 15); got != th.HandleBorder {
		t.Fatalf("resize border = %v, want %v", got, th.HandleBorder)
	}
}

func TestFrame(t *testing.T) {
	th := testTheme()
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			src.SetRGBA(x, y, color.RGBA{100, 150, 200, 255})
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, 200, 200))
	Frame(dst, Scene{
		Image:  src,
		Bounds: geom.NewRect(50, 50, 100, 100),
		Status: "1 annotation",
	}, th)
	if got := dst.RGBAAt(10, 10); got != th.Background {
		t.Fatalf("background = %v, want %v", got, th.Background)
	}
	if got := dst.RGBAAt(100, 100); got != (color.RGBA{100, 150, 200, 255}) {
		t.Fatalf("image pixel = %v", got)
	}
	if got := dst.RGBAAt(199, 199); got != th.StatusBackground {
		t.Fatalf("status bar = %v, want %v", got, th.StatusBackground)
	}
	var text bool
	for x := 0; x < 100 && !text; x++ {
		for y := 200 - StatusHeight; y < 200; y++ {
			if dst.RGBAAt(x, y) == th.StatusText {
				text = true
				break
			}
		}
	}
	if !text {
		t.Fatalf("status text not drawn")
	}
}

func TestExport(t *testing.T) {
	th := testTheme()
	src := image.NewRGBA(image.Rect(0, 0, 200, 100))
	out := Export(src, []annotation.Init{
		annotation.NewInit("a", geom.NewRect(0.1, 0.1, 0.2, 0.2)),
	}, th)
	if out == src {
		t.Fatalf("Export returned its input")
	}
	// 0.1 of a 200px wide image is 20px on both axes.
	if got := out.RGBAAt(20, 30); got != th.OverlayBorder {
		t.Fatalf("border = %v, want %v", got, th.OverlayBorder)
	}
	if got := src.RGBAAt(20, 30); got != (color.RGBA{}) {
		t.Fatalf("source modified: %v", got)
	}
}

func TestTextWidth(t *testing.T) {
	if got := TextWidth("abc"); got != 21 {
		t.Fatalf("TextWidth = %d, want 21", got)
	}
}
