package render

import (
	"image"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/osdasl/internal/geom"
	"github.com/example/osdasl/internal/theme"
	"github.com/example/osdasl/internal/viewer"
)

const checkerSize = 8

// StatusHeight is the height of the status bar in pixels.
const StatusHeight = 20

// Scene is everything needed to paint one frame.
type Scene struct {
	Image    image.Image
	Bounds   geom.Rect // image rectangle in viewport pixels
	Overlays []viewer.OverlayView
	Status   string
}

// Frame paints s into dst. The viewport background is filled first, the
// image is scaled into place over a checkerboard, overlays come next and
// the status bar is painted over the bottom edge.
func Frame(dst *image.RGBA, s Scene, th *theme.Theme) {
	b := dst.Bounds()
	Fill(dst, b, th.Background)
	if s.Image != nil {
		r := PixelRect(s.Bounds)
		Checkerboard(dst, r, checkerSize, th.CheckerLight, th.CheckerDark)
		scaler := xdraw.ApproxBiLinear
		if r.Dx() > s.Image.Bounds().Dx() {
			scaler = xdraw.NearestNeighbor
		}
		scaler.Scale(dst, r, s.Image, s.Image.Bounds(), xdraw.Over, nil)
	}
	Overlays(dst, s.Overlays, th)
	if s.Status != "" {
		bar := image.Rect(b.Min.X, b.Max.Y-StatusHeight, b.Max.X, b.Max.Y)
		Status(dst, bar, s.Status, th)
	}
}

// Status paints text left-aligned in rect on the status background.
func Status(dst *image.RGBA, rect image.Rectangle, text string, th *theme.Theme) {
	Fill(dst, rect, th.StatusBackground)
	face := basicfont.Face7x13
	m := face.Metrics()
	baseline := rect.Min.Y + (rect.Dy()+m.Ascent.Ceil()-m.Descent.Ceil())/2
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(th.StatusText),
		Face: face,
		Dot:  fixed.P(rect.Min.X+4, baseline),
	}
	d.DrawString(text)
}

// TextWidth reports the width of text in pixels in the status font.
func TextWidth(text string) int {
	return font.MeasureString(basicfont.Face7x13, text).Ceil()
}
