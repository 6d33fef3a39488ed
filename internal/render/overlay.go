package render

import (
	"image"
	"image/draw"

	"github.com/example/osdasl/internal/annotation"
	"github.com/example/osdasl/internal/geom"
	"github.com/example/osdasl/internal/theme"
	"github.com/example/osdasl/internal/viewer"
)

// Overlays paints every overlay in paint order, handles last.
func Overlays(dst *image.RGBA, views []viewer.OverlayView, th *theme.Theme) {
	for _, v := range views {
		overlay(dst, v, th)
	}
}

func overlay(dst *image.RGBA, v viewer.OverlayView, th *theme.Theme) {
	r := PixelRect(v.Bounds)
	Fill(dst, r, th.OverlayFill)
	switch {
	case v.Markers[viewer.MarkerDragging]:
		DashedRect(dst, r, 4, 2, th.OverlayDragging, th.HandleFill)
	case v.Markers[viewer.MarkerSelected]:
		Rect(dst, r, th.OverlaySelected, 3)
	default:
		Rect(dst, r, th.OverlayBorder, 1)
	}
	for _, p := range v.Parts {
		hr := PixelRect(p.Bounds)
		switch p.Part.Kind {
		case viewer.PartRemove:
			Fill(dst, hr, th.RemoveHandle)
			inner := hr.Inset(2)
			Line(dst, inner.Min.X, inner.Min.Y, inner.Max.X-1, inner.Max.Y-1, th.RemoveGlyph, 1)
			Line(dst, inner.Max.X-1, inner.Min.Y, inner.Min.X, inner.Max.Y-1, th.RemoveGlyph, 1)
		case viewer.PartResize:
			fill := th.HandleFill
			if p.Markers[viewer.MarkerDragging] {
				fill = th.OverlayDragging
			}
			Fill(dst, hr, fill)
			Rect(dst, hr, th.HandleBorder, 1)
		}
	}
}

// Export paints inits onto a copy of img at image resolution. Locations
// are normalized so that the image width spans 1.
func Export(img *image.RGBA, inits []annotation.Init, th *theme.Theme) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	scale := float64(b.Dx())
	for _, init := range inits {
		loc := init.Rect()
		r := PixelRect(geom.NewRect(loc.X*scale, loc.Y*scale, loc.Width*scale, loc.Height*scale))
		Fill(out, r, th.OverlayFill)
		Rect(out, r, th.OverlayBorder, 2)
	}
	return out
}
