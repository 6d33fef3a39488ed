// Package render paints the image, its annotation overlays and the status
// line into RGBA buffers.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/example/osdasl/internal/geom"
)

// PixelRect rounds a pixel-space rectangle to integer bounds. Inverted
// rectangles are canonicalized first.
func PixelRect(r geom.Rect) image.Rectangle {
	r = r.Canon()
	return image.Rect(
		int(math.Round(r.X)),
		int(math.Round(r.Y)),
		int(math.Round(r.X+r.Width)),
		int(math.Round(r.Y+r.Height)),
	)
}

func setThickPixel(img *image.RGBA, x, y, thick int, col color.Color) {
	r := thick / 2
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			if image.Pt(x+dx, y+dy).In(img.Bounds()) {
				img.Set(x+dx, y+dy, col)
			}
		}
	}
}

// Line draws a Bresenham line with the given thickness.
func Line(img *image.RGBA, x0, y0, x1, y1 int, col color.Color, thick int) {
	dx := abs(x1 - x0)
	dy := abs(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		setThickPixel(img, x0, y0, thick, col)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Rect outlines rect. The outline sits on the inner edge pixels.
func Rect(img *image.RGBA, rect image.Rectangle, col color.Color, thick int) {
	if rect.Empty() {
		return
	}
	x0, y0, x1, y1 := rect.Min.X, rect.Min.Y, rect.Max.X-1, rect.Max.Y-1
	Line(img, x0, y0, x1, y0, col, thick)
	Line(img, x1, y0, x1, y1, col, thick)
	Line(img, x1, y1, x0, y1, col, thick)
	Line(img, x0, y1, x0, y0, col, thick)
}

// DashedRect outlines rect alternating c1 and c2 every dash pixels.
func DashedRect(img *image.RGBA, rect image.Rectangle, dash, thick int, c1, c2 color.Color) {
	if rect.Empty() || dash <= 0 {
		return
	}
	x0, y0, x1, y1 := rect.Min.X, rect.Min.Y, rect.Max.X-1, rect.Max.Y-1
	n := 0
	plot := func(x, y int) {
		col := c1
		if (n/dash)%2 == 1 {
			col = c2
		}
		setThickPixel(img, x, y, thick, col)
		n++
	}
	for x := x0; x <= x1; x++ {
		plot(x, y0)
	}
	for y := y0 + 1; y <= y1; y++ {
		plot(x1, y)
	}
	for x := x1 - 1; x >= x0; x-- {
		plot(x, y1)
	}
	for y := y1 - 1; y > y0; y-- {
		plot(x0, y)
	}
}

// Fill composites col over rect.
func Fill(img *image.RGBA, rect image.Rectangle, col color.Color) {
	draw.Draw(img, rect, image.NewUniform(col), image.Point{}, draw.Over)
}

// Checkerboard fills rect with alternating squares of the given size.
func Checkerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.Color) {
	rect = rect.Intersect(dst.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if ((x/size)+(y/size))%2 == 0 {
				dst.Set(x, y, light)
			} else {
				dst.Set(x, y, dark)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
