package capture

import (
	"fmt"
	"image"
)

// zPixmapToRGBA converts little-endian BGR(A) Z-pixmap rows to RGBA.
func zPixmapToRGBA(data []byte, width, height, bitsPerPixel int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("screen has empty geometry")
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("screen pixels: empty image data")
	}
	bytesPerPixel := bitsPerPixel / 8
	if bytesPerPixel < 3 {
		return nil, fmt.Errorf("unsupported pixel format %d bpp", bitsPerPixel)
	}
	stride := len(data) / height
	if stride*height != len(data) || stride < width*bytesPerPixel {
		return nil, fmt.Errorf("screen pixels: unexpected stride")
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := data[y*stride:]
		for x := 0; x < width; x++ {
			src := row[x*bytesPerPixel:]
			dst := img.Pix[img.PixOffset(x, y):]
			dst[0], dst[1], dst[2] = src[2], src[1], src[0]
			// Depth 24 visuals leave the padding byte undefined.
			dst[3] = 0xFF
		}
	}
	return img, nil
}
