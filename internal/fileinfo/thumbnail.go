package fileinfo

import (
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// decodeImage decodes any registered format.
func decodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	return img, err
}

// letterbox scales src to fit a dim x dim square, centred, keeping the
// aspect ratio. The margins are filled with bg.
func letterbox(src image.Image, dim int, bg color.Color) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, dim, dim))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	if sw == 0 || sh == 0 {
		return dst
	}
	var w, h int
	if sw >= sh {
		w = dim
		h = max(sh*dim/sw, 1)
	} else {
		h = dim
		w = max(sw*dim/sh, 1)
	}
	x := (dim - w) / 2
	y := (dim - h) / 2
	target := image.Rect(x, y, x+w, y+h)

	// CatmullRom at icon sizes, ApproxBiLinear for thumbnails
	scaler := draw.Interpolator(draw.ApproxBiLinear)
	if dim <= 48 {
		scaler = draw.CatmullRom
	}
	scaler.Scale(dst, target, src, sb, draw.Over, nil)
	return dst
}
