package fileinfo

import (
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"

	"shellview/internal/shell"
)

var glyphColors = map[shell.PerceivedType]color.RGBA{
	shell.PerceivedUnknown:     {R: 0x9e, G: 0x9e, B: 0x9e, A: 0xff},
	shell.PerceivedFolder:      {R: 0xf2, G: 0xc1, B: 0x4e, A: 0xff},
	shell.PerceivedText:        {R: 0x61, G: 0x8f, B: 0xc9, A: 0xff},
	shell.PerceivedImage:       {R: 0x4c, G: 0xaf, B: 0x50, A: 0xff},
	shell.PerceivedAudio:       {R: 0xab, G: 0x47, B: 0xbc, A: 0xff},
	shell.PerceivedVideo:       {R: 0xe5, G: 0x39, B: 0x35, A: 0xff},
	shell.PerceivedCompressed:  {R: 0x8d, G: 0x6e, B: 0x63, A: 0xff},
	shell.PerceivedDocument:    {R: 0x1e, G: 0x88, B: 0xe5, A: 0xff},
	shell.PerceivedApplication: {R: 0x37, G: 0x47, B: 0x4f, A: 0xff},
	shell.PerceivedDrive:       {R: 0x78, G: 0x90, B: 0x9c, A: 0xff},
	shell.PerceivedShare:       {R: 0x00, G: 0x89, B: 0x7b, A: 0xff},
}

var (
	paper   = color.RGBA{R: 0xfa, G: 0xfa, B: 0xfa, A: 0xff}
	outline = color.RGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xff}
)

type classKey struct {
	perceived shell.PerceivedType
	ext       string // set when the platform supplies per-extension icons
	size      int
}

// classIconCache holds one image per class and size. Platform icons are
// preferred; the drawn glyph is the fallback.
type classIconCache struct {
	mu    sync.Mutex
	icons map[classKey]image.Image
}

func newClassIconCache() *classIconCache {
	return &classIconCache{icons: make(map[classKey]image.Image)}
}

func (c *classIconCache) get(p shell.PerceivedType, ext string, size int) image.Image {
	if size <= 0 {
		size = 16
	}
	if !platformClassIcons {
		ext = ""
	}
	k := classKey{p, ext, size}
	c.mu.Lock()
	defer c.mu.Unlock()
	if img, ok := c.icons[k]; ok {
		return img
	}
	var img image.Image
	if ext != "" {
		if pi, err := platformClassIcon(ext, size); err == nil && pi != nil {
			img = pi
		}
	}
	if img == nil {
		img = renderGlyph(p, size)
	}
	c.icons[k] = img
	return img
}

func fill(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func frame(dst draw.Image, r image.Rectangle, c color.Color) {
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), c)
	fill(dst, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), c)
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), c)
	fill(dst, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), c)
}

// renderGlyph draws a flat icon: a tabbed folder, a drive box, or a page
// with a colored band for files.
func renderGlyph(p shell.PerceivedType, size int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	col := glyphColors[p]
	u := max(size/16, 1)

	switch p {
	case shell.PerceivedFolder:
		tab := image.Rect(u, 2*u, size/2, 4*u)
		body := image.Rect(u, 4*u, size-u, size-2*u)
		fill(img, tab, col)
		fill(img, body, col)
		frame(img, body, outline)
	case shell.PerceivedDrive, shell.PerceivedShare:
		body := image.Rect(u, size/4, size-u, size-size/4)
		fill(img, body, col)
		frame(img, body, outline)
		led := image.Rect(size-4*u, size-size/4-3*u, size-2*u, size-size/4-u)
		fill(img, led, color.RGBA{G: 0xe6, A: 0xff})
	default:
		page := image.Rect(3*u, u, size-3*u, size-u)
		fill(img, page, paper)
		frame(img, page, outline)
		band := image.Rect(page.Min.X+u, page.Max.Y-page.Dy()/3, page.Max.X-u, page.Max.Y-u)
		fill(img, band, col)
		corner := image.Rect(page.Max.X-3*u, page.Min.Y, page.Max.X, page.Min.Y+3*u)
		fill(img, corner, col)
	}
	return img
}
