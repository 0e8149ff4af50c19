package ui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

var (
	overlayGlyphs = map[int]string{1: "L", 2: "S", 3: "R"}
	shieldColor   = color.NRGBA{R: 220, G: 160, B: 0, A: 255}
	overlayColor  = color.NRGBA{R: 40, G: 120, B: 220, A: 255}
	selectedColor = color.NRGBA{R: 100, G: 150, B: 200, A: 90}
)

// RowCell draws one list row: icon with its badges, then one label per
// column. It is recycled by the list, so every field is rewritten on
// each bind.
type RowCell struct {
	widget.BaseWidget

	icon     *canvas.Image
	overlay  *canvas.Text
	shield   *canvas.Text
	selected *canvas.Rectangle
	labels   []*widget.Label
	layout   *columnsLayout
	content  *fyne.Container

	row         int
	onDoubleTap func(row int)
}

// NewRowCell creates a cell with one label per entry of widths.
func NewRowCell(iconSize float32, widths []float32, onDoubleTap func(row int)) *RowCell {
	c := &RowCell{row: -1, onDoubleTap: onDoubleTap}
	c.icon = canvas.NewImageFromImage(nil)
	c.icon.FillMode = canvas.ImageFillContain
	c.icon.SetMinSize(fyne.NewSquareSize(iconSize))

	badgeSize := max(theme.CaptionTextSize(), iconSize/3)
	c.overlay = canvas.NewText("", overlayColor)
	c.overlay.TextSize = badgeSize
	c.overlay.TextStyle.Bold = true
	c.shield = canvas.NewText("", shieldColor)
	c.shield.TextSize = badgeSize
	c.shield.TextStyle.Bold = true

	iconStack := container.NewStack(
		c.icon,
		container.NewBorder(nil, container.NewHBox(c.overlay), nil, nil),
		container.NewBorder(nil, container.NewBorder(nil, nil, nil, c.shield), nil, nil),
	)

	c.layout = &columnsLayout{iconSize: iconSize, widths: widths}
	objects := []fyne.CanvasObject{iconStack}
	for range widths {
		l := widget.NewLabel("")
		l.Truncation = fyne.TextTruncateEllipsis
		c.labels = append(c.labels, l)
		objects = append(objects, l)
	}
	c.selected = canvas.NewRectangle(selectedColor)
	c.selected.Hide()
	c.content = container.NewStack(c.selected, container.New(c.layout, objects...))
	c.ExtendBaseWidget(c)
	return c
}

// CreateRenderer creates the widget renderer
func (c *RowCell) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(c.content)
}

// DoubleTapped invokes the row. Single taps fall through to the list,
// which moves the cursor.
func (c *RowCell) DoubleTapped(_ *fyne.PointEvent) {
	if c.onDoubleTap != nil && c.row >= 0 {
		c.onDoubleTap(c.row)
	}
}

// SetIcon shows img, or nothing when img is nil.
func (c *RowCell) SetIcon(img image.Image) {
	if c.icon.Image == img {
		return
	}
	c.icon.Image = img
	c.icon.Refresh()
}

func (c *RowCell) setIconSize(size float32) {
	if c.layout.iconSize == size {
		return
	}
	c.layout.iconSize = size
	c.icon.SetMinSize(fyne.NewSquareSize(size))
	c.content.Refresh()
}

// SetBadges draws the overlay and shield badges; 0 hides a badge.
func (c *RowCell) SetBadges(overlay, shield int) {
	setText(c.overlay, overlayGlyphs[overlay])
	if shield > 0 {
		setText(c.shield, "!")
	} else {
		setText(c.shield, "")
	}
}

// SetCells writes the column texts. Missing entries are blanked.
func (c *RowCell) SetCells(texts []string) {
	for i, l := range c.labels {
		text := ""
		if i < len(texts) {
			text = texts[i]
		}
		if l.Text != text {
			l.SetText(text)
		}
	}
}

// SetSelected toggles the selection background.
func (c *RowCell) SetSelected(on bool) {
	if on == c.selected.Visible() {
		return
	}
	if on {
		c.selected.Show()
	} else {
		c.selected.Hide()
	}
}

func setText(t *canvas.Text, s string) {
	if t.Text == s {
		return
	}
	t.Text = s
	t.Refresh()
}

// columnsLayout places a square icon followed by fixed-width columns;
// the first column takes whatever width the others leave.
type columnsLayout struct {
	iconSize float32
	widths   []float32
}

func (l *columnsLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if len(objects) == 0 {
		return
	}
	pad := theme.Padding()
	objects[0].Resize(fyne.NewSquareSize(l.iconSize))
	objects[0].Move(fyne.NewPos(pad, (size.Height-l.iconSize)/2))

	fixed := float32(0)
	for _, w := range l.widths[min(1, len(l.widths)):] {
		fixed += w
	}
	x := pad*2 + l.iconSize
	nameWidth := max(size.Width-x-fixed, 0)
	for i, obj := range objects[1:] {
		w := nameWidth
		if i > 0 && i < len(l.widths) {
			w = l.widths[i]
		}
		obj.Resize(fyne.NewSize(w, size.Height))
		obj.Move(fyne.NewPos(x, 0))
		x += w
	}
}

func (l *columnsLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	h := l.iconSize
	for _, obj := range objects[min(1, len(objects)):] {
		h = max(h, obj.MinSize().Height)
	}
	w := theme.Padding()*2 + l.iconSize
	for _, cw := range l.widths {
		w += cw
	}
	return fyne.NewSize(w, h)
}
