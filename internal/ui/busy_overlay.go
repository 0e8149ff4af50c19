package ui

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// busyBlocker is a full-window widget that swallows taps so the list
// underneath cannot be used while a folder is loading.
type busyBlocker struct {
	widget.BaseWidget
	content *fyne.Container
}

func newBusyBlocker(content *fyne.Container) *busyBlocker {
	b := &busyBlocker{content: content}
	b.ExtendBaseWidget(b)
	return b
}

func (b *busyBlocker) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(b.content)
}

func (b *busyBlocker) Tapped(_ *fyne.PointEvent)          {}
func (b *busyBlocker) TappedSecondary(_ *fyne.PointEvent) {}

// BusyOverlay is shown while a slow enumeration runs. Fast navigations
// finish before the delay passes and never flash it.
type BusyOverlay struct {
	spinner   *widget.ProgressBarInfinite
	label     *widget.Label
	cancelBtn *widget.Button
	root      *fyne.Container

	mu       sync.Mutex
	gen      uint64
	visible  bool
	onCancel func()
}

func NewBusyOverlay() *BusyOverlay {
	bo := &BusyOverlay{}
	bo.spinner = widget.NewProgressBarInfinite()
	bo.label = widget.NewLabel("Loading...")
	bo.label.Alignment = fyne.TextAlignCenter
	bo.label.Importance = widget.HighImportance
	bo.cancelBtn = widget.NewButton("Cancel", bo.cancel)

	bg := canvas.NewRectangle(color.NRGBA{R: 0, G: 0, B: 0, A: 96})
	panel := container.NewPadded(container.NewVBox(bo.spinner, bo.label, container.NewCenter(bo.cancelBtn)))
	bo.root = container.NewStack(newBusyBlocker(container.NewStack(bg, container.NewCenter(panel))))
	bo.root.Hide()
	return bo
}

// GetContainer returns the overlay for stacking above the window content.
func (bo *BusyOverlay) GetContainer() *fyne.Container { return bo.root }

// Begin shows the overlay with text once delay has passed, unless End
// is called first. onCancel runs when the user presses Cancel.
func (bo *BusyOverlay) Begin(text string, delay time.Duration, onCancel func()) {
	bo.mu.Lock()
	bo.gen++
	gen := bo.gen
	bo.onCancel = onCancel
	bo.mu.Unlock()

	time.AfterFunc(delay, func() {
		fyne.Do(func() {
			bo.mu.Lock()
			current := gen == bo.gen
			if current {
				bo.visible = true
			}
			bo.mu.Unlock()
			if !current {
				return
			}
			bo.label.SetText(text)
			bo.cancelBtn.Enable()
			bo.spinner.Start()
			bo.root.Show()
		})
	})
}

// End hides the overlay and discards a pending Begin. Call it on the
// fyne goroutine.
func (bo *BusyOverlay) End() {
	bo.mu.Lock()
	bo.gen++
	bo.onCancel = nil
	wasVisible := bo.visible
	bo.visible = false
	bo.mu.Unlock()
	if wasVisible {
		bo.spinner.Stop()
		bo.root.Hide()
	}
}

func (bo *BusyOverlay) cancel() {
	bo.mu.Lock()
	fn := bo.onCancel
	bo.mu.Unlock()
	if fn != nil {
		bo.cancelBtn.Disable()
		bo.label.SetText("Canceling...")
		fn()
	}
}

// IsVisible reports whether the overlay is on screen.
func (bo *BusyOverlay) IsVisible() bool {
	bo.mu.Lock()
	defer bo.mu.Unlock()
	return bo.visible
}
