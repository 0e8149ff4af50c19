package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"shellview/internal/keymanager"
)

// KeySink is a focusable wrapper that forwards every key event to a
// KeyManager. Wrapping the list in one keeps fyne's own list key
// handling and Tab traversal out of the way.
type KeySink struct {
	widget.BaseWidget
	Content   fyne.CanvasObject
	km        *keymanager.KeyManager
	acceptTab bool
	onFocus   func(focused bool)
}

// KeySinkOption customizes KeySink behavior.
type KeySinkOption func(*KeySink)

// WithTabCapture toggles Tab key capture for focus traversal suppression.
func WithTabCapture(on bool) KeySinkOption { return func(k *KeySink) { k.acceptTab = on } }

// WithFocusCallback reports focus changes, e.g. to dim the cursor.
func WithFocusCallback(fn func(focused bool)) KeySinkOption {
	return func(k *KeySink) { k.onFocus = fn }
}

// NewKeySink wraps content. Tab is captured unless disabled.
func NewKeySink(content fyne.CanvasObject, km *keymanager.KeyManager, opts ...KeySinkOption) *KeySink {
	k := &KeySink{Content: content, km: km, acceptTab: true}
	for _, o := range opts {
		o(k)
	}
	k.ExtendBaseWidget(k)
	return k
}

func (k *KeySink) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(k.Content)
}

func (k *KeySink) FocusGained() {
	if k.onFocus != nil {
		k.onFocus(true)
	}
}

func (k *KeySink) FocusLost() {
	if k.onFocus != nil {
		k.onFocus(false)
	}
}

func (k *KeySink) TypedKey(ev *fyne.KeyEvent) {
	if k.km != nil {
		k.km.HandleTypedKey(ev)
	}
}

func (k *KeySink) TypedRune(r rune) {
	if k.km != nil {
		k.km.HandleTypedRune(r)
	}
}

func (k *KeySink) KeyDown(ev *fyne.KeyEvent) {
	if k.km != nil {
		k.km.HandleKeyDown(ev)
	}
}

func (k *KeySink) KeyUp(ev *fyne.KeyEvent) {
	if k.km != nil {
		k.km.HandleKeyUp(ev)
	}
}

// AcceptsTab indicates whether to capture Tab, preventing focus traversal.
func (k *KeySink) AcceptsTab() bool { return k.acceptTab }
