package keymanager

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// ModifierState is the set of modifier keys held down when an event
// is routed.
type ModifierState struct {
	ShiftPressed bool
	CtrlPressed  bool
	AltPressed   bool
}

// KeyHandler handles keyboard events for one screen or dialog.
// Each method reports whether the event was consumed.
type KeyHandler interface {
	OnKeyDown(ev *fyne.KeyEvent, modifiers ModifierState) bool
	OnKeyUp(ev *fyne.KeyEvent, modifiers ModifierState) bool
	OnTypedKey(ev *fyne.KeyEvent, modifiers ModifierState) bool
	OnTypedRune(r rune, modifiers ModifierState) bool

	// GetName returns a descriptive name for this handler (for debugging)
	GetName() string
}

// KeyManager routes events to the handler on top of its stack and
// tracks modifier keys itself, so handlers see a consistent state even
// when a dialog was pushed while a modifier was held.
type KeyManager struct {
	mu         sync.RWMutex
	handlers   []KeyHandler
	modifiers  ModifierState
	debugPrint func(format string, args ...interface{})
}

// NewKeyManager creates an empty KeyManager. debugPrint may be nil.
func NewKeyManager(debugPrint func(format string, args ...interface{})) *KeyManager {
	return &KeyManager{debugPrint: debugPrint}
}

func (km *KeyManager) dbg(format string, args ...interface{}) {
	if km.debugPrint != nil {
		km.debugPrint("keymanager: "+format, args...)
	}
}

// PushHandler makes handler the receiver of all events until popped.
func (km *KeyManager) PushHandler(handler KeyHandler) {
	km.mu.Lock()
	km.handlers = append(km.handlers, handler)
	n := len(km.handlers)
	km.mu.Unlock()
	km.dbg("pushed %s, stack size %d", handler.GetName(), n)
}

// PopHandler removes and returns the top handler.
func (km *KeyManager) PopHandler() KeyHandler {
	km.mu.Lock()
	if len(km.handlers) == 0 {
		km.mu.Unlock()
		km.dbg("pop from empty stack")
		return nil
	}
	handler := km.handlers[len(km.handlers)-1]
	km.handlers = km.handlers[:len(km.handlers)-1]
	n := len(km.handlers)
	km.mu.Unlock()
	km.dbg("popped %s, stack size %d", handler.GetName(), n)
	return handler
}

// RemoveHandler drops handler wherever it sits in the stack. Dialogs
// closed out of order use it instead of PopHandler.
func (km *KeyManager) RemoveHandler(handler KeyHandler) bool {
	km.mu.Lock()
	defer km.mu.Unlock()
	for i := len(km.handlers) - 1; i >= 0; i-- {
		if km.handlers[i] == handler {
			km.handlers = append(km.handlers[:i], km.handlers[i+1:]...)
			return true
		}
	}
	return false
}

// GetCurrentHandler returns the top handler without removing it.
func (km *KeyManager) GetCurrentHandler() KeyHandler {
	km.mu.RLock()
	defer km.mu.RUnlock()
	if len(km.handlers) == 0 {
		return nil
	}
	return km.handlers[len(km.handlers)-1]
}

// Modifiers returns the modifier keys currently held.
func (km *KeyManager) Modifiers() ModifierState {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.modifiers
}

func (km *KeyManager) setModifier(name fyne.KeyName, down bool) bool {
	km.mu.Lock()
	defer km.mu.Unlock()
	switch name {
	case desktop.KeyShiftLeft, desktop.KeyShiftRight:
		km.modifiers.ShiftPressed = down
	case desktop.KeyControlLeft, desktop.KeyControlRight:
		km.modifiers.CtrlPressed = down
	case desktop.KeyAltLeft, desktop.KeyAltRight:
		km.modifiers.AltPressed = down
	default:
		return false
	}
	return true
}

// HandleKeyDown routes a desktop key down event.
func (km *KeyManager) HandleKeyDown(ev *fyne.KeyEvent) {
	km.setModifier(ev.Name, true)
	if h := km.GetCurrentHandler(); h != nil {
		handled := h.OnKeyDown(ev, km.Modifiers())
		km.dbg("KeyDown %s handled by %s: %t", ev.Name, h.GetName(), handled)
	}
}

// HandleKeyUp routes a desktop key up event.
func (km *KeyManager) HandleKeyUp(ev *fyne.KeyEvent) {
	km.setModifier(ev.Name, false)
	if h := km.GetCurrentHandler(); h != nil {
		h.OnKeyUp(ev, km.Modifiers())
	}
}

// HandleTypedKey routes a typed key event.
func (km *KeyManager) HandleTypedKey(ev *fyne.KeyEvent) {
	if h := km.GetCurrentHandler(); h != nil {
		handled := h.OnTypedKey(ev, km.Modifiers())
		km.dbg("TypedKey %s handled by %s: %t", ev.Name, h.GetName(), handled)
	}
}

// HandleTypedRune routes a typed rune.
func (km *KeyManager) HandleTypedRune(r rune) {
	if h := km.GetCurrentHandler(); h != nil {
		h.OnTypedRune(r, km.Modifiers())
	}
}

// GetStackSize returns the current number of handlers in the stack.
func (km *KeyManager) GetStackSize() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.handlers)
}

// ListHandlers returns the names of all handlers, bottom first.
func (km *KeyManager) ListHandlers() []string {
	km.mu.RLock()
	defer km.mu.RUnlock()
	names := make([]string, len(km.handlers))
	for i, handler := range km.handlers {
		names[i] = handler.GetName()
	}
	return names
}
