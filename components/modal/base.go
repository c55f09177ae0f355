package modal

import (
	"errors"
	"sync"
)

// State is the lifecycle stage shared by every modal.
type State string

const (
	StateClosed  State = "closed"
	StateOpen    State = "open"
	StateClosing State = "closing"
)

// Key is a keyboard key the modal reacts to.
type Key string

const (
	KeyEscape   Key = "Escape"
	KeyTab      Key = "Tab"
	KeyShiftTab Key = "Shift+Tab"
)

// CloseReason records what dismissed a modal.
type CloseReason string

const (
	ReasonEscape   CloseReason = "escape"
	ReasonOverlay  CloseReason = "overlay"
	ReasonExplicit CloseReason = "explicit"
	ReasonSubmit   CloseReason = "submit"
	ReasonConfirm  CloseReason = "confirm"
	ReasonCancel   CloseReason = "cancel"
)

var (
	// ErrNotOpen is returned by operations that need an open modal.
	ErrNotOpen = errors.New("modal: not open")
	// ErrBusy is returned while a form submission is pending.
	ErrBusy = errors.New("modal: submission in progress")
)

// Focuser reports and moves keyboard focus in the host document.
type Focuser interface {
	Active() string
	Focus(id string)
}

// ScrollLocker suspends and restores document scrolling.
type ScrollLocker interface {
	Lock()
	Unlock()
}

// Config configures a Base modal.
type Config struct {
	// Focusable lists the ids of focusable elements inside the modal in tab
	// order. Focus is trapped within this list while open.
	Focusable []string
	// DisableEscape keeps Escape from closing the modal.
	DisableEscape bool
	// DisableOverlayClose keeps clicks outside the content from closing it.
	DisableOverlayClose bool
	Focus               Focuser
	Scroll              ScrollLocker
	OnClose             func(CloseReason)
}

// Base is the overlay behavior every dialog shares: focus trap, escape and
// overlay dismissal, scroll lock, and focus restore on close.
type Base struct {
	mu        sync.Mutex
	cfg       Config
	state     State
	restoreTo string
	focusIdx  int
	locked    bool
}

// NewBase builds a closed modal.
func NewBase(cfg Config) *Base {
	return &Base{cfg: cfg, state: StateClosed}
}

// State returns the current lifecycle stage.
func (b *Base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsOpen reports whether the modal is open.
func (b *Base) IsOpen() bool {
	return b.State() == StateOpen
}

// Open shows the modal, remembers the focused element, locks scrolling, and
// focuses the first focusable element. Opening an open modal is a no-op.
func (b *Base) Open() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateClosed {
		return
	}
	b.state = StateOpen
	b.focusIdx = 0
	if b.cfg.Focus != nil {
		b.restoreTo = b.cfg.Focus.Active()
		if len(b.cfg.Focusable) > 0 {
			b.cfg.Focus.Focus(b.cfg.Focusable[0])
		}
	}
	if b.cfg.Scroll != nil {
		b.cfg.Scroll.Lock()
		b.locked = true
	}
}

// Close dismisses the modal explicitly.
func (b *Base) Close() error {
	return b.close(ReasonExplicit)
}

// HandleKey routes a key press. Escape closes unless disabled; Tab and
// Shift+Tab cycle focus inside the modal and are always consumed while it
// is open. It reports whether the key was consumed.
func (b *Base) HandleKey(key Key) bool {
	switch key {
	case KeyEscape:
		b.mu.Lock()
		allowed := b.state == StateOpen && !b.cfg.DisableEscape
		b.mu.Unlock()
		if !allowed {
			return false
		}
		return b.close(ReasonEscape) == nil
	case KeyTab:
		return b.moveFocus(1)
	case KeyShiftTab:
		return b.moveFocus(-1)
	}
	return false
}

// ClickOverlay handles a click outside the modal content.
func (b *Base) ClickOverlay() bool {
	b.mu.Lock()
	allowed := b.state == StateOpen && !b.cfg.DisableOverlayClose
	b.mu.Unlock()
	if !allowed {
		return false
	}
	return b.close(ReasonOverlay) == nil
}

// SetDismissible enables or disables escape and overlay dismissal.
func (b *Base) SetDismissible(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg.DisableEscape = !enabled
	b.cfg.DisableOverlayClose = !enabled
}

// Dismissible reports whether escape and overlay dismissal are both
// enabled.
func (b *Base) Dismissible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.cfg.DisableEscape && !b.cfg.DisableOverlayClose
}

// Focused returns the id focus is trapped on.
func (b *Base) Focused() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateOpen || len(b.cfg.Focusable) == 0 {
		return ""
	}
	return b.cfg.Focusable[b.focusIdx]
}

func (b *Base) moveFocus(step int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateOpen {
		return false
	}
	n := len(b.cfg.Focusable)
	if n == 0 {
		return true
	}
	b.focusIdx = ((b.focusIdx+step)%n + n) % n
	if b.cfg.Focus != nil {
		b.cfg.Focus.Focus(b.cfg.Focusable[b.focusIdx])
	}
	return true
}

// close walks open -> closing -> closed, restoring scroll and focus.
func (b *Base) close(reason CloseReason) error {
	b.mu.Lock()
	if b.state != StateOpen {
		b.mu.Unlock()
		return ErrNotOpen
	}
	b.state = StateClosing
	if b.locked && b.cfg.Scroll != nil {
		b.cfg.Scroll.Unlock()
		b.locked = false
	}
	if b.cfg.Focus != nil && b.restoreTo != "" {
		b.cfg.Focus.Focus(b.restoreTo)
	}
	b.restoreTo = ""
	b.state = StateClosed
	onClose := b.cfg.OnClose
	b.mu.Unlock()
	if onClose != nil {
		onClose(reason)
	}
	return nil
}
