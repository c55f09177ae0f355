package modal

import (
	"context"
	"sync"
)

// SubmitFunc handles a form submission.
type SubmitFunc func(ctx context.Context) error

// FormConfig configures a Form.
type FormConfig struct {
	Config
	Title        string
	SubmitLabel  string
	LoadingLabel string
	OnSubmit     SubmitFunc
}

// Form is a modal with a header, body, and footer whose submit button runs
// an async handler. While the handler is pending the controls are disabled
// and escape and overlay dismissal are suspended. A successful submit closes
// the modal; a failed one leaves it open with its data intact.
type Form struct {
	*Base
	mu           sync.Mutex
	title        string
	submitLabel  string
	loadingLabel string
	onSubmit     SubmitFunc
	busy         bool
	dismissible  bool
}

// NewForm builds a closed form modal.
func NewForm(cfg FormConfig) *Form {
	if cfg.SubmitLabel == "" {
		cfg.SubmitLabel = "Save"
	}
	if cfg.LoadingLabel == "" {
		cfg.LoadingLabel = "Saving..."
	}
	return &Form{
		Base:         NewBase(cfg.Config),
		title:        cfg.Title,
		submitLabel:  cfg.SubmitLabel,
		loadingLabel: cfg.LoadingLabel,
		onSubmit:     cfg.OnSubmit,
	}
}

// Title returns the header text.
func (f *Form) Title() string {
	return f.title
}

// Busy reports whether a submission is pending.
func (f *Form) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// SubmitLabel is the submit button text, replaced by the loading label
// while busy.
func (f *Form) SubmitLabel() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return f.loadingLabel
	}
	return f.submitLabel
}

// ControlsEnabled reports whether Cancel and Submit accept clicks.
func (f *Form) ControlsEnabled() bool {
	return f.IsOpen() && !f.Busy()
}

// Submit runs the submit handler. It returns ErrNotOpen when closed and
// ErrBusy when a submission is already pending. The handler's error is
// returned unchanged and the form stays open.
func (f *Form) Submit(ctx context.Context) error {
	if !f.IsOpen() {
		return ErrNotOpen
	}
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return ErrBusy
	}
	f.busy = true
	f.dismissible = f.Base.Dismissible()
	f.mu.Unlock()
	f.Base.SetDismissible(false)

	var err error
	if f.onSubmit != nil {
		err = f.onSubmit(ctx)
	}

	f.mu.Lock()
	f.busy = false
	restore := f.dismissible
	f.mu.Unlock()
	f.Base.SetDismissible(restore)
	if err != nil {
		return err
	}
	// Already closed by the host while the handler ran.
	_ = f.Base.close(ReasonSubmit)
	return nil
}

// Cancel closes the form unless a submission is pending.
func (f *Form) Cancel() error {
	if f.Busy() {
		return ErrBusy
	}
	return f.Base.close(ReasonCancel)
}

// Close closes the form unless a submission is pending.
func (f *Form) Close() error {
	if f.Busy() {
		return ErrBusy
	}
	return f.Base.Close()
}
