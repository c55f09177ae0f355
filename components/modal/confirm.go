package modal

import "context"

// Variant is the visual tone of a confirm dialog.
type Variant string

const (
	VariantDanger  Variant = "danger"
	VariantWarning Variant = "warning"
	VariantInfo    Variant = "info"
)

// ConfirmConfig configures a Confirm dialog.
type ConfirmConfig struct {
	Config
	Title        string
	Message      string
	ConfirmLabel string
	CancelLabel  string
	Variant      Variant
	OnConfirm    func(ctx context.Context) error
}

// Confirm is a binary confirm/cancel decision. Confirming runs the callback
// and then closes, whatever the callback returned. There is no busy state.
type Confirm struct {
	*Base
	cfg ConfirmConfig
}

// NewConfirm builds a closed confirm dialog. Unknown variants fall back to
// danger.
func NewConfirm(cfg ConfirmConfig) *Confirm {
	switch cfg.Variant {
	case VariantDanger, VariantWarning, VariantInfo:
	default:
		cfg.Variant = VariantDanger
	}
	if cfg.ConfirmLabel == "" {
		cfg.ConfirmLabel = "Confirm"
	}
	if cfg.CancelLabel == "" {
		cfg.CancelLabel = "Cancel"
	}
	return &Confirm{Base: NewBase(cfg.Config), cfg: cfg}
}

// Variant returns the dialog tone.
func (c *Confirm) Variant() Variant { return c.cfg.Variant }

// Title returns the heading text.
func (c *Confirm) Title() string { return c.cfg.Title }

// Message returns the body text.
func (c *Confirm) Message() string { return c.cfg.Message }

// Labels returns the confirm and cancel button labels.
func (c *Confirm) Labels() (confirm, cancel string) {
	return c.cfg.ConfirmLabel, c.cfg.CancelLabel
}

// Confirm invokes the callback and closes the dialog. The callback error is
// returned for the calling page to display.
func (c *Confirm) Confirm(ctx context.Context) error {
	if !c.IsOpen() {
		return ErrNotOpen
	}
	var err error
	if c.cfg.OnConfirm != nil {
		err = c.cfg.OnConfirm(ctx)
	}
	_ = c.Base.close(ReasonConfirm)
	return err
}

// Cancel closes the dialog without invoking the callback.
func (c *Confirm) Cancel() error {
	return c.Base.close(ReasonCancel)
}
