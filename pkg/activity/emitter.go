package activity

import "context"

// Config toggles activity emission.
type Config struct {
	Enabled bool
	Channel string
}

// Emitter stamps a default channel on events and forwards them to hooks.
type Emitter struct {
	hooks Hooks
	cfg   Config
}

// NewEmitter builds an emitter. Without hooks the emitter is disabled.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	return &Emitter{hooks: hooks, cfg: cfg}
}

// Enabled reports whether Emit will deliver anything.
func (e *Emitter) Enabled() bool {
	return e != nil && e.cfg.Enabled && len(e.hooks) > 0
}

// Emit delivers the event when the emitter is enabled.
func (e *Emitter) Emit(ctx context.Context, evt Event) error {
	if !e.Enabled() {
		return nil
	}
	if evt.Channel == "" {
		evt.Channel = e.cfg.Channel
	}
	return e.hooks.Notify(ctx, evt)
}
