package commands

import (
	"context"

	admin "github.com/goliatone/go-messmass/components/admin"
)

// Result receives the record a command produced. Commanders only return an
// error, so transports that need the stored entity pass a Result in the
// message and read it back after Execute.
type Result[T any] struct {
	value T
	set   bool
}

// Store records v. Calling Store on a nil Result is a no-op.
func (r *Result[T]) Store(v T) {
	if r == nil {
		return
	}
	r.value = v
	r.set = true
}

// Load returns the stored value and whether Store was called.
func (r *Result[T]) Load() (T, bool) {
	if r == nil {
		var zero T
		return zero, false
	}
	return r.value, r.set
}

// Actor identifies who issued a mutation. It is copied into the context so
// the service can attribute activity events.
type Actor struct {
	ActorID  string `json:"actor_id,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
}

func (a Actor) apply(ctx context.Context) context.Context {
	if a == (Actor{}) {
		return ctx
	}
	return admin.ContextWithActivity(ctx, admin.ActivityContext{
		ActorID:  a.ActorID,
		UserID:   a.UserID,
		TenantID: a.TenantID,
	})
}
