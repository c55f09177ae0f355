package client

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MutationStatus is the lifecycle stage of an optimistic mutation.
type MutationStatus string

const (
	StatusPending   MutationStatus = "pending"
	StatusCommitted MutationStatus = "committed"
	StatusFailed    MutationStatus = "failed"
)

// MutationState is the latest known outcome for one key.
type MutationState struct {
	Key        string         `json:"key"`
	Status     MutationStatus `json:"status"`
	Err        error          `json:"-"`
	RolledBack bool           `json:"rolledBack"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// Mutation describes one optimistic change. Apply updates local state
// immediately, Persist sends it, and Rollback restores the previous local
// state when Persist fails.
type Mutation struct {
	Key      string
	Apply    func()
	Persist  func(ctx context.Context) error
	Rollback func()
}

// MutationTracker applies local changes before they are persisted and rolls
// them back visibly when persistence fails. Only the newest mutation for a
// key may roll back, so an older failure never clobbers newer local state.
type MutationTracker struct {
	mu       sync.Mutex
	now      func() time.Time
	states   map[string]MutationState
	latest   map[string]uint64
	seq      uint64
	onChange func(MutationState)
}

// TrackerOption customizes a MutationTracker.
type TrackerOption func(*MutationTracker)

// WithClock overrides the tracker's time source.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *MutationTracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithChangeHandler registers a callback invoked after every state change.
func WithChangeHandler(fn func(MutationState)) TrackerOption {
	return func(t *MutationTracker) {
		t.onChange = fn
	}
}

// NewMutationTracker builds an empty tracker.
func NewMutationTracker(opts ...TrackerOption) *MutationTracker {
	t := &MutationTracker{
		now:    time.Now,
		states: map[string]MutationState{},
		latest: map[string]uint64{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run applies m locally, persists it, and records the outcome. The persist
// error is returned unchanged.
func (t *MutationTracker) Run(ctx context.Context, m Mutation) error {
	if m.Apply != nil {
		m.Apply()
	}
	t.mu.Lock()
	t.seq++
	id := t.seq
	t.latest[m.Key] = id
	pending := t.setLocked(MutationState{Key: m.Key, Status: StatusPending})
	t.mu.Unlock()
	t.notify(pending)

	var err error
	if m.Persist != nil {
		err = m.Persist(ctx)
	}

	t.mu.Lock()
	current := t.latest[m.Key] == id
	if !current {
		t.mu.Unlock()
		return err
	}
	var final MutationState
	if err != nil {
		rolledBack := false
		if m.Rollback != nil {
			m.Rollback()
			rolledBack = true
		}
		final = t.setLocked(MutationState{Key: m.Key, Status: StatusFailed, Err: err, RolledBack: rolledBack})
	} else {
		final = t.setLocked(MutationState{Key: m.Key, Status: StatusCommitted})
	}
	t.mu.Unlock()
	t.notify(final)
	return err
}

func (t *MutationTracker) setLocked(state MutationState) MutationState {
	state.UpdatedAt = t.now()
	t.states[state.Key] = state
	return state
}

func (t *MutationTracker) notify(state MutationState) {
	if t.onChange != nil {
		t.onChange(state)
	}
}

// State returns the latest state for key.
func (t *MutationTracker) State(key string) (MutationState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.states[key]
	return state, ok
}

// Pending lists keys with an unresolved mutation, sorted.
func (t *MutationTracker) Pending() []string {
	return t.keysWith(StatusPending)
}

// Failed lists keys whose latest mutation failed, sorted.
func (t *MutationTracker) Failed() []string {
	return t.keysWith(StatusFailed)
}

func (t *MutationTracker) keysWith(status MutationStatus) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var keys []string
	for key, state := range t.states {
		if state.Status == status {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Forget drops a resolved entry, for example after the operator dismisses a
// failure banner. Pending entries are kept.
func (t *MutationTracker) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if state, ok := t.states[key]; ok && state.Status != StatusPending {
		delete(t.states, key)
	}
}
