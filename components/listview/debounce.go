package listview

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before a typed search is applied.
const DefaultDebounce = 300 * time.Millisecond

// Timer is the subset of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed callbacks. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock schedules with the time package.
var SystemClock Clock = realClock{}

// Debouncer holds a raw search string and emits it once it has been stable
// for the configured delay. Every change restarts the wait, so one value is
// emitted per pause and it is always the latest raw value.
type Debouncer struct {
	mu        sync.Mutex
	clock     Clock
	delay     time.Duration
	raw       string
	debounced string
	timer     Timer
	seq       uint64
	closed    bool
	emit      func(string)
}

// NewDebouncer builds a debouncer that calls emit with each settled value.
// A nil clock uses SystemClock and a non-positive delay uses
// DefaultDebounce.
func NewDebouncer(clock Clock, delay time.Duration, emit func(string)) *Debouncer {
	if clock == nil {
		clock = SystemClock
	}
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{clock: clock, delay: delay, emit: emit}
}

// Set records a new raw value and restarts the quiet period.
func (d *Debouncer) Set(raw string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.raw = raw
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(seq) })
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if d.closed || seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.debounced = d.raw
	value := d.debounced
	emit := d.emit
	d.mu.Unlock()
	if emit != nil {
		emit(value)
	}
}

// Raw returns the latest typed value.
func (d *Debouncer) Raw() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.raw
}

// Debounced returns the last settled value.
func (d *Debouncer) Debounced() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.debounced
}

// Pending reports whether a change is waiting for its quiet period.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Close stops any pending timer. Later calls to Set are ignored.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
