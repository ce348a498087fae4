// Package frame provides the per-frame tick source that drives sessions.
//
// A [Loop] holds a table of tick callbacks. Each call to [Loop.Tick]
// delivers exactly one tick to every registered callback, synchronously, on
// the calling goroutine. Hosts either call Tick from their own frame
// callback (a display link, an ebiten Update, a test) or hand the goroutine
// to [Loop.Run], which ticks at a fixed interval until its context ends.
//
// Callbacks never run concurrently with each other. Work that originates on
// other goroutines is queued with [Loop.Dispatch] and runs at the start of
// the next tick, before the callbacks.
package frame

import (
	"context"
	"slices"
	"sync"
	"time"
)

// DefaultInterval is the tick interval used by Run when none is given.
const DefaultInterval = time.Second / 60

// Default is the process-wide loop used by sessions created without an
// explicit scheduler.
var Default = NewLoop(nil)

// Callback receives the frame time of one tick.
type Callback func(now time.Time)

// Handle identifies a registered callback.
type Handle uint64

// Loop delivers ticks to registered callbacks.
type Loop struct {
	clock Clock

	mu        sync.Mutex
	callbacks map[Handle]Callback
	order     []Handle
	nextID    Handle
	queue     []func()
	frames    uint64
}

// NewLoop creates a loop reading time from clock. A nil clock uses
// system time.
func NewLoop(clock Clock) *Loop {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Loop{
		clock:     clock,
		callbacks: make(map[Handle]Callback),
	}
}

// Clock returns the loop's time source.
func (l *Loop) Clock() Clock {
	return l.clock
}

// Register adds a tick callback and returns its handle. Callbacks run in
// registration order.
func (l *Loop) Register(cb Callback) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	id := l.nextID
	l.callbacks[id] = cb
	l.order = append(l.order, id)
	return id
}

// Unregister removes a callback. Unknown handles are ignored.
func (l *Loop) Unregister(h Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.callbacks[h]; !ok {
		return
	}
	delete(l.callbacks, h)
	if i := slices.Index(l.order, h); i >= 0 {
		l.order = slices.Delete(l.order, i, i+1)
	}
}

// Len returns the number of registered callbacks.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.callbacks)
}

// Frames returns the number of ticks delivered so far.
func (l *Loop) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

// Dispatch schedules fn to run on the ticking goroutine at the start of the
// next tick. It is safe to call from any goroutine.
func (l *Loop) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
}

// Tick drains the dispatch queue and then invokes every registered
// callback once. A callback unregistered by an earlier callback in the same
// tick is skipped.
func (l *Loop) Tick() {
	l.mu.Lock()
	queued := l.queue
	l.queue = nil
	l.frames++
	l.mu.Unlock()

	for _, fn := range queued {
		fn()
	}

	// Copy to avoid holding the lock during callbacks
	l.mu.Lock()
	handles := slices.Clone(l.order)
	l.mu.Unlock()

	now := l.clock.Now()
	for _, h := range handles {
		l.mu.Lock()
		cb, ok := l.callbacks[h]
		l.mu.Unlock()
		if ok {
			cb(now)
		}
	}
}

// Run ticks every interval until ctx is done. It blocks, and all callbacks
// run on the goroutine that called Run. A non-positive interval uses
// DefaultInterval.
func (l *Loop) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Tick()
		}
	}
}
