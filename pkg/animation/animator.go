package animation

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

// Target is an object whose properties an Animator interpolates.
type Target interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// Status represents the lifecycle state of an Animator.
//
//	          Start()            last keyframe reached
//	Idle ─────────────► Running ──────────────────────► Completed
//	  │                    │
//	  └───── Stop() ───────┴──────────────────────────► Stopped
type Status int

const (
	// StatusIdle means the animator is configured but not started.
	StatusIdle Status = iota
	// StatusRunning means the animator is stepped on every tick.
	StatusRunning
	// StatusCompleted means the last keyframe was reached and Done callbacks ran.
	StatusCompleted
	// StatusStopped means the animator was cancelled with Stop.
	StatusStopped
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusStopped:
		return "stopped"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

type keyframe struct {
	at    time.Duration
	value any
}

// Animator drives the properties of one target through keyframes.
//
// Animators are created by [Engine.Animate] and configured with a builder
// chain:
//
//	engine.Animate(target, false).
//	    When(500*time.Millisecond, map[string]any{"x": 100}).
//	    During(func(Target, float64) { ... }).
//	    Done(func() { ... }).
//	    Start()
//
// A looping animator restarts from its first keyframe each time it reaches
// the last one and never completes; it ends only through Stop.
type Animator struct {
	engine *Engine
	target Target
	loop   bool
	curve  Curve
	delay  time.Duration

	tracks map[string][]keyframe
	keys   []string

	during []func(Target, float64)
	done   []func()
	onStop []func()

	status  Status
	started time.Time
}

// Target returns the animated object.
func (a *Animator) Target() Target {
	return a.target
}

// Loop reports whether the animator repeats.
func (a *Animator) Loop() bool {
	return a.loop
}

// Status returns the current lifecycle state.
func (a *Animator) Status() Status {
	return a.status
}

// Active reports whether the animator has neither completed nor been
// stopped. An idle animator that has not been started yet is active.
func (a *Animator) Active() bool {
	return a.status == StatusIdle || a.status == StatusRunning
}

// When adds a keyframe: at offset at from the start, each property in
// props reaches the given value.
func (a *Animator) When(at time.Duration, props map[string]any) *Animator {
	if at < 0 {
		at = 0
	}
	if a.tracks == nil {
		a.tracks = make(map[string][]keyframe)
	}
	for key, value := range props {
		if _, ok := a.tracks[key]; !ok {
			a.keys = append(a.keys, key)
		}
		frames := append(a.tracks[key], keyframe{at: at, value: snapshot(value)})
		slices.SortStableFunc(frames, func(x, y keyframe) int {
			return cmp.Compare(x.at, y.at)
		})
		a.tracks[key] = frames
	}
	slices.Sort(a.keys)
	return a
}

// Delay postpones the first step by d after Start.
func (a *Animator) Delay(d time.Duration) *Animator {
	a.delay = d
	return a
}

// Curve sets the easing applied between keyframes.
func (a *Animator) Curve(c Curve) *Animator {
	if c != nil {
		a.curve = c
	}
	return a
}

// During adds a callback invoked after every step with the target and the
// overall progress in [0, 1].
func (a *Animator) During(fn func(target Target, percent float64)) *Animator {
	if fn != nil {
		a.during = append(a.during, fn)
	}
	return a
}

// Done adds a callback invoked once when the animator completes. Stop does
// not invoke it.
func (a *Animator) Done(fn func()) *Animator {
	if fn != nil {
		a.done = append(a.done, fn)
	}
	return a
}

// OnStop adds a callback invoked once when the animator is cancelled with
// Stop. It is for bookkeeping; completion does not invoke it.
func (a *Animator) OnStop(fn func()) *Animator {
	if fn != nil {
		a.onStop = append(a.onStop, fn)
	}
	return a
}

// Start begins stepping the animator on the engine's ticks. Properties
// without a keyframe at offset zero start from their current value.
func (a *Animator) Start() *Animator {
	if a.status != StatusIdle {
		return a
	}
	for _, key := range a.keys {
		frames := a.tracks[key]
		if frames[0].at == 0 {
			continue
		}
		if current, ok := a.target.Get(key); ok {
			a.tracks[key] = append([]keyframe{{at: 0, value: snapshot(current)}}, frames...)
		}
	}
	a.status = StatusRunning
	a.started = a.engine.now()
	return a
}

// Stop cancels the animator. The engine stops stepping it, OnStop
// callbacks run, Done callbacks do not. Stopping a finished animator is a
// no-op.
func (a *Animator) Stop() {
	if !a.Active() {
		return
	}
	a.status = StatusStopped
	a.engine.remove(a)
	for _, fn := range a.onStop {
		fn()
	}
}

func (a *Animator) duration() time.Duration {
	var total time.Duration
	for _, frames := range a.tracks {
		total = max(total, frames[len(frames)-1].at)
	}
	return total
}

func (a *Animator) step(now time.Time) {
	if a.status != StatusRunning {
		return
	}
	elapsed := now.Sub(a.started) - a.delay
	if elapsed < 0 {
		return
	}

	total := a.duration()
	finished := false
	switch {
	case total <= 0:
		elapsed, finished = 0, !a.loop
	case a.loop:
		elapsed %= total
	case elapsed >= total:
		elapsed, finished = total, true
	}

	for _, key := range a.keys {
		a.target.Set(key, a.valueAt(a.tracks[key], elapsed))
	}

	percent := 1.0
	if total > 0 {
		percent = float64(elapsed) / float64(total)
	}
	for _, fn := range a.during {
		fn(a.target, percent)
		if a.status != StatusRunning {
			return
		}
	}

	if finished {
		a.status = StatusCompleted
		a.engine.remove(a)
		for _, fn := range a.done {
			fn()
		}
	}
}

func (a *Animator) valueAt(frames []keyframe, elapsed time.Duration) any {
	if elapsed <= frames[0].at {
		return frames[0].value
	}
	for i := 1; i < len(frames); i++ {
		prev, next := frames[i-1], frames[i]
		if elapsed > next.at {
			continue
		}
		span := next.at - prev.at
		if span <= 0 {
			return next.value
		}
		t := float64(elapsed-prev.at) / float64(span)
		return Lerp(prev.value, next.value, a.curve(t))
	}
	return frames[len(frames)-1].value
}
