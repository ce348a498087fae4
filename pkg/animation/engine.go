// Package animation provides the tween engine that drives property
// animations on a session's frame loop.
//
// # Core Components
//
//   - [Engine]: owns the animators of one session and the session's tick
//     registration on a [frame.Loop]. Each tick steps every running
//     animator and then invokes the engine's frame callback.
//
//   - [Animator]: one in-flight animation of a [Target]'s properties,
//     configured with keyframes ([Animator.When]) and callbacks
//     ([Animator.During], [Animator.Done], [Animator.OnStop]).
//
//   - [Curve]: easing functions applied between keyframes.
//
// # Basic Usage
//
//	engine := animation.NewEngine(loop, func() { /* after each tick */ })
//	engine.Start()
//	engine.Animate(target, false).
//	    When(300*time.Millisecond, map[string]any{"opacity": 1}).
//	    Curve(animation.EaseOut).
//	    Start()
//
//	// On teardown
//	engine.Stop()
//	engine.Clear()
package animation

import (
	"slices"
	"time"

	"github.com/go-drift/stage/pkg/errors"
	"github.com/go-drift/stage/pkg/frame"
)

// Engine steps animators once per frame tick.
type Engine struct {
	loop    *frame.Loop
	handle  frame.Handle
	running bool
	onFrame func()

	animators []*Animator
}

// NewEngine creates an engine ticking on loop. onFrame, if non-nil, runs
// after the animators of each tick have been stepped. A nil loop uses
// frame.Default.
func NewEngine(loop *frame.Loop, onFrame func()) *Engine {
	if loop == nil {
		loop = frame.Default
	}
	return &Engine{loop: loop, onFrame: onFrame}
}

// Loop returns the frame loop the engine ticks on.
func (e *Engine) Loop() *frame.Loop {
	return e.loop
}

// Animate creates an idle animator for target. It is tracked by the engine
// from now on, so Clear cancels it even before it starts.
func (e *Engine) Animate(target Target, loop bool) *Animator {
	a := &Animator{
		engine: e,
		target: target,
		loop:   loop,
		curve:  LinearCurve,
	}
	e.animators = append(e.animators, a)
	return a
}

// Start registers the engine's tick callback with the loop.
func (e *Engine) Start() {
	if e.running {
		return
	}
	e.running = true
	e.handle = e.loop.Register(e.Step)
}

// Stop unregisters the tick callback. Animators keep their state and
// resume stepping after a later Start.
func (e *Engine) Stop() {
	if !e.running {
		return
	}
	e.running = false
	e.loop.Unregister(e.handle)
}

// Running reports whether the engine receives ticks.
func (e *Engine) Running() bool {
	return e.running
}

// Clear stops and discards every animator of the engine.
func (e *Engine) Clear() {
	for _, a := range slices.Clone(e.animators) {
		a.Stop()
	}
	e.animators = nil
}

// Len returns the number of active animators.
func (e *Engine) Len() int {
	return len(e.animators)
}

// Step advances every running animator to now and then runs the frame
// callback. A panic in one animator's callbacks is reported and does not
// prevent the remaining animators or the frame callback from running. A
// callback that stops the engine ends the step there.
func (e *Engine) Step(now time.Time) {
	for _, a := range slices.Clone(e.animators) {
		func() {
			defer errors.Recover("animation.Engine.Step")
			a.step(now)
		}()
		if !e.running {
			return
		}
	}
	if e.onFrame != nil {
		e.onFrame()
	}
}

func (e *Engine) now() time.Time {
	return e.loop.Clock().Now()
}

func (e *Engine) remove(a *Animator) {
	if i := slices.Index(e.animators, a); i >= 0 {
		e.animators = slices.Delete(e.animators, i, i+1)
	}
}
