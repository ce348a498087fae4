package animation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/stage/pkg/animation"
	"github.com/go-drift/stage/pkg/errors"
	"github.com/go-drift/stage/pkg/frame"
	stagetesting "github.com/go-drift/stage/pkg/testing"
)

type mapTarget map[string]any

func (m mapTarget) Get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

func (m mapTarget) Set(key string, value any) { m[key] = value }

func newEngine(t *testing.T) (*animation.Engine, *frame.Loop, *stagetesting.FakeClock, *int) {
	t.Helper()
	clk := stagetesting.NewFakeClock()
	loop := frame.NewLoop(clk)
	frames := 0
	e := animation.NewEngine(loop, func() { frames++ })
	e.Start()
	t.Cleanup(e.Stop)
	return e, loop, clk, &frames
}

func TestAnimator_InterpolatesFromCurrentValue(t *testing.T) {
	e, loop, clk, _ := newEngine(t)
	target := mapTarget{"x": 0.0}

	e.Animate(target, false).When(100*time.Millisecond, map[string]any{"x": 100.0}).Start()

	clk.Advance(50 * time.Millisecond)
	loop.Tick()
	assert.InDelta(t, 50.0, target["x"], 1e-9)

	clk.Advance(100 * time.Millisecond)
	loop.Tick()
	assert.InDelta(t, 100.0, target["x"], 1e-9)
	assert.Zero(t, e.Len())
}

func TestAnimator_DoneRunsOnceOnCompletion(t *testing.T) {
	e, loop, clk, _ := newEngine(t)
	target := mapTarget{"x": 0.0}
	done, steps := 0, 0

	a := e.Animate(target, false).
		When(20*time.Millisecond, map[string]any{"x": 1.0}).
		During(func(animation.Target, float64) { steps++ }).
		Done(func() { done++ }).
		Start()

	for range 5 {
		clk.Advance(10 * time.Millisecond)
		loop.Tick()
	}

	assert.Equal(t, 1, done)
	assert.Equal(t, 2, steps)
	assert.Equal(t, animation.StatusCompleted, a.Status())
	assert.False(t, a.Active())
}

func TestAnimator_StopSkipsDone(t *testing.T) {
	e, loop, clk, _ := newEngine(t)
	target := mapTarget{"x": 0.0}
	done, stopped, steps := 0, 0, 0

	a := e.Animate(target, false).
		When(time.Second, map[string]any{"x": 1.0}).
		During(func(animation.Target, float64) { steps++ }).
		Done(func() { done++ }).
		OnStop(func() { stopped++ }).
		Start()

	clk.Advance(10 * time.Millisecond)
	loop.Tick()
	a.Stop()
	a.Stop()
	clk.Advance(time.Second)
	loop.Tick()

	assert.Equal(t, 1, steps)
	assert.Zero(t, done)
	assert.Equal(t, 1, stopped)
	assert.Equal(t, animation.StatusStopped, a.Status())
}

func TestAnimator_LoopNeverCompletes(t *testing.T) {
	e, loop, clk, _ := newEngine(t)
	target := mapTarget{"x": 0.0}
	done := 0

	e.Animate(target, true).
		When(100*time.Millisecond, map[string]any{"x": 10.0}).
		Done(func() { done++ }).
		Start()

	clk.Advance(250 * time.Millisecond)
	loop.Tick()

	assert.InDelta(t, 5.0, target["x"], 1e-9)
	assert.Zero(t, done)
	assert.Equal(t, 1, e.Len())
}

func TestAnimator_VectorAndColorValues(t *testing.T) {
	e, loop, clk, _ := newEngine(t)
	target := mapTarget{"position": []float64{0, 0}, "fill": "#000000"}

	e.Animate(target, false).
		When(100*time.Millisecond, map[string]any{
			"position": []float64{10, 20},
			"fill":     "#ffffff",
		}).
		Start()

	clk.Advance(100 * time.Millisecond)
	loop.Tick()

	assert.Equal(t, []float64{10, 20}, target["position"])
	assert.Equal(t, "#ffffff", target["fill"])
}

func TestAnimator_Delay(t *testing.T) {
	e, loop, clk, _ := newEngine(t)
	target := mapTarget{"x": 0.0}

	e.Animate(target, false).Delay(50*time.Millisecond).When(100*time.Millisecond, map[string]any{"x": 100.0}).Start()

	clk.Advance(40 * time.Millisecond)
	loop.Tick()
	assert.InDelta(t, 0.0, target["x"], 1e-9)

	clk.Advance(60 * time.Millisecond)
	loop.Tick()
	assert.InDelta(t, 50.0, target["x"], 1e-9)
}

func TestEngine_ClearStopsEverything(t *testing.T) {
	e, _, _, _ := newEngine(t)
	stopped := 0
	for range 3 {
		e.Animate(mapTarget{"x": 0.0}, true).
			When(time.Second, map[string]any{"x": 1.0}).
			OnStop(func() { stopped++ }).
			Start()
	}
	idle := e.Animate(mapTarget{}, false)

	e.Clear()

	assert.Equal(t, 3, stopped)
	assert.Zero(t, e.Len())
	assert.Equal(t, animation.StatusStopped, idle.Status())
}

func TestEngine_FrameCallbackAfterSteps(t *testing.T) {
	e, loop, clk, frames := newEngine(t)
	target := mapTarget{"x": 0.0}
	var seenAtFrame []float64
	e.Animate(target, false).When(100*time.Millisecond, map[string]any{"x": 100.0}).Start()

	loop.Register(func(time.Time) { seenAtFrame = append(seenAtFrame, target["x"].(float64)) })
	clk.Advance(100 * time.Millisecond)
	loop.Tick()

	assert.Equal(t, 1, *frames)
	require.Len(t, seenAtFrame, 1)
	assert.InDelta(t, 100.0, seenAtFrame[0], 1e-9)
}

func TestEngine_StopUnregisters(t *testing.T) {
	e, loop, _, frames := newEngine(t)
	e.Stop()
	assert.False(t, e.Running())
	loop.Tick()
	assert.Zero(t, *frames)
	e.Start()
	loop.Tick()
	assert.Equal(t, 1, *frames)
}

func TestEngine_StopInsideCallbackEndsStep(t *testing.T) {
	e, loop, clk, frames := newEngine(t)
	second := mapTarget{"x": 0.0}
	e.Animate(mapTarget{"x": 0.0}, false).
		When(10*time.Millisecond, map[string]any{"x": 1.0}).
		Done(e.Stop).
		Start()
	e.Animate(second, false).When(time.Second, map[string]any{"x": 1.0}).Start()

	clk.Advance(20 * time.Millisecond)
	loop.Tick()

	assert.False(t, e.Running())
	assert.Zero(t, *frames)
	assert.Equal(t, 0.0, second["x"])
	assert.Zero(t, loop.Len())
}

func TestEngine_RecoversCallbackPanic(t *testing.T) {
	var panics int
	prev := errors.SetHandler(panicCounter{&panics})
	defer errors.SetHandler(prev)

	e, loop, clk, frames := newEngine(t)
	e.Animate(mapTarget{"x": 0.0}, true).
		When(time.Second, map[string]any{"x": 1.0}).
		During(func(animation.Target, float64) { panic("bad step") }).
		Start()

	clk.Advance(10 * time.Millisecond)
	loop.Tick()

	assert.Equal(t, 1, panics)
	assert.Equal(t, 1, *frames)
}

func TestCurveByName(t *testing.T) {
	for _, name := range []string{"linear", "ease", "easeIn", "ease-out", "EaseInOut"} {
		c, ok := animation.CurveByName(name)
		require.True(t, ok, name)
		assert.InDelta(t, 0.0, c(0), 1e-9, name)
		assert.InDelta(t, 1.0, c(1), 1e-9, name)
	}
	_, ok := animation.CurveByName("bounce")
	assert.False(t, ok)
}

type panicCounter struct{ n *int }

func (p panicCounter) HandleError(*errors.StageError) {}

func (p panicCounter) HandlePanic(*errors.PanicError) { *p.n++ }
