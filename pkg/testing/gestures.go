package testing

import (
	"fmt"

	"github.com/go-drift/stage/pkg/graphics"
	"github.com/go-drift/stage/pkg/input"
)

// Tap simulates a press and release at the center of the first element
// matched by finder.
func (t *Tester) Tap(finder Finder) error {
	center, err := t.center("Tap", finder)
	if err != nil {
		return err
	}
	t.TapAt(center)
	return nil
}

// TapAt simulates a tap at the given surface position.
func (t *Tester) TapAt(pos graphics.Offset) {
	t.SendPointer(input.PointerPhaseMove, pos)
	t.SendPointer(input.PointerPhaseDown, pos)
	t.SendPointer(input.PointerPhaseUp, pos)
}

// Hover moves the pointer to the center of the first element matched by
// finder.
func (t *Tester) Hover(finder Finder) error {
	center, err := t.center("Hover", finder)
	if err != nil {
		return err
	}
	t.SendPointer(input.PointerPhaseMove, center)
	return nil
}

// Drag presses at the center of the first element matched by finder, moves
// by delta in steps and releases.
func (t *Tester) Drag(finder Finder, delta graphics.Offset) error {
	start, err := t.center("Drag", finder)
	if err != nil {
		return err
	}
	t.DragFrom(start, delta)
	return nil
}

// DragFrom simulates a drag from start by delta.
func (t *Tester) DragFrom(start, delta graphics.Offset) {
	const steps = 4
	t.SendPointer(input.PointerPhaseMove, start)
	t.SendPointer(input.PointerPhaseDown, start)
	for i := 1; i <= steps; i++ {
		frac := float64(i) / steps
		t.SendPointer(input.PointerPhaseMove, graphics.Offset{
			X: start.X + delta.X*frac,
			Y: start.Y + delta.Y*frac,
		})
	}
	t.SendPointer(input.PointerPhaseUp, graphics.Offset{X: start.X + delta.X, Y: start.Y + delta.Y})
}

// Wheel scrolls by delta at pos.
func (t *Tester) Wheel(pos graphics.Offset, delta float64) {
	t.session.HandlePointer(input.PointerEvent{
		Phase:      input.PointerPhaseWheel,
		X:          pos.X,
		Y:          pos.Y,
		WheelDelta: delta,
	})
}

// Leave moves the pointer off the surface.
func (t *Tester) Leave() {
	t.SendPointer(input.PointerPhaseLeave, graphics.Offset{X: -1, Y: -1})
}

// SendPointer delivers one raw pointer sample to the session.
func (t *Tester) SendPointer(phase input.PointerPhase, pos graphics.Offset) {
	t.session.HandlePointer(input.PointerEvent{Phase: phase, X: pos.X, Y: pos.Y})
}

// center returns the center of the global bounds of the first element
// matched by finder.
func (t *Tester) center(gesture string, finder Finder) (graphics.Offset, error) {
	result := t.Find(finder)
	if !result.Exists() {
		return graphics.Offset{}, fmt.Errorf("%s: finder matched no elements: %s", gesture, finder.Description())
	}
	path, err := result.First().GlobalPath()
	if err != nil {
		return graphics.Offset{}, fmt.Errorf("%s: %s: %w", gesture, finder.Description(), err)
	}
	b := path.Bounds()
	return graphics.Offset{X: (b.Left + b.Right) / 2, Y: (b.Top + b.Bottom) / 2}, nil
}
