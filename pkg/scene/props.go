package scene

import (
	"strconv"

	"github.com/go-drift/stage/pkg/animation"
	"github.com/go-drift/stage/pkg/graphics"
)

// Node is a value that property paths can walk into.
type Node interface {
	// Child returns the value stored under name.
	Child(name string) (any, bool)
}

// Props is a property bag such as an element's shape or style. Nested
// maps are walked by property paths and animated in place.
type Props map[string]any

var (
	_ Node             = Props(nil)
	_ animation.Target = Props(nil)
)

// Child returns the value under name. Nested maps are returned as Props
// sharing the same storage.
func (p Props) Child(name string) (any, bool) {
	v, ok := p[name]
	if !ok {
		return nil, false
	}
	if m, isMap := v.(map[string]any); isMap {
		return Props(m), true
	}
	return v, true
}

// Get implements animation.Target.
func (p Props) Get(key string) (any, bool) {
	v, ok := p[key]
	return v, ok
}

// Set implements animation.Target.
func (p Props) Set(key string, value any) {
	p[key] = value
}

// Float returns the numeric value under key, or 0.
func (p Props) Float(key string) float64 {
	v, _ := graphics.Float(p[key])
	return v
}

// Vector is a 2D vector property (position, scale, origin). Its
// components are addressed as "0" and "1" by paths and animators.
type Vector [2]float64

var (
	_ Node             = (*Vector)(nil)
	_ animation.Target = (*Vector)(nil)
)

func (v *Vector) index(name string) (int, bool) {
	i, err := strconv.Atoi(name)
	if err != nil || i < 0 || i > 1 {
		return 0, false
	}
	return i, true
}

// Child returns component "0" or "1".
func (v *Vector) Child(name string) (any, bool) {
	i, ok := v.index(name)
	if !ok {
		return nil, false
	}
	return v[i], true
}

// Get implements animation.Target.
func (v *Vector) Get(key string) (any, bool) {
	return v.Child(key)
}

// Set implements animation.Target. Non-numeric values are ignored.
func (v *Vector) Set(key string, value any) {
	i, ok := v.index(key)
	if !ok {
		return
	}
	if f, ok := graphics.Float(value); ok {
		v[i] = f
	}
}

// Offset converts v to a graphics.Offset.
func (v Vector) Offset() graphics.Offset {
	return graphics.Offset{X: v[0], Y: v[1]}
}

func vectorFrom(value any) (Vector, bool) {
	switch x := value.(type) {
	case Vector:
		return x, true
	case *Vector:
		return *x, true
	}
	list, ok := graphics.Floats(value)
	if !ok || len(list) != 2 {
		return Vector{}, false
	}
	return Vector{list[0], list[1]}, true
}
