package scene

import (
	"slices"

	"github.com/google/uuid"

	"github.com/go-drift/stage/pkg/animation"
	"github.com/go-drift/stage/pkg/errors"
	"github.com/go-drift/stage/pkg/graphics"
)

// KindGroup is the kind of elements that only hold children.
const KindGroup = "group"

// Owner is the session an element currently belongs to. Elements hold it
// as a lookup for routing side effects, never as an ownership edge.
type Owner interface {
	RefreshNextFrame()
}

// Element is a drawable node of the scene graph.
//
// Geometry lives in Shape (keys depend on Kind, see graphics.BuildPath) and
// paint attributes in Style ("fill", "stroke", "lineWidth", "opacity").
// Position, Scale, Origin and Rotation (radians) form the local transform,
// composed with the parent group's transform.
type Element struct {
	ID     string
	Kind   string
	Z      int
	ZLevel int

	Shape Props
	Style Props

	Position Vector
	Scale    Vector
	Origin   Vector
	Rotation float64

	// Invisible elements are neither drawn nor hit.
	Invisible bool
	// Silent elements are drawn but never receive pointer events.
	Silent bool

	parent   *Element
	children []*Element
	store    *Store

	owner     Owner
	animators []*animation.Animator

	dirty bool
	path  *graphics.Path
}

// NewElement creates an element of the given kind with a fresh id.
func NewElement(kind string, shape Props) *Element {
	if shape == nil {
		shape = Props{}
	}
	return &Element{
		ID:    uuid.NewString(),
		Kind:  kind,
		Shape: shape,
		Style: Props{},
		Scale: Vector{1, 1},
		dirty: true,
	}
}

// NewGroup creates an empty group element.
func NewGroup() *Element {
	return NewElement(KindGroup, nil)
}

// IsGroup reports whether the element is a group.
func (el *Element) IsGroup() bool {
	return el.Kind == KindGroup
}

// Parent returns the enclosing group, if any.
func (el *Element) Parent() *Element {
	return el.parent
}

// Children returns a copy of the group's children.
func (el *Element) Children() []*Element {
	return slices.Clone(el.children)
}

// Add appends child to the group. When the group is in a store the child
// (and its subtree) is inserted into that store too, unless one of its ids
// is already taken there, in which case nothing changes and the clash is
// reported. A child that is already a member of the group's store only
// moves.
func (el *Element) Add(child *Element) {
	if child == nil || child == el || child.parent == el {
		return
	}
	moving := el.store != nil && child.store == el.store
	if el.store != nil && !moving {
		if id, ok := el.store.Conflict(child); ok {
			errors.Duplicate("scene.Element.Add", id)
			return
		}
	}
	switch {
	case child.parent != nil && moving:
		child.parent.detach(child)
	case child.parent != nil:
		child.parent.RemoveChild(child)
	case moving:
		el.store.demote(child)
	case child.store != nil:
		child.store.DelRoot(child)
	}
	child.parent = el
	el.children = append(el.children, child)
	if el.store != nil && !moving {
		el.store.insertTree(child)
	}
	el.MarkDirty()
}

// detach unlinks child from the group without touching store membership.
func (el *Element) detach(child *Element) {
	if i := slices.Index(el.children, child); i >= 0 {
		el.children = slices.Delete(el.children, i, i+1)
		child.parent = nil
		el.MarkDirty()
	}
}

// RemoveChild detaches child from the group and from the store.
func (el *Element) RemoveChild(child *Element) {
	i := slices.Index(el.children, child)
	if i < 0 {
		return
	}
	if child.store != nil {
		child.store.removeTree(child)
	}
	el.children = slices.Delete(el.children, i, i+1)
	child.parent = nil
	el.MarkDirty()
}

// Owner returns the session the element belongs to, or nil.
func (el *Element) Owner() Owner {
	return el.owner
}

// SetOwner sets or clears (nil) the owning session back-reference.
func (el *Element) SetOwner(o Owner) {
	el.owner = o
}

// InStore reports whether the element is currently a member of a store.
func (el *Element) InStore() bool {
	return el.store != nil
}

// Dirty reports whether the element changed since it was last drawn.
func (el *Element) Dirty() bool {
	return el.dirty
}

// ClearDirty is called by painters after drawing the element.
func (el *Element) ClearDirty() {
	el.dirty = false
}

// MarkDirty flags the element for redraw and asks the owning session for a
// refresh on its next frame.
func (el *Element) MarkDirty() {
	el.dirty = true
	if el.owner != nil {
		el.owner.RefreshNextFrame()
	}
}

// MarkShapeDirty is MarkDirty for geometry changes: it also drops the
// cached outline so it is rebuilt from Shape on the next draw.
func (el *Element) MarkShapeDirty() {
	el.path = nil
	el.MarkDirty()
}

// Path returns the element's outline in local coordinates, built from Shape
// and cached until MarkShapeDirty.
func (el *Element) Path() (*graphics.Path, error) {
	if el.path != nil {
		return el.path, nil
	}
	p, err := graphics.BuildPath(el.Kind, el.Shape)
	if err != nil {
		return nil, err
	}
	el.path = p
	return p, nil
}

// Transform returns the element's transform to surface coordinates.
func (el *Element) Transform() graphics.Matrix {
	local := graphics.Compose(el.Position.Offset(), el.Scale.Offset(), el.Origin.Offset(), el.Rotation)
	if el.parent != nil {
		return el.parent.Transform().Multiply(local)
	}
	return local
}

// GlobalPath returns the outline in surface coordinates.
func (el *Element) GlobalPath() (*graphics.Path, error) {
	p, err := el.Path()
	if err != nil {
		return nil, err
	}
	return p.Transform(el.Transform()), nil
}

// Contains reports whether the surface point lies inside the element.
func (el *Element) Contains(x, y float64) bool {
	if el.IsGroup() || el.Invisible {
		return false
	}
	p, err := el.GlobalPath()
	if err != nil {
		return false
	}
	pt := graphics.Offset{X: x, Y: y}
	if !p.Bounds().Contains(pt) {
		return false
	}
	return p.Contains(pt)
}

// Animators returns a copy of the element's active animators.
func (el *Element) Animators() []*animation.Animator {
	return slices.Clone(el.animators)
}

// AddAnimator tracks a in the element's animator collection.
func (el *Element) AddAnimator(a *animation.Animator) {
	el.animators = append(el.animators, a)
}

// RemoveAnimator drops a from the collection. It reports whether a was
// present, so repeated removal is harmless.
func (el *Element) RemoveAnimator(a *animation.Animator) bool {
	i := slices.Index(el.animators, a)
	if i < 0 {
		return false
	}
	el.animators = slices.Delete(el.animators, i, i+1)
	return true
}

// StopAnimation stops every animator of the element and empties the
// collection. Stopped animators do not run their Done callbacks.
func (el *Element) StopAnimation() {
	for _, a := range slices.Clone(el.animators) {
		a.Stop()
	}
	el.animators = nil
}

// Child implements Node: "shape", "style", "position", "scale",
// "origin" and "rotation".
func (el *Element) Child(name string) (any, bool) {
	switch name {
	case "shape":
		return el.Shape, el.Shape != nil
	case "style":
		return el.Style, el.Style != nil
	case "position":
		return &el.Position, true
	case "scale":
		return &el.Scale, true
	case "origin":
		return &el.Origin, true
	case "rotation":
		return el.Rotation, true
	}
	return nil, false
}

// Get implements animation.Target for whole-element animation. Vectors are
// exposed as []float64.
func (el *Element) Get(key string) (any, bool) {
	switch key {
	case "position":
		return []float64{el.Position[0], el.Position[1]}, true
	case "scale":
		return []float64{el.Scale[0], el.Scale[1]}, true
	case "origin":
		return []float64{el.Origin[0], el.Origin[1]}, true
	case "rotation":
		return el.Rotation, true
	}
	return nil, false
}

// Set implements animation.Target.
func (el *Element) Set(key string, value any) {
	switch key {
	case "position", "scale", "origin":
		v, ok := vectorFrom(value)
		if !ok {
			return
		}
		switch key {
		case "position":
			el.Position = v
		case "scale":
			el.Scale = v
		default:
			el.Origin = v
		}
	case "rotation":
		if f, ok := graphics.Float(value); ok {
			el.Rotation = f
		}
	}
}

var (
	_ Node             = (*Element)(nil)
	_ animation.Target = (*Element)(nil)
)
