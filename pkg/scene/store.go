// Package scene holds the scene graph of a session: elements, their
// property paths and the store that owns them.
//
// A [Store] keeps the root elements in draw order and an index of every
// element (group children included) by id. Callers that need side effects
// around insertion and removal install a [Hook] rather than wrapping the
// store's methods.
package scene

import (
	"cmp"
	"slices"

	"github.com/go-drift/stage/pkg/errors"
)

// Hook is the store's extension point around element insertion and
// removal. It runs once per element, group children included, and decides
// when the underlying primitive runs by calling the supplied function
// exactly once.
type Hook interface {
	OnInsert(el *Element, insert func())
	OnRemove(el *Element, remove func())
}

// Store owns the elements of one session.
type Store struct {
	roots []*Element
	byID  map[string]*Element
	hover []*Element
	hook  Hook
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{byID: make(map[string]*Element)}
}

// SetHook installs h; nil removes the hook.
func (s *Store) SetHook(h Hook) {
	s.hook = h
}

// AddRoot inserts el and its subtree and makes el a root. A root already in
// the store is ignored and a group child of the store is promoted to a root
// without leaving the store. An element whose subtree reuses the id of an
// element already in the store is rejected and reported as
// [errors.KindDuplicate].
func (s *Store) AddRoot(el *Element) {
	if el == nil {
		return
	}
	if el.store == s {
		if el.parent != nil {
			el.parent.detach(el)
			s.roots = append(s.roots, el)
			el.MarkDirty()
		}
		return
	}
	if el.store != nil {
		return
	}
	if id, ok := s.Conflict(el); ok {
		errors.Duplicate("scene.Store.AddRoot", id)
		return
	}
	if el.parent != nil {
		el.parent.RemoveChild(el)
	}
	s.roots = append(s.roots, el)
	s.insertTree(el)
}

// Conflict reports the first id in el's subtree that is already used by a
// different element of the store, or repeated inside the subtree itself.
// Members of the store are not conflicts with themselves.
func (s *Store) Conflict(el *Element) (string, bool) {
	seen := make(map[string]bool)
	var id string
	var visit func(e *Element) bool
	visit = func(e *Element) bool {
		if other, ok := s.byID[e.ID]; (ok && other != e) || seen[e.ID] {
			id = e.ID
			return false
		}
		seen[e.ID] = true
		for _, c := range e.children {
			if !visit(c) {
				return false
			}
		}
		return true
	}
	if el == nil || visit(el) {
		return "", false
	}
	return id, true
}

// demote drops el from the roots while keeping it in the store.
func (s *Store) demote(el *Element) {
	if i := slices.Index(s.roots, el); i >= 0 {
		s.roots = slices.Delete(s.roots, i, i+1)
	}
}

// DelRoot removes el and its subtree. A non-root member is detached from
// its group.
func (s *Store) DelRoot(el *Element) {
	if el == nil || el.store != s {
		return
	}
	if el.parent != nil {
		el.parent.RemoveChild(el)
		return
	}
	s.removeTree(el)
	if i := slices.Index(s.roots, el); i >= 0 {
		s.roots = slices.Delete(s.roots, i, i+1)
	}
}

// DelAll removes every element.
func (s *Store) DelAll() {
	for _, el := range slices.Clone(s.roots) {
		s.DelRoot(el)
	}
	s.hover = nil
}

// Get looks an element up by id.
func (s *Store) Get(id string) (*Element, bool) {
	el, ok := s.byID[id]
	return el, ok
}

// Resolve turns a Ref into an element: handles are returned as is, ids are
// looked up. It returns nil when nothing matches.
func (s *Store) Resolve(ref Ref) *Element {
	if el, ok := ref.Handle(); ok {
		return el
	}
	if ref.id == "" {
		return nil
	}
	el, _ := s.Get(ref.id)
	return el
}

// Len returns the number of elements, group children included.
func (s *Store) Len() int {
	return len(s.byID)
}

// Roots returns the roots sorted by zlevel, then z, then insertion order.
func (s *Store) Roots() []*Element {
	return sortByZ(s.roots)
}

// Walk visits every element in draw order, depth first, parents before
// children. Returning false from fn skips the element's subtree.
func (s *Store) Walk(fn func(el *Element) bool) {
	var visit func(list []*Element)
	visit = func(list []*Element) {
		for _, el := range sortByZ(list) {
			if fn(el) {
				visit(el.children)
			}
		}
	}
	visit(s.roots)
}

// Drawables returns the visible non-group elements in draw order.
func (s *Store) Drawables() []*Element {
	var out []*Element
	s.Walk(func(el *Element) bool {
		if el.Invisible {
			return false
		}
		if !el.IsGroup() {
			out = append(out, el)
		}
		return true
	})
	return out
}

// AddHover adds el to the hover layer.
func (s *Store) AddHover(el *Element) {
	if el == nil || slices.Contains(s.hover, el) {
		return
	}
	s.hover = append(s.hover, el)
}

// RemoveHover drops el from the hover layer.
func (s *Store) RemoveHover(el *Element) {
	if i := slices.Index(s.hover, el); i >= 0 {
		s.hover = slices.Delete(s.hover, i, i+1)
	}
}

// ClearHover empties the hover layer.
func (s *Store) ClearHover() {
	s.hover = nil
}

// Hovers returns the hover layer elements in draw order.
func (s *Store) Hovers() []*Element {
	return sortByZ(s.hover)
}

// Dispose drops every reference held by the store without running the
// hook. Call DelAll first when removal side effects matter.
func (s *Store) Dispose() {
	for _, el := range s.byID {
		el.store = nil
	}
	s.roots = nil
	s.byID = make(map[string]*Element)
	s.hover = nil
	s.hook = nil
}

func (s *Store) insertTree(el *Element) {
	s.insert(el)
	for _, child := range el.children {
		s.insertTree(child)
	}
}

func (s *Store) removeTree(el *Element) {
	s.remove(el)
	for _, child := range el.children {
		s.removeTree(child)
	}
}

func (s *Store) insert(el *Element) {
	primitive := func() {
		el.store = s
		s.byID[el.ID] = el
		el.MarkDirty()
	}
	if s.hook != nil {
		s.hook.OnInsert(el, primitive)
		return
	}
	primitive()
}

func (s *Store) remove(el *Element) {
	primitive := func() {
		if s.byID[el.ID] == el {
			delete(s.byID, el.ID)
		}
		el.store = nil
		s.RemoveHover(el)
	}
	if s.hook != nil {
		s.hook.OnRemove(el, primitive)
		return
	}
	primitive()
}

func sortByZ(list []*Element) []*Element {
	out := slices.Clone(list)
	slices.SortStableFunc(out, func(a, b *Element) int {
		if c := cmp.Compare(a.ZLevel, b.ZLevel); c != 0 {
			return c
		}
		return cmp.Compare(a.Z, b.Z)
	})
	return out
}
