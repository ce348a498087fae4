package scene

// Ref names an element either by handle or by id.
type Ref struct {
	el *Element
	id string
}

// ByHandle refers to el directly.
func ByHandle(el *Element) Ref {
	return Ref{el: el}
}

// ByID refers to the element with the given id in a store.
func ByID(id string) Ref {
	return Ref{id: id}
}

// Handle returns the element for handle refs.
func (r Ref) Handle() (*Element, bool) {
	return r.el, r.el != nil
}

// ID returns the referenced id (the element's id for handle refs).
func (r Ref) ID() string {
	if r.el != nil {
		return r.el.ID
	}
	return r.id
}

// String is the id, for diagnostics.
func (r Ref) String() string {
	return r.ID()
}
