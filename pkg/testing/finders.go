package testing

import (
	"fmt"

	"github.com/go-drift/stage/pkg/scene"
)

// Finder locates elements in a scene.
type Finder interface {
	// Evaluate returns all matching elements under roots (depth-first pre-order).
	Evaluate(roots []*scene.Element) []*scene.Element
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	elements []*scene.Element
	finder   Finder
}

func (r FinderResult) describe() string {
	if r.finder == nil {
		return "unknown"
	}
	return r.finder.Description()
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() *scene.Element {
	if len(r.elements) == 0 {
		panic(fmt.Sprintf("Finder found no elements: %s", r.describe()))
	}
	return r.elements[0]
}

// FirstOrNil returns the first match, or nil if none.
func (r FinderResult) FirstOrNil() *scene.Element {
	if len(r.elements) == 0 {
		return nil
	}
	return r.elements[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) *scene.Element {
	if index < 0 || index >= len(r.elements) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.elements), r.describe()))
	}
	return r.elements[index]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []*scene.Element {
	return r.elements
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.elements)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.elements) > 0
}

// --- Concrete finders ---

type predicateFinder struct {
	fn   func(*scene.Element) bool
	desc string
}

func (f *predicateFinder) Evaluate(roots []*scene.Element) []*scene.Element {
	return collectMatches(roots, f.fn)
}

func (f *predicateFinder) Description() string {
	return f.desc
}

// ByID returns a finder that matches the element with the given id.
func ByID(id string) Finder {
	return &predicateFinder{
		fn:   func(el *scene.Element) bool { return el.ID == id },
		desc: fmt.Sprintf("ByID(%q)", id),
	}
}

// ByKind returns a finder that matches elements of the given shape kind.
func ByKind(kind string) Finder {
	return &predicateFinder{
		fn:   func(el *scene.Element) bool { return el.Kind == kind },
		desc: fmt.Sprintf("ByKind(%q)", kind),
	}
}

// ByStyle returns a finder that matches elements whose style key equals
// value.
func ByStyle(key string, value any) Finder {
	return &predicateFinder{
		fn: func(el *scene.Element) bool {
			v, ok := el.Style[key]
			return ok && fmt.Sprint(v) == fmt.Sprint(value)
		},
		desc: fmt.Sprintf("ByStyle(%s=%v)", key, value),
	}
}

// ByPredicate returns a finder that matches elements satisfying fn.
func ByPredicate(fn func(*scene.Element) bool) Finder {
	return &predicateFinder{fn: fn, desc: "ByPredicate(...)"}
}

// descendantFinder finds elements matching 'matching' that are descendants
// of elements matching 'of'.
type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(roots []*scene.Element) []*scene.Element {
	var results []*scene.Element
	seen := make(map[*scene.Element]bool)
	for _, ancestor := range f.of.Evaluate(roots) {
		// Search below the ancestor, never the ancestor itself
		for _, match := range f.matching.Evaluate(ancestor.Children()) {
			if !seen[match] {
				seen[match] = true
				results = append(results, match)
			}
		}
	}
	return results
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant returns a finder that matches elements satisfying 'matching'
// that are descendants of elements matching 'of'.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}

// collectMatches performs depth-first pre-order traversal, collecting
// elements that satisfy the predicate.
func collectMatches(roots []*scene.Element, predicate func(*scene.Element) bool) []*scene.Element {
	var results []*scene.Element
	for _, root := range roots {
		walkTree(root, func(el *scene.Element) {
			if predicate(el) {
				results = append(results, el)
			}
		})
	}
	return results
}

func walkTree(root *scene.Element, visit func(*scene.Element)) {
	visit(root)
	for _, child := range root.Children() {
		walkTree(child, visit)
	}
}
