package scene

import (
	"fmt"
	"strings"

	"github.com/go-drift/stage/pkg/animation"
)

// ShapeProperty is the path segment that addresses an element's geometry.
const ShapeProperty = "shape"

// Path is a validated property path, one entry per dot-separated segment.
type Path []string

// ParsePath splits a dot-delimited path ("shape.x") into segments. The
// empty string is the empty path; empty segments ("shape..x") are an
// error.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, nil
	}
	segs := strings.Split(s, ".")
	for i, seg := range segs {
		if seg == "" {
			return nil, fmt.Errorf("empty segment %d in property path %q", i, s)
		}
	}
	return Path(segs), nil
}

// String joins the segments with dots.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// IsShape reports whether the path addresses the element's geometry.
func (p Path) IsShape() bool {
	return len(p) > 0 && p[0] == ShapeProperty
}

// Resolution is the outcome of walking a Path against an element.
type Resolution struct {
	// Value is the resolved value; nil when the walk failed.
	Value any
	// Parent is the container holding Value; nil for the empty path.
	Parent any
	// Key is the last segment walked.
	Key string
	// Failed is the index of the first missing segment, or -1.
	Failed int
}

// OK reports whether every segment resolved.
func (r Resolution) OK() bool {
	return r.Failed < 0
}

// Target returns what an animator should drive for this resolution: the
// value itself when it is animatable, otherwise its parent restricted to
// Key (so "shape.x" animates the x property of the shape).
func (r Resolution) Target() (animation.Target, bool) {
	if !r.OK() {
		return nil, false
	}
	if t, ok := r.Value.(animation.Target); ok {
		return t, true
	}
	if parent, ok := r.Parent.(animation.Target); ok {
		return fieldTarget{parent: parent, key: r.Key}, true
	}
	return nil, false
}

// Resolve walks path against el, stopping at the first segment that is
// missing or that cannot be walked into.
func Resolve(el *Element, path Path) Resolution {
	var cur, parent any = el, nil
	key := ""
	for i, seg := range path {
		node, ok := cur.(Node)
		if !ok {
			return Resolution{Key: seg, Failed: i}
		}
		next, ok := node.Child(seg)
		if !ok {
			return Resolution{Key: seg, Failed: i}
		}
		parent, cur, key = cur, next, seg
	}
	return Resolution{Value: cur, Parent: parent, Key: key, Failed: -1}
}

// fieldTarget exposes a single property of a container as a Target.
type fieldTarget struct {
	parent animation.Target
	key    string
}

func (f fieldTarget) Get(key string) (any, bool) {
	if key != f.key {
		return nil, false
	}
	return f.parent.Get(key)
}

func (f fieldTarget) Set(key string, value any) {
	if key == f.key {
		f.parent.Set(key, value)
	}
}
