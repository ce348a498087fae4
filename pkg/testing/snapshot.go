package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-drift/stage/pkg/graphics"
	"github.com/go-drift/stage/pkg/scene"
)

// UpdateSnapshotsEnv names the environment variable that makes MatchesFile
// rewrite golden files instead of comparing against them.
const UpdateSnapshotsEnv = "STAGE_UPDATE_SNAPSHOTS"

// TestingT is the subset of *testing.T used by MatchesFile, allowing
// test doubles to intercept failures.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
	Name() string
}

// Snapshot captures the scene graph of a session.
type Snapshot struct {
	Backend string       `json:"backend"`
	Size    [2]int       `json:"size"`
	Scene   []*SceneNode `json:"scene"`
	Hover   []*SceneNode `json:"hover,omitempty"`
}

// SceneNode represents one element in the serialized scene. Element ids
// are random, so nodes are named by kind and order of appearance.
type SceneNode struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Z         int            `json:"z,omitempty"`
	ZLevel    int            `json:"zlevel,omitempty"`
	Position  [2]float64     `json:"position"`
	Scale     [2]float64     `json:"scale"`
	Rotation  float64        `json:"rotation,omitempty"`
	Invisible bool           `json:"invisible,omitempty"`
	Shape     map[string]any `json:"shape,omitempty"`
	Style     map[string]any `json:"style,omitempty"`
	Children  []*SceneNode   `json:"children,omitempty"`
}

// CaptureSnapshot captures the current scene and hover layer.
func (t *Tester) CaptureSnapshot() *Snapshot {
	snap := &Snapshot{
		Backend: t.painter.Painter.Type(),
		Size:    [2]int{t.session.Width(), t.session.Height()},
	}
	counter := &kindCounter{}
	for _, root := range t.session.Roots() {
		snap.Scene = append(snap.Scene, captureNode(root, counter))
	}
	for _, el := range t.session.Hovers() {
		snap.Hover = append(snap.Hover, captureNode(el, counter))
	}
	return snap
}

// MatchesFile compares this snapshot against a golden file. On mismatch it
// reports a diff and instructions for updating. When STAGE_UPDATE_SNAPSHOTS=1
// is set, the file is silently updated instead.
func (s *Snapshot) MatchesFile(t TestingT, path string) {
	t.Helper()

	if os.Getenv(UpdateSnapshotsEnv) == "1" {
		if err := s.UpdateFile(path); err != nil {
			t.Fatalf("failed to update snapshot: %v", err)
		}
		return
	}

	expected, err := loadSnapshot(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("snapshot file missing: %s\n\nTo create: %s=1 go test -run %s", path, UpdateSnapshotsEnv, t.Name())
			return
		}
		t.Fatalf("failed to load snapshot: %v", err)
		return
	}

	if diff := s.Diff(expected); diff != "" {
		t.Errorf("snapshot mismatch: %s\n%s\n\nTo update: %s=1 go test -run %s", path, diff, UpdateSnapshotsEnv, t.Name())
	}
}

// UpdateFile writes this snapshot to the given path, creating directories
// as needed.
func (s *Snapshot) UpdateFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := marshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Diff returns a unified diff between this snapshot and other. Returns
// empty string if equal.
func (s *Snapshot) Diff(other *Snapshot) string {
	a, _ := marshalSnapshot(s)
	b, _ := marshalSnapshot(other)
	if bytes.Equal(a, b) {
		return ""
	}
	return unifiedDiff(string(b), string(a))
}

// --- Internal ---

// kindCounter assigns stable IDs like "rect#0", "rect#1".
type kindCounter struct {
	counts map[string]int
}

func (c *kindCounter) next(kind string) string {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	n := c.counts[kind]
	c.counts[kind] = n + 1
	return fmt.Sprintf("%s#%d", kind, n)
}

func captureNode(el *scene.Element, counter *kindCounter) *SceneNode {
	node := &SceneNode{
		ID:        counter.next(el.Kind),
		Kind:      el.Kind,
		Z:         el.Z,
		ZLevel:    el.ZLevel,
		Position:  [2]float64{round2(el.Position[0]), round2(el.Position[1])},
		Scale:     [2]float64{round2(el.Scale[0]), round2(el.Scale[1])},
		Rotation:  round2(el.Rotation),
		Invisible: el.Invisible,
		Shape:     serializeProps(el.Shape),
		Style:     serializeProps(el.Style),
	}
	for _, child := range el.Children() {
		node.Children = append(node.Children, captureNode(child, counter))
	}
	return node
}

func serializeProps(p scene.Props) map[string]any {
	if len(p) == 0 {
		return nil
	}
	m := make(map[string]any, len(p))
	for k, v := range p {
		if val := serializeValue(v); val != nil {
			m[k] = val
		}
	}
	return m
}

func serializeValue(v any) any {
	switch v := v.(type) {
	case scene.Props:
		return serializeProps(v)
	case map[string]any:
		return serializeProps(v)
	case scene.Vector:
		return [2]float64{round2(v[0]), round2(v[1])}
	case *scene.Vector:
		return [2]float64{round2(v[0]), round2(v[1])}
	case string, bool:
		return v
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = serializeValue(item)
		}
		return out
	}
	if f, ok := graphics.Float(v); ok {
		return round2(f)
	}
	return fmt.Sprint(v)
}

func round2(f float64) float64 {
	r := math.Round(f*100) / 100
	if r == 0 {
		return 0
	}
	return r
}

func loadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot JSON: %w", err)
	}
	return &snap, nil
}

func marshalSnapshot(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unifiedDiff produces a simple line-oriented diff.
func unifiedDiff(expected, actual string) string {
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")

	var buf strings.Builder
	buf.WriteString("--- expected\n+++ actual\n")

	for i := range max(len(expectedLines), len(actualLines)) {
		var e, a string
		if i < len(expectedLines) {
			e = expectedLines[i]
		}
		if i < len(actualLines) {
			a = actualLines[i]
		}
		if e != a {
			if i < len(expectedLines) {
				fmt.Fprintf(&buf, "-%s\n", e)
			}
			if i < len(actualLines) {
				fmt.Fprintf(&buf, "+%s\n", a)
			}
		}
	}

	return buf.String()
}
