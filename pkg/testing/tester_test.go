package testing

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-drift/stage/pkg/graphics"
	"github.com/go-drift/stage/pkg/input"
	"github.com/go-drift/stage/pkg/render"
	"github.com/go-drift/stage/pkg/scene"
)

func box(id string, x, y float64) *scene.Element {
	el := scene.NewElement(graphics.KindRect, scene.Props{"x": x, "y": y, "width": 20.0, "height": 20.0})
	el.ID = id
	el.Style["fill"] = "red"
	return el
}

func TestTester_DrawsOncePerChange(t *testing.T) {
	tester := NewTester(t)
	tester.Add(box("a", 10, 10))

	if got := tester.Refreshes(); got != 1 {
		t.Fatalf("expected 1 refresh, got %d", got)
	}
	want := color.RGBA{R: 0xff, A: 0xff}
	if got := tester.Canvas().RGBA().RGBAAt(20, 20); got != want {
		t.Errorf("expected %v at box center, got %v", want, got)
	}

	tester.PumpFrames(5)
	if got := tester.Refreshes(); got != 1 {
		t.Errorf("expected no redraw of a clean scene, got %d refreshes", got)
	}
}

func TestTester_PumpAndSettle(t *testing.T) {
	tester := NewTester(t)
	el := box("a", 0, 0)
	tester.Add(el)

	tester.Session().Animate(scene.ByHandle(el), "position", false).
		When(100*time.Millisecond, map[string]any{"0": 50.0}).
		Start()

	if err := tester.PumpAndSettle(time.Second); err != nil {
		t.Fatalf("PumpAndSettle: %v", err)
	}
	if el.Position[0] != 50 {
		t.Errorf("expected x=50 after settling, got %v", el.Position[0])
	}
	if len(el.Animators()) != 0 {
		t.Errorf("expected finished animator to leave the element, got %d", len(el.Animators()))
	}
}

func TestTester_PumpAndSettleTimesOut(t *testing.T) {
	tester := NewTester(t)
	el := box("a", 0, 0)
	tester.Add(el)
	tester.Session().Animate(scene.ByHandle(el), "rotation", true).
		When(100*time.Millisecond, map[string]any{"rotation": 1.0}).
		Start()

	err := tester.PumpAndSettle(200 * time.Millisecond)
	if !errors.Is(err, ErrSettleTimeout) {
		t.Fatalf("expected ErrSettleTimeout, got %v", err)
	}
}

func TestTester_Dispatch(t *testing.T) {
	tester := NewTester(t)
	ran := false
	tester.Dispatch(func() { ran = true })
	if ran {
		t.Fatal("dispatch ran before the tick")
	}
	tester.Pump()
	if !ran {
		t.Error("dispatch did not run on the tick")
	}
}

func TestTester_Cleanup(t *testing.T) {
	tester := NewTester(t)
	if tester.Registry().Len() != 1 {
		t.Fatalf("expected session registered, got %d", tester.Registry().Len())
	}
	tester.Cleanup()
	if !tester.Session().Disposed() {
		t.Error("expected session disposed")
	}
	if !tester.Painter().Disposed {
		t.Error("expected painter disposed")
	}
	if tester.Registry().Len() != 0 {
		t.Error("expected session detached")
	}
	// The deferred cleanup must not dispose twice.
	tester.Cleanup()
}

func TestFinders(t *testing.T) {
	tester := NewTester(t)
	group := scene.NewGroup()
	group.ID = "group"
	group.Add(box("inner", 0, 0))
	circle := scene.NewElement(graphics.KindCircle, scene.Props{"cx": 5.0, "cy": 5.0, "r": 5.0})
	circle.Style["fill"] = "blue"
	tester.Add(box("outer", 40, 40), group, circle)

	if got := tester.Find(ByKind(graphics.KindRect)).Count(); got != 2 {
		t.Errorf("ByKind(rect): expected 2, got %d", got)
	}
	if got := tester.Find(ByID("inner")).First(); got.Parent() != group {
		t.Errorf("ByID(inner): expected child of group, got parent %v", got.Parent())
	}
	if got := tester.Find(ByStyle("fill", "blue")).FirstOrNil(); got != circle {
		t.Errorf("ByStyle(fill=blue): expected circle, got %v", got)
	}
	inner := tester.Find(Descendant(ByID("group"), ByKind(graphics.KindRect)))
	if inner.Count() != 1 || inner.At(0).ID != "inner" {
		t.Errorf("Descendant: expected [inner], got %d matches", inner.Count())
	}
	if tester.Find(ByPredicate(func(el *scene.Element) bool { return el.Invisible })).Exists() {
		t.Error("ByPredicate: expected no invisible elements")
	}
}

func TestFinderResult_FirstPanicsWhenEmpty(t *testing.T) {
	tester := NewTester(t)
	defer func() {
		r := recover()
		if r == nil || !strings.Contains(r.(string), `ByID("missing")`) {
			t.Errorf("expected panic naming the finder, got %v", r)
		}
	}()
	tester.Find(ByID("missing")).First()
}

func TestGestures(t *testing.T) {
	tester := NewTester(t)
	tester.Add(box("a", 10, 10))
	s := tester.Session()

	var got []string
	for _, name := range []string{input.EventMouseOver, input.EventMouseDown, input.EventMouseUp, input.EventClick, input.EventMouseOut, input.EventWheel} {
		s.On(name, func(ev *input.Event) {
			got = append(got, ev.Type)
		}, nil)
	}

	if err := tester.Tap(ByID("a")); err != nil {
		t.Fatalf("Tap: %v", err)
	}
	tester.Wheel(graphics.Offset{X: 20, Y: 20}, -1)
	tester.Leave()

	want := []string{"mouseover", "mousedown", "mouseup", "click", "mousewheel", "mouseout"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, got)
	}

	if err := tester.Tap(ByID("missing")); err == nil {
		t.Error("expected error tapping a missing element")
	}
}

func TestTester_VectorSurface(t *testing.T) {
	surface := &MarkupSurface{Width: 50, Height: 50}
	tester := NewTester(t, WithSurface(surface), WithLayer(0, render.LayerConfig{ClearColor: "white"}))
	tester.Add(box("a", 0, 0))

	if got := tester.Session().Backend(); got != BackendRecording {
		t.Errorf("expected recording backend, got %q", got)
	}
	if got := tester.Painter().Painter.Type(); got != render.BackendVector {
		t.Errorf("expected vector backend underneath, got %q", got)
	}
	if tester.Canvas() != nil {
		t.Error("expected no canvas for a markup surface")
	}
	if tester.Painter().Layers[0].ClearColor != "white" {
		t.Error("expected layer option applied")
	}
	if !strings.Contains(surface.Markup, `id="a"`) {
		t.Errorf("expected markup to contain the element, got %s", surface.Markup)
	}
}

type recordingT struct {
	fatals []string
	errors []string
}

func (r *recordingT) Helper()                        {}
func (r *recordingT) Name() string                   { return "TestSnapshot" }
func (r *recordingT) Fatalf(format string, _ ...any) { r.fatals = append(r.fatals, format) }
func (r *recordingT) Errorf(format string, _ ...any) { r.errors = append(r.errors, format) }

func TestSnapshot(t *testing.T) {
	tester := NewTester(t)
	el := box("a", 10, 10)
	tester.Add(el)
	tester.Session().AddHover(box("h", 0, 0))

	snap := tester.CaptureSnapshot()
	if len(snap.Scene) != 1 || snap.Scene[0].ID != "rect#0" {
		t.Fatalf("unexpected scene: %+v", snap.Scene)
	}
	if len(snap.Hover) != 1 || snap.Hover[0].ID != "rect#1" {
		t.Fatalf("unexpected hover layer: %+v", snap.Hover)
	}
	if snap.Backend != render.BackendRaster || snap.Size != [2]int{DefaultTestWidth, DefaultTestHeight} {
		t.Errorf("unexpected header: %s %v", snap.Backend, snap.Size)
	}

	path := filepath.Join(t.TempDir(), "golden", "scene.snapshot.json")
	rt := &recordingT{}
	snap.MatchesFile(rt, path)
	if len(rt.fatals) != 1 {
		t.Fatalf("expected missing golden file to be fatal, got %v", rt.fatals)
	}

	if err := snap.UpdateFile(path); err != nil {
		t.Fatalf("UpdateFile: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("golden file not written: %v", err)
	}

	rt = &recordingT{}
	snap.MatchesFile(rt, path)
	if len(rt.fatals)+len(rt.errors) != 0 {
		t.Fatalf("expected match, got fatals=%v errors=%v", rt.fatals, rt.errors)
	}

	el.Position[0] = 30
	changed := tester.CaptureSnapshot()
	diff := changed.Diff(snap)
	if !strings.Contains(diff, "+        30") {
		t.Errorf("expected position change in diff, got:\n%s", diff)
	}
	rt = &recordingT{}
	changed.MatchesFile(rt, path)
	if len(rt.errors) != 1 {
		t.Errorf("expected mismatch reported, got %v", rt.errors)
	}
}
