// Package testing provides a session testing harness for stage.
//
// # Quick Start
//
// Create a tester, add elements, and pump frames:
//
//	func TestMyScene(t *testing.T) {
//	    tester := stagetest.NewTester(t)
//	    box := scene.NewElement("rect", scene.Props{"width": 20.0, "height": 20.0})
//	    box.Style["fill"] = "red"
//	    tester.Session().Add(box)
//
//	    tester.Pump()
//	    if tester.Refreshes() != 1 {
//	        t.Error("expected one draw")
//	    }
//
//	    // Simulate pointer input
//	    tester.Tap(stagetest.ByID(box.ID))
//	}
//
// The tester owns a [FakeClock], a manual frame loop and a private
// registry, so tests never touch frame.Default or stage.DefaultRegistry.
//
// # Snapshot Testing
//
// Capture and compare the scene graph:
//
//	snapshot := tester.CaptureSnapshot()
//	snapshot.MatchesFile(t, "testdata/my_scene.snapshot.json")
//
// Update snapshots with:
//
//	STAGE_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Animation Testing
//
// Control time for deterministic animation tests:
//
//	tester.Clock().Advance(100 * time.Millisecond)
//	tester.Pump()
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import stagetest "github.com/go-drift/stage/pkg/testing"
package testing
