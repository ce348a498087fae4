// Package stage binds a scene graph to a drawing surface.
//
// A [Session] owns everything needed to show one surface: the scene
// store, a painter from package render, an input dispatcher and an
// animation engine ticking on a frame loop. Mutations only mark the
// session dirty; the next frame tick draws once, however many changes
// were made in between.
//
//	s, err := stage.Init(canvas, stage.Options{})
//	if err != nil {
//	    return err
//	}
//	defer s.Dispose()
//
//	box := scene.NewElement("rect", scene.Props{"width": 40.0, "height": 40.0})
//	box.Style["fill"] = "steelblue"
//	s.Add(box)
//	s.Animate(scene.ByHandle(box), "position", true).
//	    When(time.Second, map[string]any{"0": 200.0}).
//	    Start()
//
// Sessions are registered in a [Registry] from Init until Dispose so they
// can be found again by id.
package stage

// Version is the module version, compared against the "requires" key of
// stage.yaml files.
const Version = "v0.1.0"

// Dispose disposes s, or every session in DefaultRegistry when s is nil.
func Dispose(s *Session) {
	if s == nil {
		DefaultRegistry.DisposeAll()
		return
	}
	s.Dispose()
}

// GetInstance returns the session registered in DefaultRegistry under id.
func GetInstance(id string) (*Session, bool) {
	return DefaultRegistry.Get(id)
}

// DelInstance detaches id from DefaultRegistry without disposing the
// session.
func DelInstance(id string) {
	DefaultRegistry.Detach(id)
}
