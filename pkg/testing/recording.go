package testing

import (
	"github.com/go-drift/stage/pkg/render"
	"github.com/go-drift/stage/pkg/scene"
)

// BackendRecording is the backend name of RecordingPainter. It wraps the
// backend the surface probes to.
const BackendRecording = "recording"

func init() {
	render.Register(BackendRecording, func(surface render.Surface, store *scene.Store) (render.Painter, error) {
		inner, err := render.New(render.Probe(surface), surface, store)
		if err != nil {
			return nil, err
		}
		return &RecordingPainter{Painter: inner, Layers: make(map[int]render.LayerConfig)}, nil
	})
}

// RecordingPainter counts the calls a session makes on its painter and
// forwards them to the real backend.
type RecordingPainter struct {
	render.Painter

	Refreshes      int
	HoverRefreshes int
	Resizes        int
	Clears         int
	Disposed       bool
	Layers         map[int]render.LayerConfig
}

func (p *RecordingPainter) Refresh() {
	p.Refreshes++
	p.Painter.Refresh()
}

func (p *RecordingPainter) RefreshHover() {
	p.HoverRefreshes++
	p.Painter.RefreshHover()
}

func (p *RecordingPainter) Resize() {
	p.Resizes++
	p.Painter.Resize()
}

func (p *RecordingPainter) ConfigureLayer(zlevel int, cfg render.LayerConfig) {
	p.Layers[zlevel] = cfg
	p.Painter.ConfigureLayer(zlevel, cfg)
}

func (p *RecordingPainter) Clear() {
	p.Clears++
	p.Painter.Clear()
}

func (p *RecordingPainter) Dispose() {
	p.Disposed = true
	p.Painter.Dispose()
}
