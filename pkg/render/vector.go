package render

import (
	"fmt"
	"image"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/go-drift/stage/pkg/graphics"
	"github.com/go-drift/stage/pkg/input"
	"github.com/go-drift/stage/pkg/scene"
)

func init() {
	Register(BackendVector, NewVector)
}

// MarkupSink is a surface that displays SVG markup. The vector backend
// pushes every frame to it.
type MarkupSink interface {
	SetMarkup(svg string)
}

// VectorRoot is the proxy surface the vector backend draws into. It holds
// the current markup and stands in for the bound surface as the input
// source: hosts feed pointer samples to it with Dispatch.
type VectorRoot struct {
	width, height int
	markup        string
	cursor        string

	listeners map[int]func(input.PointerEvent)
	nextID    int
}

var (
	_ input.Source       = (*VectorRoot)(nil)
	_ input.CursorSetter = (*VectorRoot)(nil)
)

// Size implements Surface.
func (r *VectorRoot) Size() (int, int) { return r.width, r.height }

// Markup returns the SVG document of the last frame.
func (r *VectorRoot) Markup() string { return r.markup }

// Cursor returns the cursor style requested by the session.
func (r *VectorRoot) Cursor() string { return r.cursor }

// SetCursor implements input.CursorSetter.
func (r *VectorRoot) SetCursor(style string) { r.cursor = style }

// Subscribe implements input.Source.
func (r *VectorRoot) Subscribe(fn func(input.PointerEvent)) func() {
	if r.listeners == nil {
		r.listeners = make(map[int]func(input.PointerEvent))
	}
	r.nextID++
	id := r.nextID
	r.listeners[id] = fn
	return func() { delete(r.listeners, id) }
}

// Listeners returns the number of subscribed pointer listeners.
func (r *VectorRoot) Listeners() int { return len(r.listeners) }

// Dispatch delivers a pointer sample to the subscribers.
func (r *VectorRoot) Dispatch(ev input.PointerEvent) {
	for _, id := range slices.Sorted(maps.Keys(r.listeners)) {
		if fn, ok := r.listeners[id]; ok {
			fn(ev)
		}
	}
}

// Vector renders the store as SVG markup. Motion blur has no markup
// equivalent and is ignored; clear colours become background rects.
type Vector struct {
	surface Surface
	store   *scene.Store
	root    *VectorRoot
	layers  map[int]LayerConfig

	scene string
	hover string
	r     rasterizer
}

// NewVector is the Factory of the "vector" backend. It accepts any
// surface.
func NewVector(surface Surface, store *scene.Store) (Painter, error) {
	w, h := surface.Size()
	return &Vector{
		surface: surface,
		store:   store,
		root:    &VectorRoot{width: w, height: h, cursor: "default"},
		layers:  make(map[int]LayerConfig),
	}, nil
}

func (p *Vector) Type() string { return BackendVector }

func (p *Vector) Width() int { return p.root.width }

func (p *Vector) Height() int { return p.root.height }

// Root returns the *VectorRoot proxy, never the bound surface.
func (p *Vector) Root() any { return p.root }

func (p *Vector) ConfigureLayer(zlevel int, cfg LayerConfig) {
	p.layers[zlevel] = cfg
}

func (p *Vector) Refresh() {
	if p.store == nil {
		return
	}
	var b strings.Builder
	byLevel := make(map[int][]*scene.Element)
	for _, el := range p.store.Drawables() {
		byLevel[el.ZLevel] = append(byLevel[el.ZLevel], el)
	}
	levels := slices.Collect(maps.Keys(byLevel))
	for zlevel := range p.layers {
		if _, ok := byLevel[zlevel]; !ok {
			levels = append(levels, zlevel)
		}
	}
	slices.Sort(levels)
	for _, zlevel := range levels {
		fmt.Fprintf(&b, `<g data-zlevel="%d">`, zlevel)
		if c, ok := graphics.ParseColor(p.layers[zlevel].ClearColor); ok && c.A > 0 {
			fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="%s"/>`, p.root.width, p.root.height, graphics.ColorString(c))
		}
		for _, el := range byLevel[zlevel] {
			writeElement(&b, el)
		}
		b.WriteString("</g>")
	}
	p.scene = b.String()
	p.store.Walk(func(el *scene.Element) bool {
		el.ClearDirty()
		return true
	})
	p.RefreshHover()
}

func (p *Vector) RefreshHover() {
	if p.store == nil {
		return
	}
	var b strings.Builder
	for _, el := range p.store.Hovers() {
		if !el.Invisible {
			writeElement(&b, el)
		}
	}
	p.hover = b.String()
	p.publish()
}

func (p *Vector) publish() {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		p.root.width, p.root.height, p.root.width, p.root.height)
	b.WriteString(p.scene)
	if p.hover != "" {
		b.WriteString(`<g class="hover">`)
		b.WriteString(p.hover)
		b.WriteString("</g>")
	}
	b.WriteString("</svg>")
	p.root.markup = b.String()
	if sink, ok := p.surface.(MarkupSink); ok {
		sink.SetMarkup(p.root.markup)
	}
}

// Resize picks up the bound surface's size and redraws.
func (p *Vector) Resize() {
	w, h := p.surface.Size()
	if w == p.root.width && h == p.root.height {
		return
	}
	p.root.width, p.root.height = w, h
	p.Refresh()
}

// ToDataURL encodes the frame. SVG is exported as is; raster formats are
// rendered offscreen from the store.
func (p *Vector) ToDataURL(format, bg string) (string, error) {
	if format == FormatSVG {
		markup := p.root.markup
		if c, ok := graphics.ParseColor(bg); ok && c.A > 0 {
			head, body, _ := strings.Cut(markup, ">")
			markup = fmt.Sprintf(`%s><rect width="100%%" height="100%%" fill="%s"/>%s`, head, graphics.ColorString(c), body)
		}
		return dataURL(FormatSVG, []byte(markup)), nil
	}
	img := image.NewRGBA(image.Rect(0, 0, p.root.width, p.root.height))
	if c, ok := graphics.ParseColor(bg); ok {
		fillImage(img, c)
	}
	if p.store != nil {
		for _, el := range p.store.Drawables() {
			p.r.drawElement(img, el, graphics.Identity)
		}
		for _, el := range p.store.Hovers() {
			if !el.Invisible {
				p.r.drawElement(img, el, graphics.Identity)
			}
		}
	}
	return encodeDataURL(img, format)
}

func (p *Vector) PathToImage(el *scene.Element, w, h int) (image.Image, error) {
	return pathToImage(&p.r, el, w, h)
}

func (p *Vector) Clear() {
	p.scene = ""
	p.hover = ""
	if p.root != nil {
		p.publish()
	}
}

// Dispose drops the markup and every proxy subscriber.
func (p *Vector) Dispose() {
	if p.root != nil {
		p.root.listeners = nil
		p.root.markup = ""
	}
	p.store = nil
	p.surface = nil
}

func writeElement(b *strings.Builder, el *scene.Element) {
	path, err := el.Path()
	if err != nil || path.IsEmpty() {
		return
	}
	pt := paintOf(el)
	fmt.Fprintf(b, `<path id="%s" d="%s"`, escapeAttr(el.ID), pathData(path))
	if m := el.Transform(); m != graphics.Identity {
		fmt.Fprintf(b, ` transform="matrix(%s %s %s %s %s %s)"`,
			num(m[0]), num(m[1]), num(m[2]), num(m[3]), num(m[4]), num(m[5]))
	}
	if pt.hasFill {
		fmt.Fprintf(b, ` fill="%s"`, graphics.ColorString(pt.fill))
	} else {
		b.WriteString(` fill="none"`)
	}
	if pt.hasStroke && pt.lineWidth > 0 {
		fmt.Fprintf(b, ` stroke="%s" stroke-width="%s"`, graphics.ColorString(pt.stroke), num(pt.lineWidth))
	}
	b.WriteString("/>")
}

func pathData(p *graphics.Path) string {
	parts := make([]string, 0, len(p.Commands))
	for _, cmd := range p.Commands {
		var seg strings.Builder
		switch cmd.Op {
		case graphics.PathOpMoveTo:
			seg.WriteByte('M')
		case graphics.PathOpLineTo:
			seg.WriteByte('L')
		case graphics.PathOpCubicTo:
			seg.WriteByte('C')
		case graphics.PathOpClose:
			seg.WriteByte('Z')
		}
		for j, pt := range cmd.Pts {
			if j > 0 {
				seg.WriteByte(' ')
			}
			seg.WriteString(num(pt.X) + "," + num(pt.Y))
		}
		parts = append(parts, seg.String())
	}
	return strings.Join(parts, " ")
}

func num(f float64) string {
	if f == 0 {
		f = 0 // no "-0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `"`, "&quot;")

func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}
