package cmd

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-drift/stage/pkg/config"
	"github.com/go-drift/stage/pkg/frame"
	"github.com/go-drift/stage/pkg/render"
	"github.com/go-drift/stage/pkg/stage"
)

func init() {
	RegisterCommand(&Command{
		Name:  "render",
		Short: "Render a scene to an image file",
		Long: `Render the scene of a stage.yaml file and write one frame.

The source is a directory holding stage.yaml or a path to a yaml file
(default: the current directory). The output format follows the --out
extension unless --format is given.

Flags:
  --out FILE        Output file (default: <name>.png)
  --format FORMAT   png, jpeg, bmp or svg
  --bg COLOR        Background colour painted under the scene

SVG output uses the vector backend; the other formats use the raster
backend unless stage.backend says otherwise.`,
		Usage: "stage render [source] [--out FILE] [--format FORMAT] [--bg COLOR]",
		Run:   runRender,
	})
}

type renderOptions struct {
	source string
	out    string
	format string
	bg     string
}

var formatsByExt = map[string]string{
	".png":  render.FormatPNG,
	".jpg":  render.FormatJPEG,
	".jpeg": render.FormatJPEG,
	".bmp":  render.FormatBMP,
	".svg":  render.FormatSVG,
}

func parseRenderArgs(args []string) (renderOptions, error) {
	var opts renderOptions
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--out", "--format", "--bg":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("%s requires a value", arg)
			}
			i++
			switch arg {
			case "--out":
				opts.out = args[i]
			case "--format":
				opts.format = args[i]
			default:
				opts.bg = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--") {
				return opts, fmt.Errorf("unknown flag %s", arg)
			}
			if opts.source != "" {
				return opts, fmt.Errorf("unexpected argument %q", arg)
			}
			opts.source = arg
		}
	}
	return opts, nil
}

// mediaType maps a --format value or an output file name to a media type.
func mediaType(format, out string) (string, error) {
	if format != "" {
		if mt, ok := formatsByExt["."+strings.ToLower(format)]; ok {
			return mt, nil
		}
		return "", fmt.Errorf("unknown format %q (use png, jpeg, bmp or svg)", format)
	}
	if out == "" {
		return render.FormatPNG, nil
	}
	ext := strings.ToLower(filepath.Ext(out))
	if mt, ok := formatsByExt[ext]; ok {
		return mt, nil
	}
	return "", fmt.Errorf("cannot infer format from %q; pass --format", out)
}

func extension(mt string) string {
	switch mt {
	case render.FormatJPEG:
		return ".jpg"
	case render.FormatBMP:
		return ".bmp"
	case render.FormatSVG:
		return ".svg"
	}
	return ".png"
}

// loadScene resolves a source directory or yaml file.
func loadScene(source string) (*config.Resolved, error) {
	if source == "" {
		source = "."
	}
	info, err := os.Stat(source)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return config.Resolve(source)
	}
	cfg, err := config.Load(source, false)
	if err != nil {
		return nil, err
	}
	return cfg.Resolve(filepath.Dir(source))
}

// pixels is the surface of raster renders.
type pixels struct {
	img *image.RGBA
}

func (p *pixels) Size() (int, int) {
	b := p.img.Bounds()
	return b.Dx(), b.Dy()
}

func (p *pixels) Image() draw.Image { return p.img }

// markup is the surface of vector renders.
type markup struct {
	w, h int
	svg  string
}

func (m *markup) Size() (int, int)     { return m.w, m.h }
func (m *markup) SetMarkup(svg string) { m.svg = svg }

func runRender(args []string) error {
	opts, err := parseRenderArgs(args)
	if err != nil {
		return err
	}
	mt, err := mediaType(opts.format, opts.out)
	if err != nil {
		return err
	}
	res, err := loadScene(opts.source)
	if err != nil {
		return fmt.Errorf("failed to load scene: %w", err)
	}
	els, err := res.Config.Elements()
	if err != nil {
		return fmt.Errorf("invalid scene: %w", err)
	}

	var surface render.Surface = &pixels{img: image.NewRGBA(image.Rect(0, 0, res.Width, res.Height))}
	if mt == render.FormatSVG {
		surface = &markup{w: res.Width, h: res.Height}
	}

	sessionOpts := res.Config.Options()
	sessionOpts.Scheduler = frame.NewLoop(nil)
	sessionOpts.Registry = stage.NewRegistry()
	s, err := stage.Init(surface, sessionOpts)
	if err != nil {
		return err
	}
	defer s.Dispose()

	s.Add(els...)
	s.Refresh()

	url, err := s.ToDataURL(mt, opts.bg)
	if err != nil {
		return err
	}
	_, data, err := render.DecodeDataURL(url)
	if err != nil {
		return err
	}

	out := opts.out
	if out == "" {
		out = res.Name + extension(mt)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Fprintf(stdout, "Wrote %s (%dx%d, %s backend, %d elements)\n", out, s.Width(), s.Height(), s.Backend(), len(els))
	return nil
}
