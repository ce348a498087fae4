package cmd

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-drift/stage/pkg/debug"
	"github.com/go-drift/stage/pkg/errors"
	"github.com/go-drift/stage/pkg/frame"
	"github.com/go-drift/stage/pkg/render"
	"github.com/go-drift/stage/pkg/stage"
)

const defaultServeAddr = "127.0.0.1:9273"

func init() {
	RegisterCommand(&Command{
		Name:  "serve",
		Short: "Run a scene and inspect it over HTTP",
		Long: `Load a stage.yaml file, start its animations and keep ticking the
frame loop at the configured fps until interrupted. A debug server
exposes the running session:

  GET /health            liveness check
  GET /sessions          live sessions with element counts
  GET /scene?id=ID       scene tree of one session
  GET /frame?id=ID       current frame (format=image/png|jpeg|bmp|svg+xml)
  GET /frames            recent frame timings (last=N, minMs=MS)

Flags:
  --addr ADDR   Listen address (default: ` + defaultServeAddr + `)`,
		Usage: "stage serve [source] [--addr ADDR]",
		Run:   runServe,
	})
}

type serveOptions struct {
	source string
	addr   string
}

func parseServeArgs(args []string) (serveOptions, error) {
	opts := serveOptions{addr: defaultServeAddr}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--addr":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--addr requires a value")
			}
			i++
			opts.addr = args[i]
		case strings.HasPrefix(arg, "--"):
			return opts, fmt.Errorf("unknown flag %s", arg)
		case opts.source != "":
			return opts, fmt.Errorf("unexpected argument %q", arg)
		default:
			opts.source = arg
		}
	}
	return opts, nil
}

func runServe(args []string) error {
	opts, err := parseServeArgs(args)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, opts, nil)
}

// serve runs the scene until ctx is done. ready, when set, receives the
// debug server's port once it is listening.
func serve(ctx context.Context, opts serveOptions, ready chan<- int) error {
	res, err := loadScene(opts.source)
	if err != nil {
		return fmt.Errorf("failed to load scene: %w", err)
	}
	els, err := res.Config.Elements()
	if err != nil {
		return fmt.Errorf("invalid scene: %w", err)
	}
	if err := res.Config.CheckAnimations(); err != nil {
		return fmt.Errorf("invalid scene: %w", err)
	}

	var surface render.Surface = &pixels{img: image.NewRGBA(image.Rect(0, 0, res.Width, res.Height))}
	if res.Config.Stage.Backend == render.BackendVector {
		surface = &markup{w: res.Width, h: res.Height}
	}

	loop := frame.NewLoop(nil)
	registry := stage.NewRegistry()
	sessionOpts := res.Config.Options()
	sessionOpts.Scheduler = loop
	sessionOpts.Registry = registry
	s, err := stage.Init(surface, sessionOpts)
	if err != nil {
		return err
	}
	defer s.Dispose()

	s.Add(els...)
	if _, err := res.Config.Animate(s); err != nil {
		return err
	}

	srv := debug.New(loop, registry)
	port, err := srv.Start(opts.addr)
	if err != nil {
		return err
	}
	defer srv.Stop()

	fmt.Fprintf(stdout, "Serving %s (%dx%d, %s backend) on port %d, session %s\n",
		res.Name, res.Width, res.Height, s.Backend(), port, s.ID())
	if ready != nil {
		ready <- port
	}

	err = loop.Run(ctx, res.Interval)
	errors.Logger().Debug("frame loop stopped", "frames", loop.Frames())
	if ctx.Err() != nil {
		return nil
	}
	return err
}
