// Package config loads the optional stage.yaml file that describes a
// session: which backend to use, the surface size, layer settings and an
// initial scene.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/stage/pkg/animation"
	"github.com/go-drift/stage/pkg/graphics"
	"github.com/go-drift/stage/pkg/render"
	"github.com/go-drift/stage/pkg/scene"
	"github.com/go-drift/stage/pkg/stage"
)

// FileName is the name of the configuration file looked up by LoadOptional.
const FileName = "stage.yaml"

const (
	DefaultWidth  = 640
	DefaultHeight = 480
	DefaultFPS    = 60
)

// Config represents the optional stage.yaml configuration.
type Config struct {
	Stage      StageConfig                `yaml:"stage"`
	Frame      FrameConfig                `yaml:"frame"`
	Layers     map[int]render.LayerConfig `yaml:"layers,omitempty"`
	Scene      []ElementConfig            `yaml:"scene,omitempty"`
	// Animations start once the scene has been added to a session.
	Animations []AnimationConfig          `yaml:"animations,omitempty"`
}

// StageConfig contains session settings.
type StageConfig struct {
	Name     string `yaml:"name,omitempty"`
	Backend  string `yaml:"backend,omitempty"`
	Requires string `yaml:"requires,omitempty"`
	Width    int    `yaml:"width,omitempty"`
	Height   int    `yaml:"height,omitempty"`
}

// FrameConfig contains frame loop settings.
type FrameConfig struct {
	FPS int `yaml:"fps,omitempty"`
}

// ElementConfig describes one scene element.
type ElementConfig struct {
	ID        string          `yaml:"id,omitempty"`
	Kind      string          `yaml:"kind"`
	Z         int             `yaml:"z,omitempty"`
	ZLevel    int             `yaml:"zlevel,omitempty"`
	Position  []float64       `yaml:"position,omitempty"`
	Scale     []float64       `yaml:"scale,omitempty"`
	Origin    []float64       `yaml:"origin,omitempty"`
	Rotation  float64         `yaml:"rotation,omitempty"`
	Invisible bool            `yaml:"invisible,omitempty"`
	Silent    bool            `yaml:"silent,omitempty"`
	Shape     map[string]any  `yaml:"shape,omitempty"`
	Style     map[string]any  `yaml:"style,omitempty"`
	Children  []ElementConfig `yaml:"children,omitempty"`
}

// AnimationConfig describes one animator. Target is the id of a scene
// element and Path a property path below it.
type AnimationConfig struct {
	Target    string           `yaml:"target"`
	Path      string           `yaml:"path,omitempty"`
	Loop      bool             `yaml:"loop,omitempty"`
	Delay     time.Duration    `yaml:"delay,omitempty"`
	Curve     string           `yaml:"curve,omitempty"`
	Keyframes []KeyframeConfig `yaml:"keyframes"`
}

// KeyframeConfig is a keyframe at offset At from the animation start.
type KeyframeConfig struct {
	At    time.Duration  `yaml:"at"`
	Props map[string]any `yaml:"props"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root       string
	ModulePath string
	Name       string
	Width      int
	Height     int
	Interval   time.Duration
	Config     *Config
}

// LoadOptional reads stage.yaml if present.
func LoadOptional(dir string) (*Config, error) {
	return Load(filepath.Join(dir, FileName), true)
}

// Load reads the configuration at path. With optional set, a missing file
// yields an empty configuration.
func Load(path string, optional bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return Parse(data)
}

// Parse decodes a stage.yaml document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	return &cfg, nil
}

// Resolve loads stage.yaml (if present) from dir and resolves defaults.
// The scene name defaults to the last element of the module path in dir's
// go.mod, or to the directory name outside a module.
func Resolve(dir string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	return cfg.Resolve(dir)
}

// Resolve fills in defaults for a configuration found in dir.
func (c *Config) Resolve(dir string) (*Resolved, error) {
	if err := c.CheckVersion(stage.Version); err != nil {
		return nil, err
	}
	if err := validateBackend(c.Stage.Backend); err != nil {
		return nil, err
	}

	modPath, _ := modulePath(dir)
	name := strings.TrimSpace(c.Stage.Name)
	if name == "" {
		name = defaultName(modPath, dir)
	}

	fps := c.Frame.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}

	return &Resolved{
		Root:       dir,
		ModulePath: modPath,
		Name:       name,
		Width:      orDefault(c.Stage.Width, DefaultWidth),
		Height:     orDefault(c.Stage.Height, DefaultHeight),
		Interval:   time.Second / time.Duration(fps),
		Config:     c,
	}, nil
}

// CheckVersion fails when the file requires a newer module than current.
func (c *Config) CheckVersion(current string) error {
	req := strings.TrimSpace(c.Stage.Requires)
	if req == "" {
		return nil
	}
	if !strings.HasPrefix(req, "v") {
		req = "v" + req
	}
	if !semver.IsValid(req) {
		return fmt.Errorf("stage.requires: invalid version %q", c.Stage.Requires)
	}
	if semver.Compare(current, req) < 0 {
		return fmt.Errorf("stage.requires %s, running %s", req, current)
	}
	return nil
}

// Options returns the session options described by the file.
func (c *Config) Options() stage.Options {
	return stage.Options{
		Backend: c.Stage.Backend,
		Layers:  c.Layers,
	}
}

// Elements builds the configured scene. Elements without an id get a
// fresh one; numbers in shape and style are stored as float64 so they can
// be animated.
func (c *Config) Elements() ([]*scene.Element, error) {
	seen := make(map[string]bool)
	els := make([]*scene.Element, 0, len(c.Scene))
	for i, ec := range c.Scene {
		el, err := ec.build(fmt.Sprintf("scene[%d]", i), seen)
		if err != nil {
			return nil, err
		}
		els = append(els, el)
	}
	return els, nil
}

// CheckAnimations validates the animations against the scene ids without
// building a session.
func (c *Config) CheckAnimations() error {
	ids := make(map[string]bool)
	var collect func([]ElementConfig)
	collect = func(ecs []ElementConfig) {
		for _, ec := range ecs {
			if ec.ID != "" {
				ids[ec.ID] = true
			}
			collect(ec.Children)
		}
	}
	collect(c.Scene)

	for i, ac := range c.Animations {
		where := fmt.Sprintf("animations[%d]", i)
		if !ids[ac.Target] {
			return fmt.Errorf("%s: unknown target %q", where, ac.Target)
		}
		if _, err := scene.ParsePath(ac.Path); err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
		if _, ok := animation.CurveByName(ac.Curve); !ok {
			return fmt.Errorf("%s: unknown curve %q", where, ac.Curve)
		}
		if len(ac.Keyframes) == 0 {
			return fmt.Errorf("%s: at least one keyframe is required", where)
		}
		for j, kf := range ac.Keyframes {
			if kf.At < 0 {
				return fmt.Errorf("%s.keyframes[%d]: negative offset %v", where, j, kf.At)
			}
		}
	}
	return nil
}

// Animate starts the configured animations on s. The scene must already
// have been added.
func (c *Config) Animate(s *stage.Session) ([]*animation.Animator, error) {
	if err := c.CheckAnimations(); err != nil {
		return nil, err
	}
	animators := make([]*animation.Animator, 0, len(c.Animations))
	for i, ac := range c.Animations {
		a := s.Animate(scene.ByID(ac.Target), ac.Path, ac.Loop)
		if a == nil {
			return animators, fmt.Errorf("animations[%d]: cannot animate %s of %q", i, ac.Path, ac.Target)
		}
		curve, _ := animation.CurveByName(ac.Curve)
		a.Curve(curve).Delay(ac.Delay)
		for _, kf := range ac.Keyframes {
			a.When(kf.At, normalize(kf.Props))
		}
		animators = append(animators, a.Start())
	}
	return animators, nil
}

func (ec ElementConfig) build(where string, seen map[string]bool) (*scene.Element, error) {
	kind := strings.TrimSpace(ec.Kind)
	if kind == "" {
		return nil, fmt.Errorf("%s: kind is required", where)
	}
	shape := normalize(ec.Shape)
	if kind != scene.KindGroup {
		if _, err := graphics.BuildPath(kind, shape); err != nil {
			return nil, fmt.Errorf("%s: %w", where, err)
		}
	} else if len(ec.Shape) > 0 {
		return nil, fmt.Errorf("%s: groups have no shape", where)
	}
	if len(ec.Children) > 0 && kind != scene.KindGroup {
		return nil, fmt.Errorf("%s: only groups have children", where)
	}

	el := scene.NewElement(kind, shape)
	if ec.ID != "" {
		if seen[ec.ID] {
			return nil, fmt.Errorf("%s: duplicate id %q", where, ec.ID)
		}
		seen[ec.ID] = true
		el.ID = ec.ID
	}
	el.Z, el.ZLevel = ec.Z, ec.ZLevel
	el.Rotation = ec.Rotation
	el.Invisible, el.Silent = ec.Invisible, ec.Silent
	for _, v := range []struct {
		name string
		src  []float64
		dst  *scene.Vector
	}{
		{"position", ec.Position, &el.Position},
		{"scale", ec.Scale, &el.Scale},
		{"origin", ec.Origin, &el.Origin},
	} {
		switch len(v.src) {
		case 0:
		case 2:
			*v.dst = scene.Vector{v.src[0], v.src[1]}
		default:
			return nil, fmt.Errorf("%s: %s needs two numbers, got %d", where, v.name, len(v.src))
		}
	}
	if style := normalize(ec.Style); style != nil {
		el.Style = style
	}

	for i, child := range ec.Children {
		c, err := child.build(fmt.Sprintf("%s.children[%d]", where, i), seen)
		if err != nil {
			return nil, err
		}
		el.Add(c)
	}
	return el, nil
}

// normalize converts yaml integers to float64 and nested maps to Props.
func normalize(m map[string]any) scene.Props {
	if m == nil {
		return nil
	}
	out := make(scene.Props, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return normalize(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item)
		}
		return out
	case string, bool:
		return v
	}
	if f, ok := graphics.Float(v); ok {
		return f
	}
	return v
}

func validateBackend(name string) error {
	if name == "" {
		return nil
	}
	for _, b := range render.Backends() {
		if b == name {
			return nil
		}
	}
	return fmt.Errorf("stage.backend: unknown backend %q (have %s)", name, strings.Join(render.Backends(), ", "))
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// FindProjectRoot walks up from the current directory to find go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a Go module (no go.mod found)")
		}
		dir = parent
	}
}

func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	return path, nil
}

func defaultName(modulePath, dir string) string {
	base := filepath.Base(dir)
	if modulePath != "" {
		if prefix, _, ok := module.SplitPathVersion(modulePath); ok {
			if i := strings.LastIndex(prefix, "/"); i >= 0 {
				prefix = prefix[i+1:]
			}
			if prefix != "" {
				base = prefix
			}
		}
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "stage"
	}
	return base
}
