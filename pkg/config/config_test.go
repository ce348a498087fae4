package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/stage/pkg/render"
	"github.com/go-drift/stage/pkg/scene"
	stagetest "github.com/go-drift/stage/pkg/testing"
)

const sample = `
stage:
  name: demo
  backend: raster
  requires: v0.1.0
  width: 320
  height: 200
frame:
  fps: 30
layers:
  0: { clearColor: "#ffffff" }
  2: { motionBlur: true, lastFrameAlpha: 0.5 }
scene:
  - id: box
    kind: rect
    z: 1
    position: [5, 6]
    shape: { x: 10, y: 10, width: 50, height: 40 }
    style: { fill: "#f00", lineWidth: 2 }
  - kind: group
    zlevel: 2
    children:
      - { id: dot, kind: circle, shape: { cx: 0, cy: 0, r: 4 } }
      - { kind: polygon, shape: { points: [0, 0, 10, 0, 5, 8] } }
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadOptional_Missing(t *testing.T) {
	cfg, err := LoadOptional(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, cfg.Scene)
	assert.Equal(t, "", cfg.Options().Backend)
}

func TestLoadOptional_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, "stage: [")
	_, err := LoadOptional(dir)
	assert.ErrorContains(t, err, "failed to parse stage.yaml")
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, sample)

	res, err := Resolve(dir)
	require.NoError(t, err)
	assert.Equal(t, "demo", res.Name)
	assert.Equal(t, 320, res.Width)
	assert.Equal(t, 200, res.Height)
	assert.Equal(t, time.Second/30, res.Interval)

	opts := res.Config.Options()
	assert.Equal(t, render.BackendRaster, opts.Backend)
	assert.Equal(t, "#ffffff", opts.Layers[0].ClearColor)
	assert.True(t, opts.Layers[2].MotionBlur)
	assert.Equal(t, 0.5, opts.Layers[2].LastFrameAlpha)
}

func TestResolve_Defaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module example.com/scenes/lobby/v2\n\ngo 1.24\n")

	res, err := Resolve(dir)
	require.NoError(t, err)
	assert.Equal(t, "example.com/scenes/lobby/v2", res.ModulePath)
	assert.Equal(t, "lobby", res.Name)
	assert.Equal(t, DefaultWidth, res.Width)
	assert.Equal(t, DefaultHeight, res.Height)
	assert.Equal(t, time.Second/DefaultFPS, res.Interval)
}

func TestResolve_UnknownBackend(t *testing.T) {
	cfg := &Config{Stage: StageConfig{Backend: "webgl"}}
	_, err := cfg.Resolve(t.TempDir())
	assert.ErrorContains(t, err, `unknown backend "webgl"`)
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		requires string
		current  string
		wantErr  string
	}{
		{requires: "", current: "v0.1.0"},
		{requires: "v0.1.0", current: "v0.1.0"},
		{requires: "0.0.9", current: "v0.1.0"},
		{requires: "v0.2.0", current: "v0.1.0", wantErr: "stage.requires v0.2.0, running v0.1.0"},
		{requires: "latest", current: "v0.1.0", wantErr: "invalid version"},
	}
	for _, tt := range tests {
		t.Run(tt.requires, func(t *testing.T) {
			cfg := &Config{Stage: StageConfig{Requires: tt.requires}}
			err := cfg.CheckVersion(tt.current)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestElements(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	els, err := cfg.Elements()
	require.NoError(t, err)
	require.Len(t, els, 2)

	box := els[0]
	assert.Equal(t, "box", box.ID)
	assert.Equal(t, 1, box.Z)
	assert.Equal(t, scene.Vector{5, 6}, box.Position)
	assert.Equal(t, scene.Vector{1, 1}, box.Scale)
	assert.Equal(t, 50.0, box.Shape["width"], "yaml integers become float64")
	assert.Equal(t, 2.0, box.Style["lineWidth"])
	assert.True(t, box.Contains(20, 20))

	group := els[1]
	assert.True(t, group.IsGroup())
	assert.Equal(t, 2, group.ZLevel)
	require.Len(t, group.Children(), 2)
	assert.Equal(t, "dot", group.Children()[0].ID)
	assert.NotEmpty(t, group.Children()[1].ID)
}

func TestElements_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		scene   []ElementConfig
		wantErr string
	}{
		{"missing kind", []ElementConfig{{ID: "a"}}, "scene[0]: kind is required"},
		{"unknown kind", []ElementConfig{{Kind: "star"}}, `unknown shape kind "star"`},
		{"short polygon", []ElementConfig{{Kind: "polygon", Shape: map[string]any{"points": []any{1, 2}}}}, "points"},
		{"duplicate id", []ElementConfig{{ID: "a", Kind: "rect"}, {ID: "a", Kind: "rect"}}, `scene[1]: duplicate id "a"`},
		{"children on shape", []ElementConfig{{Kind: "rect", Children: []ElementConfig{{Kind: "rect"}}}}, "only groups have children"},
		{"bad position", []ElementConfig{{Kind: "rect", Position: []float64{1}}}, "position needs two numbers"},
		{"nested error", []ElementConfig{{Kind: "group", Children: []ElementConfig{{Kind: ""}}}}, "scene[0].children[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&Config{Scene: tt.scene}).Elements()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

const animated = `
scene:
  - id: box
    kind: rect
    shape: { width: 10, height: 10 }
    style: { fill: red, opacity: 1 }
animations:
  - target: box
    path: position
    curve: easeInOut
    keyframes:
      - { at: 100ms, props: { "0": 50 } }
  - target: box
    path: style
    delay: 20ms
    keyframes:
      - { at: 0s, props: { opacity: 1 } }
      - { at: 50ms, props: { opacity: 0 } }
`

func TestAnimate(t *testing.T) {
	cfg, err := Parse([]byte(animated))
	require.NoError(t, err)
	require.Len(t, cfg.Animations, 2)
	assert.Equal(t, 100*time.Millisecond, cfg.Animations[0].Keyframes[0].At)
	assert.Equal(t, 20*time.Millisecond, cfg.Animations[1].Delay)

	tester := stagetest.NewTester(t)
	els, err := cfg.Elements()
	require.NoError(t, err)
	tester.Add(els...)

	animators, err := cfg.Animate(tester.Session())
	require.NoError(t, err)
	assert.Len(t, animators, 2)
	assert.Len(t, els[0].Animators(), 2)

	require.NoError(t, tester.PumpAndSettle(time.Second))
	assert.Equal(t, scene.Vector{50, 0}, els[0].Position)
	assert.Equal(t, 0.0, els[0].Style["opacity"])
}

func TestCheckAnimations_Invalid(t *testing.T) {
	tests := []struct {
		name string
		anim AnimationConfig
		want string
	}{
		{"unknown target", AnimationConfig{Target: "nope", Keyframes: []KeyframeConfig{{}}}, `unknown target "nope"`},
		{"unknown curve", AnimationConfig{Target: "box", Curve: "wobble", Keyframes: []KeyframeConfig{{}}}, `unknown curve "wobble"`},
		{"no keyframes", AnimationConfig{Target: "box"}, "at least one keyframe"},
		{"negative offset", AnimationConfig{Target: "box", Keyframes: []KeyframeConfig{{At: -time.Second}}}, "negative offset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Scene:      []ElementConfig{{ID: "box", Kind: "rect"}},
				Animations: []AnimationConfig{tt.anim},
			}
			assert.ErrorContains(t, cfg.CheckAnimations(), tt.want)
		})
	}
}
