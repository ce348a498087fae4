package graphics

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   any
		want color.RGBA
		ok   bool
	}{
		{"#ff0000", color.RGBA{R: 0xff, A: 0xff}, true},
		{"#0f0", color.RGBA{G: 0xff, A: 0xff}, true},
		{"blue", color.RGBA{B: 0xff, A: 0xff}, true},
		{"transparent", Transparent, true},
		{"#00000080", color.RGBA{A: 0x80}, true},
		{color.RGBA{R: 1, G: 2, B: 3, A: 255}, color.RGBA{R: 1, G: 2, B: 3, A: 255}, true},
		{"no-such-colour", Transparent, false},
		{12, Transparent, false},
	}
	for _, tt := range tests {
		got, ok := ParseColor(tt.in)
		assert.Equal(t, tt.ok, ok, "ParseColor(%v) ok", tt.in)
		assert.Equal(t, tt.want, got, "ParseColor(%v)", tt.in)
	}
}

func TestColorString(t *testing.T) {
	assert.Equal(t, "#ff8000", ColorString(color.RGBA{R: 0xff, G: 0x80, A: 0xff}))
	assert.Equal(t, "rgba(0,0,0,0)", ColorString(Transparent))
}

func TestLerpColor(t *testing.T) {
	red := color.RGBA{R: 0xff, A: 0xff}
	blue := color.RGBA{B: 0xff, A: 0xff}
	assert.Equal(t, red, LerpColor(red, blue, 0))
	assert.Equal(t, blue, LerpColor(red, blue, 1))
	mid := LerpColor(red, blue, 0.5)
	assert.InDelta(t, 0x80, int(mid.R), 1)
	assert.InDelta(t, 0x80, int(mid.B), 1)
}

func TestBuildPath_RectContains(t *testing.T) {
	p, err := BuildPath(KindRect, map[string]any{"x": 10, "y": 10, "width": 20, "height": 10})
	require.NoError(t, err)

	assert.True(t, p.Contains(Offset{15, 15}))
	assert.False(t, p.Contains(Offset{5, 15}))
	assert.Equal(t, RectFromLTWH(10, 10, 20, 10), p.Bounds())
}

func TestBuildPath_Circle(t *testing.T) {
	p, err := BuildPath(KindCircle, map[string]any{"cx": 50.0, "cy": 50.0, "r": 10.0})
	require.NoError(t, err)

	b := p.Bounds()
	assert.InDelta(t, 40, b.Left, 0.01)
	assert.InDelta(t, 60, b.Right, 0.01)
	assert.True(t, p.Contains(Offset{50, 50}))
	assert.False(t, p.Contains(Offset{58, 58}))
}

func TestBuildPath_Errors(t *testing.T) {
	_, err := BuildPath("star", nil)
	assert.Error(t, err)
	_, err = BuildPath(KindPolygon, map[string]any{"points": []any{1.0, 2.0}})
	assert.Error(t, err)
}

func TestCompose(t *testing.T) {
	m := Compose(Offset{10, 0}, Offset{1, 1}, Offset{}, math.Pi/2)
	got := m.Apply(Offset{1, 0})
	assert.InDelta(t, 10, got.X, 1e-9)
	assert.InDelta(t, 1, got.Y, 1e-9)

	inv, ok := m.Invert()
	require.True(t, ok)
	back := inv.Apply(got)
	assert.InDelta(t, 1, back.X, 1e-9)
	assert.InDelta(t, 0, back.Y, 1e-9)
}
