package graphics

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// Transparent is fully transparent black.
var Transparent = color.RGBA{}

// ParseColor converts a style value to a colour. It accepts color.Color
// values, hex strings ("#rgb", "#rrggbb", "#rrggbbaa"), the keywords
// "none" and "transparent", and SVG colour names.
func ParseColor(v any) (color.RGBA, bool) {
	switch c := v.(type) {
	case nil:
		return Transparent, false
	case color.RGBA:
		return c, true
	case color.Color:
		return color.RGBAModel.Convert(c).(color.RGBA), true
	case string:
		return parseColorString(c)
	}
	return Transparent, false
}

func parseColorString(s string) (color.RGBA, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "":
		return Transparent, false
	case "none", "transparent":
		return Transparent, true
	}
	if strings.HasPrefix(s, "#") {
		alpha := uint8(0xff)
		if len(s) == 9 {
			var a uint8
			if _, err := fmt.Sscanf(s[7:], "%02x", &a); err != nil {
				return Transparent, false
			}
			alpha = a
			s = s[:7]
		}
		c, err := colorful.Hex(s)
		if err != nil {
			return Transparent, false
		}
		r, g, b := c.RGB255()
		return premultiply(r, g, b, alpha), true
	}
	if c, ok := colornames.Map[s]; ok {
		return c, true
	}
	return Transparent, false
}

// premultiply builds an alpha-premultiplied RGBA from straight components.
func premultiply(r, g, b, a uint8) color.RGBA {
	if a == 0xff {
		return color.RGBA{R: r, G: g, B: b, A: a}
	}
	m := uint16(a)
	return color.RGBA{
		R: uint8(uint16(r) * m / 0xff),
		G: uint8(uint16(g) * m / 0xff),
		B: uint8(uint16(b) * m / 0xff),
		A: a,
	}
}

// straight undoes premultiplication.
func straight(c color.RGBA) (r, g, b uint8) {
	if c.A == 0 {
		return 0, 0, 0
	}
	if c.A == 0xff {
		return c.R, c.G, c.B
	}
	a := uint16(c.A)
	return uint8(uint16(c.R) * 0xff / a), uint8(uint16(c.G) * 0xff / a), uint8(uint16(c.B) * 0xff / a)
}

// ColorString formats c as "#rrggbb" when opaque and as
// "rgba(r,g,b,a)" otherwise.
func ColorString(c color.RGBA) string {
	r, g, b := straight(c)
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", r, g, b)
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%.3g)", r, g, b, float64(c.A)/0xff)
}

// LerpColor blends a towards b by t in RGB space, with alpha interpolated
// linearly.
func LerpColor(a, b color.RGBA, t float64) color.RGBA {
	ar, ag, ab := straight(a)
	br, bg, bb := straight(b)
	ca := colorful.Color{R: float64(ar) / 0xff, G: float64(ag) / 0xff, B: float64(ab) / 0xff}
	cb := colorful.Color{R: float64(br) / 0xff, G: float64(bg) / 0xff, B: float64(bb) / 0xff}
	r, g, bl := ca.BlendRgb(cb, t).Clamped().RGB255()
	alpha := float64(a.A) + (float64(b.A)-float64(a.A))*t
	return premultiply(r, g, bl, uint8(alpha+0.5))
}
