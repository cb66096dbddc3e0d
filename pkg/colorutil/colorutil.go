// Package colorutil provides shared color helpers for box rendering.
package colorutil

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Box colors: committed boxes are blue, the box being dragged is red.
var (
	Red  = color.NRGBA{R: 255, G: 0, B: 0, A: 255}
	Blue = color.NRGBA{R: 0, G: 0, B: 255, A: 255}
)

// ParseHex parses "#rrggbb", "#rrggbbaa" or the short "#rgb" form. The
// leading '#' is optional.
func ParseHex(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Hex formats c as "#rrggbb", adding the alpha byte when not opaque.
func Hex(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if n.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
}
