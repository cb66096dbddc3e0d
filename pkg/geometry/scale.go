package geometry

import "image"

// Scale is the per-axis ratio original/displayed. Multiplying a display
// coordinate by it yields an image coordinate.
type Scale struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// IdentityScale is used when an image is shown at its native size.
var IdentityScale = Scale{X: 1, Y: 1}

// NewScale computes the scale between an original image size and the size it
// is rendered at. An empty displayed dimension yields identity on that axis,
// so the result is never zero for a decoded image.
func NewScale(original, displayed image.Point) Scale {
	s := IdentityScale
	if displayed.X > 0 && original.X > 0 {
		s.X = float64(original.X) / float64(displayed.X)
	}
	if displayed.Y > 0 && original.Y > 0 {
		s.Y = float64(original.Y) / float64(displayed.Y)
	}
	return s
}

// IsIdentity reports whether no rescaling happens on either axis.
func (s Scale) IsIdentity() bool {
	return s.Transform() == Identity()
}

// Transform returns the display-to-image mapping as an affine transform.
func (s Scale) Transform() AffineTransform {
	return ScaleTransform(s.X, s.Y)
}

// ToImage converts a display-coordinate rectangle to image coordinates.
func (s Scale) ToImage(r Rect) Rect {
	return s.Transform().ApplyRect(r)
}

// ToDisplay converts an image-coordinate rectangle to display coordinates.
// A degenerate scale leaves r unchanged.
func (s Scale) ToDisplay(r Rect) Rect {
	inv, ok := s.Transform().Inverse()
	if !ok {
		return r
	}
	return inv.ApplyRect(r)
}

// ToImageRects converts and rounds a list of display rectangles for persistence.
func (s Scale) ToImageRects(rects []Rect) []RectInt {
	out := make([]RectInt, len(rects))
	for i, r := range rects {
		out[i] = s.ToImage(r).Round()
	}
	return out
}

// ToDisplayRects converts persisted rectangles into display coordinates.
func (s Scale) ToDisplayRects(rects []RectInt) []Rect {
	out := make([]Rect, len(rects))
	for i, r := range rects {
		out[i] = s.ToDisplay(r.ToFloat())
	}
	return out
}
