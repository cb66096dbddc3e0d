// Package labeler implements the interactive rectangle canvas independently of
// any GUI toolkit: the press/drag/release state machine, the per-image
// rectangle store, and compositing onto the displayed image.
package labeler

import (
	"fmt"
	"image"
	"image/color"
	"slices"

	boximage "boxlabel/internal/image"
	"boxlabel/pkg/colorutil"
	"boxlabel/pkg/geometry"
)

// State is the pointer interaction state.
type State int

const (
	StateIdle State = iota
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// PointerHandler receives pointer events in display coordinates.
type PointerHandler interface {
	OnPressStart(p geometry.Point2D)
	OnPointerMove(p geometry.Point2D)
	OnPressEnd(p geometry.Point2D)
}

// Style controls how rectangles are rendered.
type Style struct {
	Committed color.Color // Stored rectangles
	Preview   color.Color // Rectangle being dragged
	PenWidth  int
}

// DefaultStyle draws committed boxes in blue and the live box in red.
func DefaultStyle() Style {
	return Style{
		Committed: colorutil.Blue,
		Preview:   colorutil.Red,
		PenWidth:  3,
	}
}

// Canvas holds one image at a time together with its rectangles in display
// coordinates.
type Canvas struct {
	viewport image.Point
	style    Style

	layer *boximage.Layer
	frame *boximage.Frame

	// Rectangle store, display coordinates, in commit order
	rects []geometry.Rect

	state     State
	press     geometry.Point2D
	candidate geometry.Rect

	onChange func()
}

var _ PointerHandler = (*Canvas)(nil)

// New creates a canvas that fits images into viewport.
func New(viewport image.Point, style Style) *Canvas {
	return &Canvas{
		viewport: viewport,
		style:    style,
	}
}

// OnChange sets a callback invoked after every redraw.
func (c *Canvas) OnChange(callback func()) {
	c.onChange = callback
}

// SetImage loads path and seeds the rectangle store from rects, which are in
// image coordinates. On failure the canvas keeps showing what it showed
// before.
func (c *Canvas) SetImage(path string, rects []geometry.RectInt) error {
	layer, err := boximage.Load(path, c.viewport)
	if err != nil {
		return fmt.Errorf("cannot load %s: %w", path, err)
	}

	c.layer = layer
	c.frame = boximage.NewFrame(layer.Base)
	c.rects = layer.Scale.ToDisplayRects(rects)
	c.state = StateIdle
	c.redraw()
	return nil
}

// Annotations returns the stored rectangles in image coordinates, rounded
// to whole pixels.
func (c *Canvas) Annotations() []geometry.RectInt {
	if c.layer == nil {
		return nil
	}
	return c.layer.Scale.ToImageRects(c.rects)
}

// Rects returns the stored rectangles in display coordinates.
func (c *Canvas) Rects() []geometry.Rect {
	return slices.Clone(c.rects)
}

// Len returns the number of stored rectangles.
func (c *Canvas) Len() int {
	return len(c.rects)
}

// Path returns the path of the loaded image, or "".
func (c *Canvas) Path() string {
	if c.layer == nil {
		return ""
	}
	return c.layer.Path
}

// Scale returns the display-to-image scale of the loaded image.
func (c *Canvas) Scale() geometry.Scale {
	if c.layer == nil {
		return geometry.IdentityScale
	}
	return c.layer.Scale
}

// Size returns the displayed image size, or the zero point with no image.
func (c *Canvas) Size() image.Point {
	if c.layer == nil {
		return image.Point{}
	}
	return c.layer.Size()
}

// State returns the current interaction state.
func (c *Canvas) State() State {
	return c.state
}

// Candidate returns the rectangle being dragged, if any.
func (c *Canvas) Candidate() (geometry.Rect, bool) {
	return c.candidate, c.state == StateDragging
}

// Image returns the composited frame, or nil with no image loaded.
func (c *Canvas) Image() image.Image {
	if c.frame == nil {
		return nil
	}
	return c.frame.Working()
}

// Base returns the pristine displayed image, or nil.
func (c *Canvas) Base() image.Image {
	if c.frame == nil {
		return nil
	}
	return c.frame.Base()
}

// OnPressStart begins a drag at p. A press while dragging restarts the drag.
func (c *Canvas) OnPressStart(p geometry.Point2D) {
	if c.frame == nil {
		return
	}
	c.press = c.clamp(p)
	c.candidate = geometry.Rect{X: c.press.X, Y: c.press.Y}
	c.state = StateDragging
}

// OnPointerMove updates the live rectangle and renders it over the base image
// and stored rectangles. Nothing is stored.
func (c *Canvas) OnPointerMove(p geometry.Point2D) {
	if c.state != StateDragging {
		return
	}
	c.candidate = geometry.RectFromDrag(c.press, c.clamp(p))
	c.redraw()
}

// OnPressEnd commits the dragged rectangle. A release that spans no area
// commits nothing.
func (c *Canvas) OnPressEnd(p geometry.Point2D) {
	if c.state != StateDragging {
		return
	}
	c.state = StateIdle

	r := geometry.RectFromDrag(c.press, c.clamp(p))
	if !r.Empty() {
		c.rects = append(c.rects, r)
	}
	c.candidate = geometry.Rect{}
	c.redraw()
}

// DeleteLast removes the most recent rectangle and redraws the rest onto a
// fresh copy of the base image. It reports whether anything was removed.
func (c *Canvas) DeleteLast() bool {
	if len(c.rects) == 0 {
		return false
	}
	c.rects = c.rects[:len(c.rects)-1]
	c.redraw()
	return true
}

func (c *Canvas) clamp(p geometry.Point2D) geometry.Point2D {
	size := c.Size()
	p.X = min(max(p.X, 0), float64(size.X))
	p.Y = min(max(p.Y, 0), float64(size.Y))
	return p
}

func (c *Canvas) redraw() {
	if c.frame == nil {
		return
	}

	c.frame.Reset()
	for _, r := range c.rects {
		c.frame.StrokeRect(r.Round().Image(), c.style.Committed, c.style.PenWidth)
	}
	if c.state == StateDragging && !c.candidate.Empty() {
		c.frame.StrokeRect(c.candidate.Round().Image(), c.style.Preview, c.style.PenWidth)
	}

	if c.onChange != nil {
		c.onChange()
	}
}
