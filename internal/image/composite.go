package image

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Frame pairs an immutable base buffer with a working buffer. Every redraw
// starts by copying base into working, so nothing drawn on working survives
// the next Reset.
type Frame struct {
	base    *image.NRGBA
	working *image.NRGBA
}

// NewFrame creates a frame over base. The caller must not modify base
// afterwards.
func NewFrame(base *image.NRGBA) *Frame {
	f := &Frame{
		base:    base,
		working: image.NewNRGBA(base.Bounds()),
	}
	f.Reset()
	return f
}

// Reset copies the base buffer into the working buffer.
func (f *Frame) Reset() {
	draw.Copy(f.working, f.working.Bounds().Min, f.base, f.base.Bounds(), draw.Src, nil)
}

// Base returns the pristine buffer.
func (f *Frame) Base() *image.NRGBA {
	return f.base
}

// Working returns the composited buffer.
func (f *Frame) Working() *image.NRGBA {
	return f.working
}

// Bounds returns the frame bounds.
func (f *Frame) Bounds() image.Rectangle {
	return f.base.Bounds()
}

// StrokeRect draws the outline of r onto the working buffer.
func (f *Frame) StrokeRect(r image.Rectangle, c color.Color, width int) {
	StrokeRect(f.working, r, c, width)
}

// StrokeRect draws the outline of r with a pen of the given width centered on
// the rectangle edges. Parts outside dst are clipped.
func StrokeRect(dst draw.Image, r image.Rectangle, c color.Color, width int) {
	if width < 1 {
		width = 1
	}
	src := image.NewUniform(c)

	outer := image.Rect(r.Min.X-width/2, r.Min.Y-width/2, r.Max.X+(width+1)/2, r.Max.Y+(width+1)/2)
	inner := image.Rect(outer.Min.X+width, outer.Min.Y+width, outer.Max.X-width, outer.Max.Y-width)
	if inner.Dx() <= 0 || inner.Dy() <= 0 {
		draw.Draw(dst, outer, src, image.Point{}, draw.Src)
		return
	}

	bars := []image.Rectangle{
		image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, inner.Min.Y), // top
		image.Rect(outer.Min.X, inner.Max.Y, outer.Max.X, outer.Max.Y), // bottom
		image.Rect(outer.Min.X, inner.Min.Y, inner.Min.X, inner.Max.Y), // left
		image.Rect(inner.Max.X, inner.Min.Y, outer.Max.X, inner.Max.Y), // right
	}
	for _, bar := range bars {
		draw.Draw(dst, bar, src, image.Point{}, draw.Src)
	}
}
