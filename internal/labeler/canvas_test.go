package labeler

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"boxlabel/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func pixels(img image.Image) []uint8 {
	return img.(*image.NRGBA).Pix
}

func drag(c *Canvas, from, to geometry.Point2D) {
	c.OnPressStart(from)
	c.OnPointerMove(geometry.NewPoint2D((from.X+to.X)/2, (from.Y+to.Y)/2))
	c.OnPointerMove(to)
	c.OnPressEnd(to)
}

func newLoadedCanvas(t *testing.T, w, h int) *Canvas {
	t.Helper()
	c := New(image.Pt(1000, 500), DefaultStyle())
	require.NoError(t, c.SetImage(writePNG(t, t.TempDir(), "img.png", w, h), nil))
	return c
}

func TestDragCommitsNormalizedRect(t *testing.T) {
	c := newLoadedCanvas(t, 200, 100)

	drag(c, geometry.NewPoint2D(10, 10), geometry.NewPoint2D(50, 40))
	drag(c, geometry.NewPoint2D(50, 40), geometry.NewPoint2D(10, 10))

	want := geometry.RectInt{X: 10, Y: 10, Width: 40, Height: 30}
	assert.Equal(t, []geometry.RectInt{want, want}, c.Annotations())
	assert.Equal(t, StateIdle, c.State())
}

func TestMoveDoesNotStore(t *testing.T) {
	c := newLoadedCanvas(t, 200, 100)

	c.OnPressStart(geometry.NewPoint2D(60, 60))
	c.OnPointerMove(geometry.NewPoint2D(20, 30))

	assert.Equal(t, StateDragging, c.State())
	assert.Zero(t, c.Len())
	cand, ok := c.Candidate()
	require.True(t, ok)
	assert.Equal(t, geometry.NewRect(20, 30, 40, 30), cand)

	preview := c.Image().(*image.NRGBA)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, preview.NRGBAAt(20, 30), "preview color")
	assert.Equal(t, c.Base().(*image.NRGBA).NRGBAAt(0, 0), preview.NRGBAAt(0, 0))
}

func TestPreviewNeverTouchesBase(t *testing.T) {
	c := newLoadedCanvas(t, 100, 100)
	before := append([]uint8(nil), pixels(c.Base())...)

	c.OnPressStart(geometry.NewPoint2D(10, 10))
	for i := 20; i < 90; i += 10 {
		c.OnPointerMove(geometry.NewPoint2D(float64(i), float64(i)))
	}
	assert.Equal(t, before, pixels(c.Base()))

	c.OnPressEnd(geometry.NewPoint2D(30, 30))
	require.Equal(t, 1, c.Len())

	// Only the committed rectangle remains; earlier previews left no trace.
	committed := c.Image().(*image.NRGBA)
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, committed.NRGBAAt(30, 30))
	assert.Equal(t, c.Base().(*image.NRGBA).NRGBAAt(80, 80), committed.NRGBAAt(80, 80))
}

func TestClickCommitsNothing(t *testing.T) {
	c := newLoadedCanvas(t, 100, 100)

	c.OnPressStart(geometry.NewPoint2D(10, 10))
	c.OnPressEnd(geometry.NewPoint2D(10, 10))
	assert.Zero(t, c.Len())

	drag(c, geometry.NewPoint2D(10, 10), geometry.NewPoint2D(10, 40))
	assert.Zero(t, c.Len())
}

func TestEventsWithoutPressAreIgnored(t *testing.T) {
	c := newLoadedCanvas(t, 100, 100)

	c.OnPointerMove(geometry.NewPoint2D(10, 10))
	c.OnPressEnd(geometry.NewPoint2D(50, 50))
	assert.Zero(t, c.Len())
	assert.Equal(t, pixels(c.Base()), pixels(c.Image()))
}

func TestEventsWithoutImageAreIgnored(t *testing.T) {
	c := New(image.Pt(100, 100), DefaultStyle())
	drag(c, geometry.NewPoint2D(1, 1), geometry.NewPoint2D(5, 5))

	assert.Nil(t, c.Image())
	assert.Nil(t, c.Annotations())
	assert.Equal(t, StateIdle, c.State())
}

func TestDragIsClampedToImage(t *testing.T) {
	c := newLoadedCanvas(t, 100, 80)
	drag(c, geometry.NewPoint2D(90, 70), geometry.NewPoint2D(150, -20))

	assert.Equal(t, []geometry.RectInt{{X: 90, Y: 0, Width: 10, Height: 70}}, c.Annotations())
}

func TestDeleteLastOnlyRectRestoresBase(t *testing.T) {
	c := newLoadedCanvas(t, 100, 100)
	drag(c, geometry.NewPoint2D(10, 10), geometry.NewPoint2D(50, 40))
	require.Equal(t, 1, c.Len())
	assert.NotEqual(t, pixels(c.Base()), pixels(c.Image()))

	assert.True(t, c.DeleteLast())
	assert.Zero(t, c.Len())
	assert.Empty(t, c.Annotations())
	assert.Equal(t, pixels(c.Base()), pixels(c.Image()))

	assert.False(t, c.DeleteLast())
}

func TestDeleteLastKeepsEarlierRects(t *testing.T) {
	c := newLoadedCanvas(t, 200, 200)
	drag(c, geometry.NewPoint2D(10, 10), geometry.NewPoint2D(50, 50))
	drag(c, geometry.NewPoint2D(40, 40), geometry.NewPoint2D(120, 120))

	require.True(t, c.DeleteLast())
	assert.Equal(t, []geometry.RectInt{{X: 10, Y: 10, Width: 40, Height: 40}}, c.Annotations())

	img := c.Image().(*image.NRGBA)
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, img.NRGBAAt(50, 50))
	assert.Equal(t, c.Base().(*image.NRGBA).NRGBAAt(120, 120), img.NRGBAAt(120, 120))
}

func TestSetImageConvertsCoordinates(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "big.png", 2000, 1000)

	c := New(image.Pt(1000, 500), DefaultStyle())
	require.NoError(t, c.SetImage(path, []geometry.RectInt{{X: 200, Y: 100, Width: 400, Height: 300}}))

	assert.Equal(t, image.Pt(1000, 500), c.Size())
	assert.Equal(t, geometry.Scale{X: 2, Y: 2}, c.Scale())
	assert.Equal(t, []geometry.Rect{{X: 100, Y: 50, Width: 200, Height: 150}}, c.Rects())

	drag(c, geometry.NewPoint2D(10, 10), geometry.NewPoint2D(50, 40))
	assert.Equal(t, []geometry.RectInt{
		{X: 200, Y: 100, Width: 400, Height: 300},
		{X: 20, Y: 20, Width: 80, Height: 60},
	}, c.Annotations())
}

func TestSetImageFailureKeepsState(t *testing.T) {
	c := newLoadedCanvas(t, 100, 100)
	drag(c, geometry.NewPoint2D(10, 10), geometry.NewPoint2D(50, 40))
	path := c.Path()

	broken := filepath.Join(t.TempDir(), "broken.jpg")
	require.NoError(t, os.WriteFile(broken, []byte("nope"), 0o644))

	err := c.SetImage(broken, nil)
	require.Error(t, err)
	assert.Equal(t, path, c.Path())
	assert.Equal(t, 1, c.Len())
}

func TestOnChangeFiresOnRedraw(t *testing.T) {
	c := newLoadedCanvas(t, 100, 100)
	calls := 0
	c.OnChange(func() { calls++ })

	drag(c, geometry.NewPoint2D(10, 10), geometry.NewPoint2D(50, 40))
	assert.Equal(t, 3, calls) // two moves and the release
	c.DeleteLast()
	assert.Equal(t, 4, calls)
}
