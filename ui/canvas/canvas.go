// Package canvas provides the Fyne widget that shows the current image and
// forwards pointer events to the labeler.
package canvas

import (
	"image"

	"boxlabel/internal/labeler"
	"boxlabel/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// placeholderSize is shown before any image is loaded.
var placeholderSize = fyne.NewSize(400, 300)

// BoxCanvas displays the labeler's composited frame. It owns no geometry of
// its own: every press, move, and release goes to the wrapped PointerHandler.
type BoxCanvas struct {
	widget.BaseWidget

	labeler *labeler.Canvas
	raster  *fynecanvas.Raster

	pressed bool
	lastPos fyne.Position

	onChange func()
}

var (
	_ desktop.Mouseable = (*BoxCanvas)(nil)
	_ fyne.Draggable    = (*BoxCanvas)(nil)
)

// NewBoxCanvas wraps lc in a widget.
func NewBoxCanvas(lc *labeler.Canvas) *BoxCanvas {
	bc := &BoxCanvas{labeler: lc}

	bc.raster = fynecanvas.NewRaster(bc.draw)
	bc.raster.ScaleMode = fynecanvas.ImageScalePixels
	bc.raster.SetMinSize(placeholderSize)

	lc.OnChange(func() {
		bc.raster.Refresh()
		if bc.onChange != nil {
			bc.onChange()
		}
	})

	bc.ExtendBaseWidget(bc)
	return bc
}

// OnChange sets a callback invoked after the frame changes.
func (bc *BoxCanvas) OnChange(callback func()) {
	bc.onChange = callback
}

// Labeler returns the wrapped labeler canvas.
func (bc *BoxCanvas) Labeler() *labeler.Canvas {
	return bc.labeler
}

// SetImage loads an image and its boxes (image coordinates) and resizes the
// raster to the displayed size.
func (bc *BoxCanvas) SetImage(path string, rects []geometry.RectInt) error {
	if err := bc.labeler.SetImage(path, rects); err != nil {
		return err
	}
	bc.pressed = false
	bc.updateContentSize()
	return nil
}

// Annotations returns the current image's boxes in image coordinates.
func (bc *BoxCanvas) Annotations() []geometry.RectInt {
	return bc.labeler.Annotations()
}

// DeleteLast removes the most recent box.
func (bc *BoxCanvas) DeleteLast() bool {
	return bc.labeler.DeleteLast()
}

// MouseDown starts a box on primary-button press.
func (bc *BoxCanvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	bc.pressed = true
	bc.lastPos = ev.Position
	bc.labeler.OnPressStart(toPoint(ev.Position))
}

// MouseUp commits the box being dragged.
func (bc *BoxCanvas) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || !bc.pressed {
		return
	}
	bc.pressed = false
	bc.labeler.OnPressEnd(toPoint(ev.Position))
}

// Dragged updates the live box.
func (bc *BoxCanvas) Dragged(ev *fyne.DragEvent) {
	if !bc.pressed {
		return
	}
	bc.lastPos = ev.Position
	bc.labeler.OnPointerMove(toPoint(ev.Position))
}

// DragEnd commits at the last drag position when the release happened
// outside the widget and no MouseUp arrives.
func (bc *BoxCanvas) DragEnd() {
	if !bc.pressed {
		return
	}
	bc.pressed = false
	bc.labeler.OnPressEnd(toPoint(bc.lastPos))
}

// Refresh redraws the raster.
func (bc *BoxCanvas) Refresh() {
	bc.raster.Refresh()
	bc.BaseWidget.Refresh()
}

// CreateRenderer implements fyne.Widget.
func (bc *BoxCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &boxCanvasRenderer{canvas: bc}
}

// imageSize returns the displayed image size in canvas units.
func (bc *BoxCanvas) imageSize() fyne.Size {
	size := bc.labeler.Size()
	if size.X == 0 || size.Y == 0 {
		return placeholderSize
	}
	return fyne.NewSize(float32(size.X), float32(size.Y))
}

func (bc *BoxCanvas) updateContentSize() {
	size := bc.imageSize()
	bc.raster.SetMinSize(size)
	bc.raster.Resize(size)
	bc.Refresh()
}

// draw is the raster generator.
func (bc *BoxCanvas) draw(w, h int) image.Image {
	if img := bc.labeler.Image(); img != nil {
		return img
	}
	return image.NewNRGBA(image.Rect(0, 0, w, h))
}

func toPoint(p fyne.Position) geometry.Point2D {
	return geometry.NewPoint2D(float64(p.X), float64(p.Y))
}

type boxCanvasRenderer struct {
	canvas *BoxCanvas
}

// Layout keeps the raster at image size in the top-left corner so display
// coordinates equal widget coordinates.
func (r *boxCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.raster.Move(fyne.NewPos(0, 0))
	r.canvas.raster.Resize(r.canvas.imageSize())
}

func (r *boxCanvasRenderer) MinSize() fyne.Size {
	return r.canvas.imageSize()
}

func (r *boxCanvasRenderer) Refresh() {
	r.Layout(r.canvas.Size())
	r.canvas.raster.Refresh()
}

func (r *boxCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.raster}
}

func (r *boxCanvasRenderer) Destroy() {}
