// Package session drives navigation over a directory of images: which image
// is shown, where a resumed session starts, and when boxes are flushed into
// the annotation map and written to disk.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"boxlabel/internal/annotation"
	"boxlabel/pkg/geometry"
)

// ErrNoMoreImages is returned when navigation runs off either end of the list.
var ErrNoMoreImages = errors.New("no more images")

// Direction is a navigation step.
type Direction int

const (
	Previous Direction = -1
	Next     Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Previous:
		return "previous"
	case Next:
		return "next"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Display shows one image at a time and owns its boxes while shown. Boxes
// cross this interface in image coordinates.
type Display interface {
	SetImage(path string, rects []geometry.RectInt) error
	Annotations() []geometry.RectInt
}

// Deleter is implemented by displays that support removing the last box.
type Deleter interface {
	DeleteLast() bool
}

// Status summarizes the session for the status bar.
type Status struct {
	Index     int    // Cursor position, -1 before the first image
	Count     int    // Number of images in the directory
	Path      string // Displayed image, "" if none
	Boxes     int    // Boxes on the displayed image
	Annotated int    // Images recorded in the annotation map
}

// Controller owns the image list, the cursor, and the annotation map.
type Controller struct {
	paths       []string
	cursor      int
	shown       int // index of the image on the display, -1 if none
	annotations *annotation.Map
	store       *annotation.Store
	display     Display
	logger      *slog.Logger
}

// New creates a controller positioned before the first image.
func New(paths []string, store *annotation.Store, display Display, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		paths:       paths,
		cursor:      -1,
		shown:       -1,
		annotations: annotation.NewMap(),
		store:       store,
		display:     display,
		logger:      logger,
	}
}

// LoadOrInit reads the persisted map if there is one and positions the
// cursor one before the resume target, so the next Advance(Next) shows it.
// A missing file starts a fresh session; an unreadable one is an error.
func (c *Controller) LoadOrInit() error {
	m, err := c.store.Load()
	if errors.Is(err, annotation.ErrNotFound) {
		c.annotations = annotation.NewMap()
		c.cursor = -1
		c.logger.Info("starting new session", "images", len(c.paths), "results", c.store.Path())
		return nil
	}
	if err != nil {
		return err
	}

	c.annotations = m
	c.cursor = ResumeIndex(c.paths, m) - 1
	c.logger.Info("resuming session",
		"images", len(c.paths),
		"annotated", m.Len(),
		"boxes", m.Boxes(),
		"next", c.cursor+1)
	return nil
}

// ResumeIndex returns the index of the first path not yet recorded in m.
// When every path is recorded it returns the last index.
func ResumeIndex(paths []string, m *annotation.Map) int {
	for i, p := range paths {
		if !m.Has(p) {
			return i
		}
	}
	if len(paths) == 0 {
		return 0
	}
	return len(paths) - 1
}

// Advance flushes the displayed image and moves one step in dir, skipping
// images the display cannot load. At either end it returns ErrNoMoreImages
// and stays on the image already shown.
func (c *Controller) Advance(dir Direction) error {
	c.Flush()

	for i := c.cursor + int(dir); ; i += int(dir) {
		if i < 0 || i >= len(c.paths) {
			if dir == Next {
				c.logger.Info("reached the last image")
			} else {
				c.logger.Info("reached the first image")
			}
			c.settle(i)
			return ErrNoMoreImages
		}

		path := c.paths[i]
		if err := c.display.SetImage(path, c.annotations.Get(path)); err != nil {
			c.logger.Warn("skipping image", "path", path, "err", err)
			continue
		}

		c.cursor = i
		c.shown = i
		c.logger.Debug("showing image", "index", i, "path", path, "boxes", len(c.annotations.Get(path)))
		return nil
	}
}

// settle positions the cursor after navigation ran out of images at i.
func (c *Controller) settle(i int) {
	if c.shown >= 0 {
		c.cursor = c.shown
		return
	}
	switch {
	case len(c.paths) == 0:
		c.cursor = -1
	case i < 0:
		c.cursor = 0
	default:
		c.cursor = len(c.paths) - 1
	}
}

// Flush records the displayed image's boxes in the annotation map. Visiting
// an image records it even when it has no boxes.
func (c *Controller) Flush() {
	if c.shown < 0 {
		return
	}
	c.annotations.Set(c.paths[c.shown], c.display.Annotations())
}

// Save writes the annotation map, replacing the file.
func (c *Controller) Save() error {
	if err := c.store.Save(c.annotations); err != nil {
		return fmt.Errorf("failed to save annotations: %w", err)
	}
	c.logger.Info("saved annotations", "file", c.store.Path(), "images", c.annotations.Len(), "boxes", c.annotations.Boxes())
	return nil
}

// Quit flushes the displayed image and saves.
func (c *Controller) Quit() error {
	c.Flush()
	return c.Save()
}

// DeleteLast removes the most recent box on the displayed image.
func (c *Controller) DeleteLast() bool {
	d, ok := c.display.(Deleter)
	if !ok || c.shown < 0 {
		return false
	}
	return d.DeleteLast()
}

// Index returns the cursor position.
func (c *Controller) Index() int {
	return c.cursor
}

// Current returns the displayed path, or "".
func (c *Controller) Current() string {
	if c.shown < 0 {
		return ""
	}
	return c.paths[c.shown]
}

// Paths returns the image list.
func (c *Controller) Paths() []string {
	return c.paths
}

// Annotations returns the in-memory annotation map.
func (c *Controller) Annotations() *annotation.Map {
	return c.annotations
}

// Status returns a snapshot for display.
func (c *Controller) Status() Status {
	s := Status{
		Index:     c.cursor,
		Count:     len(c.paths),
		Path:      c.Current(),
		Annotated: c.annotations.Len(),
	}
	if c.shown >= 0 {
		s.Boxes = len(c.display.Annotations())
	}
	return s
}
