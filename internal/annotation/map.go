// Package annotation holds the per-image bounding box map and its on-disk
// pickle representation.
package annotation

import (
	"slices"

	"boxlabel/pkg/geometry"
)

// Map associates image paths with their boxes in image coordinates. Keys keep
// their insertion order; a key present with no boxes means the image was
// visited and left empty.
type Map struct {
	keys  []string
	boxes map[string][]geometry.RectInt
}

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{boxes: make(map[string][]geometry.RectInt)}
}

// Set replaces the boxes stored for path.
func (m *Map) Set(path string, rects []geometry.RectInt) {
	if _, ok := m.boxes[path]; !ok {
		m.keys = append(m.keys, path)
	}
	m.boxes[path] = slices.Clone(rects)
}

// Get returns a copy of the boxes for path, or nil.
func (m *Map) Get(path string) []geometry.RectInt {
	rects := m.boxes[path]
	if len(rects) == 0 {
		return nil
	}
	return slices.Clone(rects)
}

// Has reports whether path has been recorded.
func (m *Map) Has(path string) bool {
	_, ok := m.boxes[path]
	return ok
}

// Keys returns the recorded paths in insertion order.
func (m *Map) Keys() []string {
	return slices.Clone(m.keys)
}

// Len returns the number of recorded paths.
func (m *Map) Len() int {
	return len(m.keys)
}

// Boxes returns the total number of boxes over all paths.
func (m *Map) Boxes() int {
	n := 0
	for _, r := range m.boxes {
		n += len(r)
	}
	return n
}
