// Package image provides image loading, directory listing, and the
// base/working buffer pair the labeler composites rectangles into.
package image

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"boxlabel/pkg/geometry"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNotImage is returned for files whose type is not an image.
var ErrNotImage = errors.New("not an image file")

// Layer is a decoded image prepared for on-screen display.
type Layer struct {
	Path     string         // Original file path
	Original image.Point    // Size of the file in image pixels
	Base     *image.NRGBA   // Downscaled pristine copy, never drawn on
	Scale    geometry.Scale // Display-to-image ratio for this layer
}

// Decode reads an image file without any orientation or color transform, so
// pixel coordinates match the file as stored.
func Decode(path string) (image.Image, error) {
	if !IsImage(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotImage)
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Load decodes path and fits it into the viewport, keeping the aspect ratio.
// Images already inside the viewport are kept at native size.
func Load(path string, viewport image.Point) (*Layer, error) {
	img, err := Decode(path)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%s: empty image", path)
	}

	var base *image.NRGBA
	if viewport.X > 0 && viewport.Y > 0 {
		base = imaging.Fit(img, viewport.X, viewport.Y, imaging.Lanczos)
	} else {
		base = imaging.Clone(img)
	}

	return &Layer{
		Path:     path,
		Original: b.Size(),
		Base:     base,
		Scale:    geometry.NewScale(b.Size(), base.Bounds().Size()),
	}, nil
}

// Width returns the displayed width in pixels.
func (l *Layer) Width() int {
	if l.Base == nil {
		return 0
	}
	return l.Base.Bounds().Dx()
}

// Height returns the displayed height in pixels.
func (l *Layer) Height() int {
	if l.Base == nil {
		return 0
	}
	return l.Base.Bounds().Dy()
}

// Size returns the displayed size.
func (l *Layer) Size() image.Point {
	return image.Pt(l.Width(), l.Height())
}

// IsImage reports whether path looks like an image, first by extension and
// then by sniffing the file header.
func IsImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	if ext != "" {
		if t := mime.TypeByExtension(ext); t != "" {
			return strings.HasPrefix(t, "image/")
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false
	}
	return strings.HasPrefix(http.DetectContentType(head[:n]), "image/")
}

// SupportedFormats returns the extensions the decoder registry handles.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}
}

// ListDir returns the image files directly inside dir, sorted by name. Paths
// are dir joined with the file name.
func ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if IsImage(p) {
			paths = append(paths, p)
		}
	}
	return paths, nil
}
