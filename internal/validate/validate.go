// Package validate renders saved boxes onto copies of the annotated images so
// the annotations can be checked by eye.
package validate

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"boxlabel/internal/annotation"
	"boxlabel/pkg/colorutil"
	"boxlabel/pkg/geometry"

	"github.com/schollz/progressbar/v3"
	"gocv.io/x/gocv"
)

// ErrNoAnnotations is returned when the results file does not exist.
var ErrNoAnnotations = errors.New("annotations cannot be found")

// writableExts are the output formats OpenCV encodes; anything else is
// written as PNG.
var writableExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".bmp": true,
	".tif": true, ".tiff": true, ".webp": true,
}

// Options configures a validation run.
type Options struct {
	Dir         string      // Directory holding the results file
	ResultsFile string      // Results file name inside Dir
	OutputDir   string      // Output folder name inside Dir
	Color       color.Color // Box color
	Thickness   int         // Box line width
	Labels      bool        // Draw each box's index
	Progress    io.Writer   // Progress bar output, nil to disable
}

// Result reports what a run produced.
type Result struct {
	OutputDir string
	Written   int
	Skipped   int
	Boxes     int
}

// Run writes an annotated copy of every image recorded in the results file.
// Images that cannot be read or written are logged and skipped.
func Run(opts Options, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Color == nil {
		opts.Color = colorutil.Blue
	}

	store := annotation.NewStore(opts.Dir, opts.ResultsFile)
	m, err := store.Load()
	if errors.Is(err, annotation.ErrNotFound) {
		return Result{}, fmt.Errorf("%s: %w", store.Path(), ErrNoAnnotations)
	}
	if err != nil {
		return Result{}, err
	}

	res := Result{OutputDir: filepath.Join(opts.Dir, opts.OutputDir)}
	if err := os.MkdirAll(res.OutputDir, 0o755); err != nil {
		return res, fmt.Errorf("failed to create output folder: %w", err)
	}

	progress := opts.Progress
	if progress == nil {
		progress = io.Discard
	}
	bar := progressbar.NewOptions(m.Len(),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("annotating"),
		progressbar.OptionShowCount(),
	)

	for _, path := range m.Keys() {
		rects := m.Get(path)
		out, err := annotateFile(path, rects, res.OutputDir, opts)
		if perr := bar.Add(1); perr != nil {
			logger.Debug("progress bar write failed", "err", perr)
		}
		if err != nil {
			logger.Warn("skipping image", "path", path, "err", err)
			res.Skipped++
			continue
		}
		logger.Debug("wrote annotated image", "path", out, "boxes", len(rects))
		res.Written++
		res.Boxes += len(rects)
	}
	if err := bar.Finish(); err != nil {
		logger.Debug("progress bar write failed", "err", err)
	}

	logger.Info("validation finished",
		"output", res.OutputDir,
		"written", res.Written,
		"skipped", res.Skipped,
		"boxes", res.Boxes)
	return res, nil
}

// OutputPath returns where the annotated copy of path is written.
func OutputPath(outDir, path string) string {
	out := filepath.Join(outDir, filepath.Base(path))
	if !writableExts[strings.ToLower(filepath.Ext(out))] {
		out += ".png"
	}
	return out
}

func annotateFile(path string, rects []geometry.RectInt, outDir string, opts Options) (string, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return "", fmt.Errorf("failed to read %s", path)
	}

	Annotate(&img, rects, opts.Color, opts.Thickness, opts.Labels)

	out := OutputPath(outDir, path)
	if !gocv.IMWrite(out, img) {
		return "", fmt.Errorf("failed to write %s", out)
	}
	return out, nil
}

// Annotate outlines every rectangle on img in place. With labels set, each
// box is tagged with its position in the list.
func Annotate(img *gocv.Mat, rects []geometry.RectInt, c color.Color, thickness int, labels bool) {
	col := color.RGBAModel.Convert(c).(color.RGBA)
	for i, r := range rects {
		rect := r.Image()
		gocv.Rectangle(img, rect, col, thickness)
		if labels {
			gocv.PutText(img, strconv.Itoa(i), image.Pt(rect.Min.X+2, rect.Min.Y+14),
				gocv.FontHersheyPlain, 1.0, col, 1)
		}
	}
}
