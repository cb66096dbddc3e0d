// Package config holds the labeler and validator settings and reads them from
// an optional TOML file.
package config

import (
	"fmt"
	"image"

	"boxlabel/internal/annotation"
	"boxlabel/internal/labeler"
	"boxlabel/pkg/colorutil"

	"github.com/BurntSushi/toml"
)

// Config holds the application configuration.
type Config struct {
	ResultsFile string         `toml:"results_file"`
	Viewport    ViewportConfig `toml:"viewport"`
	Style       StyleConfig    `toml:"style"`
	Validate    ValidateConfig `toml:"validate"`
}

// ViewportConfig is the fixed area images are fitted into.
type ViewportConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// StyleConfig controls rectangle rendering in the labeler.
type StyleConfig struct {
	CommittedColor string `toml:"committed_color"`
	PreviewColor   string `toml:"preview_color"`
	PenWidth       int    `toml:"pen_width"`
}

// ValidateConfig controls the validator output.
type ValidateConfig struct {
	Color     string `toml:"color"`
	Thickness int    `toml:"thickness"`
	OutputDir string `toml:"output_dir"`
	Labels    bool   `toml:"labels"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		ResultsFile: annotation.DefaultFileName,
		Viewport: ViewportConfig{
			Width:  1000,
			Height: 500,
		},
		Style: StyleConfig{
			CommittedColor: colorutil.Hex(colorutil.Blue),
			PreviewColor:   colorutil.Hex(colorutil.Red),
			PenWidth:       3,
		},
		Validate: ValidateConfig{
			Color:     colorutil.Hex(colorutil.Blue),
			Thickness: 2,
			OutputDir: "annotated",
		},
	}
}

// Load reads a TOML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Check(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Check validates value ranges and color syntax.
func (c *Config) Check() error {
	if c.ResultsFile == "" {
		return fmt.Errorf("results_file must not be empty")
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", c.Viewport.Width, c.Viewport.Height)
	}
	if c.Style.PenWidth <= 0 {
		return fmt.Errorf("style.pen_width must be positive")
	}
	if c.Validate.Thickness <= 0 {
		return fmt.Errorf("validate.thickness must be positive")
	}
	if c.Validate.OutputDir == "" {
		return fmt.Errorf("validate.output_dir must not be empty")
	}
	for _, s := range []string{c.Style.CommittedColor, c.Style.PreviewColor, c.Validate.Color} {
		if _, err := colorutil.ParseHex(s); err != nil {
			return err
		}
	}
	return nil
}

// ViewportSize returns the viewport as an image.Point.
func (c *Config) ViewportSize() image.Point {
	return image.Pt(c.Viewport.Width, c.Viewport.Height)
}

// LabelerStyle converts the style section for the canvas.
func (c *Config) LabelerStyle() (labeler.Style, error) {
	committed, err := colorutil.ParseHex(c.Style.CommittedColor)
	if err != nil {
		return labeler.Style{}, err
	}
	preview, err := colorutil.ParseHex(c.Style.PreviewColor)
	if err != nil {
		return labeler.Style{}, err
	}
	return labeler.Style{
		Committed: committed,
		Preview:   preview,
		PenWidth:  c.Style.PenWidth,
	}, nil
}
