// Command boxlabel-validate writes a copy of every labeled image with its
// boxes drawn on, so annotations can be checked by eye.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"boxlabel/internal/config"
	"boxlabel/internal/logging"
	"boxlabel/internal/validate"
	"boxlabel/internal/version"
	"boxlabel/pkg/colorutil"

	"github.com/spf13/cobra"
)

var (
	imageDir   string
	configPath string
	logLevel   string
	labels     bool
)

var rootCmd = &cobra.Command{
	Use:          "boxlabel-validate",
	Short:        "Render saved bounding boxes onto copies of the labeled images",
	Version:      version.String(),
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd)
	},
}

func init() {
	rootCmd.Flags().StringVar(&imageDir, "dir", "test_images", "Directory holding the images and results file")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to a TOML config file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&labels, "labels", false, "Draw each box's index next to it")
}

func run(cmd *cobra.Command) error {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger := logging.New(level)

	if err := checkDir(imageDir); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	c, err := colorutil.ParseHex(cfg.Validate.Color)
	if err != nil {
		return err
	}

	res, err := validate.Run(validate.Options{
		Dir:         imageDir,
		ResultsFile: cfg.ResultsFile,
		OutputDir:   cfg.Validate.OutputDir,
		Color:       c,
		Thickness:   cfg.Validate.Thickness,
		Labels:      labels || cfg.Validate.Labels,
		Progress:    os.Stderr,
	}, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d images to %s (%d skipped)\n", res.Written, res.OutputDir, res.Skipped)
	return nil
}

// checkDir rejects a --dir that is missing or not a directory.
func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("image directory %s not found", dir)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
