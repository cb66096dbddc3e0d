// Package main provides the entry point for the Box Labeler application.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"boxlabel/internal/annotation"
	"boxlabel/internal/config"
	boximage "boxlabel/internal/image"
	"boxlabel/internal/labeler"
	"boxlabel/internal/logging"
	"boxlabel/internal/session"
	"boxlabel/internal/version"
	"boxlabel/ui/canvas"
	"boxlabel/ui/mainwindow"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"
)

const appID = "io.github.boxlabel"

var (
	imageDir   string
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:          "boxlabel",
	Short:        "Draw bounding boxes over a directory of images",
	Version:      version.String(),
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().StringVar(&imageDir, "dir", "test_images", "Directory of images to label")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to a TOML config file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func run() error {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger := logging.New(level)
	slog.SetDefault(logger)

	info, err := os.Stat(imageDir)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("image directory %s not found", imageDir)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", imageDir)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	style, err := cfg.LabelerStyle()
	if err != nil {
		return err
	}

	paths, err := boximage.ListDir(imageDir)
	if err != nil {
		return err
	}
	logger.Info("starting", "version", version.Version, "dir", imageDir, "images", len(paths))

	bc := canvas.NewBoxCanvas(labeler.New(cfg.ViewportSize(), style))
	store := annotation.NewStore(imageDir, cfg.ResultsFile)
	ctrl := session.New(paths, store, bc, logger)
	if err := ctrl.LoadOrInit(); err != nil {
		return err
	}

	a := app.NewWithID(appID)
	viewport := cfg.ViewportSize()
	win := mainwindow.New(a, ctrl, bc, fyne.NewSize(float32(viewport.X), float32(viewport.Y)), logger)
	win.Start()
	win.ShowAndRun()
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
