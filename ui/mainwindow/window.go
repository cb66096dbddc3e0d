// Package mainwindow provides the main application window.
package mainwindow

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"boxlabel/internal/session"
	"boxlabel/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

const statusBarHeight = 40

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	session   *session.Controller
	canvas    *canvas.BoxCanvas
	statusBar *widget.Label
	logger    *slog.Logger

	// notice is appended to the status line until the next navigation
	notice string
	quit   func()
}

// New creates the main window around an already initialised session.
func New(fyneApp fyne.App, ctrl *session.Controller, bc *canvas.BoxCanvas, viewport fyne.Size, logger *slog.Logger) *MainWindow {
	if logger == nil {
		logger = slog.Default()
	}
	win := fyneApp.NewWindow("Box Labeler")

	mw := &MainWindow{
		Window:  win,
		app:     fyneApp,
		session: ctrl,
		canvas:  bc,
		logger:  logger,
		quit:    fyneApp.Quit,
	}

	mw.setupUI(viewport)
	mw.setupEventHandlers()

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI(viewport fyne.Size) {
	mw.statusBar = widget.NewLabel("Ready")

	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		mw.canvas,                         // center
	)

	mw.SetContent(content)
	mw.Resize(fyne.NewSize(viewport.Width, viewport.Height+statusBarHeight))
	mw.SetFixedSize(true)
}

// setupEventHandlers wires keys, box edits, and the close button.
func (mw *MainWindow) setupEventHandlers() {
	mw.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		mw.HandleKey(ev.Name)
	})
	mw.canvas.OnChange(mw.updateStatus)
	mw.SetCloseIntercept(func() {
		mw.onQuit()
	})
}

// Start shows the resume image.
func (mw *MainWindow) Start() {
	mw.navigate(session.Next)
}

// HandleKey runs the action bound to a key:
// Left/Right navigate, S saves, Q saves and quits, D deletes the last box.
func (mw *MainWindow) HandleKey(key fyne.KeyName) {
	switch key {
	case fyne.KeyLeft:
		mw.navigate(session.Previous)
	case fyne.KeyRight:
		mw.navigate(session.Next)
	case fyne.KeyS:
		mw.onSave()
	case fyne.KeyQ:
		mw.onQuit()
	case fyne.KeyD:
		if !mw.session.DeleteLast() {
			mw.logger.Debug("nothing to delete")
		}
		mw.updateStatus()
	}
}

func (mw *MainWindow) navigate(dir session.Direction) {
	mw.notice = ""
	err := mw.session.Advance(dir)
	switch {
	case errors.Is(err, session.ErrNoMoreImages):
		if dir == session.Next {
			mw.notice = "reached the last image"
		} else {
			mw.notice = "reached the first image"
		}
	case err != nil:
		mw.logger.Error("navigation failed", "direction", dir, "err", err)
		mw.notice = err.Error()
	}
	mw.updateStatus()
}

func (mw *MainWindow) onSave() {
	if err := mw.session.Save(); err != nil {
		mw.logger.Error("save failed", "err", err)
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.notice = "saved"
	mw.updateStatus()
}

func (mw *MainWindow) onQuit() {
	if err := mw.session.Quit(); err != nil {
		mw.logger.Error("save on quit failed", "err", err)
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.quit()
}

func (mw *MainWindow) updateStatus() {
	mw.statusBar.SetText(formatStatus(mw.session.Status(), mw.notice))
}

func formatStatus(st session.Status, notice string) string {
	var text string
	if st.Path == "" {
		text = fmt.Sprintf("No image (%d in directory)", st.Count)
	} else {
		text = fmt.Sprintf("%d/%d  %s  (%d boxes)  %d annotated",
			st.Index+1, st.Count, filepath.Base(st.Path), st.Boxes, st.Annotated)
	}
	if notice != "" {
		text += "  [" + notice + "]"
	}
	return text
}
