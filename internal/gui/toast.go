package gui

import (
	"errors"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"

	"github.com/pipelinekit/sgdesk/internal/constants"
)

// dialogNotifier shows controller messages as modal dialogs on the window.
type dialogNotifier struct {
	window fyne.Window
}

func (n dialogNotifier) Error(msg string) {
	dialog.ShowError(errors.New(msg), n.window)
}

func (n dialogNotifier) Info(msg string) {
	dialog.ShowInformation(constants.AppName, msg, n.window)
}
