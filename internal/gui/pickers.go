package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
)

// Pickers asks the user for a file or a folder. The callback only runs when
// something was chosen.
type Pickers interface {
	PickFile(onPicked func(path string))
	PickFolder(onPicked func(dir string))
}

// dialogPickers uses Fyne's file dialogs.
type dialogPickers struct {
	window fyne.Window
}

func (p dialogPickers) PickFile(onPicked func(path string)) {
	d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, p.window)
			return
		}
		if r == nil {
			return
		}
		path := r.URI().Path()
		_ = r.Close()
		onPicked(path)
	}, p.window)
	d.Resize(pickerSize(p.window))
	d.Show()
}

func (p dialogPickers) PickFolder(onPicked func(dir string)) {
	d := dialog.NewFolderOpen(func(dir fyne.ListableURI, err error) {
		if err != nil {
			dialog.ShowError(err, p.window)
			return
		}
		if dir == nil {
			return
		}
		onPicked(dir.Path())
	}, p.window)
	d.Resize(pickerSize(p.window))
	d.Show()
}

func pickerSize(w fyne.Window) fyne.Size {
	s := w.Canvas().Size()
	return fyne.NewSize(s.Width*0.9, s.Height*0.9)
}
