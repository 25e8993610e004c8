package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Spacing used between page sections
const (
	spaceSmall  float32 = 8
	spaceMedium float32 = 16
	spaceLarge  float32 = 24
)

// verticalSpacer is a transparent block height units tall.
func verticalSpacer(height float32) fyne.CanvasObject {
	spacer := canvas.NewRectangle(nil)
	spacer.SetMinSize(fyne.NewSize(0, height))
	return spacer
}

// fixedWidth pads obj to at least width, so single-line entries don't collapse
// inside centering containers.
func fixedWidth(width float32, obj fyne.CanvasObject) fyne.CanvasObject {
	spacer := canvas.NewRectangle(nil)
	spacer.SetMinSize(fyne.NewSize(width, 0))
	return container.NewStack(spacer, obj)
}

// newPrimaryButton makes a high importance button. Fyne only draws
// ForegroundOnPrimary text for HighImportance.
func newPrimaryButton(label string, tapped func()) *widget.Button {
	btn := widget.NewButton(label, tapped)
	btn.Importance = widget.HighImportance
	return btn
}

// heading is a bold, centered label.
func heading(text string) *widget.Label {
	l := widget.NewLabelWithStyle(text, fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	l.SizeName = theme.SizeNameHeadingText
	return l
}
