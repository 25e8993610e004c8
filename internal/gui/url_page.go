package gui

import (
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/pipelinekit/sgdesk/internal/app"
	"github.com/pipelinekit/sgdesk/internal/constants"
)

// urlPage asks for the ShotGrid site. "Log In" only shows for a valid site URL.
type urlPage struct {
	entry   *widget.Entry
	next    *widget.Button
	content fyne.CanvasObject
}

func newURLPage(onSubmit func(url string)) *urlPage {
	p := &urlPage{entry: widget.NewEntry()}
	p.entry.SetPlaceHolder(constants.DefaultSiteURL)
	p.next = newPrimaryButton("Log In", func() {
		onSubmit(strings.TrimSpace(p.entry.Text))
	})
	p.entry.OnChanged = func(string) { p.refreshButton() }
	p.entry.OnSubmitted = func(text string) {
		if app.ValidSiteURL(text) {
			onSubmit(strings.TrimSpace(text))
		}
	}
	p.refreshButton()

	instructions := widget.NewLabelWithStyle("What is your ShotGrid sub domain?", fyne.TextAlignCenter, fyne.TextStyle{})
	p.content = container.NewBorder(
		container.NewHBox(layout.NewSpacer(), p.next),
		nil, nil, nil,
		container.NewCenter(container.NewVBox(
			heading(constants.AppName),
			verticalSpacer(spaceMedium),
			instructions,
			fixedWidth(480, p.entry),
		)),
	)
	return p
}

// setURL fills the entry and puts the cursor where the sub domain goes.
func (p *urlPage) setURL(url string) {
	p.entry.SetText(url)
	if url == constants.DefaultSiteURL {
		p.entry.CursorColumn = constants.SiteURLCursorPosition
		p.entry.Refresh()
	}
	p.refreshButton()
}

func (p *urlPage) refreshButton() {
	if app.ValidSiteURL(p.entry.Text) {
		p.next.Show()
	} else {
		p.next.Hide()
	}
}
