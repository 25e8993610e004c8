package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

type loginPage struct {
	username *widget.Entry
	password *widget.Entry
	back     *widget.Button
	login    *widget.Button
	content  fyne.CanvasObject
}

func newLoginPage(onBack func(), onLogin func(username, password string)) *loginPage {
	p := &loginPage{
		username: widget.NewEntry(),
		password: widget.NewPasswordEntry(),
	}
	submit := func() { onLogin(p.username.Text, p.password.Text) }

	p.back = widget.NewButtonWithIcon("Change URL", theme.NavigateBackIcon(), onBack)
	p.login = newPrimaryButton("Log In.", submit)
	p.password.OnSubmitted = func(string) { submit() }

	form := widget.NewForm(
		widget.NewFormItem("Username:", p.username),
		widget.NewFormItem("Password:", p.password),
	)

	p.content = container.NewBorder(
		container.NewHBox(p.back),
		nil, nil, nil,
		container.NewCenter(container.NewVBox(
			fixedWidth(420, form),
			verticalSpacer(spaceSmall),
			container.NewCenter(p.login),
		)),
	)
	return p
}

func (p *loginPage) setLogin(username, password string) {
	p.username.SetText(username)
	p.password.SetText(password)
}
