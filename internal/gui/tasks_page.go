package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/pipelinekit/sgdesk/internal/shotgrid"
)

// tasksPage lists the assigned tasks under the status bar.
type tasksPage struct {
	pickers    Pickers
	onUpload   func(taskID int, path string)
	onDownload func(taskID int, taskName, dir string)

	title   *widget.Label
	status  *StatusBar
	logout  *widget.Button
	empty   *widget.Label
	list    *fyne.Container
	rows    []*TaskRow
	content fyne.CanvasObject
}

func newTasksPage(pickers Pickers, onLogout func(), onUpload func(int, string), onDownload func(int, string, string)) *tasksPage {
	p := &tasksPage{
		pickers:    pickers,
		onUpload:   onUpload,
		onDownload: onDownload,
		title:      heading("Tasks"),
		status:     NewStatusBar(),
		empty:      widget.NewLabelWithStyle("No tasks assigned.", fyne.TextAlignCenter, fyne.TextStyle{Italic: true}),
		list:       container.NewVBox(),
	}
	p.logout = widget.NewButtonWithIcon("Log Out", theme.LogoutIcon(), onLogout)
	p.empty.Hide()

	header := container.NewBorder(nil, nil, nil, p.logout, p.title)
	p.content = container.NewBorder(
		container.NewVBox(header, p.status),
		nil, nil, nil,
		container.NewStack(p.empty, container.NewVScroll(container.NewPadded(p.list))),
	)
	return p
}

// setTasks replaces every row.
func (p *tasksPage) setTasks(tasks []shotgrid.Task) {
	p.rows = make([]*TaskRow, 0, len(tasks))
	objects := make([]fyne.CanvasObject, 0, len(tasks))
	for _, t := range tasks {
		row := NewTaskRow(t, p.pickers, p.onUpload, p.onDownload)
		p.rows = append(p.rows, row)
		objects = append(objects, row)
	}
	p.list.Objects = objects
	p.list.Refresh()

	if len(tasks) == 0 && tasks != nil {
		p.empty.Show()
	} else {
		p.empty.Hide()
	}
}

// setUser shows who is logged in on the page title.
func (p *tasksPage) setUser(username string) {
	if username == "" {
		p.title.SetText("Tasks")
		return
	}
	p.title.SetText("Tasks for " + username)
}
