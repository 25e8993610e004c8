package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/pipelinekit/sgdesk/internal/shotgrid"
)

// TaskRow shows one task with its upload and download buttons. It holds no
// transfer state: each button fires one callback once a picker returns a choice.
type TaskRow struct {
	widget.BaseWidget

	task shotgrid.Task

	nameLabel      *widget.Label
	dueLabel       *widget.Label
	uploadButton   *widget.Button
	downloadButton *widget.Button
}

// NewTaskRow creates a row. onUpload receives (taskID, file path), onDownload
// (taskID, task name, folder).
func NewTaskRow(task shotgrid.Task, pickers Pickers, onUpload func(taskID int, path string), onDownload func(taskID int, taskName, dir string)) *TaskRow {
	row := &TaskRow{
		task:      task,
		nameLabel: widget.NewLabel(`Name: "` + task.Name + `"`),
		dueLabel:  widget.NewLabel("Due: " + dueText(task.DueDate)),
	}
	row.nameLabel.TextStyle = fyne.TextStyle{Bold: true}
	row.nameLabel.Truncation = fyne.TextTruncateEllipsis

	row.uploadButton = widget.NewButtonWithIcon("Upload files", theme.UploadIcon(), func() {
		pickers.PickFile(func(path string) {
			onUpload(task.ID, path)
		})
	})
	row.downloadButton = widget.NewButtonWithIcon("Download files", theme.DownloadIcon(), func() {
		pickers.PickFolder(func(dir string) {
			onDownload(task.ID, task.Name, dir)
		})
	})

	row.ExtendBaseWidget(row)
	return row
}

func dueText(due string) string {
	if due == "" {
		return "none"
	}
	return due
}

// CreateRenderer implements fyne.Widget
func (r *TaskRow) CreateRenderer() fyne.WidgetRenderer {
	info := container.NewVBox(r.nameLabel, r.dueLabel)
	buttons := container.NewHBox(layout.NewSpacer(), r.uploadButton, r.downloadButton)
	card := container.NewBorder(nil, widget.NewSeparator(), nil, buttons, info)
	return widget.NewSimpleRenderer(card)
}
