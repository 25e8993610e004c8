package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/pipelinekit/sgdesk/internal/events"
)

// StatusBar shows what the task page is busy with and the progress of the file
// being transferred. It is hidden while idle. Call its methods on the UI goroutine.
type StatusBar struct {
	widget.BaseWidget

	message string
	file    string

	label    *widget.Label
	spinner  *widget.Activity
	fileName *widget.Label
	bar      *widget.ProgressBar
	infinite *widget.ProgressBarInfinite
}

// NewStatusBar creates a hidden status bar.
func NewStatusBar() *StatusBar {
	sb := &StatusBar{
		label:    widget.NewLabel(""),
		spinner:  widget.NewActivity(),
		fileName: widget.NewLabel(""),
		bar:      widget.NewProgressBar(),
		infinite: widget.NewProgressBarInfinite(),
	}
	sb.label.Alignment = fyne.TextAlignCenter
	sb.fileName.TextStyle = fyne.TextStyle{Italic: true}
	sb.fileName.Truncation = fyne.TextTruncateEllipsis
	sb.ExtendBaseWidget(sb)
	sb.reset()
	return sb
}

// SetMessage shows text with a spinner; "" hides the bar.
func (sb *StatusBar) SetMessage(text string) {
	sb.message = text
	if text == "" {
		sb.reset()
		return
	}
	sb.label.SetText(text)
	sb.spinner.Start()
	sb.spinner.Show()
	sb.Show()
}

// Message returns the text currently shown.
func (sb *StatusBar) Message() string {
	return sb.message
}

// File returns the name of the file whose progress is shown.
func (sb *StatusBar) File() string {
	return sb.file
}

// Progress returns the determinate bar's value.
func (sb *StatusBar) Progress() float64 {
	return sb.bar.Value
}

// ApplyTransfer updates the file progress from a transfer event. Events arriving
// while no activity is shown are ignored.
func (sb *StatusBar) ApplyTransfer(ev *events.TransferEvent) {
	if sb.message == "" {
		return
	}

	switch ev.Type() {
	case events.EventTransferStarted, events.EventTransferProgress:
		sb.file = ev.Name
		if ev.Size > 0 {
			sb.fileName.SetText(fmt.Sprintf("%s (%s of %s)", ev.Name, formatBytes(ev.Bytes), formatBytes(ev.Size)))
			sb.infinite.Stop()
			sb.infinite.Hide()
			sb.bar.SetValue(ev.Progress)
			sb.bar.Show()
		} else {
			sb.fileName.SetText(fmt.Sprintf("%s (%s)", ev.Name, formatBytes(ev.Bytes)))
			sb.bar.Hide()
			sb.infinite.Show()
			sb.infinite.Start()
		}
		sb.fileName.Show()
	case events.EventTransferCompleted:
		sb.bar.SetValue(1)
	case events.EventTransferFailed:
		sb.fileName.SetText(fmt.Sprintf("%s failed", ev.Name))
		sb.infinite.Stop()
		sb.infinite.Hide()
	}
}

func (sb *StatusBar) reset() {
	sb.file = ""
	sb.spinner.Stop()
	sb.spinner.Hide()
	sb.fileName.SetText("")
	sb.fileName.Hide()
	sb.bar.SetValue(0)
	sb.bar.Hide()
	sb.infinite.Stop()
	sb.infinite.Hide()
	sb.Hide()
}

// CreateRenderer implements fyne.Widget
func (sb *StatusBar) CreateRenderer() fyne.WidgetRenderer {
	content := container.NewVBox(
		container.NewCenter(container.NewHBox(sb.spinner, sb.label)),
		sb.fileName,
		sb.bar,
		sb.infinite,
	)
	return widget.NewSimpleRenderer(content)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
