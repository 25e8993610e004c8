// Package notify raises desktop notifications for finished transfers.
// It uses github.com/gen2brain/beeep for cross-platform notification support.
package notify

import (
	"fmt"
	"path/filepath"

	"github.com/gen2brain/beeep"

	"github.com/pipelinekit/sgdesk/internal/constants"
	"github.com/pipelinekit/sgdesk/internal/events"
	"github.com/pipelinekit/sgdesk/internal/logging"
)

// Notifier sends desktop notifications. The zero value is not usable; call NewNotifier.
type Notifier struct {
	logger  *logging.Logger
	enabled bool

	// send defaults to beeep.Notify; tests replace it
	send func(title, message string) error
}

// NewNotifier creates a notifier. Notifications are only sent while enabled.
func NewNotifier(enabled bool, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Notifier{
		logger:  logger.Named("notify"),
		enabled: enabled,
		send:    beeepNotify,
	}
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	return n.enabled
}

// TransferComplete announces a finished download (where is the task directory)
// or upload (where is the uploaded file).
func (n *Notifier) TransferComplete(direction, taskName, where string) {
	if !n.IsEnabled() {
		return
	}

	var title, message string
	if direction == events.TransferUpload {
		title = "Upload Complete"
		message = fmt.Sprintf("%s uploaded to task \"%s\"", filepath.Base(where), truncate(taskName, 40))
	} else {
		title = "Download Complete"
		message = fmt.Sprintf("Task \"%s\" downloaded to:\n%s", truncate(taskName, 40), shortenPath(where))
	}

	if err := n.send(title, message); err != nil {
		n.logger.Warn().Err(err).Str("task", taskName).Msg("Failed to send transfer complete notification")
	}
}

// TransferFailed announces a failed download or upload.
func (n *Notifier) TransferFailed(direction, taskName, errorMsg string) {
	if !n.IsEnabled() {
		return
	}

	title := "Download Failed"
	if direction == events.TransferUpload {
		title = "Upload Failed"
	}
	message := fmt.Sprintf("Task \"%s\" failed:\n%s", truncate(taskName, 40), truncate(errorMsg, 100))

	if err := n.send(title, message); err != nil {
		n.logger.Warn().Err(err).Str("task", taskName).Msg("Failed to send transfer failed notification")
	}
}

// beeepNotify is cross-platform: toast notifications on Windows,
// the notification center on macOS, D-Bus on Linux.
func beeepNotify(title, message string) error {
	return beeep.Notify(constants.AppName+": "+title, message, "")
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// shortenPath abbreviates a long path for display in notifications.
func shortenPath(path string) string {
	const maxLen = 60

	if len(path) <= maxLen {
		return path
	}

	// drive/root + ... + last 2 path components
	_, file := filepath.Split(path)
	parentDir := filepath.Base(filepath.Dir(path))
	short := filepath.Join("...", parentDir, file)

	vol := filepath.VolumeName(path)
	if vol != "" && len(vol)+len(short)+1 <= maxLen {
		short = vol + string(filepath.Separator) + short
	}

	if len(short) > maxLen {
		return "..." + path[len(path)-(maxLen-3):]
	}
	return short
}
