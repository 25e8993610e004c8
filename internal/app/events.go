package app

import (
	"github.com/pipelinekit/sgdesk/internal/shotgrid"
	"github.com/pipelinekit/sgdesk/internal/transfer"
)

// Event is anything Controller.Dispatch handles: user actions from the view and
// job results from the dispatcher.
type Event interface {
	isEvent()
}

// URLSubmitted is "Log In" on the URL page.
type URLSubmitted struct {
	URL string
}

// BackRequested is "Change URL" on the login page.
type BackRequested struct{}

// LoginRequested is "Log In" on the login page.
type LoginRequested struct {
	Username string
	Password string
}

// DownloadRequested is a task row's "Download files" after a folder was picked.
type DownloadRequested struct {
	TaskID   int
	TaskName string
	Dir      string
}

// UploadRequested is a task row's "Upload files" after a file was picked.
type UploadRequested struct {
	TaskID int
	Path   string
}

// LogoutRequested ends the session.
type LogoutRequested struct{}

// Job results. attempt ties login and fetch results to the login that started them.
type (
	loginSucceeded struct {
		attempt int
		session Session
	}
	loginFailed struct {
		attempt int
		err     error
	}
	tasksFetched struct {
		attempt int
		tasks   []shotgrid.Task
	}
	tasksFailed struct {
		attempt int
		err     error
	}
	downloadFinished struct {
		req    DownloadRequested
		result *transfer.DownloadResult
	}
	downloadFailed struct {
		req DownloadRequested
		err error
	}
	uploadFinished struct {
		req    UploadRequested
		result *transfer.UploadResult
	}
	uploadFailed struct {
		req UploadRequested
		err error
	}
)

func (URLSubmitted) isEvent()      {}
func (BackRequested) isEvent()     {}
func (LoginRequested) isEvent()    {}
func (DownloadRequested) isEvent() {}
func (UploadRequested) isEvent()   {}
func (LogoutRequested) isEvent()   {}

func (loginSucceeded) isEvent()   {}
func (loginFailed) isEvent()      {}
func (tasksFetched) isEvent()     {}
func (tasksFailed) isEvent()      {}
func (downloadFinished) isEvent() {}
func (downloadFailed) isEvent()   {}
func (uploadFinished) isEvent()   {}
func (uploadFailed) isEvent()     {}
