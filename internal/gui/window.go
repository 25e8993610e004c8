package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"

	"github.com/pipelinekit/sgdesk/internal/app"
	"github.com/pipelinekit/sgdesk/internal/constants"
	"github.com/pipelinekit/sgdesk/internal/events"
	"github.com/pipelinekit/sgdesk/internal/shotgrid"
)

// mainWindow stacks the three pages and implements app.View. Widget events
// become app events passed to dispatch.
type mainWindow struct {
	window   fyne.Window
	dispatch func(app.Event)

	url   *urlPage
	login *loginPage
	tasks *tasksPage

	pages   []fyne.CanvasObject
	current app.Page
	content *fyne.Container
}

func newMainWindow(w fyne.Window, pickers Pickers) *mainWindow {
	m := &mainWindow{window: w}

	m.url = newURLPage(func(url string) {
		m.emit(app.URLSubmitted{URL: url})
	})
	m.login = newLoginPage(func() {
		m.emit(app.BackRequested{})
	}, func(username, password string) {
		m.emit(app.LoginRequested{Username: username, Password: password})
	})
	m.tasks = newTasksPage(pickers, func() {
		m.emit(app.LogoutRequested{})
	}, func(taskID int, path string) {
		m.emit(app.UploadRequested{TaskID: taskID, Path: path})
	}, func(taskID int, taskName, dir string) {
		m.emit(app.DownloadRequested{TaskID: taskID, TaskName: taskName, Dir: dir})
	})

	// Same order as app.PageURL, app.PageLogin, app.PageTasks
	m.pages = []fyne.CanvasObject{m.url.content, m.login.content, m.tasks.content}
	m.content = container.NewStack(m.pages...)
	m.ShowPage(app.PageURL)
	return m
}

func (m *mainWindow) emit(ev app.Event) {
	if m.dispatch != nil {
		m.dispatch(ev)
	}
}

// ShowPage implements app.View
func (m *mainWindow) ShowPage(p app.Page) {
	m.current = p
	for i, page := range m.pages {
		if app.Page(i) == p {
			page.Show()
		} else {
			page.Hide()
		}
	}
	m.content.Refresh()

	switch p {
	case app.PageURL:
		m.window.Canvas().Focus(m.url.entry)
	case app.PageLogin:
		m.window.Canvas().Focus(m.login.username)
	}
}

// SetSiteURL implements app.View
func (m *mainWindow) SetSiteURL(url string) { m.url.setURL(url) }

// SetLogin implements app.View
func (m *mainWindow) SetLogin(username, password string) { m.login.setLogin(username, password) }

// SetTasks implements app.View
func (m *mainWindow) SetTasks(tasks []shotgrid.Task) { m.tasks.setTasks(tasks) }

// SetStatus implements app.View
func (m *mainWindow) SetStatus(text string) { m.tasks.status.SetMessage(text) }

// applyEvent reflects bus events in the window. Runs on the UI goroutine.
func (m *mainWindow) applyEvent(ev events.Event) {
	switch e := ev.(type) {
	case *events.TransferEvent:
		m.tasks.status.ApplyTransfer(e)
	case *events.SessionEvent:
		if e.LoggedIn {
			m.window.SetTitle(constants.AppName + " - " + e.Username)
			m.tasks.setUser(e.Username)
		} else {
			m.window.SetTitle(constants.AppName)
			m.tasks.setUser("")
		}
	}
}
