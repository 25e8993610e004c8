package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/pipelinekit/sgdesk/internal/config"
	"github.com/pipelinekit/sgdesk/internal/constants"
	"github.com/pipelinekit/sgdesk/internal/events"
	"github.com/pipelinekit/sgdesk/internal/jobs"
	"github.com/pipelinekit/sgdesk/internal/logging"
	"github.com/pipelinekit/sgdesk/internal/progress"
	"github.com/pipelinekit/sgdesk/internal/shotgrid"
	"github.com/pipelinekit/sgdesk/internal/transfer"
)

// View is what the controller drives. All methods are called on the UI goroutine.
type View interface {
	ShowPage(p Page)
	SetSiteURL(url string)
	SetLogin(username, password string)
	// SetTasks replaces the whole task list
	SetTasks(tasks []shotgrid.Task)
	// SetStatus shows text on the task page; "" hides the status line
	SetStatus(text string)
}

// Notifier shows modal messages.
type Notifier interface {
	Error(msg string)
	Info(msg string)
}

// Submitter queues background jobs. *jobs.Dispatcher implements it.
type Submitter interface {
	Submit(r jobs.Runner) error
}

// CredentialSaver persists credentials after a verified login.
type CredentialSaver interface {
	Save(creds config.Credentials) error
}

// DesktopNotifier raises OS notifications for finished transfers. *notify.Notifier implements it.
type DesktopNotifier interface {
	TransferComplete(direction, taskName, where string)
	TransferFailed(direction, taskName, errorMsg string)
}

// Deps are the controller's collaborators. Desktop, Bus and Logger may be nil.
type Deps struct {
	View        View
	Notifier    Notifier
	Jobs        Submitter
	Backend     Backend
	Credentials CredentialSaver
	Desktop     DesktopNotifier
	Bus         *events.EventBus
	Logger      *logging.Logger
}

// pendingLogin is a login that has moved the view to the task page but has not
// been confirmed by a successful task fetch yet.
type pendingLogin struct {
	attempt int
	creds   config.Credentials
	session Session
}

// Controller owns navigation, the activity state and the login lifecycle.
// Dispatch must only be called on the UI goroutine; it is the only place
// controller state changes.
type Controller struct {
	view     View
	notifier Notifier
	jobs     Submitter
	backend  Backend
	saver    CredentialSaver
	desktop  DesktopNotifier
	bus      *events.EventBus
	logger   *logging.Logger

	nav      *Navigator
	activity Activity
	pending  *pendingLogin
	attempts int
	siteURL  string
	tasks    map[int]string // task names by ID, for notifications
}

// NewController creates a controller on the URL page.
func NewController(d Deps) *Controller {
	logger := d.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	bus := d.Bus
	if bus == nil {
		bus = events.NewEventBus(constants.EventBusDefaultBuffer)
	}
	desktop := d.Desktop
	if desktop == nil {
		desktop = noDesktop{}
	}

	return &Controller{
		view:     d.View,
		notifier: d.Notifier,
		jobs:     d.Jobs,
		backend:  d.Backend,
		saver:    d.Credentials,
		desktop:  desktop,
		bus:      bus,
		logger:   logger.Named("controller"),
		nav:      NewNavigator(pageCount),
		tasks:    make(map[int]string),
	}
}

// Page returns the current page.
func (c *Controller) Page() Page { return c.nav.Page() }

// Activity returns what the task page is busy with.
func (c *Controller) Activity() Activity { return c.activity }

// Start shows the first page for saved credentials. A saved URL skips the URL
// page; a saved URL, username and password also starts a login. A saved URL that
// is not a ShotGrid site is shown on the URL page and never logged in to.
func (c *Controller) Start(saved *config.NullableCredentials) {
	if !saved.HasURL() {
		c.view.SetSiteURL(constants.DefaultSiteURL)
		c.view.ShowPage(c.nav.Page())
		return
	}
	if !ValidSiteURL(*saved.URL) {
		c.logger.Warn().Str("url", *saved.URL).Msg("ignoring saved credentials for a non-ShotGrid URL")
		c.view.SetSiteURL(*saved.URL)
		c.view.ShowPage(c.nav.Page())
		return
	}

	c.siteURL = *saved.URL
	c.view.SetSiteURL(c.siteURL)
	var username, password string
	if saved.Username != nil {
		username = *saved.Username
	}
	if saved.Password != nil {
		password = *saved.Password
	}
	c.view.SetLogin(username, password)

	c.advance()
	c.view.ShowPage(c.nav.Page())

	if creds, ok := saved.Complete(); ok {
		c.startLogin(creds)
	}
}

// Dispatch handles one event.
func (c *Controller) Dispatch(ev Event) {
	c.logger.Debug().Str("event", fmt.Sprintf("%T", ev)).Str("activity", c.activity.String()).
		Str("page", c.nav.Page().String()).Msg("dispatch")

	switch e := ev.(type) {
	case URLSubmitted:
		c.onURLSubmitted(e)
	case BackRequested:
		c.backtrack()
		c.view.ShowPage(c.nav.Page())
	case LoginRequested:
		c.onLoginRequested(e)
	case DownloadRequested:
		c.onDownloadRequested(e)
	case UploadRequested:
		c.onUploadRequested(e)
	case LogoutRequested:
		c.onLogoutRequested()

	case loginSucceeded:
		c.onLoginSucceeded(e)
	case loginFailed:
		c.onLoginFailed(e)
	case tasksFetched:
		c.onTasksFetched(e)
	case tasksFailed:
		c.onTasksFailed(e)
	case downloadFinished:
		c.finishActivity()
		c.notifier.Info(msgDownloadOK)
		c.desktop.TransferComplete(events.TransferDownload, e.req.TaskName, e.result.TaskDir)
	case downloadFailed:
		c.finishActivity()
		c.notifier.Error(msgDownloadFailed + e.err.Error())
		c.desktop.TransferFailed(events.TransferDownload, e.req.TaskName, e.err.Error())
	case uploadFinished:
		c.finishActivity()
		c.notifier.Info(msgUploadOK)
		c.desktop.TransferComplete(events.TransferUpload, c.tasks[e.req.TaskID], e.req.Path)
	case uploadFailed:
		c.finishActivity()
		c.notifier.Error(msgUploadFailed + e.err.Error())
		c.desktop.TransferFailed(events.TransferUpload, c.tasks[e.req.TaskID], e.err.Error())

	default:
		c.logger.Warn().Str("event", fmt.Sprintf("%T", ev)).Msg("unhandled event")
	}
}

func (c *Controller) advance() {
	if err := c.nav.Advance(); err != nil {
		c.notifier.Error(err.Error())
	}
}

func (c *Controller) backtrack() {
	if err := c.nav.Backtrack(); err != nil {
		c.notifier.Error(err.Error())
	}
}

func (c *Controller) onURLSubmitted(e URLSubmitted) {
	url := strings.TrimSpace(e.URL)
	if !ValidSiteURL(url) {
		c.notifier.Error(msgInvalidURL + url)
		return
	}
	c.siteURL = url
	c.advance()
	c.view.ShowPage(c.nav.Page())
}

func (c *Controller) onLoginRequested(e LoginRequested) {
	if c.activity != Idle || c.pending != nil {
		c.notifier.Error(msgBusy)
		return
	}
	c.startLogin(config.Credentials{URL: c.siteURL, Username: e.Username, Password: e.Password})
}

// startLogin moves to the task page right away and rolls back if the login or
// the task fetch that follows it fails.
func (c *Controller) startLogin(creds config.Credentials) {
	c.attempts++
	attempt := c.attempts
	c.pending = &pendingLogin{attempt: attempt, creds: creds}
	c.activity = LoggingIn

	c.advance()
	c.view.ShowPage(c.nav.Page())
	c.view.SetStatus(statusLoggingIn)

	backend := c.backend
	job := jobs.New("login", func(ctx context.Context) (Session, error) {
		return backend.Login(ctx, creds)
	}, func(s Session) {
		c.Dispatch(loginSucceeded{attempt: attempt, session: s})
	}, func(err error) {
		c.Dispatch(loginFailed{attempt: attempt, err: err})
	})

	if err := c.jobs.Submit(job); err != nil {
		c.onLoginFailed(loginFailed{attempt: attempt, err: err})
	}
}

func (c *Controller) current(attempt int) bool {
	return c.pending != nil && c.pending.attempt == attempt
}

func (c *Controller) onLoginSucceeded(e loginSucceeded) {
	if !c.current(e.attempt) {
		e.session.Close()
		return
	}
	c.pending.session = e.session
	c.activity = FetchingTasks
	c.view.SetStatus(statusFetchingTasks)

	session := e.session
	attempt := e.attempt
	job := jobs.New("fetch tasks", func(ctx context.Context) ([]shotgrid.Task, error) {
		return session.ListAssignedTasks(ctx)
	}, func(tasks []shotgrid.Task) {
		c.Dispatch(tasksFetched{attempt: attempt, tasks: tasks})
	}, func(err error) {
		c.Dispatch(tasksFailed{attempt: attempt, err: err})
	})

	if err := c.jobs.Submit(job); err != nil {
		c.onTasksFailed(tasksFailed{attempt: attempt, err: err})
	}
}

func (c *Controller) onLoginFailed(e loginFailed) {
	if !c.current(e.attempt) {
		return
	}
	c.logger.Warn().Err(e.err).Msg("login failed")
	c.notifier.Error(msgLoginFailed + e.err.Error())
	c.rollbackLogin()
}

func (c *Controller) onTasksFetched(e tasksFetched) {
	if !c.current(e.attempt) {
		return
	}
	p := c.pending
	c.pending = nil
	c.activity = Idle

	c.backend.Bind(p.session)

	c.tasks = make(map[int]string, len(e.tasks))
	for _, t := range e.tasks {
		c.tasks[t.ID] = t.Name
	}
	c.view.SetTasks(e.tasks)
	c.view.SetStatus("")
	c.bus.PublishSession(true, p.session.Username(), p.session.SiteURL())

	if err := c.saver.Save(p.creds); err != nil {
		c.logger.Error().Err(err).Msg("failed to save credentials")
		c.notifier.Error(msgSaveFailed + err.Error())
	}
	c.logger.Info().Str("user", p.creds.Username).Int("tasks", len(e.tasks)).Msg("logged in")
}

func (c *Controller) onTasksFailed(e tasksFailed) {
	if !c.current(e.attempt) {
		return
	}
	c.logger.Warn().Err(e.err).Msg("task fetch failed")
	c.notifier.Error(msgTasksFailed + e.err.Error())
	if c.pending.session != nil {
		c.pending.session.Close()
	}
	c.rollbackLogin()
}

// rollbackLogin drops the pending login and returns to the login page. A
// session bound by an earlier login is left alone.
func (c *Controller) rollbackLogin() {
	c.pending = nil
	c.activity = Idle
	c.view.SetStatus("")
	if c.nav.Page() == PageTasks {
		c.backtrack()
	}
	c.view.ShowPage(c.nav.Page())
}

func (c *Controller) finishActivity() {
	c.activity = Idle
	c.view.SetStatus("")
}

func (c *Controller) onDownloadRequested(e DownloadRequested) {
	if c.activity != Idle {
		c.notifier.Error(msgBusy)
		return
	}
	session, err := c.backend.Current()
	if err != nil {
		c.notifier.Error(msgDownloadFailed + err.Error())
		return
	}

	c.activity = Downloading
	c.view.SetStatus(statusDownloading)

	req := transfer.DownloadRequest{TaskID: e.TaskID, TaskName: e.TaskName, OutDir: e.Dir}
	reporter := progress.NewGUIProgress(c.bus, e.TaskID, events.TransferDownload)
	logger := c.logger
	job := jobs.New("download", func(ctx context.Context) (*transfer.DownloadResult, error) {
		return transfer.Download(ctx, session, req, reporter, logger)
	}, func(res *transfer.DownloadResult) {
		c.Dispatch(downloadFinished{req: e, result: res})
	}, func(err error) {
		c.Dispatch(downloadFailed{req: e, err: err})
	})

	if err := c.jobs.Submit(job); err != nil {
		c.Dispatch(downloadFailed{req: e, err: err})
	}
}

func (c *Controller) onUploadRequested(e UploadRequested) {
	if c.activity != Idle {
		c.notifier.Error(msgBusy)
		return
	}
	session, err := c.backend.Current()
	if err != nil {
		c.notifier.Error(msgUploadFailed + err.Error())
		return
	}

	c.activity = Uploading
	c.view.SetStatus(statusUploading)

	req := transfer.UploadRequest{TaskID: e.TaskID, Path: e.Path}
	reporter := progress.NewGUIProgress(c.bus, e.TaskID, events.TransferUpload)
	logger := c.logger
	job := jobs.New("upload", func(ctx context.Context) (*transfer.UploadResult, error) {
		return transfer.Upload(ctx, session, req, reporter, logger)
	}, func(res *transfer.UploadResult) {
		c.Dispatch(uploadFinished{req: e, result: res})
	}, func(err error) {
		c.Dispatch(uploadFailed{req: e, err: err})
	})

	if err := c.jobs.Submit(job); err != nil {
		c.Dispatch(uploadFailed{req: e, err: err})
	}
}

func (c *Controller) onLogoutRequested() {
	if c.activity != Idle {
		c.notifier.Error(msgBusy)
		return
	}
	if err := c.backend.Logout(); err != nil {
		c.notifier.Error(msgLogoutFailed + err.Error())
	}

	c.tasks = make(map[int]string)
	c.view.SetTasks(nil)
	c.bus.PublishSession(false, "", c.siteURL)
	if c.nav.Page() == PageTasks {
		c.backtrack()
	}
	c.view.ShowPage(c.nav.Page())
}

type noDesktop struct{}

func (noDesktop) TransferComplete(direction, taskName, where string)  {}
func (noDesktop) TransferFailed(direction, taskName, errorMsg string) {}
