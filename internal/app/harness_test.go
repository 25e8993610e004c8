package app

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/pipelinekit/sgdesk/internal/config"
	"github.com/pipelinekit/sgdesk/internal/events"
	"github.com/pipelinekit/sgdesk/internal/jobs"
	"github.com/pipelinekit/sgdesk/internal/progress"
	"github.com/pipelinekit/sgdesk/internal/shotgrid"
)

const (
	testSite     = "https://studio.shotgrid.autodesk.com/"
	testUser     = "artist@studio.com"
	testPassword = "secret"
)

var sampleTasks = []shotgrid.Task{
	{ID: 5, Name: "Comp", DueDate: "2024-05-01"},
	{ID: 6, Name: "Roto", DueDate: ""},
}

type fakeView struct {
	pages    []Page
	siteURL  string
	username string
	password string
	tasks    []shotgrid.Task
	setTasks int
	status   string
}

func (v *fakeView) ShowPage(p Page)                    { v.pages = append(v.pages, p) }
func (v *fakeView) SetSiteURL(url string)              { v.siteURL = url }
func (v *fakeView) SetLogin(username, password string) { v.username, v.password = username, password }
func (v *fakeView) SetStatus(text string)              { v.status = text }

func (v *fakeView) SetTasks(tasks []shotgrid.Task) {
	v.tasks = tasks
	v.setTasks++
}

func (v *fakeView) page() Page {
	if len(v.pages) == 0 {
		return -1
	}
	return v.pages[len(v.pages)-1]
}

type fakeNotifier struct {
	errors []string
	infos  []string
}

func (n *fakeNotifier) Error(msg string) { n.errors = append(n.errors, msg) }
func (n *fakeNotifier) Info(msg string)  { n.infos = append(n.infos, msg) }

type fakeDesktop struct {
	completed []string
	failed    []string
}

func (d *fakeDesktop) TransferComplete(direction, taskName, where string) {
	d.completed = append(d.completed, direction+":"+taskName)
}

func (d *fakeDesktop) TransferFailed(direction, taskName, errorMsg string) {
	d.failed = append(d.failed, direction+":"+taskName)
}

type fakeSaver struct {
	saved []config.Credentials
	err   error
}

func (s *fakeSaver) Save(creds config.Credentials) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, creds)
	return nil
}

// fakeSession is safe for use from job goroutines.
type fakeSession struct {
	username string

	mu        sync.Mutex
	tasksErr  error
	fileErr   error
	closed    bool
	block     chan struct{}
	downloads int
	uploads   int
}

func (s *fakeSession) ListAssignedTasks(ctx context.Context) ([]shotgrid.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tasksErr != nil {
		return nil, s.tasksErr
	}
	return sampleTasks, nil
}

func (s *fakeSession) ListVersionsForTask(ctx context.Context, taskID int) ([]shotgrid.Version, error) {
	return []shotgrid.Version{{ID: 1, Name: "v001"}}, nil
}

func (s *fakeSession) ListAttachmentsForVersion(ctx context.Context, versionID int) ([]shotgrid.Attachment, error) {
	return []shotgrid.Attachment{{ID: 11, Name: "plate.exr", URL: "https://storage/plate", LinkType: shotgrid.LinkTypeUpload, Size: 5}}, nil
}

func (s *fakeSession) DownloadAttachment(ctx context.Context, att shotgrid.Attachment, destPath string, report progress.Func) (int64, error) {
	s.mu.Lock()
	block, err := s.block, s.fileErr
	s.downloads++
	s.mu.Unlock()
	if block != nil {
		<-block
	}
	if err != nil {
		return 0, err
	}
	return 5, os.WriteFile(destPath, []byte("plate"), 0644)
}

func (s *fakeSession) GetTask(ctx context.Context, taskID int) (*shotgrid.TaskDetail, error) {
	return &shotgrid.TaskDetail{ID: taskID, Project: shotgrid.EntityRef{Type: "Project", ID: 70}}, nil
}

func (s *fakeSession) CreateVersion(ctx context.Context, taskID, projectID int, name string) (*shotgrid.Version, error) {
	return &shotgrid.Version{ID: 900, Name: name}, nil
}

func (s *fakeSession) UploadFile(ctx context.Context, versionID int, path string, report progress.Func) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	return s.fileErr
}

func (s *fakeSession) Username() string { return s.username }
func (s *fakeSession) SiteURL() string  { return testSite }

func (s *fakeSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

var errBadCredentials = errors.New("Can't authenticate user.")

// fakeBackend accepts testPassword and hands out next (or a fresh session).
type fakeBackend struct {
	mu     sync.Mutex
	next   *fakeSession
	logins int
	bound  Session
}

func (b *fakeBackend) Login(ctx context.Context, creds config.Credentials) (Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logins++
	if creds.Password != testPassword {
		return nil, errBadCredentials
	}
	if b.next != nil {
		return b.next, nil
	}
	return &fakeSession{username: creds.Username}, nil
}

func (b *fakeBackend) Bind(s Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bound = s
}

func (b *fakeBackend) Current() (Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bound == nil {
		return nil, shotgrid.ErrNotLoggedIn
	}
	return b.bound, nil
}

func (b *fakeBackend) Logout() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bound == nil {
		return shotgrid.ErrNotLoggedIn
	}
	b.bound.Close()
	b.bound = nil
	return nil
}

// countingSubmitter counts submissions on the way to a real dispatcher.
type countingSubmitter struct {
	d *jobs.Dispatcher
	n int
}

func (s *countingSubmitter) Submit(r jobs.Runner) error {
	s.n++
	return s.d.Submit(r)
}

// harness wires a controller to fakes. Job callbacks go to ui and only run,
// on the test goroutine, when pumped.
type harness struct {
	t        *testing.T
	c        *Controller
	view     *fakeView
	notifier *fakeNotifier
	desktop  *fakeDesktop
	saver    *fakeSaver
	backend  *fakeBackend
	jobs     *countingSubmitter
	ui       chan func()
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		view:     &fakeView{},
		notifier: &fakeNotifier{},
		desktop:  &fakeDesktop{},
		saver:    &fakeSaver{},
		backend:  &fakeBackend{},
		ui:       make(chan func(), 64),
	}

	d := jobs.NewDispatcher(2, func(f func()) { h.ui <- f }, nil)
	d.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = d.Shutdown(ctx)
	})
	h.jobs = &countingSubmitter{d: d}

	h.c = NewController(Deps{
		View:        h.view,
		Notifier:    h.notifier,
		Jobs:        h.jobs,
		Backend:     h.backend,
		Credentials: h.saver,
		Desktop:     h.desktop,
		Bus:         events.NewEventBus(16),
	})
	return h
}

// pump runs n job callbacks on the test goroutine.
func (h *harness) pump(n int) {
	h.t.Helper()
	for i := 0; i < n; i++ {
		select {
		case f := <-h.ui:
			f()
		case <-time.After(2 * time.Second):
			h.t.Fatalf("timed out waiting for callback %d of %d", i+1, n)
		}
	}
}

// loggedIn starts from full saved credentials and completes login and fetch.
func (h *harness) loggedIn() {
	h.t.Helper()
	h.c.Start(fullCredentials())
	h.pump(2)
	if h.c.Activity() != Idle || h.c.Page() != PageTasks {
		h.t.Fatalf("after login: activity=%s page=%s", h.c.Activity(), h.c.Page())
	}
}

func (h *harness) lastError() string {
	if len(h.notifier.errors) == 0 {
		return ""
	}
	return h.notifier.errors[len(h.notifier.errors)-1]
}

func strPtr(s string) *string { return &s }

func fullCredentials() *config.NullableCredentials {
	return &config.NullableCredentials{URL: strPtr(testSite), Username: strPtr(testUser), Password: strPtr(testPassword)}
}
