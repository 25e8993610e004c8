package shotgrid

import (
	"context"
	"sync"

	"github.com/pipelinekit/sgdesk/internal/config"
	"github.com/pipelinekit/sgdesk/internal/logging"
	"github.com/pipelinekit/sgdesk/internal/progress"
)

// SessionState is either LoggedOut or LoggedIn.
type SessionState interface {
	isSessionState()
}

// LoggedOut means no session is bound.
type LoggedOut struct{}

// LoggedIn carries the bound session.
type LoggedIn struct {
	Session *Session
}

func (LoggedOut) isSessionState() {}
func (LoggedIn) isSessionState()  {}

// Adapter owns the application's current session. Its state changes only
// through Bind and Logout; reads are safe from any goroutine.
type Adapter struct {
	client *Client
	logger *logging.Logger

	mu    sync.RWMutex
	state SessionState
}

// NewAdapter returns a logged-out adapter.
func NewAdapter(client *Client, logger *logging.Logger) *Adapter {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Adapter{client: client, logger: logger, state: LoggedOut{}}
}

// State returns the current state.
func (a *Adapter) State() SessionState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Login authenticates without binding. The caller binds once the whole login
// flow has succeeded, so a failed attempt leaves any existing session in place.
func (a *Adapter) Login(ctx context.Context, creds config.Credentials) (*Session, error) {
	return a.client.Authenticate(ctx, creds)
}

// Bind makes s the current session. A previously bound session is closed.
func (a *Adapter) Bind(s *Session) {
	if s == nil {
		return
	}
	a.mu.Lock()
	prev, wasLoggedIn := a.state.(LoggedIn)
	a.state = LoggedIn{Session: s}
	a.mu.Unlock()

	if wasLoggedIn && prev.Session != s {
		a.logger.Warn().Str("user", prev.Session.Username()).Msg("replacing existing session")
		prev.Session.Close()
	}
}

// Current returns the bound session or ErrNotLoggedIn.
func (a *Adapter) Current() (*Session, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if in, ok := a.state.(LoggedIn); ok {
		return in.Session, nil
	}
	return nil, ErrNotLoggedIn
}

// Logout closes and unbinds the current session.
func (a *Adapter) Logout() error {
	a.mu.Lock()
	in, ok := a.state.(LoggedIn)
	a.state = LoggedOut{}
	a.mu.Unlock()

	if !ok {
		return ErrNotLoggedIn
	}
	in.Session.Close()
	a.logger.Info().Str("user", in.Session.Username()).Msg("logged out")
	return nil
}

// ListAssignedTasks calls Session.ListAssignedTasks on the current session.
func (a *Adapter) ListAssignedTasks(ctx context.Context) ([]Task, error) {
	s, err := a.Current()
	if err != nil {
		return nil, err
	}
	return s.ListAssignedTasks(ctx)
}

// GetTask calls Session.GetTask on the current session.
func (a *Adapter) GetTask(ctx context.Context, taskID int) (*TaskDetail, error) {
	s, err := a.Current()
	if err != nil {
		return nil, err
	}
	return s.GetTask(ctx, taskID)
}

// ListVersionsForTask calls Session.ListVersionsForTask on the current session.
func (a *Adapter) ListVersionsForTask(ctx context.Context, taskID int) ([]Version, error) {
	s, err := a.Current()
	if err != nil {
		return nil, err
	}
	return s.ListVersionsForTask(ctx, taskID)
}

// ListAttachmentsForVersion calls Session.ListAttachmentsForVersion on the current session.
func (a *Adapter) ListAttachmentsForVersion(ctx context.Context, versionID int) ([]Attachment, error) {
	s, err := a.Current()
	if err != nil {
		return nil, err
	}
	return s.ListAttachmentsForVersion(ctx, versionID)
}

// DownloadAttachment calls Session.DownloadAttachment on the current session.
func (a *Adapter) DownloadAttachment(ctx context.Context, att Attachment, destPath string, report progress.Func) (int64, error) {
	s, err := a.Current()
	if err != nil {
		return 0, err
	}
	return s.DownloadAttachment(ctx, att, destPath, report)
}

// CreateVersion calls Session.CreateVersion on the current session.
func (a *Adapter) CreateVersion(ctx context.Context, taskID, projectID int, name string) (*Version, error) {
	s, err := a.Current()
	if err != nil {
		return nil, err
	}
	return s.CreateVersion(ctx, taskID, projectID, name)
}

// UploadFile calls Session.UploadFile on the current session.
func (a *Adapter) UploadFile(ctx context.Context, versionID int, path string, report progress.Func) error {
	s, err := a.Current()
	if err != nil {
		return err
	}
	return s.UploadFile(ctx, versionID, path, report)
}
