package app

import (
	"context"

	"github.com/pipelinekit/sgdesk/internal/config"
	"github.com/pipelinekit/sgdesk/internal/shotgrid"
	"github.com/pipelinekit/sgdesk/internal/transfer"
)

// Session is a logged-in ShotGrid handle as the controller uses it.
// *shotgrid.Session implements it.
type Session interface {
	transfer.Source
	transfer.Sink
	ListAssignedTasks(ctx context.Context) ([]shotgrid.Task, error)
	Username() string
	SiteURL() string
	Close()
}

// Backend logs in and holds the bound session.
type Backend interface {
	// Login authenticates without binding the result
	Login(ctx context.Context, creds config.Credentials) (Session, error)
	Bind(s Session)
	Current() (Session, error)
	Logout() error
}

type adapterBackend struct {
	adapter *shotgrid.Adapter
}

// NewBackend exposes a shotgrid.Adapter as a Backend.
func NewBackend(a *shotgrid.Adapter) Backend {
	return &adapterBackend{adapter: a}
}

func (b *adapterBackend) Login(ctx context.Context, creds config.Credentials) (Session, error) {
	s, err := b.adapter.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Bind ignores sessions that did not come from this backend's adapter.
func (b *adapterBackend) Bind(s Session) {
	if ss, ok := s.(*shotgrid.Session); ok {
		b.adapter.Bind(ss)
	}
}

func (b *adapterBackend) Current() (Session, error) {
	s, err := b.adapter.Current()
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (b *adapterBackend) Logout() error {
	return b.adapter.Logout()
}
