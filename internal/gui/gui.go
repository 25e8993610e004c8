// Package gui is the Fyne front end: the main window with its URL, login and
// task pages, wired to an app.Controller.
package gui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/pipelinekit/sgdesk/internal/app"
	"github.com/pipelinekit/sgdesk/internal/config"
	"github.com/pipelinekit/sgdesk/internal/constants"
	"github.com/pipelinekit/sgdesk/internal/events"
	"github.com/pipelinekit/sgdesk/internal/jobs"
	"github.com/pipelinekit/sgdesk/internal/logging"
	"github.com/pipelinekit/sgdesk/internal/notify"
	"github.com/pipelinekit/sgdesk/internal/shotgrid"
)

// Options configures Launch.
type Options struct {
	Settings    *config.Settings
	Credentials *config.CredentialStore
	Logger      *logging.Logger
}

// Launch opens the main window and blocks until it is closed.
func Launch(opts Options) error {
	if runtime.GOOS == "linux" {
		if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
			return errors.New("no display detected: DISPLAY and WAYLAND_DISPLAY are not set")
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger("gui")
	}
	settings := opts.Settings
	if settings == nil {
		settings = config.DefaultSettings()
	}
	store := opts.Credentials
	if store == nil {
		store = config.NewCredentialStore(constants.CredentialsFileName)
	}

	client, err := shotgrid.NewClient(settings, logger)
	if err != nil {
		return fmt.Errorf("failed to create ShotGrid client: %w", err)
	}
	adapter := shotgrid.NewAdapter(client, logger)

	a := fyneapp.NewWithID(constants.AppID)
	a.Settings().SetTheme(&sgTheme{})

	w := a.NewWindow(constants.AppName)
	w.SetMaster()

	// Callbacks for jobs still running at exit are dropped
	var closing atomic.Bool
	deliver := func(f func()) {
		if closing.Load() {
			return
		}
		fyne.Do(f)
	}

	dispatcher := jobs.NewDispatcher(settings.Workers, deliver, logger)
	dispatcher.Start()

	bus := events.NewEventBus(constants.EventBusDefaultBuffer)
	mw := newMainWindow(w, dialogPickers{window: w})

	ctrl := app.NewController(app.Deps{
		View:        mw,
		Notifier:    dialogNotifier{window: w},
		Jobs:        dispatcher,
		Backend:     app.NewBackend(adapter),
		Credentials: store,
		Desktop:     notify.NewNotifier(settings.DesktopNotify, logger),
		Bus:         bus,
		Logger:      logger,
	})
	mw.dispatch = ctrl.Dispatch

	updates := bus.SubscribeAll()
	go func() {
		for ev := range updates {
			ev := ev
			deliver(func() { mw.applyEvent(ev) })
		}
	}()

	w.SetContent(mw.content)
	w.Resize(fyne.NewSize(constants.DefaultWindowWidth, constants.DefaultWindowHeight))
	w.CenterOnScreen()

	ctrl.Start(store.Load())
	logger.Debug().Str("credentials", store.Path()).Int("workers", settings.Workers).Msg("window ready")

	w.ShowAndRun()

	closing.Store(true)
	if queued := dispatcher.Pending(); queued > 0 {
		logger.Info().Int("queued", queued).Msg("dropping queued jobs at exit")
	}
	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := dispatcher.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("exiting with jobs still running")
	}
	if err := adapter.Logout(); err != nil && !errors.Is(err, shotgrid.ErrNotLoggedIn) {
		logger.Warn().Err(err).Msg("logout at exit failed")
	}
	if dropped := bus.DroppedEvents(); dropped > 0 {
		logger.Debug().Int64("dropped", dropped).Msg("progress events dropped by a busy UI")
	}
	bus.Close()
	return nil
}
