package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pipelinekit/sgdesk/internal/logging"
	"github.com/pipelinekit/sgdesk/internal/progress"
	"github.com/pipelinekit/sgdesk/internal/shotgrid"
)

// Sink is the part of the ShotGrid adapter an upload needs.
type Sink interface {
	GetTask(ctx context.Context, taskID int) (*shotgrid.TaskDetail, error)
	CreateVersion(ctx context.Context, taskID, projectID int, name string) (*shotgrid.Version, error)
	UploadFile(ctx context.Context, versionID int, path string, report progress.Func) error
}

// UploadRequest asks for one local file to become a new Version of a task.
type UploadRequest struct {
	TaskID int
	Path   string
}

// UploadResult describes the Version created by an upload.
type UploadResult struct {
	Version shotgrid.Version
	Path    string
	Bytes   int64
}

// Upload creates a Version named after the file's base name in the task's
// project and uploads the file to it. There is no rollback: if the upload step
// fails the empty Version stays on the site.
func Upload(ctx context.Context, sink Sink, req UploadRequest, reporter progress.Reporter, logger *logging.Logger) (*UploadResult, error) {
	if reporter == nil {
		reporter = progress.NoOpProgress{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	log := logger.Named("upload")

	info, err := os.Stat(req.Path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", req.Path)
	}

	task, err := sink.GetTask(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(req.Path)
	version, err := sink.CreateVersion(ctx, req.TaskID, task.Project.ID, name)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("task", req.TaskID).Int("version", version.ID).Str("name", name).Msg("version created")

	reporter.Start(name, info.Size())
	err = sink.UploadFile(ctx, version.ID, req.Path, func(done, total int64) {
		reporter.Update(done)
	})
	if err != nil {
		reporter.Error(err)
		return nil, err
	}
	reporter.Finish()

	log.Info().Int("task", req.TaskID).Int("version", version.ID).Int64("bytes", info.Size()).Msg("upload finished")
	return &UploadResult{Version: *version, Path: req.Path, Bytes: info.Size()}, nil
}
