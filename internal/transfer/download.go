package transfer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pipelinekit/sgdesk/internal/constants"
	"github.com/pipelinekit/sgdesk/internal/diskspace"
	"github.com/pipelinekit/sgdesk/internal/logging"
	"github.com/pipelinekit/sgdesk/internal/progress"
	"github.com/pipelinekit/sgdesk/internal/shotgrid"
	"github.com/pipelinekit/sgdesk/internal/util/sanitize"
	"github.com/pipelinekit/sgdesk/internal/validation"
)

// Source is the part of the ShotGrid adapter a download needs.
type Source interface {
	ListVersionsForTask(ctx context.Context, taskID int) ([]shotgrid.Version, error)
	ListAttachmentsForVersion(ctx context.Context, versionID int) ([]shotgrid.Attachment, error)
	DownloadAttachment(ctx context.Context, att shotgrid.Attachment, destPath string, report progress.Func) (int64, error)
}

// DownloadRequest asks for every attachment of every Version of a task.
type DownloadRequest struct {
	TaskID   int
	TaskName string
	OutDir   string
}

// DownloadResult summarises a finished download.
type DownloadResult struct {
	TaskDir  string // {OutDir}/tasks/{TaskName}
	Versions int
	Files    int
	Bytes    int64
	Skipped  int // attachments that are links rather than stored files
}

type plannedVersion struct {
	version     shotgrid.Version
	attachments []shotgrid.Attachment
}

// Download fetches the task's Versions and their attachments and writes each
// stored attachment to VersionDir(OutDir, TaskName, version)/{file name}. All
// listings happen before anything is written so free space can be checked
// against the total size first.
func Download(ctx context.Context, src Source, req DownloadRequest, reporter progress.Reporter, logger *logging.Logger) (*DownloadResult, error) {
	if reporter == nil {
		reporter = progress.NoOpProgress{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	log := logger.Named("download")

	versions, err := src.ListVersionsForTask(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}

	result := &DownloadResult{
		TaskDir:  filepath.Join(req.OutDir, TasksDirName, sanitize.PathSegment(req.TaskName)),
		Versions: len(versions),
	}

	plan := make([]plannedVersion, 0, len(versions))
	var totalBytes int64
	for _, v := range versions {
		atts, err := src.ListAttachmentsForVersion(ctx, v.ID)
		if err != nil {
			return nil, err
		}
		pv := plannedVersion{version: v}
		for _, a := range atts {
			if !a.Downloadable() {
				log.Debug().Int("attachment", a.ID).Str("link_type", a.LinkType).Msg("skipping attachment without stored file")
				result.Skipped++
				continue
			}
			pv.attachments = append(pv.attachments, a)
			totalBytes += a.Size
		}
		plan = append(plan, pv)
	}

	if err := diskspace.CheckAvailableSpace(req.OutDir, totalBytes, constants.DiskSpaceBufferPercent); err != nil {
		return nil, err
	}

	for _, pv := range plan {
		dir, err := BuildDir(req.OutDir, TasksDirName, sanitize.PathSegment(req.TaskName),
			VersionsDirName, sanitize.PathSegment(pv.version.Name))
		if err != nil {
			return nil, err
		}

		for _, a := range pv.attachments {
			name := sanitize.PathSegment(a.Name)
			if err := validation.ValidateFilename(name); err != nil {
				return nil, err
			}
			dest := filepath.Join(dir, name)
			if err := validation.ValidatePathInDirectory(dest, req.OutDir); err != nil {
				return nil, err
			}

			reporter.Start(name, a.Size)
			n, err := src.DownloadAttachment(ctx, a, dest, func(done, total int64) {
				reporter.Update(done)
			})
			if err != nil {
				reporter.Error(err)
				return nil, fmt.Errorf("%s: %w", a.Name, err)
			}
			reporter.Finish()

			result.Files++
			result.Bytes += n
			log.Debug().Str("file", dest).Int64("bytes", n).Msg("attachment downloaded")
		}
	}

	log.Info().Int("task", req.TaskID).Int("versions", result.Versions).Int("files", result.Files).
		Int("skipped", result.Skipped).Msg("download finished")
	return result, nil
}
