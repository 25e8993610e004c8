package transfer

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/pipelinekit/sgdesk/internal/progress"
	"github.com/pipelinekit/sgdesk/internal/shotgrid"
)

// fakeSite implements Source and Sink in memory.
type fakeSite struct {
	mu sync.Mutex

	versions []shotgrid.Version
	// attachments by version ID, content by attachment ID
	attachments map[int][]shotgrid.Attachment
	content     map[int]string

	task      *shotgrid.TaskDetail
	created   []string
	uploaded  map[int]string
	listErr   error
	fetchErr  error
	createErr error
	uploadErr error

	downloaded []string
}

func (f *fakeSite) ListVersionsForTask(ctx context.Context, taskID int) ([]shotgrid.Version, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.versions, nil
}

func (f *fakeSite) ListAttachmentsForVersion(ctx context.Context, versionID int) ([]shotgrid.Attachment, error) {
	return f.attachments[versionID], nil
}

func (f *fakeSite) DownloadAttachment(ctx context.Context, att shotgrid.Attachment, destPath string, report progress.Func) (int64, error) {
	if f.fetchErr != nil {
		return 0, f.fetchErr
	}
	body := f.content[att.ID]
	if err := os.WriteFile(destPath, []byte(body), 0644); err != nil {
		return 0, err
	}
	if report != nil {
		report(int64(len(body)), att.Size)
	}
	f.mu.Lock()
	f.downloaded = append(f.downloaded, destPath)
	f.mu.Unlock()
	return int64(len(body)), nil
}

func (f *fakeSite) GetTask(ctx context.Context, taskID int) (*shotgrid.TaskDetail, error) {
	if f.task == nil {
		return nil, errors.New("task not found")
	}
	return f.task, nil
}

func (f *fakeSite) CreateVersion(ctx context.Context, taskID, projectID int, name string) (*shotgrid.Version, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, name)
	return &shotgrid.Version{ID: 100 + len(f.created), Name: name}, nil
}

func (f *fakeSite) UploadFile(ctx context.Context, versionID int, path string, report progress.Func) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	if f.uploaded == nil {
		f.uploaded = map[int]string{}
	}
	f.uploaded[versionID] = path
	if report != nil {
		report(1, 1)
	}
	return nil
}

// recorder is a progress.Reporter that keeps a log of calls.
type recorder struct {
	calls []string
	errs  []error
}

func (r *recorder) Start(name string, total int64) { r.calls = append(r.calls, "start:"+name) }
func (r *recorder) Update(current int64)           { r.calls = append(r.calls, "update") }
func (r *recorder) Finish()                        { r.calls = append(r.calls, "finish") }
func (r *recorder) Error(err error) {
	r.calls = append(r.calls, "error")
	r.errs = append(r.errs, err)
}

func uploaded(id int, name string, size int64) shotgrid.Attachment {
	return shotgrid.Attachment{ID: id, Name: name, URL: "https://storage.example/" + name, LinkType: shotgrid.LinkTypeUpload, Size: size}
}
