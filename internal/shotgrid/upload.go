package shotgrid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	nethttp "net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/pipelinekit/sgdesk/internal/constants"
	"github.com/pipelinekit/sgdesk/internal/progress"
)

type uploadInfo struct {
	Data  json.RawMessage `json:"data"`
	Links struct {
		Upload         string `json:"upload"`
		CompleteUpload string `json:"complete_upload"`
	} `json:"links"`
}

// UploadFile uploads a local file to the Version's uploaded-movie field, with the
// file's base name as display name. None of the three steps is retried.
func (s *Session) UploadFile(ctx context.Context, versionID int, path string, report progress.Func) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	displayName := filepath.Base(path)

	// 1. Ask the site where to put the bytes
	q := url.Values{}
	q.Set("filename", displayName)
	var up uploadInfo
	err = s.doRequest(ctx, requestOptions{
		method: nethttp.MethodGet,
		path:   fmt.Sprintf("entity/%s/%d/%s/_upload", collectionVersions, versionID, constants.UploadFieldName),
		query:  q,
	}, &up)
	if err != nil {
		return fmt.Errorf("failed to start upload: %w", err)
	}

	var meta struct {
		MultipartUpload bool `json:"multipart_upload"`
	}
	if len(up.Data) > 0 {
		if err := json.Unmarshal(up.Data, &meta); err != nil {
			return fmt.Errorf("failed to start upload: invalid upload info: %w", err)
		}
	}
	if meta.MultipartUpload {
		return ErrMultipartUpload
	}
	if up.Links.Upload == "" || up.Links.CompleteUpload == "" {
		return fmt.Errorf("failed to start upload: site returned no upload links")
	}

	// 2. Send the bytes
	if err := s.putFile(ctx, up.Links.Upload, f, info.Size(), displayName, report); err != nil {
		return err
	}

	// 3. Tell the site the bytes are in place
	err = s.doRequest(ctx, requestOptions{
		method: nethttp.MethodPost,
		path:   up.Links.CompleteUpload,
		body: map[string]interface{}{
			"upload_info": up.Data,
			"upload_data": map[string]string{"display_name": displayName},
		},
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to complete upload: %w", err)
	}

	s.logger.Info().Int("version_id", versionID).Str("file", displayName).Int64("bytes", info.Size()).Msg("uploaded file")
	return nil
}

func (s *Session) putFile(ctx context.Context, target string, r io.Reader, size int64, name string, report progress.Func) error {
	if err := s.client.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter cancelled: %w", err)
	}

	req, err := s.transferRequest(ctx, nethttp.MethodPut, target, progress.NewReader(r, size, report))
	if err != nil {
		return err
	}
	// Signed storage URLs reject chunked bodies
	req.ContentLength = size

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.transfer.Do(req)
	if err != nil {
		return fmt.Errorf("upload of %s failed: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return fmt.Errorf("upload of %s failed: %w", name, parseAPIError(resp.StatusCode, body))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// writeFile streams r into path, removing the file if anything fails.
func writeFile(path string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return n, err
	}
	return n, nil
}
