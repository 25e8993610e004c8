package shotgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/pipelinekit/sgdesk/internal/constants"
	"github.com/pipelinekit/sgdesk/internal/http"
	"github.com/pipelinekit/sgdesk/internal/logging"
	"github.com/pipelinekit/sgdesk/internal/progress"
)

const (
	contentTypeJSON        = "application/json"
	contentTypeSearchArray = "application/vnd+shotgun.api3_array+json"
)

// Session is one authenticated connection to a ShotGrid site.
// Every operation that needs a login is a method on Session.
type Session struct {
	client   *Client
	site     *url.URL
	username string
	logger   *logging.Logger

	mu     sync.RWMutex
	tokens oauth2.TokenSource
	api    *nethttp.Client
}

func newSession(c *Client, site *url.URL, username string, tokens oauth2.TokenSource) *Session {
	return &Session{
		client:   c,
		site:     site,
		username: username,
		logger:   c.logger,
		tokens:   tokens,
		api: &nethttp.Client{
			Transport: &oauth2.Transport{
				Source: tokens,
				Base:   c.retryTransport,
			},
		},
	}
}

// Username returns the login the session was created with.
func (s *Session) Username() string {
	if s == nil {
		return ""
	}
	return s.username
}

// SiteURL returns the site root, e.g. https://studio.shotgrid.autodesk.com.
func (s *Session) SiteURL() string {
	if s == nil || s.site == nil {
		return ""
	}
	return s.site.String()
}

// Close drops the token and idle connections. It is safe on a nil or closed session.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	api := s.api
	s.tokens = nil
	s.api = nil
	s.mu.Unlock()

	if api != nil {
		api.CloseIdleConnections()
	}
	if s.client != nil {
		s.client.transfer.CloseIdleConnections()
	}
}

func (s *Session) authed() (*nethttp.Client, oauth2.TokenSource, error) {
	if s == nil {
		return nil, nil, ErrNotLoggedIn
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.api == nil {
		return nil, nil, ErrNotLoggedIn
	}
	return s.api, s.tokens, nil
}

// requestOptions describe one REST call.
type requestOptions struct {
	method      string
	path        string // relative to /api/v1, e.g. "entity/tasks/_search"
	query       url.Values
	body        interface{}
	contentType string
	idempotent  bool
}

// doRequest performs an API request with authentication and rate limiting and
// decodes a successful JSON response into out (unless out is nil).
func (s *Session) doRequest(ctx context.Context, opts requestOptions, out interface{}) error {
	api, _, err := s.authed()
	if err != nil {
		return err
	}

	if err := s.client.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter cancelled: %w", err)
	}

	var reqBody io.Reader
	if opts.body != nil {
		data, err := json.Marshal(opts.body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	if opts.idempotent {
		ctx = http.WithIdempotent(ctx)
	}

	target := s.apiURL(opts.path)
	if len(opts.query) > 0 {
		target += "?" + opts.query.Encode()
	}
	req, err := nethttp.NewRequestWithContext(ctx, opts.method, target, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", contentTypeJSON)
	if reqBody != nil {
		ct := opts.contentType
		if ct == "" {
			ct = contentTypeJSON
		}
		req.Header.Set("Content-Type", ct)
	}

	resp, err := api.Do(req)
	if err != nil {
		s.logger.Error().Err(err).Str("method", opts.method).Str("path", opts.path).Msg("API call failed")
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := parseAPIError(resp.StatusCode, data)
		s.logger.Warn().Int("status", apiErr.Status).Str("path", opts.path).Msg(apiErr.Error())
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// apiURL resolves a path: absolute URLs pass through, site-relative paths
// ("/api/v1/...") join the site root, anything else is under /api/v1.
func (s *Session) apiURL(path string) string {
	switch {
	case strings.HasPrefix(path, "https://"), strings.HasPrefix(path, "http://"):
		return path
	case strings.HasPrefix(path, "/"):
		return s.site.String() + path
	default:
		return s.site.String() + constants.APIPathPrefix + "/" + path
	}
}

// search pages through every record matching filters.
func (s *Session) search(ctx context.Context, collection string, filters interface{}, fields []string, sort string) ([]record, error) {
	var all []record
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("fields", strings.Join(fields, ","))
		if sort != "" {
			q.Set("sort", sort)
		}
		q.Set("page[size]", strconv.Itoa(constants.SearchPageSize))
		q.Set("page[number]", strconv.Itoa(page))

		var resp listResponse
		err := s.doRequest(ctx, requestOptions{
			method:      nethttp.MethodPost,
			path:        "entity/" + collection + "/_search",
			query:       q,
			body:        map[string]interface{}{"filters": filters},
			contentType: contentTypeSearchArray,
			idempotent:  true,
		}, &resp)
		if err != nil {
			return nil, err
		}

		all = append(all, resp.Data...)
		if len(resp.Data) < constants.SearchPageSize {
			return all, nil
		}
	}
}

func filter(field, relation string, value interface{}) []interface{} {
	return []interface{}{field, relation, value}
}

// FindUser returns the HumanUser whose login contains the session's username.
// Exactly one user must match.
func (s *Session) FindUser(ctx context.Context) (*HumanUser, error) {
	if _, _, err := s.authed(); err != nil {
		return nil, err
	}
	records, err := s.search(ctx, collectionHumanUsers,
		[]interface{}{filter("login", "contains", s.username)},
		[]string{"login", "name"}, "")
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if len(records) != 1 {
		return nil, fmt.Errorf("%w: %s (%d matches)", ErrUserNotFound, s.username, len(records))
	}
	user, err := records[0].humanUser()
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListAssignedTasks returns the tasks assigned to the logged-in user, ordered by due date.
func (s *Session) ListAssignedTasks(ctx context.Context) ([]Task, error) {
	user, err := s.FindUser(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.search(ctx, collectionTasks,
		[]interface{}{filter("task_assignees", "is", EntityRef{Type: TypeHumanUser, ID: user.ID})},
		[]string{"content", "due_date"}, "due_date")
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]Task, 0, len(records))
	for _, r := range records {
		t, err := r.task()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	s.logger.Debug().Int("user_id", user.ID).Int("count", len(tasks)).Msg("fetched tasks")
	return tasks, nil
}

// GetTask returns a task's project and versions.
func (s *Session) GetTask(ctx context.Context, taskID int) (*TaskDetail, error) {
	q := url.Values{}
	q.Set("fields", "sg_versions,project")

	var resp singleResponse
	err := s.doRequest(ctx, requestOptions{
		method:     nethttp.MethodGet,
		path:       fmt.Sprintf("entity/%s/%d", collectionTasks, taskID),
		query:      q,
		idempotent: true,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to get task %d: %w", taskID, err)
	}
	return resp.Data.taskDetail()
}

// ListVersionsForTask returns the Versions linked to a task.
func (s *Session) ListVersionsForTask(ctx context.Context, taskID int) ([]Version, error) {
	records, err := s.search(ctx, collectionVersions,
		[]interface{}{filter("sg_task", "is", EntityRef{Type: TypeTask, ID: taskID})},
		[]string{"code"}, "id")
	if err != nil {
		return nil, fmt.Errorf("failed to list versions of task %d: %w", taskID, err)
	}

	versions := make([]Version, 0, len(records))
	for _, r := range records {
		v, err := r.version()
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// ListAttachmentsForVersion returns the attachments linked to a Version.
func (s *Session) ListAttachmentsForVersion(ctx context.Context, versionID int) ([]Attachment, error) {
	records, err := s.search(ctx, collectionAttachments,
		[]interface{}{filter("attachment_links", "is", EntityRef{Type: TypeVersion, ID: versionID})},
		[]string{"this_file", "file_size"}, "id")
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments of version %d: %w", versionID, err)
	}

	attachments := make([]Attachment, 0, len(records))
	for _, r := range records {
		a, err := r.attachment()
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, nil
}

// CreateVersion creates a Version on a task. It is never retried.
func (s *Session) CreateVersion(ctx context.Context, taskID, projectID int, name string) (*Version, error) {
	var resp singleResponse
	err := s.doRequest(ctx, requestOptions{
		method: nethttp.MethodPost,
		path:   "entity/" + collectionVersions,
		body: map[string]interface{}{
			"project": EntityRef{Type: TypeProject, ID: projectID},
			"code":    name,
			"sg_task": EntityRef{Type: TypeTask, ID: taskID},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to create version %q: %w", name, err)
	}

	v, err := resp.Data.version()
	if err != nil {
		return nil, err
	}
	if v.Name == "" {
		v.Name = name
	}
	s.logger.Info().Int("version_id", v.ID).Int("task_id", taskID).Str("code", v.Name).Msg("created version")
	return &v, nil
}

// sameSite reports whether target is served by the session's site, in which case
// it needs the bearer token.
func (s *Session) sameSite(target *url.URL) bool {
	return strings.EqualFold(target.Host, s.site.Host)
}

// transferRequest builds a request for the transfer client, adding the bearer
// token only for the session's own host.
func (s *Session) transferRequest(ctx context.Context, method, rawURL string, body io.Reader) (*nethttp.Request, error) {
	_, tokens, err := s.authed()
	if err != nil {
		return nil, err
	}
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid transfer URL: %w", err)
	}
	if !target.IsAbs() {
		target = s.site.ResolveReference(target)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if s.sameSite(target) {
		tok, err := tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to get access token: %w", err)
		}
		tok.SetAuthHeader(req)
	}
	return req, nil
}

// DownloadAttachment writes an attachment's bytes to destPath and returns the
// number of bytes written. A partial file is removed on failure.
func (s *Session) DownloadAttachment(ctx context.Context, a Attachment, destPath string, report progress.Func) (int64, error) {
	if a.URL == "" {
		return 0, fmt.Errorf("attachment %d has no URL", a.ID)
	}
	if err := s.client.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter cancelled: %w", err)
	}

	req, err := s.transferRequest(ctx, nethttp.MethodGet, a.URL, nil)
	if err != nil {
		return 0, err
	}

	resp, err := s.client.transfer.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download of %s failed: %w", a.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return 0, fmt.Errorf("download of %s failed: %w", a.Name, parseAPIError(resp.StatusCode, body))
	}

	total := a.Size
	if resp.ContentLength > 0 {
		total = resp.ContentLength
	}

	n, err := writeFile(destPath, progress.NewReader(resp.Body, total, report))
	if err != nil {
		return n, fmt.Errorf("download of %s failed: %w", a.Name, err)
	}
	s.logger.Debug().Str("file", destPath).Int64("bytes", n).Msg("downloaded attachment")
	return n, nil
}
