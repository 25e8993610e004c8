package shotgrid

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/pipelinekit/sgdesk/internal/config"
)

const (
	fakeLogin    = "artist@studio.com"
	fakePassword = "secret"
	fakeToken    = "tok-1"
)

type fakeUser struct {
	ID    int
	Login string
}

type fakeTask struct {
	ID        int
	Content   string
	DueDate   *string
	ProjectID int
	Assignee  int
}

type fakeVersion struct {
	ID     int
	Code   string
	TaskID int
}

type fakeAttachment struct {
	ID        int
	VersionID int
	Name      string
	LinkType  string
	URL       string // set when the attachment is served elsewhere
	Content   string
}

// fakeSite is an in-memory ShotGrid REST API plus a separate storage host.
type fakeSite struct {
	t       *testing.T
	site    *httptest.Server
	storage *httptest.Server

	mu          sync.Mutex
	users       []fakeUser
	tasks       []fakeTask
	versions    []fakeVersion
	attachments []fakeAttachment

	calls map[string]int // "METHOD /path" -> count

	// failures injected per route: number of 503s before succeeding
	fail map[string]int

	multipart      bool
	badUploadData  bool // upload info "data" is not an object
	uploaded       map[string][]byte
	storageAuth    []string
	completeBodies []map[string]interface{}
}

func newFakeSite(t *testing.T) *fakeSite {
	t.Helper()
	f := &fakeSite{
		t:        t,
		calls:    map[string]int{},
		fail:     map[string]int{},
		uploaded: map[string][]byte{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/access_token", f.handleToken)
	mux.HandleFunc("POST /api/v1/entity/{collection}/_search", f.authed(f.handleSearch))
	mux.HandleFunc("GET /api/v1/entity/tasks/{id}", f.authed(f.handleGetTask))
	mux.HandleFunc("POST /api/v1/entity/versions", f.authed(f.handleCreateVersion))
	mux.HandleFunc("GET /api/v1/entity/versions/{id}/sg_uploaded_movie/_upload", f.authed(f.handleUploadURL))
	mux.HandleFunc("POST /api/v1/entity/versions/{id}/sg_uploaded_movie/_upload", f.authed(f.handleCompleteUpload))
	mux.HandleFunc("GET /file_serve/attachment/{id}", f.authed(f.handleFileServe))
	f.site = httptest.NewServer(f.counting(mux))
	t.Cleanup(f.site.Close)

	storage := http.NewServeMux()
	storage.HandleFunc("PUT /bucket/{name}", f.handleStoragePut)
	storage.HandleFunc("GET /bucket/{name}", f.handleStorageGet)
	f.storage = httptest.NewServer(f.counting(storage))
	t.Cleanup(f.storage.Close)

	return f
}

func (f *fakeSite) creds() config.Credentials {
	return config.Credentials{URL: f.site.URL + "/", Username: fakeLogin, Password: fakePassword}
}

func (f *fakeSite) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeSite) failNext(key string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[key] = n
}

func (f *fakeSite) counting(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		f.mu.Lock()
		f.calls[key]++
		remaining := f.fail[key]
		if remaining > 0 {
			f.fail[key] = remaining - 1
		}
		f.mu.Unlock()

		if remaining > 0 {
			writeErrors(w, http.StatusServiceUnavailable, "Service Unavailable")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeSite) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+fakeToken {
			writeErrors(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrors(w http.ResponseWriter, status int, title string) {
	writeJSON(w, status, map[string]interface{}{
		"errors": []map[string]interface{}{{"status": status, "title": title, "detail": nil}},
	})
}

func (f *fakeSite) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeErrors(w, http.StatusBadRequest, "bad form")
		return
	}
	if r.PostForm.Get("grant_type") != "password" ||
		r.PostForm.Get("username") != fakeLogin ||
		r.PostForm.Get("password") != fakePassword {
		writeErrors(w, http.StatusBadRequest, "Can't authenticate user.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token_type":    "Bearer",
		"access_token":  fakeToken,
		"expires_in":    600,
		"refresh_token": "refresh-1",
	})
}

type searchBody struct {
	Filters [][]json.RawMessage `json:"filters"`
}

func (f *fakeSite) handleSearch(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != contentTypeSearchArray {
		writeErrors(w, http.StatusBadRequest, "wrong content type "+ct)
		return
	}
	var body searchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Filters) != 1 || len(body.Filters[0]) != 3 {
		writeErrors(w, http.StatusBadRequest, "bad filters")
		return
	}
	var field, relation string
	_ = json.Unmarshal(body.Filters[0][0], &field)
	_ = json.Unmarshal(body.Filters[0][1], &relation)
	value := body.Filters[0][2]

	f.mu.Lock()
	var data []map[string]interface{}
	switch r.PathValue("collection") {
	case collectionHumanUsers:
		var needle string
		_ = json.Unmarshal(value, &needle)
		for _, u := range f.users {
			if field == "login" && relation == "contains" && strings.Contains(u.Login, needle) {
				data = append(data, map[string]interface{}{
					"type": TypeHumanUser, "id": u.ID,
					"attributes": map[string]interface{}{"login": u.Login, "name": "User " + strconv.Itoa(u.ID)},
				})
			}
		}
	case collectionTasks:
		var ref EntityRef
		_ = json.Unmarshal(value, &ref)
		for _, t := range f.tasks {
			if field == "task_assignees" && ref.Type == TypeHumanUser && ref.ID == t.Assignee {
				data = append(data, map[string]interface{}{
					"type": TypeTask, "id": t.ID,
					"attributes": map[string]interface{}{"content": t.Content, "due_date": t.DueDate},
				})
			}
		}
	case collectionVersions:
		var ref EntityRef
		_ = json.Unmarshal(value, &ref)
		for _, v := range f.versions {
			if field == "sg_task" && ref.ID == v.TaskID {
				data = append(data, map[string]interface{}{
					"type": TypeVersion, "id": v.ID,
					"attributes": map[string]interface{}{"code": v.Code},
				})
			}
		}
	case collectionAttachments:
		var ref EntityRef
		_ = json.Unmarshal(value, &ref)
		for _, a := range f.attachments {
			if field == "attachment_links" && ref.Type == TypeVersion && ref.ID == a.VersionID {
				u := a.URL
				if u == "" {
					u = fmt.Sprintf("%s/file_serve/attachment/%d", f.site.URL, a.ID)
				}
				data = append(data, map[string]interface{}{
					"type": TypeAttachment, "id": a.ID,
					"attributes": map[string]interface{}{
						"this_file": map[string]interface{}{
							"url": u, "name": a.Name, "link_type": a.LinkType, "content_type": nil,
						},
						"file_size": len(a.Content),
					},
				})
			}
		}
	}
	f.mu.Unlock()

	// Honour paging
	size, _ := strconv.Atoi(r.URL.Query().Get("page[size]"))
	number, _ := strconv.Atoi(r.URL.Query().Get("page[number]"))
	if size > 0 && number > 0 {
		start := (number - 1) * size
		if start > len(data) {
			start = len(data)
		}
		end := start + size
		if end > len(data) {
			end = len(data)
		}
		data = data[start:end]
	}
	if data == nil {
		data = []map[string]interface{}{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": data})
}

func (f *fakeSite) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		if t.ID != id {
			continue
		}
		var versions []map[string]interface{}
		for _, v := range f.versions {
			if v.TaskID == id {
				versions = append(versions, map[string]interface{}{"type": TypeVersion, "id": v.ID, "name": v.Code})
			}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": map[string]interface{}{
				"type": TypeTask, "id": t.ID,
				"relationships": map[string]interface{}{
					"project":     map[string]interface{}{"data": map[string]interface{}{"type": TypeProject, "id": t.ProjectID, "name": "Show"}},
					"sg_versions": map[string]interface{}{"data": versions},
				},
			},
		})
		return
	}
	writeErrors(w, http.StatusNotFound, "Record not found")
}

func (f *fakeSite) handleCreateVersion(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Project EntityRef `json:"project"`
		Code    string    `json:"code"`
		Task    EntityRef `json:"sg_task"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Project.Type != TypeProject || body.Task.Type != TypeTask {
		writeErrors(w, http.StatusBadRequest, "bad version body")
		return
	}
	f.mu.Lock()
	id := 1000 + len(f.versions)
	f.versions = append(f.versions, fakeVersion{ID: id, Code: body.Code, TaskID: body.Task.ID})
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": map[string]interface{}{"type": TypeVersion, "id": id, "attributes": map[string]interface{}{"code": body.Code}},
	})
}

func (f *fakeSite) handleUploadURL(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("filename")
	var data interface{} = map[string]interface{}{
		"upload_type":       "Attachment",
		"original_filename": name,
		"storage_service":   "s3",
		"multipart_upload":  f.multipart,
	}
	if f.badUploadData {
		data = "multipart"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"links": map[string]interface{}{
			"upload":          f.storage.URL + "/bucket/" + name,
			"complete_upload": r.URL.Path,
		},
	})
}

func (f *fakeSite) handleCompleteUpload(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.mu.Lock()
	f.completeBodies = append(f.completeBodies, body)
	f.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (f *fakeSite) handleFileServe(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attachments {
		if a.ID == id {
			_, _ = io.WriteString(w, a.Content)
			return
		}
	}
	writeErrors(w, http.StatusNotFound, "Record not found")
}

func (f *fakeSite) handleStoragePut(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.uploaded[r.PathValue("name")] = data
	f.storageAuth = append(f.storageAuth, r.Header.Get("Authorization"))
	f.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (f *fakeSite) handleStorageGet(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.storageAuth = append(f.storageAuth, r.Header.Get("Authorization"))
	f.mu.Unlock()
	_, _ = io.WriteString(w, "from storage")
}

func (f *fakeSite) storageAuthHeaders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.storageAuth...)
}

func (f *fakeSite) uploadedBody(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.uploaded[name])
}

func (f *fakeSite) completed() []map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]interface{}(nil), f.completeBodies...)
}
