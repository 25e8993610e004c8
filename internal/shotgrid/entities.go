package shotgrid

import (
	"encoding/json"
	"fmt"
)

// Entity types and their REST collection names.
const (
	TypeHumanUser  = "HumanUser"
	TypeTask       = "Task"
	TypeVersion    = "Version"
	TypeProject    = "Project"
	TypeAttachment = "Attachment"

	collectionHumanUsers  = "human_users"
	collectionTasks       = "tasks"
	collectionVersions    = "versions"
	collectionAttachments = "attachments"
)

// LinkTypeUpload marks an attachment whose bytes are stored by ShotGrid.
const LinkTypeUpload = "upload"

// EntityRef is a link to another entity.
type EntityRef struct {
	Type string `json:"type"`
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

// Task is one row of the task list.
type Task struct {
	ID      int
	Name    string // "content"
	DueDate string // "due_date" as sent by the site, may be empty
}

// TaskDetail holds the fields needed to download from or upload to a task.
type TaskDetail struct {
	ID       int
	Project  EntityRef
	Versions []EntityRef
}

// Version is a ShotGrid Version entity.
type Version struct {
	ID   int
	Name string // "code"
}

// Attachment is a file linked to a Version.
type Attachment struct {
	ID          int
	Name        string
	URL         string
	LinkType    string
	ContentType string
	Size        int64
}

// Downloadable reports whether the attachment's bytes are stored by the site.
func (a Attachment) Downloadable() bool {
	return a.LinkType == LinkTypeUpload && a.URL != ""
}

// HumanUser is a ShotGrid user account.
type HumanUser struct {
	ID    int
	Login string
	Name  string
}

// record is one JSON:API resource object.
type record struct {
	Type          string                  `json:"type"`
	ID            int                     `json:"id"`
	Attributes    json.RawMessage         `json:"attributes"`
	Relationships map[string]relationship `json:"relationships"`
}

type relationship struct {
	Data json.RawMessage `json:"data"`
}

type singleResponse struct {
	Data record `json:"data"`
}

type listResponse struct {
	Data []record `json:"data"`
}

func (r record) attributes(v interface{}) error {
	if len(r.Attributes) == 0 || string(r.Attributes) == "null" {
		return nil
	}
	if err := json.Unmarshal(r.Attributes, v); err != nil {
		return fmt.Errorf("failed to decode %s %d attributes: %w", r.Type, r.ID, err)
	}
	return nil
}

// one decodes a single-entity relationship; a missing or null link leaves ref zero.
func (r record) one(field string, ref *EntityRef) error {
	rel, ok := r.Relationships[field]
	if !ok || len(rel.Data) == 0 || string(rel.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(rel.Data, ref); err != nil {
		return fmt.Errorf("failed to decode %s relationship: %w", field, err)
	}
	return nil
}

// many decodes a multi-entity relationship.
func (r record) many(field string) ([]EntityRef, error) {
	rel, ok := r.Relationships[field]
	if !ok || len(rel.Data) == 0 || string(rel.Data) == "null" {
		return nil, nil
	}
	var refs []EntityRef
	if err := json.Unmarshal(rel.Data, &refs); err != nil {
		return nil, fmt.Errorf("failed to decode %s relationship: %w", field, err)
	}
	return refs, nil
}

func (r record) task() (Task, error) {
	var attrs struct {
		Content *string `json:"content"`
		DueDate *string `json:"due_date"`
	}
	if err := r.attributes(&attrs); err != nil {
		return Task{}, err
	}
	t := Task{ID: r.ID}
	if attrs.Content != nil {
		t.Name = *attrs.Content
	}
	if attrs.DueDate != nil {
		t.DueDate = *attrs.DueDate
	}
	return t, nil
}

func (r record) taskDetail() (*TaskDetail, error) {
	d := &TaskDetail{ID: r.ID}
	if err := r.one("project", &d.Project); err != nil {
		return nil, err
	}
	versions, err := r.many("sg_versions")
	if err != nil {
		return nil, err
	}
	d.Versions = versions
	return d, nil
}

func (r record) version() (Version, error) {
	var attrs struct {
		Code *string `json:"code"`
	}
	if err := r.attributes(&attrs); err != nil {
		return Version{}, err
	}
	v := Version{ID: r.ID}
	if attrs.Code != nil {
		v.Name = *attrs.Code
	}
	return v, nil
}

func (r record) humanUser() (HumanUser, error) {
	var attrs struct {
		Login *string `json:"login"`
		Name  *string `json:"name"`
	}
	if err := r.attributes(&attrs); err != nil {
		return HumanUser{}, err
	}
	u := HumanUser{ID: r.ID}
	if attrs.Login != nil {
		u.Login = *attrs.Login
	}
	if attrs.Name != nil {
		u.Name = *attrs.Name
	}
	return u, nil
}

func (r record) attachment() (Attachment, error) {
	var attrs struct {
		ThisFile *struct {
			URL         string `json:"url"`
			Name        string `json:"name"`
			ContentType string `json:"content_type"`
			LinkType    string `json:"link_type"`
		} `json:"this_file"`
		FileSize *int64 `json:"file_size"`
	}
	if err := r.attributes(&attrs); err != nil {
		return Attachment{}, err
	}
	a := Attachment{ID: r.ID}
	if f := attrs.ThisFile; f != nil {
		a.Name = f.Name
		a.URL = f.URL
		a.ContentType = f.ContentType
		a.LinkType = f.LinkType
	}
	if attrs.FileSize != nil {
		a.Size = *attrs.FileSize
	}
	return a, nil
}
