// Package config provides configuration management for sgdesk.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pipelinekit/sgdesk/internal/constants"
)

// Credentials is the site URL and login used for one login attempt.
// All three fields are required once a login is attempted.
type Credentials struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// NullableCredentials is the persisted form, where any field may be absent.
// A saved URL with no username/password is a valid partial state.
type NullableCredentials struct {
	URL      *string `json:"url,omitempty"`
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
}

// HasURL reports whether a site URL was saved.
func (n *NullableCredentials) HasURL() bool {
	return n != nil && n.URL != nil
}

// Complete returns the full credentials when URL, username and password are all present.
func (n *NullableCredentials) Complete() (Credentials, bool) {
	if n == nil || n.URL == nil || n.Username == nil || n.Password == nil {
		return Credentials{}, false
	}
	return Credentials{URL: *n.URL, Username: *n.Username, Password: *n.Password}, true
}

// Nullable converts full credentials into the persisted form.
func (c Credentials) Nullable() *NullableCredentials {
	url, username, password := c.URL, c.Username, c.Password
	return &NullableCredentials{URL: &url, Username: &username, Password: &password}
}

// String hides the password so credentials can be logged.
func (c Credentials) String() string {
	return fmt.Sprintf("%s@%s", c.Username, c.URL)
}

// CredentialStore reads and writes the saved credentials file.
type CredentialStore struct {
	path string
}

// NewCredentialStore returns a store for path. An empty path means
// constants.CredentialsFileName in the working directory.
func NewCredentialStore(path string) *CredentialStore {
	if path == "" {
		path = constants.CredentialsFileName
	}
	return &CredentialStore{path: path}
}

// Path returns the file the store reads and writes.
func (s *CredentialStore) Path() string {
	return s.path
}

// Load returns the saved credentials, or nil when there are none.
// A missing, empty or unparsable file means "no saved credentials"; it is never an error.
func (s *CredentialStore) Load() *NullableCredentials {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	return ParseCredentials(data)
}

// ParseCredentials decodes the credentials file contents.
// Returns nil for empty input, "{}", or anything that is not a JSON object of strings.
func ParseCredentials(data []byte) *NullableCredentials {
	data = bytes.TrimSpace(data)
	if len(data) <= 2 {
		return nil
	}

	var creds NullableCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil
	}
	return &creds
}

// Save overwrites the file with creds.
func (s *CredentialStore) Save(creds Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create credentials directory: %w", err)
		}
	}

	// Temp file in the same directory so the rename replaces the old file in one step
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(constants.CredentialsFileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set credentials file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}
	return nil
}
