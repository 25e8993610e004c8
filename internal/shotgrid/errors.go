package shotgrid

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotLoggedIn is returned by operations that need a session when there is none.
var ErrNotLoggedIn = errors.New("user is not logged in")

// ErrUserNotFound is returned when the login does not identify exactly one HumanUser.
var ErrUserNotFound = errors.New("could not find a HumanUser with that login")

// ErrMultipartUpload is returned when the site asks for a multipart upload.
var ErrMultipartUpload = errors.New("multipart uploads are not supported")

// APIError is an error body returned by the ShotGrid REST API.
type APIError struct {
	Status int
	Title  string
	Detail string
}

func (e *APIError) Error() string {
	msg := e.Title
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

type errorBody struct {
	Errors []struct {
		Status int             `json:"status"`
		Title  string          `json:"title"`
		Detail json.RawMessage `json:"detail"`
	} `json:"errors"`
}

// parseAPIError builds an APIError from a response body. It always returns a
// non-nil error, falling back to the status and raw body text.
func parseAPIError(status int, body []byte) *APIError {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && len(eb.Errors) > 0 {
		first := eb.Errors[0]
		apiErr := &APIError{Status: status, Title: first.Title, Detail: detailString(first.Detail)}
		if first.Status != 0 {
			apiErr.Status = first.Status
		}
		return apiErr
	}

	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return &APIError{Status: status, Detail: text}
}

// detailString renders the detail member, which is a string or an arbitrary JSON value.
func detailString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
