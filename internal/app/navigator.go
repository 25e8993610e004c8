// Package app holds the page navigation and the controller that turns UI
// events into background jobs and job results back into view updates.
package app

import (
	"errors"
	"net/url"
	"strings"
)

// Navigation errors. Their text is shown to the user as is.
var (
	ErrAtLastPage  = errors.New("Cannot go further forward")
	ErrAtFirstPage = errors.New("Cannot go further backward")
)

// Page indexes the main window's stacked pages.
type Page int

const (
	PageURL Page = iota
	PageLogin
	PageTasks

	pageCount = int(PageTasks) + 1
)

func (p Page) String() string {
	switch p {
	case PageURL:
		return "url"
	case PageLogin:
		return "login"
	case PageTasks:
		return "tasks"
	default:
		return "unknown"
	}
}

// Navigator is a cursor over count pages that moves one page at a time.
type Navigator struct {
	index int
	count int
}

// NewNavigator returns a navigator on the first of count pages.
func NewNavigator(count int) *Navigator {
	if count < 1 {
		count = 1
	}
	return &Navigator{count: count}
}

// Index returns the current page index.
func (n *Navigator) Index() int { return n.index }

// Page returns the current page.
func (n *Navigator) Page() Page { return Page(n.index) }

// Advance moves to the next page, or returns ErrAtLastPage and stays put.
func (n *Navigator) Advance() error {
	if n.index >= n.count-1 {
		return ErrAtLastPage
	}
	n.index++
	return nil
}

// Backtrack moves to the previous page, or returns ErrAtFirstPage and stays put.
func (n *Navigator) Backtrack() error {
	if n.index <= 0 {
		return ErrAtFirstPage
	}
	n.index--
	return nil
}

const siteDomainSuffix = ".shotgrid.autodesk.com"

// ValidSiteURL reports whether the URL page may offer "Log In" for text: it must
// be an https URL whose host is a shotgrid.autodesk.com sub domain, with no
// spaces and nothing after the host but an optional "/".
func ValidSiteURL(text string) bool {
	t := strings.TrimSpace(text)
	if strings.ContainsAny(t, " \t") {
		return false
	}
	u, err := url.Parse(t)
	if err != nil || u.Scheme != "https" || u.User != nil || u.Port() != "" {
		return false
	}
	if u.Opaque != "" || u.RawQuery != "" || u.Fragment != "" || u.ForceQuery {
		return false
	}
	if u.Path != "" && u.Path != "/" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	sub := strings.TrimSuffix(host, siteDomainSuffix)
	return sub != host && sub != "" && !strings.HasSuffix(sub, ".")
}
