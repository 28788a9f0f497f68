package crawler

import (
	"errors"
	"fmt"
)

// ErrNotModified is returned by the fetcher when the server reports the
// page is unchanged since the supplied revalidation token.
var ErrNotModified = errors.New("content not modified")

type FetchErrorKind string

const (
	FetchErrTimeout            FetchErrorKind = "timeout"
	FetchErrConnection         FetchErrorKind = "connection_error"
	FetchErrHTTPStatus         FetchErrorKind = "http_status"
	FetchErrUnsupportedContent FetchErrorKind = "unsupported_content_type"
)

// FetchError classifies a failed page fetch. Individual fetch errors are
// non-fatal: the traversal engine logs them and skips the page.
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchErrHTTPStatus:
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.StatusCode)
	case FetchErrUnsupportedContent:
		return fmt.Sprintf("fetch %s: content type is not HTML", e.URL)
	default:
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
