package feed

import "fmt"

// ErrorType classifies why a feed could not be read.
type ErrorType string

const (
	ErrTypeRateLimited ErrorType = "rate_limited"
	ErrTypeForbidden   ErrorType = "forbidden"
	ErrTypeNotFound    ErrorType = "not_found"
	ErrTypeGone        ErrorType = "gone"
	ErrTypeUpstream    ErrorType = "upstream_failure"
	ErrTypeNetwork     ErrorType = "network"
	ErrTypeTooLarge    ErrorType = "too_large"
	ErrTypeParse       ErrorType = "parse_error"
	ErrTypeUnexpected  ErrorType = "unexpected"
)

// FetchError is a classified feed fetch or parse failure.
type FetchError struct {
	Type       ErrorType
	StatusCode int
	URL        string
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("feed %s: HTTP %d for %s", e.Type, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("feed %s: %v for %s", e.Type, e.Cause, e.URL)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// ClassifyHTTPStatus builds a FetchError for a non-200 response.
func ClassifyHTTPStatus(statusCode int, url string) *FetchError {
	e := &FetchError{StatusCode: statusCode, URL: url, Cause: fmt.Errorf("HTTP %d", statusCode)}

	switch {
	case statusCode == 429:
		e.Type = ErrTypeRateLimited
	case statusCode == 401, statusCode == 403:
		e.Type = ErrTypeForbidden
	case statusCode == 404:
		e.Type = ErrTypeNotFound
	case statusCode == 410:
		e.Type = ErrTypeGone
	case statusCode >= 500 && statusCode <= 599:
		e.Type = ErrTypeUpstream
	default:
		e.Type = ErrTypeUnexpected
	}
	return e
}

// ClassifyNetworkError wraps DNS, timeout and connection failures.
func ClassifyNetworkError(cause error, url string) *FetchError {
	return &FetchError{Type: ErrTypeNetwork, URL: url, Cause: cause}
}

// ClassifyParseError wraps a document that is not a readable RSS or Atom feed.
func ClassifyParseError(cause error, url string) *FetchError {
	return &FetchError{Type: ErrTypeParse, URL: url, Cause: cause}
}
