package fetch

import (
	"fmt"

	"github.com/pkg/errors"
)

// NetworkError represents a transport level failure: DNS, refused
// connections, timeouts and aborted requests.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return e.Err.Error()
}

// Cause returns the underlying transport error
func (e *NetworkError) Cause() error { return e.Err }

// Unwrap returns the underlying transport error
func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError represents a response with a non-success status code
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := e.Body
	if body == "" {
		body = "Unknown error"
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, body)
}

// EmptyResponseError represents a successful response whose payload is empty
// (null, [], false, 0, "") or could not be parsed as JSON at all.
type EmptyResponseError struct {
	// Err is the parse error, nil when the payload was valid but empty
	Err error
}

func (e *EmptyResponseError) Error() string {
	if e.Err != nil {
		return "empty or invalid response: " + e.Err.Error()
	}
	return "empty or invalid response"
}

// Unwrap returns the parse error, if any
func (e *EmptyResponseError) Unwrap() error { return e.Err }

// Error is the terminal failure of a fetch once the retry budget is spent.
// Its message is the message of the last attempt's error.
type Error struct {
	// URL is the requested resource URL
	URL string
	// Proxy is the proxy variant used by the last attempt
	Proxy Proxy
	// ProxyURL is the prefix of the proxy used by the last attempt
	ProxyURL string
	// Attempts is the number of network attempts made
	Attempts int
	// Err is the error of the last attempt
	Err error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

// Cause returns the error of the last attempt
func (e *Error) Cause() error { return e.Err }

// Unwrap returns the error of the last attempt
func (e *Error) Unwrap() error { return e.Err }

// IsHTTP reports whether err is, or wraps, an HTTPError
func IsHTTP(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// IsEmpty reports whether err is, or wraps, an EmptyResponseError
func IsEmpty(err error) bool {
	var ee *EmptyResponseError
	return errors.As(err, &ee)
}

// IsNetwork reports whether err is, or wraps, a NetworkError
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// kind is used as a metrics label
func kind(err error) string {
	switch {
	case err == nil:
		return "success"
	case IsEmpty(err):
		return "empty"
	case IsNetwork(err):
		return "network"
	}
	if _, ok := IsHTTP(err); ok {
		return "http"
	}
	return "unknown"
}
