package httpclient

import (
	"fmt"
)

// HTTPError is returned when a server answers with a non-success status
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
}

// Error returns the error message
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Message)
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, url, message string) error {
	return &HTTPError{
		StatusCode: statusCode,
		URL:        url,
		Message:    message,
	}
}

// TransportError is returned when no complete response could be read:
// DNS failures, refused or reset connections, TLS errors and timeouts
type TransportError struct {
	URL string
	Err error
}

// Error returns the error message
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error for URL %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new transport error
func NewTransportError(url string, err error) error {
	return &TransportError{
		URL: url,
		Err: err,
	}
}
