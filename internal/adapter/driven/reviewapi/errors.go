package reviewapi

import (
	"fmt"
	"net/http"
)

// maxErrorBody caps how much of a rejected response body is kept for logging.
const maxErrorBody = 4 << 10

// HTTPError is returned when the backend answers with a non-2xx status.
// Body is kept verbatim for logging; callers do not interpret it.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// NetworkError is returned when the request could not be completed at the
// transport level, or the response could not be decoded.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
