package client

import (
	"errors"
	"fmt"
)

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// IsServerRejection reports whether err is a server-side rejection (any
// HTTPError) as opposed to a transport failure. OTP attempt accounting
// depends on this distinction: rejections consume an attempt, transport
// errors do not.
func IsServerRejection(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr)
}
