package fetch

import "fmt"

// NetworkError means no response was received: refused connection, DNS
// failure, timeout or cancellation.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error for %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError means a response arrived but its body could not be read.
// Callers treat it as an empty fetch result.
type HTTPError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("reading body of %s (HTTP %d): %v", e.URL, e.StatusCode, e.Err)
}

func (e *HTTPError) Unwrap() error { return e.Err }
