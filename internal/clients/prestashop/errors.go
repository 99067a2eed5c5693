package prestashop

import (
	"errors"
	"fmt"
)

// Transport error kinds. These are the only failures worth retrying.
var (
	ErrTimeout    = errors.New("request timed out")
	ErrConnection = errors.New("connection failed")
)

// TransportError wraps a network-level failure (timeout or connection).
type TransportError struct {
	Kind error // ErrTimeout or ErrConnection
	URL  string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error (%v) calling %s: %v", e.Kind, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Kind
}

// HTTPStatusError is a non-2xx response from the webservice. Never retried:
// the server answered, it just said no.
type HTTPStatusError struct {
	Code int
	URL  string
	Body string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("webservice returned HTTP %d for %s", e.Code, e.URL)
}

// MalformedResponseError is a 2xx response whose body could not be decoded
// as the expected XML.
type MalformedResponseError struct {
	URL string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.URL, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether an error is a transient transport failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrConnection)
}
