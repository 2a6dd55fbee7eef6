package lookup

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrThrottled marks upstream rate limiting or overload. Retryable.
	ErrThrottled = errors.New("lookup service throttled")
	// ErrTransport marks network-level failures. Retryable.
	ErrTransport = errors.New("lookup transport failure")
	// ErrBusy is the terminal error once retries are exhausted.
	ErrBusy = errors.New("lookup service busy, retry later")

	ErrNoStructuredData  = errors.New("no valid structured data found in response")
	ErrMalformedResponse = errors.New("malformed lookup response")
	ErrEmptyTerm         = errors.New("search term is empty")
)

// StatusError is a non-success HTTP status from the upstream service.
// 429 and 503 also match ErrThrottled.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Sprintf("lookup API error %d: %s", e.Code, msg)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrThrottled && IsThrottlingStatus(e.Code)
}

func IsThrottlingStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s (gave up after %d attempts: %v)", ErrBusy.Error(), e.Attempts, e.Last)
}

// Is matches ErrBusy only; the last underlying error is reported in the message, not unwrapped.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrBusy
}

// IsTransient reports whether err is worth another attempt.
func IsTransient(err error) bool {
	return errors.Is(err, ErrThrottled) || errors.Is(err, ErrTransport)
}
