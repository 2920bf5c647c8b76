package tidepool

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind discriminates the failures a client operation can return.
type ErrorKind int

const (
	// KindClient is any other non-2xx status, an unexpected response shape
	// or a transport failure such as a timeout.
	KindClient ErrorKind = iota
	// KindValidation is bad input; the request never reached the network,
	// or the backend rejected the payload (400, 413).
	KindValidation
	// KindNotFound is a 404: namespace or resource absent.
	KindNotFound
	// KindServiceUnavailable is a 503 and is safe to retry.
	KindServiceUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindServiceUnavailable:
		return "service_unavailable"
	default:
		return "client"
	}
}

// StatusTimeout is the status code carried by errors raised when the
// configured request timeout elapses.
const StatusTimeout = http.StatusRequestTimeout

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrClient             = errors.New("tidepool: client error")
	ErrValidation         = errors.New("tidepool: validation error")
	ErrNotFound           = errors.New("tidepool: not found")
	ErrServiceUnavailable = errors.New("tidepool: service unavailable")

	// ErrTimeout is wrapped by the error returned when a request exceeds
	// the configured timeout.
	ErrTimeout = errors.New("tidepool: request timed out")
)

// Error is the single error type returned by client operations.
type Error struct {
	Kind    ErrorKind
	Message string
	// StatusCode is the HTTP status, 0 when no response was received.
	StatusCode int
	// RawBody is the decoded response body (JSON value or text), if any.
	RawBody any
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("tidepool: ")
	b.WriteString(e.Message)
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrClient:
		return e.Kind == KindClient
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrServiceUnavailable:
		return e.Kind == KindServiceUnavailable
	}
	return false
}

// IsValidationError checks if the error is a validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFoundError checks if the error is a 404 from the backend.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsServiceUnavailableError checks if the error is a retryable 503.
func IsServiceUnavailableError(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

// IsTimeoutError checks if the request was cancelled by the client timeout.
func IsTimeoutError(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func newValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func newClientError(format string, args ...any) *Error {
	return &Error{Kind: KindClient, Message: fmt.Sprintf(format, args...)}
}

// MapError converts a non-success HTTP status and its body into an *Error.
//
//	400, 413     -> KindValidation
//	404          -> KindNotFound
//	503          -> KindServiceUnavailable
//	anything else -> KindClient
func MapError(statusCode int, message string, rawBody any) *Error {
	kind := KindClient
	switch statusCode {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		kind = KindValidation
	case http.StatusNotFound:
		kind = KindNotFound
	case http.StatusServiceUnavailable:
		kind = KindServiceUnavailable
	}
	return &Error{
		Kind:       kind,
		Message:    message,
		StatusCode: statusCode,
		RawBody:    rawBody,
	}
}

// errorMessage picks the human readable message of an error response:
// the "error" field, else the "message" field, else the textual body,
// else statusText.
func errorMessage(body any, statusText string) string {
	switch v := body.(type) {
	case map[string]any:
		if s, ok := v["error"].(string); ok && s != "" {
			return s
		}
		if s, ok := v["message"].(string); ok && s != "" {
			return s
		}
	case string:
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return statusText
}
