package editerr

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// Kind represents the category of error that occurred
type Kind int

const (
	// KindValidation indicates a rejected request: unknown token, missing id, missing payload
	KindValidation Kind = iota
	// KindNotFound indicates a missing component or a missing original baseline
	KindNotFound
	// KindNetwork indicates a network-level store failure
	KindNetwork
	// KindTimeout indicates the store did not answer in time
	KindTimeout
	// KindHTTP indicates a non-2xx store response that is not a 400/404
	KindHTTP
	// KindParse indicates an unexpected store payload shape
	KindParse
	// KindBusy indicates a save or reset is already in flight
	KindBusy
	// KindStale indicates the target element is no longer part of the document
	KindStale
	// KindUnknown indicates an unclassified error
	KindUnknown
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "Validation Error"
	case KindNotFound:
		return "Not Found"
	case KindNetwork:
		return "Network Error"
	case KindTimeout:
		return "Timeout"
	case KindHTTP:
		return "HTTP Error"
	case KindParse:
		return "Parse Error"
	case KindBusy:
		return "Busy"
	case KindStale:
		return "Stale Target"
	case KindUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Error is the error type shared by the editor core, the store client and the store backends
type Error struct {
	Kind       Kind   // Category of error
	Message    string // Human-readable error message
	StatusCode int    // HTTP status code (if applicable)
	Err        error  // Underlying error (if any)
	Retryable  bool   // Whether repeating the same request may succeed
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation creates a validation error
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Validationf creates a validation error with a formatted message
func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

// NotFound creates a not-found error
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Busy creates an error for a request rejected because another is in flight
func Busy(message string) *Error {
	return &Error{Kind: KindBusy, Message: message}
}

// Stale creates an error for an operation against a detached element
func Stale(message string) *Error {
	return &Error{Kind: KindStale, Message: message}
}

// HTTP creates an HTTP-level error. Server errors are retryable.
func HTTP(statusCode int, message string) *Error {
	return &Error{
		Kind:       KindHTTP,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500,
	}
}

// Parse creates an error for an unexpected payload shape
func Parse(message string, err error) *Error {
	return &Error{Kind: KindParse, Message: message, Err: err}
}

// Network creates a network-level error with automatic classification
func Network(message string, err error) *Error {
	classified := ClassifyNetworkError(err)
	if classified != nil {
		classified.Message = message
		return classified
	}
	return &Error{Kind: KindNetwork, Message: message, Err: err, Retryable: true}
}

// ClassifyNetworkError maps a transport error onto a Kind
func ClassifyNetworkError(err error) *Error {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &Error{Kind: KindTimeout, Message: "request timed out", Err: err, Retryable: true}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{
			Kind:    KindNetwork,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:     err,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &Error{Kind: KindNetwork, Message: "store refused connection", Err: err, Retryable: true}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		return ClassifyNetworkError(urlErr.Err)
	}

	return &Error{Kind: KindNetwork, Message: "network error occurred", Err: err, Retryable: true}
}

// KindOf returns the kind of err, or KindUnknown when err is not an *Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool { return err != nil && KindOf(err) == KindValidation }

// IsNotFound checks if an error is a not-found error
func IsNotFound(err error) bool { return err != nil && KindOf(err) == KindNotFound }

// IsBusy checks if an error reports a request already in flight
func IsBusy(err error) bool { return err != nil && KindOf(err) == KindBusy }

// IsStale checks if an error reports a detached target
func IsStale(err error) bool { return err != nil && KindOf(err) == KindStale }

// IsTransient reports whether err is a store failure that leaves local edits
// intact and can be retried by the operator: network, timeout, HTTP and
// payload-shape errors, plus anything unclassified.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	switch KindOf(err) {
	case KindNetwork, KindTimeout, KindHTTP, KindParse, KindUnknown:
		return true
	}
	return false
}

// IsRetryable checks if an error should be retried automatically
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// ShortMessage returns a concise, operator-facing message
func ShortMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}

	switch e.Kind {
	case KindTimeout:
		return "Store not responding (timeout)"
	case KindNetwork:
		return "Network error - check the store address"
	case KindHTTP:
		return fmt.Sprintf("Store error (HTTP %d)", e.StatusCode)
	case KindParse:
		return "Unexpected store response"
	case KindBusy:
		return "A save is already in progress"
	default:
		return e.Message
	}
}
