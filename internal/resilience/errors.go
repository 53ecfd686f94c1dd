package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Error classes recorded on failed generation attempts.
const (
	ClassRateLimited = "rate_limited"
	ClassOverloaded  = "overloaded"
	ClassServer      = "server_error"
	ClassTimeout     = "timeout"
	ClassNetwork     = "network"
	ClassCircuitOpen = "circuit_open"
	ClassCancelled   = "cancelled"
	ClassPermanent   = "permanent"
)

// StatusOverloaded is the provider's "overloaded" status. It is not a
// registered HTTP code.
const StatusOverloaded = 529

// TransientError marks a provider failure as retryable and keeps the
// response status when there was one.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError marks err as retryable. statusCode may be 0.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// networkMessages catch connection failures whose cause only survives as
// text after wrapping.
var networkMessages = []string{
	"connection reset by peer",
	"broken pipe",
	"temporary failure in name resolution",
	"no such host",
	"tls handshake timeout",
	"i/o timeout",
	"server closed idle connection",
}

// IsTransient reports whether a generation attempt that failed with err is
// worth repeating. Caller cancellation and an open circuit never are.
func IsTransient(err error) bool {
	switch ClassifyError(err) {
	case ClassRateLimited, ClassOverloaded, ClassServer, ClassTimeout, ClassNetwork:
		return true
	default:
		return false
	}
}

// IsTransientHTTPStatus reports whether a provider response status is
// retryable.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		StatusOverloaded:
		return true
	default:
		return false
	}
}

// ClassifyError names the failure class of err for attempt records and
// logs. It returns "" for a nil error.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return ClassCancelled
	}
	if errors.Is(err, ErrCircuitOpen) {
		return ClassCircuitOpen
	}

	var te *TransientError
	if errors.As(err, &te) {
		switch te.StatusCode {
		case http.StatusTooManyRequests:
			return ClassRateLimited
		case StatusOverloaded, http.StatusServiceUnavailable:
			return ClassOverloaded
		case 0:
			return ClassNetwork
		default:
			return ClassServer
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTimeout
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNABORTED) {
		return ClassNetwork
	}

	msg := strings.ToLower(err.Error())
	for _, p := range networkMessages {
		if strings.Contains(msg, p) {
			return ClassNetwork
		}
	}
	return ClassPermanent
}
