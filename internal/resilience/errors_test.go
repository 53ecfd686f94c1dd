package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		class     string
		transient bool
	}{
		{"nil", nil, "", false},
		{"rate limited", NewTransientError(errors.New("slow down"), 429), ClassRateLimited, true},
		{"overloaded", fmt.Errorf("call: %w", NewTransientError(errors.New("overloaded"), StatusOverloaded)), ClassOverloaded, true},
		{"unavailable", NewTransientError(errors.New("unavailable"), 503), ClassOverloaded, true},
		{"bad gateway", eris.Wrap(NewTransientError(errors.New("bad gateway"), 502), "anthropic"), ClassServer, true},
		{"no status", NewTransientError(errors.New("eof"), 0), ClassNetwork, true},
		{"deadline", fmt.Errorf("attempt: %w", context.DeadlineExceeded), ClassTimeout, true},
		{"net timeout", timeoutErr{}, ClassTimeout, true},
		{"connection reset", fmt.Errorf("write tcp: %w", syscall.ECONNRESET), ClassNetwork, true},
		{"connection refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), ClassNetwork, true},
		{"message pattern", errors.New("read: connection reset by peer"), ClassNetwork, true},
		{"dns", errors.New("dial tcp: lookup api: no such host"), ClassNetwork, true},
		{"cancelled", eris.Wrap(context.Canceled, "orchestrator"), ClassCancelled, false},
		{"circuit open", eris.Wrap(ErrCircuitOpen, "anthropic"), ClassCircuitOpen, false},
		{"plain", errors.New("invalid api key"), ClassPermanent, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.class, ClassifyError(tt.err))
			assert.Equal(t, tt.transient, IsTransient(tt.err))
		})
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	te := NewTransientError(inner, 500)
	assert.ErrorIs(t, te, inner)
	assert.Equal(t, "inner", te.Error())
	assert.Equal(t, 500, te.StatusCode)
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504, StatusOverloaded} {
		assert.True(t, IsTransientHTTPStatus(code), "code %d", code)
	}
	for _, code := range []int{200, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "code %d", code)
	}
}
