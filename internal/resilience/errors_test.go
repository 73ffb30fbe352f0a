package resilience

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit transient", NewTransientError(errors.New("boom"), 503), true},
		{"wrapped transient", fmt.Errorf("poll: %w", NewTransientError(errors.New("boom"), 0)), true},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"string pattern i/o timeout", errors.New("read tcp 10.0.0.1:443: i/o timeout"), true},
		{"string pattern no such host", errors.New("dial tcp: lookup api.places.example.com: no such host"), true},
		{"plain error", errors.New("listing not found"), false},
		{"context canceled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	t.Parallel()

	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "%d", code)
	}
	for _, code := range []int{200, 201, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "%d", code)
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	t.Parallel()

	inner := errors.New("inner")
	te := NewTransientError(inner, 502)
	assert.Equal(t, "inner", te.Error())
	assert.ErrorIs(t, te, inner)
	assert.Equal(t, 502, te.StatusCode)
}
