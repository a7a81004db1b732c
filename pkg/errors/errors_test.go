package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorConstructors(t *testing.T) {
	cases := []struct {
		name    string
		err     *AppError
		errType ErrorType
		status  int
		check   func(error) bool
	}{
		{"validation", NewValidationError("bad input"), ErrorTypeValidation, http.StatusBadRequest, IsValidation},
		{"not found", NewNotFoundError("map"), ErrorTypeNotFound, http.StatusNotFound, IsNotFound},
		{"conflict", NewConflictError("already exists"), ErrorTypeConflict, http.StatusConflict, IsConflict},
		{"limit exceeded", NewLimitExceededError("node", 100), ErrorTypeLimitExceeded, http.StatusBadRequest, IsLimitExceeded},
		{"internal", NewInternalError("boom"), ErrorTypeInternal, http.StatusInternalServerError, IsInternal},
		{"rate limit", NewRateLimitError(5, "1m"), ErrorTypeRateLimit, http.StatusTooManyRequests, IsRateLimit},
		{"unavailable", NewUnavailableError("store", errors.New("down")), ErrorTypeUnavailable, http.StatusServiceUnavailable, IsUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.errType, tc.err.Type)
			assert.Equal(t, tc.status, tc.err.HTTPStatus)
			assert.True(t, tc.check(tc.err))
			assert.NotEmpty(t, tc.err.StackTrace)
		})
	}
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	err := NewNotFoundError("map")
	wrapped := fmt.Errorf("loading: %w", err)

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsConflict(wrapped))
	require.NotNil(t, GetAppError(wrapped))
	assert.Equal(t, ErrorTypeNotFound, GetAppError(wrapped).Type)
}

func TestWrap(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "context"))
	})

	t.Run("app error keeps its type", func(t *testing.T) {
		err := Wrap(NewConflictError("taken"), "creating node")

		assert.True(t, IsConflict(err))
		assert.Contains(t, err.Error(), "creating node")
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		cause := errors.New("disk full")
		err := Wrap(cause, "saving")

		assert.True(t, IsInternal(err))
		assert.ErrorIs(t, err, cause)
	})
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := NewInternalError("wrapper").WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "root")
}

func TestIsAppError(t *testing.T) {
	assert.True(t, IsAppError(NewValidationError("x")))
	assert.False(t, IsAppError(errors.New("plain")))
	assert.Nil(t, GetAppError(errors.New("plain")))
}
