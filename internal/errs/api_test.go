package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_IsMapsStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		target error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusBadRequest, ErrValidation},
		{http.StatusUnprocessableEntity, ErrValidation},
		{http.StatusConflict, ErrConflict},
	}
	for _, c := range cases {
		err := fmt.Errorf("wrapped: %w", &APIError{Status: c.status, Method: "GET", Path: "/x"})
		assert.ErrorIs(t, err, c.target, "status %d", c.status)
	}

	err := &APIError{Status: http.StatusInternalServerError}
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.False(t, IsUnauthorized(err))
	assert.True(t, IsUnauthorized(&APIError{Status: 401}))
}

func TestStatusOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, StatusOf(errors.New("boom")))
	assert.Equal(t, 503, StatusOf(fmt.Errorf("x: %w", &APIError{Status: 503})))
}

func TestMessage_Priority(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "fallback", Message(nil, "fallback"))
	assert.Equal(t, "email taken", Message(&APIError{Status: 400, Message: "email taken"}, "fallback"))
	assert.Equal(t, "boom", Message(errors.New("boom"), "fallback"))

	withoutMsg := &APIError{Status: 500, Method: "GET", Path: "/users"}
	assert.Equal(t, "GET /users: 500 Internal Server Error", Message(withoutMsg, "fallback"))
}
