package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors_StatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFound("video", "v-1"), "NOT_FOUND", http.StatusNotFound},
		{"already exists", AlreadyExists("user", "email", "a@b.c"), "ALREADY_EXISTS", http.StatusConflict},
		{"invalid input", InvalidInput("title is required"), "INVALID_INPUT", http.StatusBadRequest},
		{"unauthorized", Unauthorized("invalid email or password"), "UNAUTHORIZED", http.StatusUnauthorized},
		{"forbidden", Forbidden("not the owner"), "FORBIDDEN", http.StatusForbidden},
		{"internal", Internal(errors.New("boom")), "INTERNAL_ERROR", http.StatusInternalServerError},
		{"store unavailable", StoreUnavailable(errors.New("conn refused")), "STORE_UNAVAILABLE", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestConstructors_UnwrapToSentinels(t *testing.T) {
	assert.ErrorIs(t, NotFound("video", "v-1"), ErrNotFound)
	assert.ErrorIs(t, AlreadyExists("user", "email", "a@b.c"), ErrAlreadyExists)
	assert.ErrorIs(t, Unauthorized("nope"), ErrUnauthorized)
	assert.ErrorIs(t, Forbidden("nope"), ErrForbidden)
	assert.ErrorIs(t, StoreUnavailable(errors.New("down")), ErrStoreUnavailable)
}

func TestHTTPStatus_Sentinels(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrNotFound))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(ErrUnauthorized))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(ErrInvalidCredential))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(ErrStoreUnavailable))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("anything else")))
}

func TestHTTPStatus_WrappedSentinel(t *testing.T) {
	err := fmt.Errorf("verify token: %w", ErrInvalidCredential)
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(err))
}

func TestAppError_ErrorString(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: video with id v-1 not found: resource not found",
		NotFound("video", "v-1").Error())
	assert.Equal(t, "INVALID_INPUT: bad", (&AppError{Code: "INVALID_INPUT", Message: "bad"}).Error())
}

func TestWrap(t *testing.T) {
	base := errors.New("base")
	wrapped := Wrap(base, "query sessions")
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, "query sessions: base", wrapped.Error())
}
