package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			err:      ErrMissingCredential,
			expected: "[10010] missing credential",
		},
		{
			name:     "with wrapped error",
			err:      ErrInvalidCredential.Wrap(errors.New("token is expired")),
			expected: "[10011] invalid credential: token is expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_WrapKeepsIdentity(t *testing.T) {
	cause := errors.New("connection refused")
	appErr := ErrIdentityLookup.Wrap(cause)

	assert.Equal(t, CodeIdentityLookup, appErr.Code)
	assert.Equal(t, "identity lookup failed", appErr.Message)
	assert.Same(t, cause, errors.Unwrap(appErr))
	// Wrap 不能修改预定义错误本身
	assert.Nil(t, ErrIdentityLookup.Err)
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		target   *AppError
		expected bool
	}{
		{"same error", ErrIdentityNotFound, ErrIdentityNotFound, true},
		{"wrapped same error", ErrIdentityNotFound.Wrap(errors.New("no rows")), ErrIdentityNotFound, true},
		{"fmt wrapped", fmt.Errorf("handshake: %w", ErrMissingCredential), ErrMissingCredential, true},
		{"different error", ErrInvalidCredential, ErrIdentityNotFound, false},
		{"non-app error", errors.New("standard error"), ErrIdentityNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Is(tt.err, tt.target))
		})
	}
}

func TestGetCodeAndMessage(t *testing.T) {
	assert.Equal(t, CodeInvalidCredential, GetCode(ErrInvalidCredential.Wrap(errors.New("bad signature"))))
	assert.Equal(t, CodeServerError, GetCode(errors.New("boom")))

	assert.Equal(t, "identity not found", GetMessage(ErrIdentityNotFound))
	assert.Equal(t, "internal server error", GetMessage(errors.New("boom")))
}
