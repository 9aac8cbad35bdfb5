package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitError(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := InitErrorWrap(cause, "https://sts.example.com/.well-known/openid-configuration", "failed to fetch discovery document")

	require.NotNil(t, err)
	assert.True(t, IsInitError(err))
	assert.True(t, Is(err, cause))
	assert.Equal(t, "https://sts.example.com/.well-known/openid-configuration", GetDetails(err)["url"])
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatusCode())
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "nothing"))
	assert.Nil(t, InitErrorWrap(nil, "u", "nothing"))
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"structured", New(ErrCodeStateMismatch, "state mismatch"), ErrCodeStateMismatch},
		{"wrapped", fmt.Errorf("callback: %w", Unauthorized("no session")), ErrCodeUnauthorized},
		{"plain", fmt.Errorf("boom"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetCode(tt.err))
		})
	}
}

func TestMapErrorCodeToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, MapErrorCodeToHTTPStatus(ErrCodeStateMismatch))
	assert.Equal(t, http.StatusUnauthorized, MapErrorCodeToHTTPStatus(ErrCodeTokenExpired))
	assert.Equal(t, http.StatusForbidden, MapErrorCodeToHTTPStatus(ErrCodeForbidden))
	assert.Equal(t, http.StatusInternalServerError, MapErrorCodeToHTTPStatus("SOMETHING_ELSE"))
}
