package client

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-oidc/pkg/jwks"
	"github.com/tendant/simple-oidc/pkg/token"
)

func newTestSigner(t *testing.T) (*token.Signer, *jwks.KeySet) {
	t.Helper()
	privateKey, err := jwks.GenerateRSAKeyPair(2048)
	require.NoError(t, err)

	signer := token.NewSigner(privateKey, "test-key", "https://sts.example.com")
	keys := jwks.NewKeySet()
	require.NoError(t, keys.AddKey(signer.KeyPair()))
	return signer, keys
}

func serve(handler http.Handler, setup func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	if setup != nil {
		setup(req)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func bearer(tokenString string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tokenString)
	}
}

func TestVerifier(t *testing.T) {
	signer, keys := newTestSigner(t)

	var seen *AuthContext
	handler := Verifier(keys, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetAuthContext(r)
	}))

	t.Run("ValidToken", func(t *testing.T) {
		tokenString, err := signer.Sign("user-1", time.Hour, map[string]interface{}{"scope": "openid api.read"})
		require.NoError(t, err)

		serve(handler, bearer(tokenString))
		require.NotNil(t, seen)
		assert.True(t, seen.IsAuthenticated)
		assert.Equal(t, "user-1", seen.Subject)
		assert.True(t, seen.HasAnyScope("admin", "api.read"))
		assert.False(t, seen.HasAllScopes("admin", "api.read"))
	})

	t.Run("Cookie", func(t *testing.T) {
		tokenString, err := signer.Sign("user-2", time.Hour, nil)
		require.NoError(t, err)

		serve(handler, func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: ACCESS_TOKEN_NAME, Value: tokenString})
		})
		assert.True(t, seen.IsAuthenticated)
		assert.Equal(t, "user-2", seen.Subject)
	})

	t.Run("NoToken", func(t *testing.T) {
		serve(handler, nil)
		assert.False(t, seen.IsAuthenticated)
		assert.Empty(t, seen.Reason)
	})

	t.Run("Opaque", func(t *testing.T) {
		serve(handler, bearer("opaque-token"))
		assert.False(t, seen.IsAuthenticated)
		assert.Equal(t, "token is not a JWT", seen.Reason)
	})

	t.Run("Expired", func(t *testing.T) {
		tokenString, err := signer.Sign("user-1", -time.Minute, nil)
		require.NoError(t, err)

		serve(handler, bearer(tokenString))
		assert.False(t, seen.IsAuthenticated)
		assert.Equal(t, "token is expired", seen.Reason)
	})

	t.Run("ForeignKey", func(t *testing.T) {
		other, _ := newTestSigner(t)
		tokenString, err := other.Sign("user-1", time.Hour, nil)
		require.NoError(t, err)

		serve(handler, bearer(tokenString))
		assert.False(t, seen.IsAuthenticated)
		assert.Equal(t, "token signature is invalid", seen.Reason)
	})
}

func TestRequireScope(t *testing.T) {
	signer, keys := newTestSigner(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	readOnly, err := signer.Sign("user-1", time.Hour, map[string]interface{}{"scope": "api.read"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		handler    http.Handler
		setup      func(*http.Request)
		wantStatus int
	}{
		{"auth without token", RequireAuth(ok), nil, http.StatusUnauthorized},
		{"auth with token", RequireAuth(ok), bearer(readOnly), http.StatusNoContent},
		{"any scope granted", RequireScope("api.write", "api.read")(ok), bearer(readOnly), http.StatusNoContent},
		{"any scope missing", RequireScope("api.write")(ok), bearer(readOnly), http.StatusForbidden},
		{"all scopes missing one", RequireAllScopes("api.read", "api.write")(ok), bearer(readOnly), http.StatusForbidden},
		{"all scopes without token", RequireAllScopes("api.read")(ok), nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(Verifier(keys, DefaultScopeClaim)(tt.handler), tt.setup)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestGetAuthContext_WithoutVerifier(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	authCtx := GetAuthContext(req)
	assert.False(t, authCtx.IsAuthenticated)
	assert.False(t, authCtx.HasAnyScope("openid"))
}
