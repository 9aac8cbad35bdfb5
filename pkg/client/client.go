package client

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tendant/simple-oidc/pkg/jwks"
	"github.com/tendant/simple-oidc/pkg/token"
)

// contextKey is a value for use with context.WithValue. It's used as
// a pointer so it fits in an interface{} without allocation.
type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "client context value " + k.name
}

const (
	ACCESS_TOKEN_NAME = "access_token"
	DefaultScopeClaim = "scope"
)

var (
	AuthContextKey = &contextKey{"AuthContext"}
)

// AuthContext describes the bearer token presented with a request
type AuthContext struct {
	IsAuthenticated bool
	Subject         string
	Token           *token.Token
	ScopeClaim      string
	// Reason is set when a token was presented but rejected
	Reason string
}

func (a *AuthContext) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("authenticated", a.IsAuthenticated),
		slog.String("sub", a.Subject),
	)
}

// HasAnyScope reports whether the token carries at least one of scopes
func (a *AuthContext) HasAnyScope(scopes ...string) bool {
	if !a.IsAuthenticated {
		return false
	}
	for _, scope := range scopes {
		if a.Token.ContainsScope(a.ScopeClaim, scope) {
			return true
		}
	}
	return false
}

// HasAllScopes reports whether the token carries every one of scopes
func (a *AuthContext) HasAllScopes(scopes ...string) bool {
	if !a.IsAuthenticated {
		return false
	}
	for _, scope := range scopes {
		if !a.Token.ContainsScope(a.ScopeClaim, scope) {
			return false
		}
	}
	return true
}

// GetAuthContext returns the AuthContext stored by Verifier. Requests that did
// not pass through Verifier get an unauthenticated context.
func GetAuthContext(r *http.Request) *AuthContext {
	if authCtx, ok := r.Context().Value(AuthContextKey).(*AuthContext); ok {
		return authCtx
	}
	return &AuthContext{}
}

// Verifier checks the request's bearer token against keys and stores the
// outcome in the request context. It never rejects a request; RequireAuth and
// RequireScope do that.
func Verifier(keys jwks.Provider, scopeClaim string) func(http.Handler) http.Handler {
	if scopeClaim == "" {
		scopeClaim = DefaultScopeClaim
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := verify(r, keys, scopeClaim)
			ctx := context.WithValue(r.Context(), AuthContextKey, authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func verify(r *http.Request, keys jwks.Provider, scopeClaim string) *AuthContext {
	raw := extractTokenFromRequest(r)
	if raw == "" {
		return &AuthContext{ScopeClaim: scopeClaim}
	}

	t := token.Decode(raw)
	reason := ""
	switch {
	case !t.IsJWT():
		reason = "token is not a JWT"
	case t.IsExpired():
		reason = "token is expired"
	case !t.IsValidAlgorithm():
		reason = "token algorithm is not accepted"
	case !t.IsSignatureValid(r.Context(), keys):
		reason = "token signature is invalid"
	}
	if reason != "" {
		slog.Debug("Bearer token rejected", "reason", reason)
		return &AuthContext{ScopeClaim: scopeClaim, Reason: reason}
	}

	return &AuthContext{
		IsAuthenticated: true,
		Subject:         t.Subject(),
		Token:           t,
		ScopeClaim:      scopeClaim,
	}
}

// TokenFromHeader reads an "Authorization: Bearer" header
func TokenFromHeader(r *http.Request) string {
	bearer := r.Header.Get("Authorization")
	if len(bearer) > 7 && strings.EqualFold(bearer[:7], "bearer ") {
		return strings.TrimSpace(bearer[7:])
	}
	return ""
}

func TokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(ACCESS_TOKEN_NAME)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func extractTokenFromRequest(r *http.Request) string {
	extractors := []func(*http.Request) string{
		TokenFromHeader,
		TokenFromCookie,
	}
	for _, extractor := range extractors {
		if tokenString := extractor(r); tokenString != "" {
			return tokenString
		}
	}
	return ""
}
