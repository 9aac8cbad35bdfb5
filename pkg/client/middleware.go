package client

import (
	"log/slog"
	"net/http"
)

// RequireAuth is an authorization middleware that requires a verified bearer token.
// Returns 401 Unauthorized if the request is not authenticated.
// Must be used after Verifier.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCtx := GetAuthContext(r)

		if !authCtx.IsAuthenticated {
			slog.Debug("Unauthenticated request to protected resource", "reason", authCtx.Reason)
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireScope returns a middleware that checks if the token has any of the specified scopes.
// Returns 401 Unauthorized if not authenticated.
// Returns 403 Forbidden if authenticated but missing required scope.
// Must be used after Verifier.
func RequireScope(scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := GetAuthContext(r)

			if !authCtx.IsAuthenticated {
				slog.Debug("Unauthenticated request to scope-protected resource", "requiredScopes", scopes)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !authCtx.HasAnyScope(scopes...) {
				slog.Warn("Token lacks required scope",
					"sub", authCtx.Subject,
					"requiredScopes", scopes)
				w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope"`)
				http.Error(w, "Forbidden: insufficient scope", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAllScopes returns a middleware that checks if the token has ALL of the specified scopes.
// Must be used after Verifier.
func RequireAllScopes(scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := GetAuthContext(r)

			if !authCtx.IsAuthenticated {
				slog.Debug("Unauthenticated request to scope-protected resource", "requiredScopes", scopes)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !authCtx.HasAllScopes(scopes...) {
				slog.Warn("Token lacks all required scopes",
					"sub", authCtx.Subject,
					"requiredScopes", scopes)
				w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope"`)
				http.Error(w, "Forbidden: insufficient scope", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
