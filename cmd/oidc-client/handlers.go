package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/tendant/simple-oidc/pkg/client"
	"github.com/tendant/simple-oidc/pkg/config"
	"github.com/tendant/simple-oidc/pkg/errors"
	"github.com/tendant/simple-oidc/pkg/oidc"
	"github.com/tendant/simple-oidc/pkg/sts"
	"github.com/tendant/simple-oidc/pkg/token"
)

const sessionCookie = "session_id"

// Handler serves the relying party pages and the /api/auth endpoints
type Handler struct {
	sts      *sts.Config
	config   config.ClientConfig
	sessions *SessionStore
}

func NewHandler(stsConfig *sts.Config, cfg config.ClientConfig, sessions *SessionStore) *Handler {
	return &Handler{
		sts:      stsConfig,
		config:   cfg,
		sessions: sessions,
	}
}

func (h *Handler) Routes(r chi.Router) {
	// Web pages
	r.Get("/", h.HomePage)
	r.Get("/callback", h.Callback)
	r.Get("/protected", h.ProtectedPage)
	r.Get("/logout", h.LogoutRedirect)

	// API endpoints
	r.Route("/api/auth", func(r chi.Router) {
		r.Get("/login", h.Login)
		r.Get("/me", h.Me)
		r.Post("/refresh", h.Refresh)
		r.Post("/exchange", h.Exchange)
		r.Post("/logout", h.Logout)
	})

	// Resource endpoints accept the STS's access tokens directly
	r.Route("/api/resource", func(r chi.Router) {
		r.Use(client.Verifier(h.sts.Keys(), h.config.ScopeClaim))
		r.Use(client.RequireAuth)
		if h.config.RequiredScope != "" {
			r.Use(client.RequireScope(h.config.RequiredScope))
		}
		r.Get("/", h.Resource)
	})
}

func (h *Handler) clientID() *string {
	return oidc.String(h.config.ClientID)
}

// clientSecret is nil for public clients
func (h *Handler) clientSecret() *string {
	if h.config.ClientSecret == "" {
		return nil
	}
	return oidc.String(h.config.ClientSecret)
}

// Login starts the authorization code flow
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.New().String()
	authz := oidc.NewAuthorizationRequest(oidc.AuthorizationRequestConfig{
		STS:         h.sts,
		Scope:       h.config.Scope,
		ClientID:    h.clientID(),
		RedirectURI: oidc.String(h.config.RedirectURI),
		State:       oidc.String(state),
	})
	h.sessions.BeginLogin(state, authz.CodeVerifier())

	http.Redirect(w, r, authz.Build(), http.StatusFound)
}

// Callback redeems the authorization code and creates the session
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if errorParam := query.Get("error"); errorParam != "" {
		slog.Warn("Authorization failed", "error", errorParam, "description", query.Get("error_description"))
		renderErrorPage(w, http.StatusBadRequest, errorParam, query.Get("error_description"))
		return
	}

	verifier, ok := h.sessions.ConsumeLogin(query.Get("state"))
	if !ok {
		renderErrorPage(w, http.StatusBadRequest, string(errors.ErrCodeStateMismatch), "Invalid or expired state parameter")
		return
	}
	code := query.Get("code")
	if code == "" {
		renderErrorPage(w, http.StatusBadRequest, string(errors.ErrCodeInvalidInput), "Missing authorization code")
		return
	}

	tokens := oidc.NewAuthorizationCodeRequest(h.sts, h.clientID(), h.clientSecret(),
		oidc.String(h.config.RedirectURI), code, oidc.String(verifier)).Execute(r.Context())
	if !tokens.Success {
		renderErrorPage(w, http.StatusBadGateway, "token_request_failed", tokens.ErrorMessage)
		return
	}

	accessToken := deref(tokens.AccessToken)
	if err := h.checkAccessToken(r.Context(), accessToken); err != nil {
		renderErrorPage(w, err.HTTPStatusCode(), string(err.Code), err.Message)
		return
	}
	if err := h.checkIDToken(deref(tokens.IDToken)); err != nil {
		renderErrorPage(w, err.HTTPStatusCode(), string(err.Code), err.Message)
		return
	}

	userinfo := oidc.NewUserinfoRequest(h.sts, oidc.String(accessToken)).Execute(r.Context())
	if !userinfo.Success {
		renderErrorPage(w, http.StatusBadGateway, "userinfo_failed", userinfo.ErrorMessage)
		return
	}

	sessionID := h.sessions.Create(&Session{
		Subject:      userinfo.Subject(),
		AccessToken:  accessToken,
		IDToken:      deref(tokens.IDToken),
		RefreshToken: deref(tokens.RefreshToken),
		TokenExpiry:  tokens.ExpiresAt,
		UserInfo:     userinfo.Claims,
	})
	slog.Info("User logged in", "sub", userinfo.Subject())

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL.Seconds()),
	})
	http.Redirect(w, r, "/protected", http.StatusFound)
}

// checkAccessToken validates JWT access tokens locally; opaque tokens are left
// to the userinfo call
func (h *Handler) checkAccessToken(ctx context.Context, raw string) *errors.Error {
	t := token.Decode(raw)
	if !t.IsJWT() {
		return nil
	}
	if t.IsExpired() {
		return errors.New(errors.ErrCodeTokenExpired, "access token is expired")
	}
	if !t.IsValidAlgorithm() {
		return errors.Newf(errors.ErrCodeTokenInvalid, "access token algorithm %q is not accepted", t.Algorithm())
	}
	if h.sts.Keys() != nil && !t.IsSignatureValid(ctx, h.sts.Keys()) {
		return errors.New(errors.ErrCodeTokenInvalid, "access token signature is invalid")
	}
	if h.config.RequiredScope != "" && !t.ContainsScope(h.config.ScopeClaim, h.config.RequiredScope) {
		return errors.Forbidden("access token lacks scope " + h.config.RequiredScope)
	}
	return nil
}

// checkIDToken rejects an id token issued to another client
func (h *Handler) checkIDToken(raw string) *errors.Error {
	t := token.Decode(raw)
	if !t.IsJWT() {
		return nil
	}
	if _, ok := t.Claim("azp"); ok && !t.IsAzp(h.config.ClientID) {
		return errors.New(errors.ErrCodeTokenInvalid, "id token was issued to another client")
	}
	return nil
}

func (h *Handler) currentSession(r *http.Request) (Session, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return Session{}, false
	}
	return h.sessions.Get(cookie.Value)
}

// freshSession refreshes the access token of session once it has expired
func (h *Handler) freshSession(ctx context.Context, session Session) Session {
	current := &oauth2.Token{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		Expiry:       session.TokenExpiry,
	}
	if current.Valid() || session.RefreshToken == "" {
		return session
	}

	refreshed, err := oidc.RefreshTokenSource(ctx, h.sts, h.clientID(), h.clientSecret(), current).Token()
	if err != nil {
		slog.Warn("Failed to refresh access token", "sub", session.Subject, "error", err)
		return session
	}
	h.sessions.UpdateTokens(session.ID, refreshed.AccessToken, refreshed.RefreshToken, refreshed.Expiry)
	session.AccessToken = refreshed.AccessToken
	session.RefreshToken = refreshed.RefreshToken
	session.TokenExpiry = refreshed.Expiry
	return session
}

func (h *Handler) HomePage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.currentSession(r)
	data := homePageData{
		LoggedIn:    ok,
		ClientID:    h.config.ClientID,
		STSURL:      h.config.STSURL,
		RedirectURI: h.config.RedirectURI,
		Scope:       h.config.Scope,
	}
	if ok {
		data.UserName = displayName(session)
	}
	renderPage(w, http.StatusOK, homePage, data)
}

func (h *Handler) ProtectedPage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.currentSession(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	session = h.freshSession(r.Context(), session)

	renderPage(w, http.StatusOK, protectedPage, protectedPageData{
		UserName:    displayName(session),
		UserInfo:    prettyJSON(session.UserInfo),
		TokenExpiry: session.TokenExpiry.Format(time.RFC3339),
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := h.currentSession(r)
	if !ok {
		writeError(w, r, errors.New(errors.ErrCodeSessionExpired, "not authenticated"))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"sub":              session.Subject,
		"userinfo":         session.UserInfo,
		"token_expires_at": session.TokenExpiry,
	})
}

// Resource echoes the verified bearer token's subject and claims
func (h *Handler) Resource(w http.ResponseWriter, r *http.Request) {
	authCtx := client.GetAuthContext(r)
	render.JSON(w, r, map[string]interface{}{
		"sub":    authCtx.Subject,
		"claims": authCtx.Token.Claims(),
	})
}

// Refresh runs the refresh_token grant regardless of the current token's expiry
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	session, ok := h.currentSession(r)
	if !ok {
		writeError(w, r, errors.New(errors.ErrCodeSessionExpired, "not authenticated"))
		return
	}
	if session.RefreshToken == "" {
		writeError(w, r, errors.InvalidInput("refresh_token", "session has no refresh token"))
		return
	}

	resp := oidc.NewRefreshTokenRequest(h.sts, h.clientID(), h.clientSecret(), session.RefreshToken).Execute(r.Context())
	if !resp.Success {
		writeError(w, r, errors.Unauthorized(resp.ErrorMessage))
		return
	}
	h.sessions.UpdateTokens(session.ID, deref(resp.AccessToken), deref(resp.RefreshToken), resp.ExpiresAt)
	render.JSON(w, r, map[string]interface{}{"token_expires_at": resp.ExpiresAt})
}

// Exchange trades the session's access token for one with the requested scope
func (h *Handler) Exchange(w http.ResponseWriter, r *http.Request) {
	session, ok := h.currentSession(r)
	if !ok {
		writeError(w, r, errors.New(errors.ErrCodeSessionExpired, "not authenticated"))
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, r, errors.InvalidInput("form", err.Error()))
		return
	}
	scope := r.PostForm.Get("scope")
	if scope == "" {
		writeError(w, r, errors.InvalidInput("scope", "is required"))
		return
	}

	resp := oidc.NewTokenExchangeRequest(h.sts, h.clientID(), h.clientSecret(), scope, session.AccessToken).Execute(r.Context())
	if !resp.Success {
		writeError(w, r, errors.Unauthorized(resp.ErrorMessage))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"access_token": deref(resp.AccessToken),
		"scope":        scope,
		"expires_at":   resp.ExpiresAt,
	})
}

// endSession drops the local session and returns the STS logout URL, if any
func (h *Handler) endSession(w http.ResponseWriter, r *http.Request) string {
	var idToken string
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		if session, ok := h.sessions.Get(cookie.Value); ok {
			idToken = session.IDToken
		}
		h.sessions.Delete(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	return oidc.EndSessionURL(h.sts, oidc.EndSessionRequest{
		IDTokenHint:           idToken,
		PostLogoutRedirectURI: h.config.PostLogoutRedirectURI,
		ClientID:              h.config.ClientID,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	endSessionURL := h.endSession(w, r)
	render.JSON(w, r, map[string]string{
		"status":          "logged_out",
		"end_session_url": endSessionURL,
	})
}

func (h *Handler) LogoutRedirect(w http.ResponseWriter, r *http.Request) {
	target := h.endSession(w, r)
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func writeError(w http.ResponseWriter, r *http.Request, err *errors.Error) {
	render.Status(r, err.HTTPStatusCode())
	render.JSON(w, r, map[string]string{
		"code":    string(err.Code),
		"message": err.Message,
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
