package oidc

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tendant/simple-oidc/pkg/sts"
)

// Grant types
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
	GrantTypeTokenExchange     = "token_exchange"
)

// TokenTypeJWT is both the requested and the subject token type of a token exchange
const TokenTypeJWT = "urn:ietf:params:oauth:token-type:jwt"

// maxResponseBodySize caps token and userinfo response reads (1 MB)
const maxResponseBodySize = 1 << 20

// Grant is the grant specific part of a token request. The set of grants is closed:
// AuthorizationCodeGrant, RefreshTokenGrant and TokenExchangeGrant.
type Grant interface {
	grantType() string
	parameters() Params
	endpoint(config *sts.Config) string
}

// AuthorizationCodeGrant redeems an authorization code
type AuthorizationCodeGrant struct {
	Code         string
	CodeVerifier *string
}

func (g AuthorizationCodeGrant) grantType() string { return GrantTypeAuthorizationCode }

func (g AuthorizationCodeGrant) parameters() Params {
	params := appendOptional(nil, ParamCodeVerifier, g.CodeVerifier)
	return append(params, Param{Name: ParamCode, Value: g.Code})
}

func (g AuthorizationCodeGrant) endpoint(config *sts.Config) string { return config.TokenEndpoint() }

// RefreshTokenGrant trades a refresh token for fresh tokens
type RefreshTokenGrant struct {
	RefreshToken string
}

func (g RefreshTokenGrant) grantType() string { return GrantTypeRefreshToken }

func (g RefreshTokenGrant) parameters() Params {
	return Params{{Name: ParamRefreshToken, Value: g.RefreshToken}}
}

func (g RefreshTokenGrant) endpoint(config *sts.Config) string { return config.TokenEndpoint() }

// TokenExchangeGrant exchanges a JWT for another one with a different scope
type TokenExchangeGrant struct {
	Scope        string
	SubjectToken string
}

func (g TokenExchangeGrant) grantType() string { return GrantTypeTokenExchange }

func (g TokenExchangeGrant) parameters() Params {
	return Params{
		{Name: ParamScope, Value: g.Scope},
		{Name: ParamRequestedTokenType, Value: TokenTypeJWT},
		{Name: ParamSubjectToken, Value: g.SubjectToken},
		{Name: ParamSubjectTokenType, Value: TokenTypeJWT},
	}
}

func (g TokenExchangeGrant) endpoint(config *sts.Config) string { return config.TokenExchangeEndpoint() }

// TokenRequest is a single token endpoint call. Nothing is sent until Execute.
// Unset client fields are left out of the form entirely.
type TokenRequest struct {
	STS          *sts.Config
	ClientID     *string
	ClientSecret *string
	RedirectURI  *string
	Grant        Grant
}

// NewAuthorizationCodeRequest builds the request redeeming code with the stored PKCE verifier
func NewAuthorizationCodeRequest(config *sts.Config, clientID, clientSecret, redirectURI *string, code string, codeVerifier *string) *TokenRequest {
	return &TokenRequest{
		STS:          config,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
		Grant:        AuthorizationCodeGrant{Code: code, CodeVerifier: codeVerifier},
	}
}

// NewRefreshTokenRequest builds a refresh_token grant request
func NewRefreshTokenRequest(config *sts.Config, clientID, clientSecret *string, refreshToken string) *TokenRequest {
	return &TokenRequest{
		STS:          config,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Grant:        RefreshTokenGrant{RefreshToken: refreshToken},
	}
}

// NewTokenExchangeRequest builds a token exchange request for subjectToken
func NewTokenExchangeRequest(config *sts.Config, clientID, clientSecret *string, scope, subjectToken string) *TokenRequest {
	return &TokenRequest{
		STS:          config,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Grant:        TokenExchangeGrant{Scope: scope, SubjectToken: subjectToken},
	}
}

// GrantType returns the grant_type value, or "" without a grant
func (r *TokenRequest) GrantType() string {
	if r.Grant == nil {
		return ""
	}
	return r.Grant.grantType()
}

// Parameters returns the form parameters: the shared ones first, then the grant's
func (r *TokenRequest) Parameters() Params {
	var params Params
	if r.Grant != nil {
		params = append(params, Param{Name: ParamGrantType, Value: r.Grant.grantType()})
	}
	params = appendOptional(params, ParamClientID, r.ClientID)
	params = appendOptional(params, ParamClientSecret, r.ClientSecret)
	params = appendOptional(params, ParamRedirectURI, r.RedirectURI)
	if r.Grant != nil {
		params = append(params, r.Grant.parameters()...)
	}
	return params
}

// HeaderParameters returns the extra request headers; the domain header is only
// present when the STS declares a domain
func (r *TokenRequest) HeaderParameters() http.Header {
	header := http.Header{}
	if r.STS != nil && r.STS.HasDomain() {
		header.Set(sts.DomainHeader, r.STS.Domain())
	}
	return header
}

// URL returns the endpoint the request is posted to
func (r *TokenRequest) URL() string {
	if r.STS == nil || r.Grant == nil {
		return ""
	}
	return r.Grant.endpoint(r.STS)
}

// Execute posts the request once. Failures of any kind come back as a
// TokenResponse with Success false; Execute never retries.
func (r *TokenRequest) Execute(ctx context.Context) *TokenResponse {
	if r.STS == nil {
		return failedTokenResponse("no STS configuration")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL(), strings.NewReader(r.Parameters().Encode()))
	if err != nil {
		slog.Error("Failed to create token request", "grant_type", r.GrantType(), "error", err)
		return failedTokenResponse(err.Error())
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	for name, values := range r.HeaderParameters() {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	resp, err := r.STS.HTTPClient().Do(req)
	if err != nil {
		slog.Error("Token request failed", "grant_type", r.GrantType(), "url", r.URL(), "error", err)
		return failedTokenResponse(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		slog.Error("Failed to read token response", "grant_type", r.GrantType(), "error", err)
		return failedTokenResponse(err.Error())
	}

	response := ParseTokenResponse(resp.StatusCode, body, time.Now())
	if response.Success {
		slog.Info("Token request succeeded", "grant_type", r.GrantType(), "expires_at", response.ExpiresAt)
	} else {
		slog.Warn("Token request rejected", "grant_type", r.GrantType(), "status", resp.StatusCode, "error", response.ErrorMessage)
	}
	return response
}
