package oidc

import (
	"log/slog"

	"github.com/tendant/simple-oidc/pkg/pkce"
	"github.com/tendant/simple-oidc/pkg/sts"
)

// ResponseTypeCode is the only response type the client requests
const ResponseTypeCode = "code"

// AuthorizationRequestConfig holds the inputs of an authorization request.
// Unset optional values are sent as empty parameters, never left out.
type AuthorizationRequestConfig struct {
	STS         *sts.Config
	Scope       string
	ClientID    *string
	RedirectURI *string
	State       *string

	// AuthorizationEndpoint overrides the STS authorization endpoint when set
	AuthorizationEndpoint string

	// ExtraParameters are appended after the standard ones, e.g. an IdP hint
	ExtraParameters Params
}

// AuthorizationRequest is one authorization attempt. It owns the PKCE verifier
// the matching token request must present.
type AuthorizationRequest struct {
	config       AuthorizationRequestConfig
	codeVerifier string
}

// NewAuthorizationRequest starts an authorization attempt with a fresh PKCE verifier
func NewAuthorizationRequest(config AuthorizationRequestConfig) *AuthorizationRequest {
	config.ExtraParameters = append(Params(nil), config.ExtraParameters...)
	return &AuthorizationRequest{
		config:       config,
		codeVerifier: pkce.GenerateVerifier(),
	}
}

// CodeVerifier returns the verifier to keep (e.g. in the session) until the code is redeemed
func (r *AuthorizationRequest) CodeVerifier() string {
	return r.codeVerifier
}

// CodeChallenge returns the S256 challenge sent to the STS
func (r *AuthorizationRequest) CodeChallenge() string {
	return pkce.ChallengeFor(r.codeVerifier)
}

// Endpoint returns the authorization endpoint the request is sent to
func (r *AuthorizationRequest) Endpoint() string {
	if r.config.AuthorizationEndpoint != "" {
		return r.config.AuthorizationEndpoint
	}
	if r.config.STS == nil {
		return ""
	}
	return r.config.STS.AuthorizationEndpoint()
}

// Parameters returns the query parameters in the order they are sent
func (r *AuthorizationRequest) Parameters() Params {
	params := Params{
		{Name: ParamScope, Value: r.config.Scope},
		{Name: ParamResponseType, Value: ResponseTypeCode},
		{Name: ParamClientID, Value: valueOrEmpty(r.config.ClientID)},
		{Name: ParamRedirectURI, Value: valueOrEmpty(r.config.RedirectURI)},
		{Name: ParamCodeChallengeMethod, Value: string(pkce.ChallengeS256)},
		{Name: ParamCodeChallenge, Value: r.CodeChallenge()},
		{Name: ParamState, Value: valueOrEmpty(r.config.State)},
	}
	if r.config.STS != nil && r.config.STS.HasDomain() {
		params = append(params, Param{Name: ParamDomain, Value: r.config.STS.Domain()})
	}
	return append(params, r.config.ExtraParameters...)
}

// Build renders the URL the user agent is redirected to. It can be called
// repeatedly; the verifier and challenge stay the same.
func (r *AuthorizationRequest) Build() string {
	authURL := withQuery(r.Endpoint(), r.Parameters())
	slog.Info("Authorization request built", "url", authURL)
	return authURL
}
