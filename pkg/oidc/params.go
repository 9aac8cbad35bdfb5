package oidc

import (
	"net/url"
	"strings"
)

// Parameter names used on the wire
const (
	ParamState               = "state"
	ParamCode                = "code"
	ParamScope               = "scope"
	ParamResponseType        = "response_type"
	ParamRedirectURI         = "redirect_uri"
	ParamCodeChallengeMethod = "code_challenge_method"
	ParamCodeChallenge       = "code_challenge"
	ParamCodeVerifier        = "code_verifier"
	ParamDomain              = "domain"
	ParamRequestedTokenType  = "requested_token_type"
	ParamSubjectToken        = "subject_token"
	ParamSubjectTokenType    = "subject_token_type"
	ParamClientID            = "client_id"
	ParamClientSecret        = "client_secret"
	ParamRefreshToken        = "refresh_token"
	ParamGrantType           = "grant_type"

	// RP-initiated logout
	ParamIDTokenHint           = "id_token_hint"
	ParamPostLogoutRedirectURI = "post_logout_redirect_uri"
)

// Param is a single query or form parameter. Parameter lists keep their order.
type Param struct {
	Name  string
	Value string
}

// Params is an ordered parameter list
type Params []Param

// Get returns the first value for name
func (p Params) Get(name string) (string, bool) {
	for _, param := range p {
		if param.Name == name {
			return param.Value, true
		}
	}
	return "", false
}

// Has reports whether name is present
func (p Params) Has(name string) bool {
	_, ok := p.Get(name)
	return ok
}

// Encode renders the list in "URL encoded" form, keeping the list order
func (p Params) Encode() string {
	var buf strings.Builder
	for i, param := range p {
		if i > 0 {
			buf.WriteByte('&')
		}
		buf.WriteString(url.QueryEscape(param.Name))
		buf.WriteByte('=')
		buf.WriteString(url.QueryEscape(param.Value))
	}
	return buf.String()
}

// appendOptional adds name only when value is set
func appendOptional(params Params, name string, value *string) Params {
	if value == nil {
		return params
	}
	return append(params, Param{Name: name, Value: *value})
}

// valueOrEmpty substitutes "" for an unset value
func valueOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// String returns a pointer to s, for the optional fields of requests
func String(s string) *string {
	return &s
}

// withQuery appends an encoded query to endpoint, keeping any query it already has
func withQuery(endpoint string, params Params) string {
	if len(params) == 0 {
		return endpoint
	}
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
		if strings.HasSuffix(endpoint, "?") || strings.HasSuffix(endpoint, "&") {
			sep = ""
		}
	}
	return endpoint + sep + params.Encode()
}
