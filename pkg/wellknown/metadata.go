package wellknown

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OpenIDConfigurationPath is the discovery document location relative to the STS base URL
const OpenIDConfigurationPath = "/.well-known/openid-configuration"

// OpenIDConfiguration represents an OpenID Connect Discovery 1.0 document
// (a superset of RFC 8414 authorization server metadata).
// Fields the STS leaves out decode as empty values.
type OpenIDConfiguration struct {
	// The STS issuer identifier
	Issuer string `json:"issuer"`

	// URL of the authorization endpoint
	AuthorizationEndpoint string `json:"authorization_endpoint"`

	// URL of the token endpoint
	TokenEndpoint string `json:"token_endpoint"`

	// URL of the userinfo endpoint
	UserinfoEndpoint string `json:"userinfo_endpoint"`

	// URL of the RP-initiated logout endpoint
	EndSessionEndpoint string `json:"end_session_endpoint"`

	// URL of the STS JWK Set document
	JwksURI string `json:"jwks_uri"`

	ScopesSupported                  []string `json:"scopes_supported,omitempty"`
	ResponseTypesSupported           []string `json:"response_types_supported,omitempty"`
	GrantTypesSupported              []string `json:"grant_types_supported,omitempty"`
	CodeChallengeMethodsSupported    []string `json:"code_challenge_methods_supported,omitempty"`
	IDTokenSigningAlgValuesSupported []string `json:"id_token_signing_alg_values_supported,omitempty"`

	// Some STS answer a discovery request with an OAuth error body instead
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// DiscoveryURL builds the discovery document URL for an STS base URL
func DiscoveryURL(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/") + OpenIDConfigurationPath
}

// ParseOpenIDConfiguration decodes a discovery document.
// The body must be a JSON object.
func ParseOpenIDConfiguration(body []byte) (*OpenIDConfiguration, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("discovery document is not a JSON object: %w", err)
	}

	var config OpenIDConfiguration
	if err := json.Unmarshal(body, &config); err != nil {
		return nil, fmt.Errorf("failed to decode discovery document: %w", err)
	}
	return &config, nil
}

// HasError reports whether the document is an OAuth error response
func (c *OpenIDConfiguration) HasError() bool {
	return c.Error != ""
}

// ErrorText renders the error field, with the description when present
func (c *OpenIDConfiguration) ErrorText() string {
	if c.ErrorDescription != "" {
		return c.Error + ": " + c.ErrorDescription
	}
	return c.Error
}

// SupportsCodeChallengeMethod reports whether the STS advertises the PKCE method.
// An STS that advertises nothing is assumed to support it.
func (c *OpenIDConfiguration) SupportsCodeChallengeMethod(method string) bool {
	if len(c.CodeChallengeMethodsSupported) == 0 {
		return true
	}
	for _, m := range c.CodeChallengeMethodsSupported {
		if m == method {
			return true
		}
	}
	return false
}
