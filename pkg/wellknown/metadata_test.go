package wellknown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoveryURL(t *testing.T) {
	assert.Equal(t, "https://sts.example.com/.well-known/openid-configuration", DiscoveryURL("https://sts.example.com"))
	assert.Equal(t, "https://sts.example.com/oauth2/.well-known/openid-configuration", DiscoveryURL("https://sts.example.com/oauth2/"))
}

func TestParseOpenIDConfiguration(t *testing.T) {
	t.Run("Complete", func(t *testing.T) {
		body := []byte(`{
			"issuer": "https://sts.example.com",
			"authorization_endpoint": "https://sts.example.com/authorize",
			"token_endpoint": "https://sts.example.com/token",
			"userinfo_endpoint": "https://sts.example.com/userinfo",
			"end_session_endpoint": "https://sts.example.com/logout",
			"jwks_uri": "https://sts.example.com/jwks",
			"code_challenge_methods_supported": ["S256"]
		}`)

		config, err := ParseOpenIDConfiguration(body)
		require.NoError(t, err)
		assert.Equal(t, "https://sts.example.com/token", config.TokenEndpoint)
		assert.Equal(t, "https://sts.example.com/logout", config.EndSessionEndpoint)
		assert.Equal(t, "https://sts.example.com/jwks", config.JwksURI)
		assert.False(t, config.HasError())
		assert.True(t, config.SupportsCodeChallengeMethod("S256"))
		assert.False(t, config.SupportsCodeChallengeMethod("plain"))
	})

	t.Run("MissingEndpoints", func(t *testing.T) {
		config, err := ParseOpenIDConfiguration([]byte(`{"jwks_uri":"https://sts.example.com/jwks"}`))
		require.NoError(t, err)
		assert.Equal(t, "", config.AuthorizationEndpoint)
		assert.Equal(t, "", config.UserinfoEndpoint)
		assert.True(t, config.SupportsCodeChallengeMethod("S256"))
	})

	t.Run("ErrorDocument", func(t *testing.T) {
		config, err := ParseOpenIDConfiguration([]byte(`{"error":"invalid_tenant","error_description":"unknown domain"}`))
		require.NoError(t, err)
		assert.True(t, config.HasError())
		assert.Equal(t, "invalid_tenant: unknown domain", config.ErrorText())
	})

	t.Run("NotAnObject", func(t *testing.T) {
		for _, body := range []string{`<html>down</html>`, `["a"]`, ``} {
			_, err := ParseOpenIDConfiguration([]byte(body))
			assert.Error(t, err, body)
		}
	})
}
