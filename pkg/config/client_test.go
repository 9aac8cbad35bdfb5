package config

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-oidc/pkg/jwks"
	"github.com/tendant/simple-oidc/pkg/sts"
)

func TestLoadClientConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("OIDC_CLIENT_ID", "demo-client")

		cfg, err := LoadClientConfig()
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:4000", cfg.STSURL)
		assert.Equal(t, "demo-client", cfg.ClientID)
		assert.Equal(t, "openid profile email", cfg.Scope)
		assert.Equal(t, "scope", cfg.ScopeClaim)
		assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
		assert.Empty(t, cfg.Domain)
	})

	t.Run("Environment", func(t *testing.T) {
		t.Setenv("OIDC_STS_URL", "https://sts.example.com")
		t.Setenv("OIDC_CLIENT_ID", "client-1")
		t.Setenv("OIDC_DOMAIN", "tenant-a")
		t.Setenv("OIDC_PROXY_URL", "http://proxy.internal:3128")
		t.Setenv("OIDC_HTTP_TIMEOUT", "5s")

		cfg, err := LoadClientConfig()
		require.NoError(t, err)
		assert.Equal(t, "https://sts.example.com", cfg.STSURL)
		assert.Equal(t, "tenant-a", cfg.Domain)
		assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)

		proxyURL, err := cfg.Proxy()
		require.NoError(t, err)
		assert.Equal(t, "proxy.internal:3128", proxyURL.Host)
	})

	t.Run("MissingClientID", func(t *testing.T) {
		t.Setenv("OIDC_CLIENT_ID", "")

		_, err := LoadClientConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OIDC_CLIENT_ID")
	})
}

func TestLoadClientConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
sts_url: https://file-sts.example.com
client_id: file-client
scope: openid api.read
`), 0o600))

	t.Run("FileValues", func(t *testing.T) {
		cfg, err := LoadClientConfigFile(path)
		require.NoError(t, err)
		assert.Equal(t, "https://file-sts.example.com", cfg.STSURL)
		assert.Equal(t, "file-client", cfg.ClientID)
		assert.Equal(t, "openid api.read", cfg.Scope)
		assert.Equal(t, "http://localhost:8080/callback", cfg.RedirectURI)
	})

	t.Run("EnvironmentWins", func(t *testing.T) {
		t.Setenv("OIDC_CLIENT_ID", "env-client")

		cfg, err := LoadClientConfigFile(path)
		require.NoError(t, err)
		assert.Equal(t, "env-client", cfg.ClientID)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadClientConfigFile(filepath.Join(t.TempDir(), "missing.yml"))
		assert.Error(t, err)
	})
}

func TestClientConfig_Validate(t *testing.T) {
	valid := ClientConfig{
		STSURL:      "https://sts.example.com",
		ClientID:    "client",
		RedirectURI: "https://app.example.com/callback",
		HTTPTimeout: time.Second,
	}
	require.NoError(t, valid.Validate())

	invalid := valid
	invalid.STSURL = "sts.example.com"
	invalid.ClientID = ""
	invalid.HTTPTimeout = 0
	invalid.ProxyURL = "no-scheme"

	err := invalid.Validate()
	require.Error(t, err)
	errs, ok := err.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, errs, 4)
}

func TestClientConfig_STSOptions(t *testing.T) {
	cfg := ClientConfig{
		STSURL:      "https://sts.example.com",
		ClientID:    "client",
		Domain:      "tenant-a",
		ProxyURL:    "http://proxy.internal:3128",
		HTTPTimeout: 7 * time.Second,
	}

	opts, err := cfg.STSOptions()
	require.NoError(t, err)

	stsConfig := sts.NewConfig(sts.Endpoints{TokenEndpoint: "https://sts.example.com/token"}, opts...)
	assert.Equal(t, "tenant-a", stsConfig.Domain())
	assert.True(t, stsConfig.HasProxy())
	assert.Equal(t, 7*time.Second, stsConfig.HTTPClient().Timeout)

	transport, ok := stsConfig.HTTPClient().Transport.(*http.Transport)
	require.True(t, ok)
	proxyURL, err := transport.Proxy(&http.Request{})
	require.NoError(t, err)
	assert.Equal(t, "proxy.internal:3128", proxyURL.Host)

	cfg.ProxyURL = "http://%zz"
	_, err = cfg.STSOptions()
	assert.Error(t, err)
}

func TestClientConfig_STSOptions_StaticKey(t *testing.T) {
	privateKey, err := jwks.GenerateRSAKeyPair(2048)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "sts-public.pem")
	require.NoError(t, os.WriteFile(path, []byte(jwks.EncodePublicKeyToPEM(&privateKey.PublicKey)), 0o600))

	cfg := ClientConfig{
		STSURL:        "https://sts.example.com",
		ClientID:      "client",
		HTTPTimeout:   time.Second,
		StaticKeyFile: path,
		StaticKeyID:   "sts-key-1",
	}

	opts, err := cfg.STSOptions()
	require.NoError(t, err)

	stsConfig := sts.NewConfig(sts.Endpoints{}, opts...)
	require.NotNil(t, stsConfig.Keys())
	publicKey, err := stsConfig.Keys().PublicKey(context.Background(), "sts-key-1")
	require.NoError(t, err)
	assert.True(t, privateKey.PublicKey.Equal(publicKey))

	cfg.StaticKeyFile = filepath.Join(t.TempDir(), "missing.pem")
	_, err = cfg.STSOptions()
	assert.Error(t, err)
}

func TestClientConfig_StaticKeyIDDefault(t *testing.T) {
	t.Setenv("OIDC_CLIENT_ID", "demo-client")

	cfg, err := LoadClientConfig()
	require.NoError(t, err)
	assert.Equal(t, "static", cfg.StaticKeyID)
	assert.Empty(t, cfg.StaticKeyFile)
}
