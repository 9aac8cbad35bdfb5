package sts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-oidc/pkg/errors"
	"github.com/tendant/simple-oidc/pkg/jwks"
)

// fakeSTS serves a discovery document and a key set, recording request headers
type fakeSTS struct {
	server    *httptest.Server
	keys      *jwks.KeySet
	discovery func(base string) string

	mutex   sync.Mutex
	headers map[string]http.Header
}

func newFakeSTS(t *testing.T, discovery func(base string) string) *fakeSTS {
	t.Helper()

	privateKey, err := jwks.GenerateRSAKeyPair(2048)
	require.NoError(t, err)
	keys := jwks.NewKeySet()
	require.NoError(t, keys.AddKey(&jwks.KeyPair{Kid: "sts-key", PrivateKey: privateKey}))

	if discovery == nil {
		discovery = func(base string) string {
			doc, _ := json.Marshal(map[string]interface{}{
				"issuer":                 base,
				"authorization_endpoint": base + "/authorize",
				"token_endpoint":         base + "/token",
				"userinfo_endpoint":      base + "/userinfo",
				"end_session_endpoint":   base + "/logout",
				"jwks_uri":               base + "/jwks",
			})
			return string(doc)
		}
	}

	f := &fakeSTS{
		keys:      keys,
		headers:   make(map[string]http.Header),
		discovery: discovery,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		f.record("discovery", r)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(f.discovery("http://" + r.Host)))
	})
	mux.HandleFunc("/jwks", func(w http.ResponseWriter, r *http.Request) {
		f.record("jwks", r)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(f.keys.JWKS())
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeSTS) record(name string, r *http.Request) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.headers[name] = r.Header.Clone()
}

func (f *fakeSTS) header(name string) http.Header {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.headers[name]
}

func TestResolve(t *testing.T) {
	f := newFakeSTS(t, nil)

	config, err := Resolve(context.Background(), f.server.URL)
	require.NoError(t, err)
	defer config.Close()

	base := f.server.URL
	assert.Equal(t, base, config.Issuer())
	assert.Equal(t, base+"/authorize", config.AuthorizationEndpoint())
	assert.Equal(t, base+"/token", config.TokenEndpoint())
	assert.Equal(t, base+"/token", config.TokenExchangeEndpoint())
	assert.Equal(t, base+"/userinfo", config.UserinfoEndpoint())
	assert.Equal(t, base+"/logout", config.EndSessionEndpoint())
	assert.False(t, config.HasDomain())
	assert.False(t, config.HasProxy())
	assert.Empty(t, f.header("discovery").Get(DomainHeader))

	require.NotNil(t, config.Keys())
	publicKey, err := config.Keys().PublicKey(context.Background(), "sts-key")
	require.NoError(t, err)
	assert.NotNil(t, publicKey)
}

func TestResolve_MissingEndpointsDefaultToEmpty(t *testing.T) {
	f := newFakeSTS(t, func(base string) string {
		return `{"jwks_uri":"` + base + `/jwks"}`
	})

	config, err := Resolve(context.Background(), f.server.URL+"/")
	require.NoError(t, err)
	defer config.Close()

	assert.Equal(t, "", config.AuthorizationEndpoint())
	assert.Equal(t, "", config.TokenEndpoint())
	assert.Equal(t, "", config.TokenExchangeEndpoint())
	assert.Equal(t, "", config.UserinfoEndpoint())
	assert.Equal(t, "", config.EndSessionEndpoint())
}

func TestResolve_WithDomain(t *testing.T) {
	f := newFakeSTS(t, nil)

	config, err := Resolve(context.Background(), f.server.URL, WithDomain("tenant-a"))
	require.NoError(t, err)
	defer config.Close()

	assert.True(t, config.HasDomain())
	assert.Equal(t, "tenant-a", config.Domain())
	assert.Equal(t, "tenant-a", f.header("discovery").Get(DomainHeader))
	assert.Equal(t, "tenant-a", f.header("jwks").Get(DomainHeader))
}

func TestResolve_ThroughProxy(t *testing.T) {
	f := newFakeSTS(t, nil)

	var mutex sync.Mutex
	var proxiedHosts []string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mutex.Lock()
		proxiedHosts = append(proxiedHosts, r.URL.Host)
		mutex.Unlock()

		// forward to the fake STS, keeping the requested host in the documents
		target, _ := url.Parse(f.server.URL + r.URL.Path)
		req, _ := http.NewRequest(r.Method, target.String(), nil)
		req.Host = r.URL.Host
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()
		w.Header().Set("Content-Type", resp.Header.Get("Content-Type"))
		w.WriteHeader(resp.StatusCode)
		io.Copy(w, resp.Body)
	}))
	defer proxy.Close()

	proxyURL, err := url.Parse(proxy.URL)
	require.NoError(t, err)

	config, err := Resolve(context.Background(), "http://sts.example.test", WithProxy(proxyURL))
	require.NoError(t, err)
	defer config.Close()

	assert.True(t, config.HasProxy())
	assert.Equal(t, "http://sts.example.test/token", config.TokenEndpoint())

	mutex.Lock()
	defer mutex.Unlock()
	assert.Contains(t, proxiedHosts, "sts.example.test")
}

func TestResolve_Failures(t *testing.T) {
	t.Run("Unreachable", func(t *testing.T) {
		f := newFakeSTS(t, nil)
		base := f.server.URL
		f.server.Close()

		_, err := Resolve(context.Background(), base)
		require.Error(t, err)
		assert.True(t, errors.IsInitError(err))
		assert.Equal(t, base+"/.well-known/openid-configuration", errors.GetDetails(err)["url"])
	})

	t.Run("MalformedDocument", func(t *testing.T) {
		f := newFakeSTS(t, func(string) string { return "<html>maintenance</html>" })

		_, err := Resolve(context.Background(), f.server.URL)
		require.Error(t, err)
		assert.True(t, errors.IsInitError(err))
		assert.Equal(t, "<html>maintenance</html>", errors.GetDetails(err)["body"])
	})

	t.Run("ErrorDocument", func(t *testing.T) {
		f := newFakeSTS(t, func(string) string { return `{"error":"invalid_domain"}` })

		_, err := Resolve(context.Background(), f.server.URL)
		require.Error(t, err)
		assert.True(t, errors.IsInitError(err))
		assert.Contains(t, err.Error(), "invalid_domain")
	})

	t.Run("MalformedJwksURI", func(t *testing.T) {
		f := newFakeSTS(t, func(string) string { return `{"token_endpoint":"x","jwks_uri":"::not a url"}` })

		_, err := Resolve(context.Background(), f.server.URL)
		require.Error(t, err)
		assert.True(t, errors.IsInitError(err))
		assert.Equal(t, "::not a url", errors.GetDetails(err)["url"])
	})

	t.Run("EmptyKeySet", func(t *testing.T) {
		f := newFakeSTS(t, nil)
		f.keys = jwks.NewKeySet()

		config, err := Resolve(context.Background(), f.server.URL)
		require.Error(t, err)
		assert.Nil(t, config)
		assert.True(t, errors.IsInitError(err))
		assert.Equal(t, f.server.URL+"/jwks", errors.GetDetails(err)["url"])
		assert.Contains(t, err.Error(), "contains no keys")
	})

	t.Run("MissingJwksURI", func(t *testing.T) {
		f := newFakeSTS(t, func(string) string { return `{"token_endpoint":"x"}` })

		_, err := Resolve(context.Background(), f.server.URL)
		require.Error(t, err)
		assert.True(t, errors.IsInitError(err))
	})
}

func TestResolve_WithKeyProvider(t *testing.T) {
	f := newFakeSTS(t, func(base string) string { return `{"token_endpoint":"` + base + `/token"}` })

	keys := jwks.NewKeySet()
	config, err := Resolve(context.Background(), f.server.URL, WithKeyProvider(keys))
	require.NoError(t, err)

	assert.Same(t, keys, config.Keys())
	assert.Nil(t, f.header("jwks"))
}

func TestNewConfig(t *testing.T) {
	config := NewConfig(Endpoints{
		AuthorizationEndpoint: "https://sts.example.com/authorize",
		TokenEndpoint:         "https://sts.example.com/token",
	}, WithDomain("tenant-b"))

	assert.Equal(t, "https://sts.example.com/token", config.TokenExchangeEndpoint())
	assert.Equal(t, "", config.UserinfoEndpoint())
	assert.True(t, config.HasDomain())
	assert.NotNil(t, config.HTTPClient())
	config.Close()
}

func TestBuildHTTPClient_DoesNotMutateCaller(t *testing.T) {
	original := &http.Client{}
	proxyURL, _ := url.Parse("http://proxy.example.com:3128")

	client := buildHTTPClient(original, proxyURL)
	assert.NotSame(t, original, client)
	assert.Nil(t, original.Transport)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	req, _ := http.NewRequest(http.MethodGet, "https://sts.example.com", nil)
	got, err := transport.Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, proxyURL, got)
}
