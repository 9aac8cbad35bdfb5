package sts

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tendant/simple-oidc/pkg/jwks"
)

// DomainHeader carries the identity domain to multi-tenant STS deployments
const DomainHeader = "x-oauth-identity-domain-name"

// defaultHTTPTimeout applies only when the caller does not supply an HTTP client
const defaultHTTPTimeout = 30 * time.Second

// Endpoints lists the STS endpoints a relying party talks to
type Endpoints struct {
	Issuer                string
	AuthorizationEndpoint string
	TokenEndpoint         string
	TokenExchangeEndpoint string
	UserinfoEndpoint      string
	EndSessionEndpoint    string
}

// Config is the resolved description of one STS. It is read-only after
// construction and safe for concurrent use by any number of requests.
type Config struct {
	endpoints  Endpoints
	domain     string
	proxyURL   *url.URL
	keys       jwks.Provider
	httpClient *http.Client
	closeKeys  func()
}

// Option configures a Config during Resolve or NewConfig
type Option func(*Config)

// WithDomain sets the identity domain of a multi-tenant STS
func WithDomain(domain string) Option {
	return func(c *Config) {
		c.domain = domain
	}
}

// WithProxy routes all STS traffic through the given proxy
func WithProxy(proxyURL *url.URL) Option {
	return func(c *Config) {
		c.proxyURL = proxyURL
	}
}

// WithHTTPClient sets the HTTP client used for every STS call.
// Timeouts are the client's concern.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.httpClient = client
	}
}

// WithKeyProvider supplies token verification keys directly instead of
// reading them from the discovery document's jwks_uri
func WithKeyProvider(provider jwks.Provider) Option {
	return func(c *Config) {
		c.keys = provider
	}
}

func newConfig(opts ...Option) *Config {
	c := &Config{}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient = buildHTTPClient(c.httpClient, c.proxyURL)
	return c
}

// NewConfig creates a Config for an STS whose endpoints are known up front.
// An empty token exchange endpoint falls back to the token endpoint.
func NewConfig(endpoints Endpoints, opts ...Option) *Config {
	c := newConfig(opts...)
	if endpoints.TokenExchangeEndpoint == "" {
		endpoints.TokenExchangeEndpoint = endpoints.TokenEndpoint
	}
	c.endpoints = endpoints
	return c
}

// Issuer returns the STS issuer identifier, or ""
func (c *Config) Issuer() string { return c.endpoints.Issuer }

// AuthorizationEndpoint returns the authorization endpoint, or ""
func (c *Config) AuthorizationEndpoint() string { return c.endpoints.AuthorizationEndpoint }

// TokenEndpoint returns the token endpoint, or ""
func (c *Config) TokenEndpoint() string { return c.endpoints.TokenEndpoint }

// TokenExchangeEndpoint returns the token exchange endpoint, or ""
func (c *Config) TokenExchangeEndpoint() string { return c.endpoints.TokenExchangeEndpoint }

// UserinfoEndpoint returns the userinfo endpoint, or ""
func (c *Config) UserinfoEndpoint() string { return c.endpoints.UserinfoEndpoint }

// EndSessionEndpoint returns the end session endpoint, or ""
func (c *Config) EndSessionEndpoint() string { return c.endpoints.EndSessionEndpoint }

// Domain returns the configured identity domain, or ""
func (c *Config) Domain() string { return c.domain }

// HasDomain reports whether the STS is addressed with an identity domain
func (c *Config) HasDomain() bool { return c.domain != "" }

// ProxyURL returns the configured proxy, or nil
func (c *Config) ProxyURL() *url.URL { return c.proxyURL }

// HasProxy reports whether STS traffic goes through a proxy
func (c *Config) HasProxy() bool { return c.proxyURL != nil }

// Keys returns the token verification key provider, or nil
func (c *Config) Keys() jwks.Provider { return c.keys }

// HTTPClient returns the client used for STS calls
func (c *Config) HTTPClient() *http.Client { return c.httpClient }

// Close releases the background JWKS refresh started by Resolve
func (c *Config) Close() {
	if c.closeKeys != nil {
		c.closeKeys()
	}
}

// buildHTTPClient applies the proxy to a copy of client so the caller's client is left alone
func buildHTTPClient(client *http.Client, proxyURL *url.URL) *http.Client {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if proxyURL == nil {
		return client
	}

	var transport *http.Transport
	switch t := client.Transport.(type) {
	case nil:
		transport = http.DefaultTransport.(*http.Transport).Clone()
	case *http.Transport:
		transport = t.Clone()
	default:
		slog.Warn("HTTP client uses a custom transport, proxy setting ignored", "proxy", proxyURL.Redacted())
		return client
	}
	transport.Proxy = http.ProxyURL(proxyURL)

	proxied := *client
	proxied.Transport = transport
	return &proxied
}

// domainTransport adds the identity domain header to every request
type domainTransport struct {
	domain string
	next   http.RoundTripper
}

func (t *domainTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(DomainHeader, t.domain)
	return t.next.RoundTrip(req)
}

// metadataClient returns the client for discovery and JWKS fetches; it carries
// the domain header when one is configured
func (c *Config) metadataClient() *http.Client {
	if !c.HasDomain() {
		return c.httpClient
	}
	next := c.httpClient.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	withDomain := *c.httpClient
	withDomain.Transport = &domainTransport{domain: c.domain, next: next}
	return &withDomain
}
