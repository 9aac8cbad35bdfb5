package config

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/tendant/simple-oidc/pkg/jwks"
	"github.com/tendant/simple-oidc/pkg/sts"
)

// ClientConfig is the relying party configuration. Environment variables
// override values read from a file.
type ClientConfig struct {
	STSURL   string `yaml:"sts_url" env:"OIDC_STS_URL" env-default:"http://localhost:4000"`
	Domain   string `yaml:"domain" env:"OIDC_DOMAIN"`
	ProxyURL string `yaml:"proxy_url" env:"OIDC_PROXY_URL"`

	ClientID     string `yaml:"client_id" env:"OIDC_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"OIDC_CLIENT_SECRET"`
	RedirectURI  string `yaml:"redirect_uri" env:"OIDC_REDIRECT_URI" env-default:"http://localhost:8080/callback"`
	Scope        string `yaml:"scope" env:"OIDC_SCOPE" env-default:"openid profile email"`

	// ScopeClaim names the access token claim checked for RequiredScope
	ScopeClaim    string `yaml:"scope_claim" env:"OIDC_SCOPE_CLAIM" env-default:"scope"`
	RequiredScope string `yaml:"required_scope" env:"OIDC_REQUIRED_SCOPE"`

	HTTPTimeout           time.Duration `yaml:"http_timeout" env:"OIDC_HTTP_TIMEOUT" env-default:"30s"`
	PostLogoutRedirectURI string        `yaml:"post_logout_redirect_uri" env:"OIDC_POST_LOGOUT_REDIRECT_URI"`

	// StaticKeyFile pins the token signing key to a PEM public key instead of
	// the discovered JWKS
	StaticKeyFile string `yaml:"static_key_file" env:"OIDC_STATIC_KEY_FILE"`
	StaticKeyID   string `yaml:"static_key_id" env:"OIDC_STATIC_KEY_ID" env-default:"static"`
}

// LoadClientConfig reads ClientConfig from the environment
func LoadClientConfig() (ClientConfig, error) {
	var cfg ClientConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("failed to read client configuration: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadClientConfigFile reads ClientConfig from a yaml, json, toml or env file
// and then applies the environment on top
func LoadClientConfigFile(path string) (ClientConfig, error) {
	var cfg ClientConfig
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("failed to read client configuration %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the values the client cannot start without
func (c ClientConfig) Validate() error {
	errs := CollectErrors(
		RequireValidURL("OIDC_STS_URL", c.STSURL),
		RequireNonEmpty("OIDC_CLIENT_ID", c.ClientID),
		RequireValidURL("OIDC_REDIRECT_URI", c.RedirectURI),
		RequirePositiveDuration("OIDC_HTTP_TIMEOUT", c.HTTPTimeout),
		WhenSet(c.ProxyURL, func() *ValidationError { return RequireValidURL("OIDC_PROXY_URL", c.ProxyURL) }),
		WhenSet(c.PostLogoutRedirectURI, func() *ValidationError {
			return RequireValidURL("OIDC_POST_LOGOUT_REDIRECT_URI", c.PostLogoutRedirectURI)
		}),
	)
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Proxy returns the parsed proxy URL, or nil when none is configured
func (c ClientConfig) Proxy() (*url.URL, error) {
	if c.ProxyURL == "" {
		return nil, nil
	}
	proxyURL, err := url.Parse(c.ProxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}
	return proxyURL, nil
}

// HTTPClient builds the client for STS calls. The proxy is applied by the STS
// configuration, see STSOptions.
func (c ClientConfig) HTTPClient() *http.Client {
	return &http.Client{Timeout: c.HTTPTimeout}
}

// STSOptions translates the configuration into options for sts.Resolve
func (c ClientConfig) STSOptions() ([]sts.Option, error) {
	opts := []sts.Option{sts.WithHTTPClient(c.HTTPClient())}
	if c.Domain != "" {
		opts = append(opts, sts.WithDomain(c.Domain))
	}
	proxyURL, err := c.Proxy()
	if err != nil {
		return nil, err
	}
	if proxyURL != nil {
		opts = append(opts, sts.WithProxy(proxyURL))
	}
	if c.StaticKeyFile != "" {
		keys := jwks.NewKeySet()
		if err := keys.LoadPublicKeyFile(c.StaticKeyID, c.StaticKeyFile); err != nil {
			return nil, fmt.Errorf("failed to load static signing key: %w", err)
		}
		opts = append(opts, sts.WithKeyProvider(keys))
	}
	return opts, nil
}
