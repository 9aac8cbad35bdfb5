package sts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/tendant/simple-oidc/pkg/errors"
	"github.com/tendant/simple-oidc/pkg/jwks"
	"github.com/tendant/simple-oidc/pkg/pkce"
	"github.com/tendant/simple-oidc/pkg/wellknown"
)

// maxResponseBodySize caps discovery document reads (1 MB)
const maxResponseBodySize = 1 << 20

// Resolve reads the STS discovery document below baseURL and builds a Config from it.
// Every failure is an InitError; nothing is retried.
func Resolve(ctx context.Context, baseURL string, opts ...Option) (*Config, error) {
	c := newConfig(opts...)
	discoveryURL := wellknown.DiscoveryURL(baseURL)

	body, err := c.fetch(ctx, discoveryURL)
	if err != nil {
		return nil, errors.InitErrorWrap(err, discoveryURL, "failed to fetch discovery document")
	}

	doc, err := wellknown.ParseOpenIDConfiguration(body)
	if err != nil {
		return nil, errors.InitErrorWrap(err, discoveryURL, "failed to parse discovery document").
			WithDetail("body", string(body))
	}

	if doc.HasError() {
		return nil, errors.InitError(discoveryURL, "discovery document returned an error: "+doc.ErrorText()).
			WithDetail("error", doc.Error)
	}

	if !doc.SupportsCodeChallengeMethod(string(pkce.ChallengeS256)) {
		slog.Warn("STS does not advertise S256 PKCE support", "sts", baseURL)
	}

	if c.keys == nil {
		provider, err := jwks.NewRemoteProvider(ctx, doc.JwksURI, c.metadataClient())
		if err != nil {
			return nil, errors.InitErrorWrap(err, doc.JwksURI, "failed to obtain JWKS")
		}
		c.keys = provider
		c.closeKeys = provider.Close
	}

	c.endpoints = Endpoints{
		Issuer:                doc.Issuer,
		AuthorizationEndpoint: doc.AuthorizationEndpoint,
		TokenEndpoint:         doc.TokenEndpoint,
		// discovery has no separate field for it
		TokenExchangeEndpoint: doc.TokenEndpoint,
		UserinfoEndpoint:      doc.UserinfoEndpoint,
		EndSessionEndpoint:    doc.EndSessionEndpoint,
	}

	slog.Info("STS configuration resolved",
		"sts", baseURL,
		"issuer", doc.Issuer,
		"domain", c.domain,
		"proxy", c.HasProxy())

	return c, nil
}

func (c *Config) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.metadataClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
