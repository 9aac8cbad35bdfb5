package jwks

import (
	"context"
	"crypto/rsa"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"

	"github.com/tendant/simple-oidc/pkg/errors"
)

// defaultFetchTimeout bounds the first key set fetch when neither the context
// nor the HTTP client carries a deadline
const defaultFetchTimeout = 30 * time.Second

// RemoteProvider resolves keys from a JWKS URL. The key set is cached and
// refreshed in the background until Close is called.
type RemoteProvider struct {
	url    string
	cache  *jwk.Cache
	cancel context.CancelFunc
}

// NewRemoteProvider registers jwksURL with a key cache and performs the first fetch.
// It fails if the URL is malformed, no key set can be fetched from it, or the
// fetched set is empty.
func NewRemoteProvider(ctx context.Context, jwksURL string, httpClient *http.Client) (*RemoteProvider, error) {
	parsed, err := url.Parse(jwksURL)
	if err != nil {
		return nil, fmt.Errorf("invalid JWKS URL %q: %w", jwksURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid JWKS URL %q: scheme and host are required", jwksURL)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	// the cache outlives the caller's context; Close stops it
	cacheCtx, cancel := context.WithCancel(context.Background())
	cache, err := jwk.NewCache(cacheCtx, httprc.NewClient(httprc.WithHTTPClient(httpClient)))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create JWKS cache: %w", err)
	}

	// Register waits for the first successful fetch
	fetchCtx, cancelFetch := fetchContext(ctx, httpClient)
	defer cancelFetch()
	if err := cache.Register(fetchCtx, jwksURL); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", jwksURL, err)
	}

	keySet, err := cache.Lookup(fetchCtx, jwksURL)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	if keySet.Len() == 0 {
		cancel()
		return nil, errors.Newf(errors.ErrCodeKeyNotFound, "JWKS at %s contains no keys", jwksURL)
	}

	slog.Info("JWKS provider ready", "jwks_uri", jwksURL, "keys", keySet.Len())

	return &RemoteProvider{
		url:    jwksURL,
		cache:  cache,
		cancel: cancel,
	}, nil
}

func fetchContext(ctx context.Context, httpClient *http.Client) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	timeout := defaultFetchTimeout
	if httpClient.Timeout > 0 {
		timeout = httpClient.Timeout
	}
	return context.WithTimeout(ctx, timeout)
}

// URL returns the JWKS URL this provider reads from
func (p *RemoteProvider) URL() string {
	return p.url
}

// PublicKey looks up the RSA key registered under kid
func (p *RemoteProvider) PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	keySet, err := p.cache.Lookup(ctx, p.url)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup JWKS: %w", err)
	}

	key, found := keySet.LookupKeyID(kid)
	if !found {
		return nil, errors.Newf(errors.ErrCodeKeyNotFound, "key not found: %s", kid)
	}

	var rawKey interface{}
	if err := jwk.Export(key, &rawKey); err != nil {
		return nil, fmt.Errorf("failed to export raw key: %w", err)
	}

	switch publicKey := rawKey.(type) {
	case *rsa.PublicKey:
		return publicKey, nil
	case rsa.PublicKey:
		return &publicKey, nil
	default:
		return nil, errors.Newf(errors.ErrCodeTokenInvalid, "key %s is not an RSA public key", kid)
	}
}

// Close stops background refreshes
func (p *RemoteProvider) Close() {
	if p.cancel != nil {
		p.cancel()
	}
}
