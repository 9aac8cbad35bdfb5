// Package config loads the relying party configuration with cleanenv.
//
//	cfg, err := config.LoadClientConfig()
//	if err != nil {
//	    slog.Error("Failed to read configuration", "error", err)
//	    os.Exit(1)
//	}
//	opts, err := cfg.STSOptions()
//	stsConfig, err := sts.Resolve(ctx, cfg.STSURL, opts...)
//
// Environment variables:
//   - OIDC_STS_URL: STS base URL, the discovery document lives below it (default: "http://localhost:4000")
//   - OIDC_DOMAIN: identity domain of a multi-tenant STS
//   - OIDC_PROXY_URL: proxy for all STS traffic
//   - OIDC_CLIENT_ID, OIDC_CLIENT_SECRET: client credentials
//   - OIDC_REDIRECT_URI: callback URL (default: "http://localhost:8080/callback")
//   - OIDC_SCOPE: requested scope (default: "openid profile email")
//   - OIDC_SCOPE_CLAIM, OIDC_REQUIRED_SCOPE: access token scope check (default claim: "scope")
//   - OIDC_HTTP_TIMEOUT: timeout of each STS call (default: "30s")
//   - OIDC_POST_LOGOUT_REDIRECT_URI: where the STS sends the user after logout
//   - OIDC_STATIC_KEY_FILE, OIDC_STATIC_KEY_ID: PEM public key used instead of the discovered JWKS (default id: "static")
//
// The validation helpers (RequireNonEmpty, RequireValidURL, ...) collect every
// problem into ValidationErrors rather than stopping at the first.
package config
