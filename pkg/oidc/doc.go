// Package oidc implements the relying party side of the OIDC authorization code
// flow with PKCE against an STS described by an sts.Config.
//
// A login starts with an AuthorizationRequest. Its verifier has to be kept
// (usually in the session) until the callback redeems the code:
//
//	authz := oidc.NewAuthorizationRequest(oidc.AuthorizationRequestConfig{
//	    STS:         stsConfig,
//	    Scope:       "openid profile",
//	    ClientID:    oidc.String(clientID),
//	    RedirectURI: oidc.String(redirectURI),
//	    State:       oidc.String(state),
//	})
//	session.Verifier = authz.CodeVerifier()
//	http.Redirect(w, r, authz.Build(), http.StatusFound)
//
// On the callback:
//
//	resp := oidc.NewAuthorizationCodeRequest(stsConfig, oidc.String(clientID), oidc.String(secret),
//	    oidc.String(redirectURI), code, oidc.String(session.Verifier)).Execute(ctx)
//	if !resp.Success {
//	    // resp.ErrorMessage
//	}
//
// Token and userinfo calls never return errors. Failures are data: check Success
// and read ErrorMessage. Each call is a single attempt without retries.
package oidc
