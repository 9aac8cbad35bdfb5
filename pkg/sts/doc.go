// Package sts describes the Security Token Service (OIDC provider) a relying party uses.
//
// Resolve discovers the endpoints from /.well-known/openid-configuration and sets up a
// cached JWKS key provider from the document's jwks_uri:
//
//	config, err := sts.Resolve(ctx, "https://sts.example.com",
//		sts.WithDomain("tenant-a"),
//		sts.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}))
//	if err != nil {
//		return err // always an InitError
//	}
//	defer config.Close()
//
// The resulting Config is immutable and shared by every request built from it.
package sts
