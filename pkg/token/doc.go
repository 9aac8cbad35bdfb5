// Package token decodes JWTs issued by the STS and checks them locally.
//
//	t := token.Decode(raw)
//	if !t.IsJWT() || t.IsExpired() || !t.IsValidAlgorithm() {
//	    return unauthorized
//	}
//	if !t.IsSignatureValid(ctx, stsConfig.Keys()) {
//	    return unauthorized
//	}
//	if !t.ContainsScope("scope", "api.read") {
//	    return forbidden
//	}
//
// None of the checks return errors; a string that is not a JWT decodes to a
// Token whose checks all fail.
package token
