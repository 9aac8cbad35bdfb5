// Package errors provides structured error handling with error codes for simple-oidc.
//
// Only failures that abort a flow are returned as errors. Failed grants and userinfo
// calls are ordinary outcomes and are reported through response values in package oidc.
//
// # Basic Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "missing state")
//	err := errors.Wrap(httpErr, errors.ErrCodeInitFailed, "discovery request failed")
//
// # STS Initialization Errors
//
// Discovery and JWKS failures are InitErrors. They carry the attempted URL, and for
// malformed documents the raw body, as details:
//
//	cfg, err := sts.Resolve(ctx, stsURL, sts.WithDomain(domain))
//	if errors.IsInitError(err) {
//		details := errors.GetDetails(err)
//		log.Printf("discovery failed for %v: %v", details["url"], err)
//	}
//
// # HTTP Status Code Mapping
//
//	var structuredErr *errors.Error
//	if errors.As(err, &structuredErr) {
//		http.Error(w, structuredErr.Message, structuredErr.HTTPStatusCode())
//	}
package errors
