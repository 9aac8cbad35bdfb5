// Package jwks provides JSON Web Key Set (JWKS) key lookup for JWT signature verification.
//
// Two Provider implementations are available:
//
//   - RemoteProvider fetches the STS's published key set (the discovery document's
//     jwks_uri), caches it and refreshes it in the background.
//   - KeySet holds keys in memory, for statically configured deployments and tests.
//
// # Usage
//
//	provider, err := jwks.NewRemoteProvider(ctx, "https://sts.example.com/jwks", httpClient)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	publicKey, err := provider.PublicKey(ctx, kid)
//
// A KeySet can be built from a PEM file and rendered back as a JWKS document:
//
//	keys := jwks.NewKeySet()
//	if err := keys.LoadPublicKeyFile("sts-key-1", "sts-public.pem"); err != nil {
//	    log.Fatal(err)
//	}
//	json.NewEncoder(w).Encode(keys.JWKS())
package jwks
