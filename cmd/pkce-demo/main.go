package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/tendant/simple-oidc/pkg/oidc"
	"github.com/tendant/simple-oidc/pkg/pkce"
	"github.com/tendant/simple-oidc/pkg/sts"
)

// pkce-demo prints the authorization URL a relying party would send a browser
// to, together with the PKCE verifier it keeps for the token request.
func main() {
	stsURL := flag.String("sts", "", "STS base URL; the authorization endpoint is discovered when set")
	authorizeURL := flag.String("authorize", "http://localhost:4000/authorize", "Authorization endpoint used when -sts is empty")
	clientID := flag.String("client-id", "test-client", "OAuth2 client id")
	redirectURI := flag.String("redirect-uri", "http://localhost:8080/callback", "Registered redirect URI")
	scope := flag.String("scope", "openid profile", "Requested scope")
	state := flag.String("state", "test-state", "State parameter")
	flag.Parse()

	fmt.Println("=== PKCE Demo ===")

	config := sts.NewConfig(sts.Endpoints{AuthorizationEndpoint: *authorizeURL})
	if *stsURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		resolved, err := sts.Resolve(ctx, *stsURL)
		if err != nil {
			log.Fatal("Failed to resolve STS:", err)
		}
		defer resolved.Close()
		config = resolved
		fmt.Printf("✓ Discovered STS at %s\n", *stsURL)
	}

	// 1. Start an authorization attempt
	authz := oidc.NewAuthorizationRequest(oidc.AuthorizationRequestConfig{
		STS:         config,
		Scope:       *scope,
		ClientID:    oidc.String(*clientID),
		RedirectURI: oidc.String(*redirectURI),
		State:       oidc.String(*state),
	})

	fmt.Printf("✓ Generated PKCE parameters:\n")
	fmt.Printf("  Code Verifier: %s\n", authz.CodeVerifier())
	fmt.Printf("  Code Challenge: %s\n", authz.CodeChallenge())

	// 2. The STS checks the verifier against the challenge on code redemption
	if err := pkce.ValidateCodeVerifier(authz.CodeVerifier(), authz.CodeChallenge(), pkce.ChallengeS256); err != nil {
		log.Fatal("Verifier does not match challenge:", err)
	}
	fmt.Printf("✓ Verifier matches challenge\n")

	// 3. A different verifier is rejected
	fmt.Println("\n=== Testing failure case ===")
	if err := pkce.ValidateCodeVerifier(pkce.GenerateVerifier(), authz.CodeChallenge(), pkce.ChallengeS256); err != nil {
		fmt.Printf("✓ Correctly rejected wrong code verifier: %s\n", err.Error())
	} else {
		log.Fatal("Should have failed with wrong code verifier")
	}

	fmt.Println("\n=== Authorization URL ===")
	fmt.Println(authz.Build())
}
