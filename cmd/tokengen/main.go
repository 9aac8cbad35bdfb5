package main

import (
	"crypto/rsa"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tendant/simple-oidc/pkg/jwks"
	"github.com/tendant/simple-oidc/pkg/token"
)

// tokengen mints RS256 tokens shaped like the STS's, for exercising a relying
// party or resource server without a running STS.
func main() {
	keyFile := flag.String("key", "", "PEM encoded RSA private key; a fresh key is generated when empty")
	keyID := flag.String("kid", "tokengen-key", "Key id written into the token header")
	issuer := flag.String("issuer", "http://localhost:4000", "Issuer of the token")
	subject := flag.String("subject", "test-subject", "Subject of the token (usually user ID)")
	expiry := flag.Duration("expiry", 30*time.Minute, "Token expiry duration (e.g., 30m, 1h, 24h)")
	extraClaimsJSON := flag.String("claims", "{}", `Extra claims in JSON format, e.g. {"scope":"openid api.read"}`)
	outputFormat := flag.String("format", "compact", "Output format: compact, full, debug, or jwks")
	flag.Parse()

	privateKey, err := loadKey(*keyFile)
	if err != nil {
		fail("Failed to load signing key", err)
	}
	signer := token.NewSigner(privateKey, *keyID, *issuer)

	if *outputFormat == "jwks" {
		keys := jwks.NewKeySet()
		if err := keys.AddKey(signer.KeyPair()); err != nil {
			fail("Failed to build key set", err)
		}
		printJSON(keys.JWKS())
		return
	}

	var extraClaims map[string]interface{}
	if err := json.Unmarshal([]byte(*extraClaimsJSON), &extraClaims); err != nil {
		fail("Failed to parse extra claims JSON", err)
	}

	tokenStr, err := signer.Sign(*subject, *expiry, extraClaims)
	if err != nil {
		fail("Failed to generate token", err)
	}
	decoded := token.Decode(tokenStr)

	switch *outputFormat {
	case "compact":
		fmt.Println(tokenStr)
	case "full":
		fmt.Printf("Token: %s\nExpires: %s\n", tokenStr, decoded.ExpiresAt().Format(time.RFC3339))
	case "debug":
		fmt.Printf("=== Token Information ===\n")
		fmt.Printf("Token: %s\n\n", tokenStr)
		fmt.Printf("=== Token Header ===\n")
		printJSON(decoded.Header())
		fmt.Printf("\n=== Token Claims ===\n")
		printJSON(decoded.Claims())
		fmt.Printf("\n=== Public Key ===\n%s\n", jwks.EncodePublicKeyToPEM(&privateKey.PublicKey))
	default:
		fmt.Fprintf(os.Stderr, "Error: Unknown output format: %s\n", *outputFormat)
		os.Exit(1)
	}
}

func loadKey(path string) (*rsa.PrivateKey, error) {
	if path == "" {
		slog.Info("No key file given, generating a throwaway RSA key")
		return jwks.GenerateRSAKeyPair(2048)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return jwks.DecodePrivateKeyFromPEM(string(data))
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}

func fail(message string, err error) {
	slog.Error(message, "err", err)
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, err)
	os.Exit(1)
}
