package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// ChallengeMethod represents the PKCE challenge method
type ChallengeMethod string

// ChallengeS256 is the only method the client sends
const ChallengeS256 ChallengeMethod = "S256"

// verifierBytes is the amount of entropy drawn for a verifier. 32 bytes encode to 43 characters.
const verifierBytes = 32

// GenerateVerifier returns a fresh base64url (unpadded) verifier built from 32 random bytes.
// A broken CSPRNG is an environment defect, so it panics instead of returning an error.
func GenerateVerifier() string {
	bytes := make([]byte, verifierBytes)
	if _, err := rand.Read(bytes); err != nil {
		panic(fmt.Errorf("failed to generate random bytes: %w", err))
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}

// ChallengeFor derives the S256 challenge for a verifier
func ChallengeFor(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// ValidateCodeVerifier checks a verifier against the challenge sent with the
// authorization request, the way the STS does on code redemption
func ValidateCodeVerifier(verifier string, challenge string, method ChallengeMethod) error {
	if verifier == "" {
		return fmt.Errorf("code verifier cannot be empty")
	}

	if challenge == "" {
		return fmt.Errorf("code challenge cannot be empty")
	}

	if len(verifier) < 43 || len(verifier) > 128 {
		return fmt.Errorf("code verifier must be between 43 and 128 characters")
	}

	if !isValidCodeVerifier(verifier) {
		return fmt.Errorf("code verifier contains invalid characters")
	}

	if method != ChallengeS256 {
		return fmt.Errorf("unsupported challenge method: %s", method)
	}
	if ChallengeFor(verifier) != challenge {
		return fmt.Errorf("code verifier does not match challenge")
	}

	return nil
}

// isValidCodeVerifier checks if the code verifier contains only allowed characters
func isValidCodeVerifier(verifier string) bool {
	allowedChars := "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"
	for _, char := range verifier {
		if !strings.ContainsRune(allowedChars, char) {
			return false
		}
	}
	return true
}
