package token

import (
	"crypto/rsa"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tendant/simple-oidc/pkg/jwks"
)

// Signer mints RS256 tokens with a kid header, the shape an STS issues.
// Used by local STS stand-ins and tests.
type Signer struct {
	privateKey *rsa.PrivateKey
	keyID      string
	issuer     string
}

// NewSigner creates a signer for the given key
func NewSigner(privateKey *rsa.PrivateKey, keyID, issuer string) *Signer {
	return &Signer{
		privateKey: privateKey,
		keyID:      keyID,
		issuer:     issuer,
	}
}

// Sign creates a token for subject that expires after expiry. extraClaims are
// added on top of the registered ones and may override them.
func (s *Signer) Sign(subject string, expiry time.Duration, extraClaims map[string]interface{}) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": subject,
		"iat": now.Unix(),
		"nbf": now.Add(-1 * time.Minute).Unix(),
		"exp": now.Add(expiry).Unix(),
		"jti": uuid.New().String(),
	}
	for name, value := range extraClaims {
		claims[name] = value
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		slog.Error("Failed to sign RSA JWT token", "err", err)
		return "", err
	}
	return signed, nil
}

// KeyID returns the kid written into token headers
func (s *Signer) KeyID() string {
	return s.keyID
}

// KeyPair returns the signing key in the form a jwks.KeySet stores
func (s *Signer) KeyPair() *jwks.KeyPair {
	return &jwks.KeyPair{
		Kid:        s.keyID,
		Alg:        jwks.DefaultAlgorithm,
		PrivateKey: s.privateKey,
		PublicKey:  &s.privateKey.PublicKey,
	}
}
