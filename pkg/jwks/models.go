package jwks

import (
	"crypto/rsa"
	"time"
)

// JWKS represents a JSON Web Key Set as defined in RFC 7517
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key as defined in RFC 7517
type JWK struct {
	// Key Type - "RSA" for RSA keys
	Kty string `json:"kty"`

	// Public Key Use - "sig" for signature
	Use string `json:"use"`

	// Key ID - unique identifier for this key
	Kid string `json:"kid"`

	// Algorithm - "RS256" for RSA with SHA-256
	Alg string `json:"alg,omitempty"`

	// RSA public key modulus (base64url encoded)
	N string `json:"n"`

	// RSA public key exponent (base64url encoded)
	E string `json:"e"`
}

// KeyPair represents an RSA verification key with metadata.
// PrivateKey is only set for keys generated locally.
type KeyPair struct {
	Kid        string
	Alg        string
	PrivateKey *rsa.PrivateKey
	PublicKey  *rsa.PublicKey
	CreatedAt  time.Time
}

// ToJWK converts a KeyPair to a JWK (public key only)
func (kp *KeyPair) ToJWK() *JWK {
	alg := kp.Alg
	if alg == "" {
		alg = DefaultAlgorithm
	}
	return &JWK{
		Kty: "RSA",
		Use: "sig",
		Kid: kp.Kid,
		Alg: alg,
		N:   EncodeRSAPublicKeyModulus(kp.PublicKey),
		E:   EncodeRSAPublicKeyExponent(kp.PublicKey),
	}
}
