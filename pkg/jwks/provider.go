package jwks

import (
	"context"
	"crypto/rsa"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/tendant/simple-oidc/pkg/errors"
)

// DefaultAlgorithm is the only signing algorithm accepted for STS tokens
const DefaultAlgorithm = "RS256"

// Provider looks up token verification keys by key id (kid)
type Provider interface {
	PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// KeySet is an in-memory Provider. It backs statically configured STS setups
// and stands in for a remote JWKS in tests.
type KeySet struct {
	keys  map[string]*KeyPair
	order []string
	mutex sync.RWMutex
}

// NewKeySet creates an empty key set
func NewKeySet() *KeySet {
	return &KeySet{
		keys: make(map[string]*KeyPair),
	}
}

// AddKey adds or replaces a key
func (s *KeySet) AddKey(keyPair *KeyPair) error {
	if keyPair == nil || keyPair.Kid == "" {
		return errors.InvalidInput("kid", "key id is required")
	}
	if keyPair.PublicKey == nil {
		if keyPair.PrivateKey == nil {
			return errors.InvalidInput("key", "public key is required")
		}
		keyPair.PublicKey = &keyPair.PrivateKey.PublicKey
	}
	if keyPair.CreatedAt.IsZero() {
		keyPair.CreatedAt = time.Now().UTC()
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.keys[keyPair.Kid]; !exists {
		s.order = append(s.order, keyPair.Kid)
	}
	s.keys[keyPair.Kid] = keyPair
	return nil
}

// AddPublicKeyPEM registers a PEM encoded RSA public key under kid
func (s *KeySet) AddPublicKeyPEM(kid, pemData string) error {
	publicKey, err := DecodePublicKeyFromPEM(pemData)
	if err != nil {
		return fmt.Errorf("failed to decode public key %s: %w", kid, err)
	}
	return s.AddKey(&KeyPair{Kid: kid, Alg: DefaultAlgorithm, PublicKey: publicKey})
}

// LoadPublicKeyFile reads a PEM file and registers it under kid
func (s *KeySet) LoadPublicKeyFile(kid, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read public key file: %w", err)
	}
	return s.AddPublicKeyPEM(kid, string(data))
}

// PublicKey returns the key registered under kid
func (s *KeySet) PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	keyPair, ok := s.keys[kid]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeKeyNotFound, "key not found: %s", kid)
	}
	return keyPair.PublicKey, nil
}

// JWKS renders the set as an RFC 7517 document, in insertion order
func (s *KeySet) JWKS() *JWKS {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	set := &JWKS{Keys: make([]JWK, 0, len(s.order))}
	for _, kid := range s.order {
		set.Keys = append(set.Keys, *s.keys[kid].ToJWK())
	}
	return set
}

// Len returns the number of keys in the set
func (s *KeySet) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.keys)
}
