package jwks

import (
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrivateKeyPEM(t *testing.T) {
	privateKey, err := GenerateRSAKeyPair(2048)
	require.NoError(t, err)

	t.Run("PKCS1", func(t *testing.T) {
		decoded, err := DecodePrivateKeyFromPEM(EncodePrivateKeyToPEM(privateKey))
		require.NoError(t, err)
		assert.True(t, privateKey.Equal(decoded))
	})

	t.Run("PKCS8", func(t *testing.T) {
		der, err := x509.MarshalPKCS8PrivateKey(privateKey)
		require.NoError(t, err)
		data := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

		decoded, err := DecodePrivateKeyFromPEM(string(data))
		require.NoError(t, err)
		assert.True(t, privateKey.Equal(decoded))
	})

	t.Run("WrongBlock", func(t *testing.T) {
		_, err := DecodePrivateKeyFromPEM(EncodePublicKeyToPEM(&privateKey.PublicKey))
		assert.Error(t, err)
	})
}

func TestPublicKeyPEM_PKCS1(t *testing.T) {
	privateKey, err := GenerateRSAKeyPair(2048)
	require.NoError(t, err)
	data := pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&privateKey.PublicKey)})

	publicKey, err := DecodePublicKeyFromPEM(string(data))
	require.NoError(t, err)
	assert.True(t, privateKey.PublicKey.Equal(publicKey))
}
