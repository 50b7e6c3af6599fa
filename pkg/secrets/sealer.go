package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the required application key size (AES-256).
	KeySize = 32

	// saltInfo separates keys derived here from any other HKDF use of the same app key.
	saltInfo = "tenancy-secrets-v1"
)

// GenerateKey creates a random application key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// ParseKey decodes a base64-encoded application key.
func ParseKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Join(ErrInvalidKey, err)
	}
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// Sealer seals plaintext into Secret handles bound to a scope.
// It is safe for concurrent use.
type Sealer struct {
	appKey []byte
}

// NewSealer creates a sealer. The key is copied.
func NewSealer(appKey []byte) (*Sealer, error) {
	if len(appKey) != KeySize {
		return nil, ErrInvalidKey
	}
	key := make([]byte, KeySize)
	copy(key, appKey)
	return &Sealer{appKey: key}, nil
}

// Seal encrypts plaintext under the key derived for scope.
func (s *Sealer) Seal(scope string, plaintext []byte) (*Secret, error) {
	aead, err := s.aead(scope)
	if err != nil {
		return nil, errors.Join(ErrSealFailed, err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Join(ErrSealFailed, err)
	}

	// nonce || ciphertext || tag, scope bound as additional data
	sealed := aead.Seal(nonce, nonce, plaintext, []byte(scope))
	return &Secret{sealer: s, scope: scope, sealed: sealed}, nil
}

// SealString is Seal for string values.
func (s *Sealer) SealString(scope, plaintext string) (*Secret, error) {
	return s.Seal(scope, []byte(plaintext))
}

func (s *Sealer) open(scope string, sealed []byte) ([]byte, error) {
	aead, err := s.aead(scope)
	if err != nil {
		return nil, errors.Join(ErrOpenFailed, err)
	}

	nonceSize := aead.NonceSize()
	if len(sealed) < nonceSize {
		return nil, ErrOpenFailed
	}
	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]

	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(scope))
	if err != nil {
		return nil, errors.Join(ErrOpenFailed, err)
	}
	return plaintext, nil
}

func (s *Sealer) aead(scope string) (cipher.AEAD, error) {
	key, err := deriveKey(s.appKey, scope)
	if err != nil {
		return nil, err
	}
	defer clearBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// deriveKey creates the scope key. Callers clear it with clearBytes after use.
func deriveKey(appKey []byte, scope string) ([]byte, error) {
	reader := hkdf.New(sha256.New, appKey, []byte(scope), []byte(saltInfo))

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}
	return key, nil
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
