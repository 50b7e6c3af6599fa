package secrets

import "errors"

var (
	// ErrInvalidKey is returned when the application key is not 32 bytes.
	ErrInvalidKey = errors.New("invalid secrets key: must be 32 bytes")

	// ErrSealFailed is returned when plaintext cannot be sealed.
	ErrSealFailed = errors.New("failed to seal secret")

	// ErrOpenFailed is returned when a sealed secret cannot be opened.
	ErrOpenFailed = errors.New("failed to open secret")

	// ErrNotSerializable is returned by the marshal methods of Secret.
	ErrNotSerializable = errors.New("secret values are not serializable")

	// ErrKeyDerivationFailed is returned when HKDF cannot produce a scope key.
	ErrKeyDerivationFailed = errors.New("key derivation failed")
)
