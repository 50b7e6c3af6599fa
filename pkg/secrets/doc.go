// Package secrets provides opaque, sealed handles for per-tenant credential material.
//
// A Sealer owns a 32-byte application key. For every scope (usually a tenant id) it derives
// a compound key with HKDF-SHA-256 and seals plaintext with AES-256-GCM. The result is a
// *Secret: a handle that keeps only ciphertext in memory and refuses to render or serialize
// its value. The only way back to the plaintext is Export.
//
// # Usage
//
//	key, _ := secrets.GenerateKey()
//	sealer, err := secrets.NewSealer(key)
//	if err != nil {
//		// handle error
//	}
//
//	secret, err := sealer.SealString("tenant-1", "client-secret")
//	if err != nil {
//		// handle error
//	}
//
//	fmt.Println(secret)            // [REDACTED]
//	value, _ := secret.ExportString() // "client-secret"
//
// # Safety
//
// Secret implements fmt.Stringer, fmt.GoStringer and slog.LogValuer so accidental logging
// prints a placeholder. json.Marshal and encoding.TextMarshaler calls fail with
// ErrNotSerializable, so a secret cannot end up in a cache payload or an API response.
//
// # Error Handling
//
// Seal and export failures wrap ErrSealFailed / ErrOpenFailed with errors.Join. Key
// problems are reported as ErrInvalidKey.
package secrets
