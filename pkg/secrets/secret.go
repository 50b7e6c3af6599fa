package secrets

import "log/slog"

const redacted = "[REDACTED]"

// Secret is an opaque handle to sealed key material.
// Only a Sealer produces usable secrets; Export fails with ErrOpenFailed on nil or the zero value.
type Secret struct {
	sealer *Sealer
	scope  string
	sealed []byte
}

// Scope returns the scope the secret was sealed under.
func (s *Secret) Scope() string {
	if s == nil {
		return ""
	}
	return s.scope
}

// Export opens the secret and returns a fresh copy of the plaintext.
// This is the only way to read the value; call it at the boundary that needs it.
func (s *Secret) Export() ([]byte, error) {
	if s == nil || s.sealer == nil {
		return nil, ErrOpenFailed
	}
	return s.sealer.open(s.scope, s.sealed)
}

// ExportString is Export for string values.
func (s *Secret) ExportString() (string, error) {
	b, err := s.Export()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *Secret) String() string { return redacted }

func (s *Secret) GoString() string { return "secrets.Secret{" + redacted + "}" }

// LogValue keeps secrets out of structured logs.
func (s *Secret) LogValue() slog.Value { return slog.StringValue(redacted) }

func (s *Secret) MarshalJSON() ([]byte, error) { return nil, ErrNotSerializable }

func (s *Secret) MarshalText() ([]byte, error) { return nil, ErrNotSerializable }
