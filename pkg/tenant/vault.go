package tenant

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/dmitrymomot/tenancy/pkg/logger"
	"github.com/dmitrymomot/tenancy/pkg/secrets"
)

// SecretField names a secret carried by a tenant record.
type SecretField string

const (
	FieldWorkspaceClientSecret SecretField = "workspace.clientSecret"
	FieldVectorStoreAPIKey     SecretField = "vectorStore.apiKey"
)

// Bundle is an immutable set of sealed secrets for one tenant.
type Bundle struct {
	secrets map[SecretField]*secrets.Secret
}

// Get returns the sealed secret for field.
func (b Bundle) Get(field SecretField) (*secrets.Secret, bool) {
	s, ok := b.secrets[field]
	return s, ok
}

func (b Bundle) Has(field SecretField) bool {
	_, ok := b.secrets[field]
	return ok
}

func (b Bundle) Len() int {
	return len(b.secrets)
}

// Fields returns the present fields in sorted order.
func (b Bundle) Fields() []SecretField {
	fields := make([]SecretField, 0, len(b.secrets))
	for f := range b.secrets {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	return fields
}

// LogValue lists field names only.
func (b Bundle) LogValue() slog.Value {
	names := make([]string, 0, len(b.secrets))
	for _, f := range b.Fields() {
		names = append(names, string(f))
	}
	return slog.AnyValue(names)
}

// Vault seals tenant secrets and retains them across captures.
type Vault struct {
	sealer *secrets.Sealer
	logger *slog.Logger

	mu      sync.RWMutex
	bundles map[string]map[SecretField]*secrets.Secret
}

// VaultOption configures a Vault.
type VaultOption func(*Vault)

func WithVaultLogger(l *slog.Logger) VaultOption {
	return func(v *Vault) {
		if l != nil {
			v.logger = l
		}
	}
}

// NewVault creates a vault that seals secrets with sealer.
func NewVault(sealer *secrets.Sealer, opts ...VaultOption) *Vault {
	v := &Vault{
		sealer:  sealer,
		logger:  slog.Default(),
		bundles: make(map[string]map[SecretField]*secrets.Secret),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Sanitize strips every secret field from r.
func (v *Vault) Sanitize(r Record) Snapshot {
	return Sanitize(r)
}

// Sanitize strips every secret field from r.
func Sanitize(r Record) Snapshot {
	s := Snapshot{
		ID:     r.ID,
		Name:   r.Name,
		Active: r.IsActive(),
		DB:     r.DB,
	}
	if r.Workspace != nil {
		s.Workspace = WorkspaceInfo{
			ID:          r.Workspace.ID,
			ClientID:    r.Workspace.ClientID,
			RedirectURI: r.Workspace.RedirectURI,
			Scope:       r.Workspace.Scope,
		}
	}
	if r.VectorStore != nil {
		s.VectorStore = VectorStoreInfo{URL: r.VectorStore.URL}
	}
	return s
}

// Capture seals the secrets present in r and stores them under r.ID. Fields absent
// from r keep the secret stored by an earlier capture.
func (v *Vault) Capture(r Record) (Bundle, error) {
	present := make(map[SecretField]string, 2)
	if r.Workspace != nil && r.Workspace.ClientSecret != "" {
		present[FieldWorkspaceClientSecret] = r.Workspace.ClientSecret
	}
	if r.VectorStore != nil && r.VectorStore.APIKey != "" {
		present[FieldVectorStoreAPIKey] = r.VectorStore.APIKey
	}

	sealed := make(map[SecretField]*secrets.Secret, len(present))
	for field, value := range present {
		s, err := v.sealer.SealString(r.ID, value)
		if err != nil {
			v.logger.Error("failed to seal tenant secret",
				logger.TenantID(r.ID),
				slog.String("field", string(field)),
				logger.Error(err),
			)
			return Bundle{}, err
		}
		sealed[field] = s
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	merged := make(map[SecretField]*secrets.Secret, len(sealed)+2)
	for field, s := range v.bundles[r.ID] {
		merged[field] = s
	}
	for field, s := range sealed {
		merged[field] = s
	}
	v.bundles[r.ID] = merged

	return Bundle{secrets: merged}, nil
}

// Get returns the retained bundle for tenantID. ok is false when the tenant was never captured.
func (v *Vault) Get(tenantID string) (Bundle, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	m, ok := v.bundles[tenantID]
	if !ok {
		return Bundle{}, false
	}
	return Bundle{secrets: m}, true
}

// Clear drops every secret retained for tenantID.
func (v *Vault) Clear(tenantID string) {
	v.mu.Lock()
	delete(v.bundles, tenantID)
	v.mu.Unlock()
}
