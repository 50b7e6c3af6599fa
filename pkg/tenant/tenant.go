package tenant

import (
	"log/slog"
	"net/url"
)

// Record is a tenant document as stored in the directory. It holds raw secrets
// and never leaves the directory and vault boundary; everything else sees a Snapshot.
type Record struct {
	ID          string             `json:"id" bson:"_id" yaml:"id"`
	Name        string             `json:"name,omitempty" bson:"name,omitempty" yaml:"name,omitempty"`
	Active      *bool              `json:"active,omitempty" bson:"active,omitempty" yaml:"active,omitempty"`
	DB          string             `json:"db" bson:"db" yaml:"db"`
	Workspace   *WorkspaceConfig   `json:"workspace,omitempty" bson:"workspace,omitempty" yaml:"workspace,omitempty"`
	VectorStore *VectorStoreConfig `json:"vectorStore,omitempty" bson:"vectorStore,omitempty" yaml:"vectorStore,omitempty"`
}

// WorkspaceConfig binds a tenant to an external identity provider workspace.
type WorkspaceConfig struct {
	ID           string `json:"id" bson:"id" yaml:"id"`
	ClientID     string `json:"clientId" bson:"clientId" yaml:"clientId"`
	ClientSecret string `json:"clientSecret,omitempty" bson:"clientSecret,omitempty" yaml:"clientSecret,omitempty"`
	RedirectURI  string `json:"redirectUri,omitempty" bson:"redirectUri,omitempty" yaml:"redirectUri,omitempty"`
	Scope        string `json:"scope,omitempty" bson:"scope,omitempty" yaml:"scope,omitempty"`
}

type VectorStoreConfig struct {
	URL    string `json:"url" bson:"url" yaml:"url"`
	APIKey string `json:"apiKey,omitempty" bson:"apiKey,omitempty" yaml:"apiKey,omitempty"`
}

// IsActive reports whether the tenant is active. A record without the flag is active.
func (r Record) IsActive() bool {
	return r.Active == nil || *r.Active
}

// Snapshot is the redacted, immutable view of a tenant. It has no secret fields.
type Snapshot struct {
	ID          string          `json:"id"`
	Name        string          `json:"name,omitempty"`
	Active      bool            `json:"active"`
	DB          string          `json:"db"`
	Workspace   WorkspaceInfo   `json:"workspace,omitzero"`
	VectorStore VectorStoreInfo `json:"vectorStore,omitzero"`
}

type WorkspaceInfo struct {
	ID          string `json:"id,omitempty"`
	ClientID    string `json:"clientId,omitempty"`
	RedirectURI string `json:"redirectUri,omitempty"`
	Scope       string `json:"scope,omitempty"`
}

type VectorStoreInfo struct {
	URL string `json:"url,omitempty"`
}

// WorkspaceID returns the bound workspace id, or "" when the tenant has none.
func (s Snapshot) WorkspaceID() string {
	return s.Workspace.ID
}

// LogValue keeps the database password out of log output.
func (s Snapshot) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("id", s.ID),
		slog.Bool("active", s.Active),
		slog.String("db", redactURL(s.DB)),
	}
	if s.Name != "" {
		attrs = append(attrs, slog.String("name", s.Name))
	}
	if s.Workspace.ID != "" {
		attrs = append(attrs, slog.String("workspace_id", s.Workspace.ID))
	}
	return slog.GroupValue(attrs...)
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

// Source tells how the bound tenant was resolved.
type Source string

const (
	SourceTenantID    Source = "tenantId"
	SourceUserID      Source = "userId"
	SourceWorkspaceID Source = "workspaceId"
)

// Metadata records how a binding was resolved. It never changes after creation.
type Metadata struct {
	Source     Source `json:"source"`
	Identifier string `json:"identifier"`
}

// Input selects a tenant. When several fields are set, TenantID wins over UserID,
// which wins over WorkspaceID.
type Input struct {
	TenantID    string
	UserID      string
	WorkspaceID string
}

// metadata returns the resolution metadata for the winning field.
func (in Input) metadata() (Metadata, bool) {
	switch {
	case in.TenantID != "":
		return Metadata{Source: SourceTenantID, Identifier: in.TenantID}, true
	case in.UserID != "":
		return Metadata{Source: SourceUserID, Identifier: in.UserID}, true
	case in.WorkspaceID != "":
		return Metadata{Source: SourceWorkspaceID, Identifier: in.WorkspaceID}, true
	}
	return Metadata{}, false
}
