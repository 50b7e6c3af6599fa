package tenant

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"
)

// DefaultWorkspaceScope is requested when the workspace has no scope configured.
const DefaultWorkspaceScope = "https://graph.microsoft.com/.default"

type credentialsOptions struct {
	tokenURL func(workspaceID string) string
}

// CredentialsOption configures WorkspaceCredentials.
type CredentialsOption func(*credentialsOptions)

// WithTokenURL overrides the Azure AD token endpoint, e.g. for a sovereign cloud.
func WithTokenURL(fn func(workspaceID string) string) CredentialsOption {
	return func(o *credentialsOptions) {
		if fn != nil {
			o.tokenURL = fn
		}
	}
}

// WorkspaceCredentials builds a client credentials config for the bound tenant's
// workspace. This is the one place the sealed client secret is exported.
func WorkspaceCredentials(ctx context.Context, opts ...CredentialsOption) (*clientcredentials.Config, error) {
	o := credentialsOptions{
		tokenURL: func(workspaceID string) string {
			return microsoft.AzureADEndpoint(workspaceID).TokenURL
		},
	}
	for _, opt := range opts {
		opt(&o)
	}

	b, ok := bindingFrom(ctx)
	if !ok {
		return nil, ErrNoTenantInContext
	}
	ws := b.snapshot().Workspace
	if ws.ID == "" || ws.ClientID == "" {
		return nil, ErrNoWorkspace
	}

	sealed, ok := b.bundle().Get(FieldWorkspaceClientSecret)
	if !ok {
		return nil, fmt.Errorf("%w: client secret not captured", ErrNoWorkspace)
	}
	secret, err := sealed.ExportString()
	if err != nil {
		return nil, err
	}

	scope := ws.Scope
	if scope == "" {
		scope = DefaultWorkspaceScope
	}

	return &clientcredentials.Config{
		ClientID:     ws.ClientID,
		ClientSecret: secret,
		TokenURL:     o.tokenURL(ws.ID),
		Scopes:       strings.Fields(scope),
		AuthStyle:    oauth2.AuthStyleInParams,
	}, nil
}

// WorkspaceTokenSource returns a token source for the bound tenant's workspace.
func WorkspaceTokenSource(ctx context.Context, opts ...CredentialsOption) (oauth2.TokenSource, error) {
	cfg, err := WorkspaceCredentials(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return cfg.TokenSource(ctx), nil
}
