package tenant

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Resolver extracts a resolve Input from HTTP requests.
type Resolver interface {
	// Resolve returns a zero Input when the request names no tenant,
	// and an error only when extraction itself fails.
	Resolve(r *http.Request) (Input, error)
}

// ResolverFunc is an adapter to allow the use of ordinary functions as Resolvers.
type ResolverFunc func(r *http.Request) (Input, error)

// Resolve calls the function.
func (f ResolverFunc) Resolve(r *http.Request) (Input, error) {
	return f(r)
}

// IsZero reports whether the input names nothing.
func (in Input) IsZero() bool {
	return in == Input{}
}

// inputFor builds an Input selecting value by source. Unknown sources mean tenant id.
func inputFor(source Source, value string) Input {
	switch source {
	case SourceUserID:
		return Input{UserID: value}
	case SourceWorkspaceID:
		return Input{WorkspaceID: value}
	default:
		return Input{TenantID: value}
	}
}

// SubdomainResolver extracts a tenant id from the request subdomain.
type SubdomainResolver struct {
	// Suffix to strip from the host (e.g., ".saas.com")
	// If empty, only the first subdomain part is used.
	Suffix string
}

func NewSubdomainResolver(suffix string) *SubdomainResolver {
	return &SubdomainResolver{Suffix: suffix}
}

// Resolve extracts tenant from subdomain (e.g., "acme" from "acme.app.com").
func (r *SubdomainResolver) Resolve(req *http.Request) (Input, error) {
	host := req.Host
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}

	// subdomain.domain.tld at minimum
	if len(strings.Split(host, ".")) < 3 {
		return Input{}, nil
	}

	if r.Suffix != "" && strings.HasSuffix(host, r.Suffix) && len(host) > len(r.Suffix) {
		host = host[:len(host)-len(r.Suffix)]
	}

	parts := strings.Split(host, ".")
	subdomain := parts[0]
	if subdomain == "www" {
		if len(parts) < 2 {
			return Input{}, nil
		}
		subdomain = parts[1]
	}
	if subdomain == "" {
		return Input{}, nil
	}

	return Input{TenantID: subdomain}, nil
}

// HeaderResolver reads an identifier from an HTTP header.
type HeaderResolver struct {
	HeaderName string
	// Source selects what the header value identifies. Default SourceTenantID.
	Source Source
}

// NewHeaderResolver creates a resolver reading a tenant id from headerName
// (default "X-Tenant-ID").
func NewHeaderResolver(headerName string) *HeaderResolver {
	if headerName == "" {
		headerName = "X-Tenant-ID"
	}
	return &HeaderResolver{HeaderName: headerName, Source: SourceTenantID}
}

// NewWorkspaceHeaderResolver creates a resolver reading a workspace id from headerName
// (default "X-Workspace-ID").
func NewWorkspaceHeaderResolver(headerName string) *HeaderResolver {
	if headerName == "" {
		headerName = "X-Workspace-ID"
	}
	return &HeaderResolver{HeaderName: headerName, Source: SourceWorkspaceID}
}

func (r *HeaderResolver) Resolve(req *http.Request) (Input, error) {
	value := strings.TrimSpace(req.Header.Get(r.HeaderName))
	if value == "" {
		return Input{}, nil
	}
	return inputFor(r.Source, value), nil
}

// PathResolver extracts a tenant id from a URL path segment.
type PathResolver struct {
	// Position is the 1-based position in the path (e.g., 2 for /tenants/{id}/...)
	Position int
}

func NewPathResolver(position int) *PathResolver {
	return &PathResolver{Position: position}
}

func (r *PathResolver) Resolve(req *http.Request) (Input, error) {
	if r.Position < 1 {
		return Input{}, errors.New("invalid path position")
	}

	path := strings.Trim(req.URL.Path, "/")
	if path == "" {
		return Input{}, nil
	}

	parts := strings.Split(path, "/")
	if r.Position > len(parts) {
		return Input{}, nil
	}
	return Input{TenantID: parts[r.Position-1]}, nil
}

// URLParamResolver reads a chi route parameter, e.g. {tenantID} in "/tenants/{tenantID}/*".
// It only sees parameters when the middleware is mounted inside the matching route.
type URLParamResolver struct {
	Param  string
	Source Source
}

func NewURLParamResolver(param string, source Source) *URLParamResolver {
	return &URLParamResolver{Param: param, Source: source}
}

func (r *URLParamResolver) Resolve(req *http.Request) (Input, error) {
	value := chi.URLParam(req, r.Param)
	if value == "" {
		return Input{}, nil
	}
	return inputFor(r.Source, value), nil
}

// SessionData represents the minimal session interface needed by the resolver.
type SessionData interface {
	GetString(key string) string
}

// SessionResolver reads the signed-in user id from session data and resolves
// the user's active tenant.
type SessionResolver struct {
	GetSession func(r *http.Request) (SessionData, error)
	// Key is the session key holding the user id. Default "user_id".
	Key string
}

func NewSessionResolver(getSession func(r *http.Request) (SessionData, error)) *SessionResolver {
	return &SessionResolver{GetSession: getSession, Key: "user_id"}
}

func (r *SessionResolver) Resolve(req *http.Request) (Input, error) {
	if r.GetSession == nil {
		return Input{}, errors.New("session resolver: GetSession function not configured")
	}

	session, err := r.GetSession(req)
	if err != nil {
		return Input{}, fmt.Errorf("session resolver: %w", err)
	}
	if session == nil {
		return Input{}, nil
	}

	key := r.Key
	if key == "" {
		key = "user_id"
	}
	userID := session.GetString(key)
	if userID == "" {
		return Input{}, nil
	}
	return Input{UserID: userID}, nil
}

// CompositeResolver tries multiple resolvers in order until one succeeds.
type CompositeResolver struct {
	Resolvers []Resolver
}

func NewCompositeResolver(resolvers ...Resolver) *CompositeResolver {
	return &CompositeResolver{Resolvers: resolvers}
}

// Resolve returns the first non-zero Input. Errors are only reported when no resolver matched.
func (c *CompositeResolver) Resolve(r *http.Request) (Input, error) {
	var errs []error

	for _, resolver := range c.Resolvers {
		in, err := resolver.Resolve(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !in.IsZero() {
			return in, nil
		}
	}

	if len(errs) > 0 {
		return Input{}, fmt.Errorf("composite resolver errors: %w", errors.Join(errs...))
	}
	return Input{}, nil
}
