package tenant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/tenancy/pkg/logger"
)

// HandlePool hands out one live handle per tenant. *pool.Pool satisfies it.
type HandlePool[H any] interface {
	Get(ctx context.Context, key, connectionURL string) (H, error)
}

// Service resolves tenants through the bound context, the cache and the directory,
// in that order, and runs work inside a tenant binding.
type Service[H any] struct {
	dir     Directory
	cache   *Cache
	vault   *Vault
	handles HandlePool[H]
	opts    serviceOptions
}

// NewService wires a resolution service. A nil cache means a memory-only cache.
func NewService[H any](dir Directory, cache *Cache, vault *Vault, handles HandlePool[H], opts ...ServiceOption) *Service[H] {
	o := serviceOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if cache == nil {
		cache = NewCache(nil, WithCacheLogger(o.logger))
	}

	return &Service[H]{
		dir:     dir,
		cache:   cache,
		vault:   vault,
		handles: handles,
		opts:    o,
	}
}

// Resolve returns the snapshot of the tenant selected by in.
func (s *Service[H]) Resolve(ctx context.Context, in Input) (Snapshot, error) {
	md, ok := in.metadata()
	if !ok {
		return Snapshot{}, ErrInvalidIdentifier
	}
	if b, ok := bindingFrom(ctx); ok && matches(b, md) {
		return b.snapshot(), nil
	}
	return s.lookup(ctx, md)
}

// ResolveHandle is Resolve plus the tenant's pooled handle.
func (s *Service[H]) ResolveHandle(ctx context.Context, in Input) (Snapshot, H, error) {
	var zero H

	md, ok := in.metadata()
	if !ok {
		return Snapshot{}, zero, ErrInvalidIdentifier
	}
	if st, ok := FromContext[H](ctx); ok && matches(st, md) {
		return st.Tenant, st.Handle, nil
	}

	snap, err := s.lookup(ctx, md)
	if err != nil {
		return Snapshot{}, zero, err
	}
	handle, err := s.acquire(ctx, snap)
	if err != nil {
		return Snapshot{}, zero, err
	}
	return snap, handle, nil
}

// Run calls fn inside a binding for the tenant selected by in. When ctx is already
// bound to that tenant, fn runs under the existing binding with no lookup.
// Errors from fn are returned unchanged.
func (s *Service[H]) Run(ctx context.Context, in Input, fn func(ctx context.Context) error) error {
	md, ok := in.metadata()
	if !ok {
		return ErrInvalidIdentifier
	}
	if st, ok := FromContext[H](ctx); ok && matches(st, md) {
		return fn(ctx)
	}

	snap, err := s.lookup(ctx, md)
	if err != nil {
		return err
	}
	handle, err := s.acquire(ctx, snap)
	if err != nil {
		return err
	}
	bundle, _ := s.vault.Get(snap.ID)

	s.opts.logger.DebugContext(ctx, "binding tenant context",
		logger.TenantID(snap.ID),
		logger.Source(string(md.Source)),
	)
	return run(ctx, s.opts.logger, State[H]{
		Tenant:   snap,
		Handle:   handle,
		Metadata: md,
		Secrets:  bundle,
	}, fn)
}

// Do runs fn like Service.Run and returns its value.
func Do[H, T any](ctx context.Context, s *Service[H], in Input, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := s.Run(ctx, in, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

// TenantByID returns the tenant with id, from the binding, the cache or the directory.
func (s *Service[H]) TenantByID(ctx context.Context, id string) (Snapshot, error) {
	if b, ok := bindingFrom(ctx); ok && b.snapshot().ID == id {
		return b.snapshot(), nil
	}
	return s.tenantByID(ctx, id)
}

// TenantByWorkspace returns the tenant bound to workspaceID. The workspace alias is
// looked up in the cache before the directory is queried.
func (s *Service[H]) TenantByWorkspace(ctx context.Context, workspaceID string) (Snapshot, error) {
	md := Metadata{Source: SourceWorkspaceID, Identifier: workspaceID}
	if b, ok := bindingFrom(ctx); ok && matches(b, md) {
		return b.snapshot(), nil
	}
	return s.tenantByWorkspace(ctx, workspaceID)
}

// TenantByUser returns the tenant of the user's active membership.
func (s *Service[H]) TenantByUser(ctx context.Context, userID string) (Snapshot, error) {
	md := Metadata{Source: SourceUserID, Identifier: userID}
	if b, ok := bindingFrom(ctx); ok && matches(b, md) {
		return b.snapshot(), nil
	}
	return s.tenantByUser(ctx, userID)
}

// Invalidate drops the tenant and its workspace alias from the cache.
func (s *Service[H]) Invalidate(ctx context.Context, id, workspaceID string) {
	s.cache.Invalidate(ctx, id, workspaceID)
}

// ForgetSecrets drops the secrets retained for id, e.g. after rotation.
func (s *Service[H]) ForgetSecrets(id string) {
	s.vault.Clear(id)
}

func (s *Service[H]) lookup(ctx context.Context, md Metadata) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	switch md.Source {
	case SourceTenantID:
		snap, err = s.tenantByID(ctx, md.Identifier)
	case SourceUserID:
		snap, err = s.tenantByUser(ctx, md.Identifier)
	case SourceWorkspaceID:
		snap, err = s.tenantByWorkspace(ctx, md.Identifier)
	default:
		return Snapshot{}, ErrInvalidIdentifier
	}
	if err != nil {
		return Snapshot{}, err
	}

	if s.opts.requireActive && !snap.Active {
		s.opts.logger.WarnContext(ctx, "rejected inactive tenant",
			logger.TenantID(snap.ID),
			logger.Source(string(md.Source)),
		)
		return Snapshot{}, fmt.Errorf("%w: %s", ErrInactiveTenant, snap.ID)
	}
	return snap, nil
}

func (s *Service[H]) tenantByID(ctx context.Context, id string) (Snapshot, error) {
	if snap, ok := s.cache.GetTenant(ctx, id); ok {
		if _, captured := s.vault.Get(id); captured {
			return snap, nil
		}
		s.opts.logger.DebugContext(ctx, "cached tenant has no retained secrets, reloading from directory",
			logger.TenantID(id),
		)
	}
	return s.fetchByID(ctx, id)
}

func (s *Service[H]) tenantByWorkspace(ctx context.Context, workspaceID string) (Snapshot, error) {
	if id, ok := s.cache.TenantIDByWorkspace(ctx, workspaceID); ok {
		s.opts.logger.DebugContext(ctx, "workspace alias cache hit",
			logger.WorkspaceID(workspaceID),
			logger.TenantID(id),
		)
		return s.tenantByID(ctx, id)
	}

	rec, err := s.dir.TenantByWorkspace(ctx, workspaceID)
	if err != nil {
		s.opts.logger.ErrorContext(ctx, "failed to look up tenant by workspace",
			logger.WorkspaceID(workspaceID),
			logger.Error(err),
		)
		return Snapshot{}, err
	}
	return s.register(ctx, rec)
}

func (s *Service[H]) tenantByUser(ctx context.Context, userID string) (Snapshot, error) {
	id, err := s.dir.ActiveMembership(ctx, userID)
	if err != nil {
		s.opts.logger.ErrorContext(ctx, "failed to look up tenant membership",
			logger.UserID(userID),
			logger.Error(err),
		)
		return Snapshot{}, err
	}
	return s.tenantByID(ctx, id)
}

func (s *Service[H]) fetchByID(ctx context.Context, id string) (Snapshot, error) {
	rec, err := s.dir.TenantByID(ctx, id)
	if err != nil {
		s.opts.logger.ErrorContext(ctx, "failed to fetch tenant from directory",
			logger.TenantID(id),
			logger.Error(err),
		)
		return Snapshot{}, err
	}
	return s.register(ctx, rec)
}

func (s *Service[H]) acquire(ctx context.Context, snap Snapshot) (H, error) {
	handle, err := s.handles.Get(ctx, snap.ID, snap.DB)
	if err != nil {
		s.opts.logger.ErrorContext(ctx, "failed to acquire tenant handle",
			logger.TenantID(snap.ID),
			logger.Error(err),
		)
		return handle, err
	}
	return handle, nil
}

// register captures the record's secrets and caches its sanitized snapshot.
func (s *Service[H]) register(ctx context.Context, rec Record) (Snapshot, error) {
	if _, err := s.vault.Capture(rec); err != nil {
		return Snapshot{}, err
	}
	snap := Sanitize(rec)
	s.cache.SetTenant(ctx, snap, s.opts.cacheTTL)
	return snap, nil
}

// matches reports whether binding b already satisfies a resolution described by md.
func matches(b binding, md Metadata) bool {
	switch md.Source {
	case SourceTenantID:
		return b.snapshot().ID == md.Identifier
	case SourceUserID:
		return b.meta() == md
	case SourceWorkspaceID:
		return b.meta() == md || b.snapshot().WorkspaceID() == md.Identifier
	}
	return false
}
