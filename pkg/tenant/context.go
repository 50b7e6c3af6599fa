package tenant

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenancy/pkg/logger"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

type logKey struct{}

// State is the tenant binding of one execution flow. It is created per binding
// and never mutated.
type State[H any] struct {
	Tenant    Snapshot
	Handle    H
	Metadata  Metadata
	Secrets   Bundle
	CreatedAt time.Time
	FlowID    uuid.UUID
}

// binding is the handle-agnostic view of a State stored in a context.
type binding interface {
	snapshot() Snapshot
	meta() Metadata
	bundle() Bundle
}

func (s State[H]) snapshot() Snapshot { return s.Tenant }
func (s State[H]) meta() Metadata     { return s.Metadata }
func (s State[H]) bundle() Bundle     { return s.Secrets }

// errorLog is owned by one binding and records the error its direct child bindings
// last logged, so the same error returned through the parent is not logged again.
type errorLog struct {
	mu     sync.Mutex
	logged error
}

func (l *errorLog) mark(err error) {
	l.mu.Lock()
	l.logged = err
	l.mu.Unlock()
}

// take reports whether err is the exact error a child logged and clears the record.
func (l *errorLog) take(err error) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	logged := l.logged
	l.logged = nil
	return logged != nil && sameError(logged, err)
}

// sameError compares by identity. Errors of uncomparable types never match.
func sameError(a, b error) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// Run calls fn with a context bound to state. The binding is visible only to fn and
// whatever fn passes its context to; the caller's ctx is left untouched, so the
// enclosing binding (or none) is back in effect when Run returns.
//
// An error from fn is logged once and returned unchanged. A panic is logged and re-raised.
func Run[H any](ctx context.Context, state State[H], fn func(ctx context.Context) error) error {
	return run(ctx, slog.Default(), state, fn)
}

func run[H any](ctx context.Context, log *slog.Logger, state State[H], fn func(ctx context.Context) error) (err error) {
	state.CreatedAt = time.Now()
	state.FlowID = uuid.New()

	parent, _ := ctx.Value(logKey{}).(*errorLog)
	children := &errorLog{}
	ctx = context.WithValue(ctx, logKey{}, children)
	ctx = context.WithValue(ctx, contextKey{}, binding(state))

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "panic in tenant context",
				logger.TenantID(state.Tenant.ID),
				logger.FlowID(state.FlowID),
				slog.Any("panic", r),
			)
			panic(r)
		}
	}()

	err = fn(ctx)
	if err == nil {
		return nil
	}
	if !children.take(err) {
		log.ErrorContext(ctx, "unhandled error in tenant context",
			logger.TenantID(state.Tenant.ID),
			logger.Source(string(state.Metadata.Source)),
			logger.FlowID(state.FlowID),
			logger.Error(err),
		)
	}
	if parent != nil {
		parent.mark(err)
	}
	return err
}

func bindingFrom(ctx context.Context) (binding, bool) {
	if ctx == nil {
		return nil, false
	}
	b, ok := ctx.Value(contextKey{}).(binding)
	return b, ok
}

// FromContext returns the active binding. ok is false when there is none or when it
// was created for a different handle type.
func FromContext[H any](ctx context.Context) (State[H], bool) {
	b, ok := bindingFrom(ctx)
	if !ok {
		return State[H]{}, false
	}
	s, ok := b.(State[H])
	return s, ok
}

// IsActive reports whether ctx carries a tenant binding.
func IsActive(ctx context.Context) bool {
	_, ok := bindingFrom(ctx)
	return ok
}

// TenantFromContext returns the bound tenant snapshot.
func TenantFromContext(ctx context.Context) (Snapshot, error) {
	b, ok := bindingFrom(ctx)
	if !ok {
		return Snapshot{}, ErrNoTenantInContext
	}
	return b.snapshot(), nil
}

// HandleFromContext returns the bound handle.
func HandleFromContext[H any](ctx context.Context) (H, error) {
	s, ok := FromContext[H](ctx)
	if !ok {
		var zero H
		return zero, ErrNoTenantInContext
	}
	return s.Handle, nil
}

func MetadataFromContext(ctx context.Context) (Metadata, error) {
	b, ok := bindingFrom(ctx)
	if !ok {
		return Metadata{}, ErrNoTenantInContext
	}
	return b.meta(), nil
}

func SecretsFromContext(ctx context.Context) (Bundle, error) {
	b, ok := bindingFrom(ctx)
	if !ok {
		return Bundle{}, ErrNoTenantInContext
	}
	return b.bundle(), nil
}

// LoggerExtractor returns a logger.ContextExtractor that adds the bound tenant id.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if b, ok := bindingFrom(ctx); ok {
			return logger.TenantID(b.snapshot().ID), true
		}
		return slog.Attr{}, false
	}
}

// SourceExtractor returns a logger.ContextExtractor that adds how the bound tenant was resolved.
func SourceExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if b, ok := bindingFrom(ctx); ok {
			return logger.Source(string(b.meta().Source)), true
		}
		return slog.Attr{}, false
	}
}
