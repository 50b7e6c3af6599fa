package tenant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/tenancy/pkg/logger"
)

// Scope exposes the binding a workspace handler runs under.
type Scope[H any] struct {
	ctx context.Context
}

// Context returns the bound context to pass on to downstream calls.
func (s Scope[H]) Context() context.Context { return s.ctx }

func (s Scope[H]) Tenant() (Snapshot, error)   { return TenantFromContext(s.ctx) }
func (s Scope[H]) Handle() (H, error)          { return HandleFromContext[H](s.ctx) }
func (s Scope[H]) Secrets() (Bundle, error)    { return SecretsFromContext(s.ctx) }
func (s Scope[H]) Metadata() (Metadata, error) { return MetadataFromContext(s.ctx) }

type runnerOptions struct {
	logger         *slog.Logger
	contextMessage string
	handlerMessage string
}

// RunnerOption configures RunWorkspace.
type RunnerOption func(*runnerOptions)

// WithRunnerLogger enables error logging. Without it RunWorkspace logs nothing itself.
func WithRunnerLogger(l *slog.Logger) RunnerOption {
	return func(o *runnerOptions) { o.logger = l }
}

// WithContextErrorMessage sets the message logged when the workspace cannot be resolved.
func WithContextErrorMessage(msg string) RunnerOption {
	return func(o *runnerOptions) { o.contextMessage = msg }
}

// WithHandlerErrorMessage sets the message logged when the handler fails.
func WithHandlerErrorMessage(msg string) RunnerOption {
	return func(o *runnerOptions) { o.handlerMessage = msg }
}

// RunWorkspace resolves workspaceID and calls fn under its binding. A resolution
// failure is logged with the context message, a handler failure with the handler
// message only. Both are returned unchanged.
func RunWorkspace[H any](ctx context.Context, svc *Service[H], workspaceID string, fn func(ctx context.Context, scope Scope[H]) error, opts ...RunnerOption) error {
	o := runnerOptions{
		contextMessage: fmt.Sprintf("failed to prepare workspace context for %s", workspaceID),
		handlerMessage: fmt.Sprintf("failed to execute handler within workspace %s", workspaceID),
	}
	for _, opt := range opts {
		opt(&o)
	}

	var handlerFailed bool
	err := svc.Run(ctx, Input{WorkspaceID: workspaceID}, func(ctx context.Context) error {
		if err := fn(ctx, Scope[H]{ctx: ctx}); err != nil {
			handlerFailed = true
			o.log(ctx, o.handlerMessage, workspaceID, err)
			return err
		}
		return nil
	})
	if err != nil && !handlerFailed {
		o.log(ctx, o.contextMessage, workspaceID, err)
	}
	return err
}

// WorkspaceHandler binds fn to a workspace id supplied later, e.g. per queue message.
func WorkspaceHandler[H any](svc *Service[H], fn func(ctx context.Context, scope Scope[H]) error, opts ...RunnerOption) func(ctx context.Context, workspaceID string) error {
	return func(ctx context.Context, workspaceID string) error {
		return RunWorkspace(ctx, svc, workspaceID, fn, opts...)
	}
}

func (o runnerOptions) log(ctx context.Context, msg, workspaceID string, err error) {
	if o.logger == nil {
		return
	}
	o.logger.ErrorContext(ctx, msg, logger.WorkspaceID(workspaceID), logger.Error(err))
}
