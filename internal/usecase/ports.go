package usecase

import (
	"context"

	"github.com/GrEarl/Depictionator-sub001/internal/domain"
)

// RoleGateway answers workspace membership checks. Membership storage is an
// external collaborator; the engine only consumes this predicate.
type RoleGateway interface {
	Has(ctx context.Context, userID, workspaceID string, min domain.Role) (bool, error)
}

// AuditSink records mutating operations. Implementations are fire-and-forget:
// they log and drop their own failures instead of failing the caller.
type AuditSink interface {
	Record(ctx context.Context, entry domain.AuditEntry)
}

// Notifier delivers watcher notifications under the same fire-and-forget
// contract as AuditSink.
type Notifier interface {
	NotifyWatchers(ctx context.Context, event domain.Event)
}

// ReferenceRepository exposes existence lookups for reference data. A
// dangling reference at write time surfaces as NotFound, never as a silently
// ignored scope.
type ReferenceRepository interface {
	ViewpointExists(ctx context.Context, workspaceID, id string) (bool, error)
	EraExists(ctx context.Context, workspaceID, id string) (bool, error)
	ChapterExists(ctx context.Context, workspaceID, id string) (bool, error)
}

// ResolutionCache is a short-lived cache for resolved view contexts. Writers
// invalidate per entity whenever a pointer advances or an overlay changes.
type ResolutionCache interface {
	Get(ctx context.Context, entityID string, vc domain.ViewContext) (*domain.Resolution, bool)
	Set(ctx context.Context, entityID string, vc domain.ViewContext, res domain.Resolution)
	Invalidate(ctx context.Context, entityID string)
}

func requireRole(ctx context.Context, roles RoleGateway, userID, workspaceID string, min domain.Role) error {
	if userID == "" {
		return domain.UnauthorizedError{}
	}
	ok, err := roles.Has(ctx, userID, workspaceID, min)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ForbiddenError{Reason: "requires " + min.String() + " role in this workspace"}
	}
	return nil
}
