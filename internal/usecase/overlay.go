package usecase

import (
	"context"
	"time"

	"github.com/GrEarl/Depictionator-sub001/internal/domain"
)

// OverlayRepository defines persistence for overlay records.
type OverlayRepository interface {
	Create(ctx context.Context, overlay domain.Overlay) (domain.Overlay, error)
	Get(ctx context.Context, id string) (domain.Overlay, error)
	// ListByEntity returns non-soft-deleted overlays of an entity.
	ListByEntity(ctx context.Context, entityID string) ([]domain.Overlay, error)
	UpdateScope(ctx context.Context, overlay domain.Overlay) (domain.Overlay, error)
	SoftDelete(ctx context.Context, id string) error
}

// OverlayScope carries the optional scoping window of an overlay.
type OverlayScope struct {
	ViewpointID        *string
	WorldFrom          *string
	WorldTo            *string
	StoryFromChapterID *string
	StoryToChapterID   *string
}

type CreateOverlayInput struct {
	EntityID    string
	Title       string
	TruthFlag   domain.TruthFlag
	Scope       OverlayScope
	InitialBody string
	Author      string
}

type OverlayUsecase struct {
	entities   EntityRepository
	overlays   OverlayRepository
	revisions  RevisionRepository
	references ReferenceRepository
	roles      RoleGateway
	audit      AuditSink
	cache      ResolutionCache
}

func NewOverlayUsecase(
	entities EntityRepository,
	overlays OverlayRepository,
	revisions RevisionRepository,
	references ReferenceRepository,
	roles RoleGateway,
	audit AuditSink,
	cache ResolutionCache,
) *OverlayUsecase {
	return &OverlayUsecase{
		entities:   entities,
		overlays:   overlays,
		revisions:  revisions,
		references: references,
		roles:      roles,
		audit:      audit,
		cache:      cache,
	}
}

// CreateOverlay registers a viewpoint-scoped variant for an entity, seeded
// with a draft revision routed through review.
func (uc *OverlayUsecase) CreateOverlay(ctx context.Context, input CreateOverlayInput) (domain.Overlay, domain.Revision, error) {
	if !input.TruthFlag.Valid() {
		return domain.Overlay{}, domain.Revision{}, domain.ValidationError{Reason: "invalid truth flag: " + string(input.TruthFlag)}
	}
	if input.Title == "" {
		return domain.Overlay{}, domain.Revision{}, domain.ValidationError{Reason: "title must not be empty"}
	}

	entity, err := uc.entities.Get(ctx, input.EntityID)
	if err != nil {
		return domain.Overlay{}, domain.Revision{}, err
	}
	if entity.Deleted() {
		return domain.Overlay{}, domain.Revision{}, domain.NotFoundError{Resource: "entity"}
	}

	if err := requireRole(ctx, uc.roles, input.Author, entity.WorkspaceID, domain.RoleReviewer); err != nil {
		return domain.Overlay{}, domain.Revision{}, err
	}
	if err := uc.checkScope(ctx, entity.WorkspaceID, input.Scope); err != nil {
		return domain.Overlay{}, domain.Revision{}, err
	}

	overlay := domain.Overlay{
		EntityID:           entity.ID,
		Title:              input.Title,
		TruthFlag:          input.TruthFlag,
		ViewpointID:        input.Scope.ViewpointID,
		WorldFrom:          input.Scope.WorldFrom,
		WorldTo:            input.Scope.WorldTo,
		StoryFromChapterID: input.Scope.StoryFromChapterID,
		StoryToChapterID:   input.Scope.StoryToChapterID,
	}

	overlay, err = uc.overlays.Create(ctx, overlay)
	if err != nil {
		return domain.Overlay{}, domain.Revision{}, err
	}

	revision, _, err := uc.revisions.CreateDraft(ctx, entity.WorkspaceID, domain.OverlayTarget(overlay.ID), input.InitialBody, "Initial overlay draft", input.Author)
	if err != nil {
		return domain.Overlay{}, domain.Revision{}, err
	}

	uc.cache.Invalidate(ctx, entity.ID)
	uc.audit.Record(ctx, domain.AuditEntry{
		WorkspaceID: entity.WorkspaceID,
		ActorID:     input.Author,
		Action:      "overlay.create",
		TargetType:  "overlay",
		TargetID:    overlay.ID,
		Metadata:    map[string]string{"entityId": entity.ID, "revisionId": revision.ID, "body": input.InitialBody},
		At:          time.Now().UTC(),
	})

	return overlay, revision, nil
}

// CreateOverlayRevision appends a draft revision to an overlay and opens a
// review request for it. The overlay's active pointer moves only on
// approval.
func (uc *OverlayUsecase) CreateOverlayRevision(ctx context.Context, overlayID, body, summary, author string) (domain.Revision, error) {
	overlay, err := uc.overlays.Get(ctx, overlayID)
	if err != nil {
		return domain.Revision{}, err
	}
	if overlay.Deleted() {
		return domain.Revision{}, domain.NotFoundError{Resource: "overlay"}
	}
	entity, err := uc.entities.Get(ctx, overlay.EntityID)
	if err != nil {
		return domain.Revision{}, err
	}
	if entity.Deleted() {
		return domain.Revision{}, domain.NotFoundError{Resource: "entity"}
	}

	if err := requireRole(ctx, uc.roles, author, entity.WorkspaceID, domain.RoleReviewer); err != nil {
		return domain.Revision{}, err
	}

	revision, _, err := uc.revisions.CreateDraft(ctx, entity.WorkspaceID, domain.OverlayTarget(overlayID), body, summary, author)
	if err != nil {
		return domain.Revision{}, err
	}

	uc.audit.Record(ctx, domain.AuditEntry{
		WorkspaceID: entity.WorkspaceID,
		ActorID:     author,
		Action:      "revision.overlay.create",
		TargetType:  "overlay",
		TargetID:    overlayID,
		Metadata:    map[string]string{"revisionId": revision.ID, "body": body},
		At:          time.Now().UTC(),
	})

	return revision, nil
}

// UpdateScope replaces the overlay's scoping window after validating every
// referenced viewpoint/era/chapter.
func (uc *OverlayUsecase) UpdateScope(ctx context.Context, overlayID string, scope OverlayScope, truthFlag domain.TruthFlag, actor string) (domain.Overlay, error) {
	if !truthFlag.Valid() {
		return domain.Overlay{}, domain.ValidationError{Reason: "invalid truth flag: " + string(truthFlag)}
	}

	overlay, err := uc.overlays.Get(ctx, overlayID)
	if err != nil {
		return domain.Overlay{}, err
	}
	if overlay.Deleted() {
		return domain.Overlay{}, domain.NotFoundError{Resource: "overlay"}
	}
	entity, err := uc.entities.Get(ctx, overlay.EntityID)
	if err != nil {
		return domain.Overlay{}, err
	}

	if err := requireRole(ctx, uc.roles, actor, entity.WorkspaceID, domain.RoleReviewer); err != nil {
		return domain.Overlay{}, err
	}
	if err := uc.checkScope(ctx, entity.WorkspaceID, scope); err != nil {
		return domain.Overlay{}, err
	}

	overlay.TruthFlag = truthFlag
	overlay.ViewpointID = scope.ViewpointID
	overlay.WorldFrom = scope.WorldFrom
	overlay.WorldTo = scope.WorldTo
	overlay.StoryFromChapterID = scope.StoryFromChapterID
	overlay.StoryToChapterID = scope.StoryToChapterID

	overlay, err = uc.overlays.UpdateScope(ctx, overlay)
	if err != nil {
		return domain.Overlay{}, err
	}

	uc.cache.Invalidate(ctx, entity.ID)
	uc.audit.Record(ctx, domain.AuditEntry{
		WorkspaceID: entity.WorkspaceID,
		ActorID:     actor,
		Action:      "overlay.rescope",
		TargetType:  "overlay",
		TargetID:    overlayID,
		At:          time.Now().UTC(),
	})

	return overlay, nil
}

// DeleteOverlay soft-deletes an overlay; it disappears from resolution but
// remains addressable.
func (uc *OverlayUsecase) DeleteOverlay(ctx context.Context, overlayID, actor string) error {
	overlay, err := uc.overlays.Get(ctx, overlayID)
	if err != nil {
		return err
	}
	if overlay.Deleted() {
		return domain.NotFoundError{Resource: "overlay"}
	}
	entity, err := uc.entities.Get(ctx, overlay.EntityID)
	if err != nil {
		return err
	}

	if err := requireRole(ctx, uc.roles, actor, entity.WorkspaceID, domain.RoleReviewer); err != nil {
		return err
	}

	if err := uc.overlays.SoftDelete(ctx, overlayID); err != nil {
		return err
	}

	uc.cache.Invalidate(ctx, entity.ID)
	uc.audit.Record(ctx, domain.AuditEntry{
		WorkspaceID: entity.WorkspaceID,
		ActorID:     actor,
		Action:      "overlay.delete",
		TargetType:  "overlay",
		TargetID:    overlayID,
		At:          time.Now().UTC(),
	})
	return nil
}

// ListOverlays returns the live overlays of an entity.
func (uc *OverlayUsecase) ListOverlays(ctx context.Context, entityID string) ([]domain.Overlay, error) {
	entity, err := uc.entities.Get(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if entity.Deleted() {
		return nil, domain.NotFoundError{Resource: "entity"}
	}
	return uc.overlays.ListByEntity(ctx, entityID)
}

// checkScope fails closed: any referenced viewpoint, era or chapter that
// does not exist surfaces as NotFound before anything is written.
func (uc *OverlayUsecase) checkScope(ctx context.Context, workspaceID string, scope OverlayScope) error {
	if scope.ViewpointID != nil {
		ok, err := uc.references.ViewpointExists(ctx, workspaceID, *scope.ViewpointID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NotFoundError{Resource: "viewpoint"}
		}
	}
	for _, eraID := range []*string{scope.WorldFrom, scope.WorldTo} {
		if eraID == nil {
			continue
		}
		ok, err := uc.references.EraExists(ctx, workspaceID, *eraID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NotFoundError{Resource: "era"}
		}
	}
	for _, chapterID := range []*string{scope.StoryFromChapterID, scope.StoryToChapterID} {
		if chapterID == nil {
			continue
		}
		ok, err := uc.references.ChapterExists(ctx, workspaceID, *chapterID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NotFoundError{Resource: "chapter"}
		}
	}
	return nil
}
