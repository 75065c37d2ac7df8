package usecase

import (
	"context"
	"time"

	"github.com/GrEarl/Depictionator-sub001/internal/domain"
	"github.com/GrEarl/Depictionator-sub001/policy"
)

type RevisionUsecase struct {
	entities  EntityRepository
	revisions RevisionRepository
	roles     RoleGateway
	audit     AuditSink
}

func NewRevisionUsecase(
	entities EntityRepository,
	revisions RevisionRepository,
	roles RoleGateway,
	audit AuditSink,
) *RevisionUsecase {
	return &RevisionUsecase{
		entities:  entities,
		revisions: revisions,
		roles:     roles,
		audit:     audit,
	}
}

// Restore creates a new draft revision carrying the body of an older one.
// The draft's parent is the restored revision, not the current head, so
// restore branches the history graph instead of rewinding the pointer. Base
// restores route through review even though fresh base edits do not:
// resurrecting old content is treated as more review-worthy than a forward
// edit by a trusted editor.
func (uc *RevisionUsecase) Restore(ctx context.Context, revisionID, author string) (domain.Revision, error) {
	source, err := uc.revisions.Get(ctx, revisionID)
	if err != nil {
		return domain.Revision{}, err
	}

	entity, err := uc.revisions.OwnerEntity(ctx, source.Target)
	if err != nil {
		return domain.Revision{}, err
	}
	if entity.Deleted() {
		return domain.Revision{}, domain.NotFoundError{Resource: "entity"}
	}

	minRole := domain.RoleReviewer
	if source.Target.Kind == domain.TargetBase {
		minRole = policy.FromTags(entity.Tags).RequiredRole()
	}
	if err := requireRole(ctx, uc.roles, author, entity.WorkspaceID, minRole); err != nil {
		return domain.Revision{}, err
	}

	draft, _, err := uc.revisions.CreateRestoreDraft(ctx, entity.WorkspaceID, source, author)
	if err != nil {
		return domain.Revision{}, err
	}

	uc.audit.Record(ctx, domain.AuditEntry{
		WorkspaceID: entity.WorkspaceID,
		ActorID:     author,
		Action:      "revision.restore",
		TargetType:  "revision",
		TargetID:    revisionID,
		Metadata:    map[string]string{"draftId": draft.ID},
		At:          time.Now().UTC(),
	})

	return draft, nil
}

// Get returns a single revision by id, historical ones included.
func (uc *RevisionUsecase) Get(ctx context.Context, revisionID string) (domain.Revision, error) {
	return uc.revisions.Get(ctx, revisionID)
}

// ArticleHistory lists the revision chain of an article, newest first.
func (uc *RevisionUsecase) ArticleHistory(ctx context.Context, articleID string) ([]domain.Revision, error) {
	if _, err := uc.entities.GetArticle(ctx, articleID); err != nil {
		return nil, err
	}
	return uc.revisions.History(ctx, domain.BaseTarget(articleID))
}

// OverlayHistory lists the revision chain of an overlay, newest first.
func (uc *RevisionUsecase) OverlayHistory(ctx context.Context, overlayID string) ([]domain.Revision, error) {
	return uc.revisions.History(ctx, domain.OverlayTarget(overlayID))
}
