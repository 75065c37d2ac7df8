package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/GrEarl/Depictionator-sub001/internal/domain"
	"github.com/GrEarl/Depictionator-sub001/policy"
)

// EntityRepository defines persistence for entities and their articles.
type EntityRepository interface {
	// CreateWithArticle creates the entity, its article and the initial
	// approved base revision in one transaction. A case-insensitive title
	// collision within the workspace returns ConflictError.
	CreateWithArticle(ctx context.Context, entity domain.Entity, initialBody, summary, author string) (domain.Entity, domain.Article, domain.Revision, error)
	Get(ctx context.Context, id string) (domain.Entity, error)
	GetArticle(ctx context.Context, articleID string) (domain.Article, error)
	GetArticleByEntity(ctx context.Context, entityID string) (domain.Article, error)
	List(ctx context.Context, workspaceID string) ([]domain.Entity, error)
	Rename(ctx context.Context, entityID, newTitle string, addRedirectAlias bool) (domain.Entity, error)
	SetTags(ctx context.Context, entityID string, tags []string) error
	SoftDelete(ctx context.Context, entityID string) error
	Restore(ctx context.Context, entityID string) error
}

// RevisionRepository defines append-only revision storage and atomic
// advancement of the current pointers.
type RevisionRepository interface {
	// CreateBase inserts an approved base revision and advances the
	// article's base pointer in the same transaction.
	CreateBase(ctx context.Context, articleID, body, summary, author string) (domain.Revision, error)
	// CreateDraft inserts a draft revision for the target, parented on the
	// target's current revision, and opens a review request for it.
	CreateDraft(ctx context.Context, workspaceID string, target domain.RevisionTarget, body, summary, author string) (domain.Revision, domain.ReviewRequest, error)
	// CreateRestoreDraft inserts a draft copying the source revision's body,
	// parented on the source itself rather than the current head.
	CreateRestoreDraft(ctx context.Context, workspaceID string, source domain.Revision, author string) (domain.Revision, domain.ReviewRequest, error)
	Get(ctx context.Context, id string) (domain.Revision, error)
	History(ctx context.Context, target domain.RevisionTarget) ([]domain.Revision, error)
	// OwnerEntity resolves the entity a revision target ultimately belongs to.
	OwnerEntity(ctx context.Context, target domain.RevisionTarget) (domain.Entity, error)
}

type CreateEntityInput struct {
	WorkspaceID string
	Title       string
	Type        string
	InitialBody string
	Author      string
}

type CreatedEntity struct {
	EntityID   string `json:"entityId"`
	ArticleID  string `json:"articleId"`
	RevisionID string `json:"revisionId"`
}

type ArticleUsecase struct {
	entities  EntityRepository
	revisions RevisionRepository
	roles     RoleGateway
	audit     AuditSink
	notifier  Notifier
	cache     ResolutionCache
}

func NewArticleUsecase(
	entities EntityRepository,
	revisions RevisionRepository,
	roles RoleGateway,
	audit AuditSink,
	notifier Notifier,
	cache ResolutionCache,
) *ArticleUsecase {
	return &ArticleUsecase{
		entities:  entities,
		revisions: revisions,
		roles:     roles,
		audit:     audit,
		notifier:  notifier,
		cache:     cache,
	}
}

// CreateEntityWithArticle creates an entity together with its canonical
// article and an initial approved revision.
func (uc *ArticleUsecase) CreateEntityWithArticle(ctx context.Context, input CreateEntityInput) (CreatedEntity, error) {
	if strings.TrimSpace(input.Title) == "" {
		return CreatedEntity{}, domain.ValidationError{Reason: "title must not be empty"}
	}
	if err := requireRole(ctx, uc.roles, input.Author, input.WorkspaceID, domain.RoleEditor); err != nil {
		return CreatedEntity{}, err
	}

	entity := domain.Entity{
		WorkspaceID: input.WorkspaceID,
		Title:       strings.TrimSpace(input.Title),
		Type:        input.Type,
	}

	entity, article, revision, err := uc.entities.CreateWithArticle(ctx, entity, input.InitialBody, "Initial revision", input.Author)
	if err != nil {
		return CreatedEntity{}, err
	}

	uc.audit.Record(ctx, domain.AuditEntry{
		WorkspaceID: entity.WorkspaceID,
		ActorID:     input.Author,
		Action:      "entity.create",
		TargetType:  "entity",
		TargetID:    entity.ID,
		Metadata:    map[string]string{"title": entity.Title, "revisionId": revision.ID},
		At:          time.Now().UTC(),
	})

	return CreatedEntity{EntityID: entity.ID, ArticleID: article.ID, RevisionID: revision.ID}, nil
}

// CreateBaseRevision appends an approved revision to the canonical channel
// and advances the base pointer. Direct base edits bypass review; the
// protection tier on the entity's tags decides whether editor or admin role
// is required.
func (uc *ArticleUsecase) CreateBaseRevision(ctx context.Context, articleID, body, summary, author string) (domain.Revision, error) {
	article, err := uc.entities.GetArticle(ctx, articleID)
	if err != nil {
		return domain.Revision{}, err
	}
	entity, err := uc.entities.Get(ctx, article.EntityID)
	if err != nil {
		return domain.Revision{}, err
	}
	if entity.Deleted() {
		return domain.Revision{}, domain.NotFoundError{Resource: "entity"}
	}

	level := policy.FromTags(entity.Tags)
	if err := uc.requireProtected(ctx, entity, author, level); err != nil {
		return domain.Revision{}, err
	}

	revision, err := uc.revisions.CreateBase(ctx, articleID, body, summary, author)
	if err != nil {
		return domain.Revision{}, err
	}

	uc.cache.Invalidate(ctx, entity.ID)
	uc.audit.Record(ctx, domain.AuditEntry{
		WorkspaceID: entity.WorkspaceID,
		ActorID:     author,
		Action:      "revision.base.create",
		TargetType:  "article",
		TargetID:    articleID,
		Metadata:    map[string]string{"revisionId": revision.ID, "body": body},
		At:          time.Now().UTC(),
	})
	uc.notifier.NotifyWatchers(ctx, domain.Event{
		WorkspaceID: entity.WorkspaceID,
		TargetType:  "entity",
		TargetID:    entity.ID,
		EntityID:    entity.ID,
		Type:        "article.updated",
		Payload:     map[string]string{"revisionId": revision.ID},
		At:          time.Now().UTC(),
	})

	return revision, nil
}

// RenameEntity changes the entity title, optionally preserving the old title
// as a redirect alias. Collisions surface as ConflictError carrying the
// colliding title.
func (uc *ArticleUsecase) RenameEntity(ctx context.Context, entityID, newTitle string, addRedirectAlias bool, actor string) (domain.Entity, error) {
	if strings.TrimSpace(newTitle) == "" {
		return domain.Entity{}, domain.ValidationError{Reason: "title must not be empty"}
	}
	entity, err := uc.entities.Get(ctx, entityID)
	if err != nil {
		return domain.Entity{}, err
	}
	if entity.Deleted() {
		return domain.Entity{}, domain.NotFoundError{Resource: "entity"}
	}

	level := policy.FromTags(entity.Tags)
	if err := uc.requireProtected(ctx, entity, actor, level); err != nil {
		return domain.Entity{}, err
	}

	oldTitle := entity.Title
	renamed, err := uc.entities.Rename(ctx, entityID, strings.TrimSpace(newTitle), addRedirectAlias)
	if err != nil {
		return domain.Entity{}, err
	}

	uc.audit.Record(ctx, domain.AuditEntry{
		WorkspaceID: entity.WorkspaceID,
		ActorID:     actor,
		Action:      "entity.rename",
		TargetType:  "entity",
		TargetID:    entityID,
		Metadata:    map[string]string{"from": oldTitle, "to": renamed.Title},
		At:          time.Now().UTC(),
	})

	return renamed, nil
}

// SetProtection moves the entity to the requested protection level. The
// actor needs clearance at the stricter of the current and requested tiers.
func (uc *ArticleUsecase) SetProtection(ctx context.Context, entityID string, level policy.Level, actor string) (domain.Entity, error) {
	entity, err := uc.entities.Get(ctx, entityID)
	if err != nil {
		return domain.Entity{}, err
	}
	if entity.Deleted() {
		return domain.Entity{}, domain.NotFoundError{Resource: "entity"}
	}

	current := policy.FromTags(entity.Tags)
	clearance := policy.ChangeClearance(current, level)
	if err := requireRole(ctx, uc.roles, actor, entity.WorkspaceID, clearance); err != nil {
		return domain.Entity{}, err
	}

	entity.Tags = policy.Apply(entity.Tags, level)
	if err := uc.entities.SetTags(ctx, entityID, entity.Tags); err != nil {
		return domain.Entity{}, err
	}

	uc.audit.Record(ctx, domain.AuditEntry{
		WorkspaceID: entity.WorkspaceID,
		ActorID:     actor,
		Action:      "entity.protect",
		TargetType:  "entity",
		TargetID:    entityID,
		Metadata:    map[string]string{"from": current.String(), "to": level.String()},
		At:          time.Now().UTC(),
	})

	return entity, nil
}

// GetEntity returns an entity with its article, soft-deleted ones included
// so audit and restore tooling can still address them.
func (uc *ArticleUsecase) GetEntity(ctx context.Context, entityID string) (domain.Entity, domain.Article, error) {
	entity, err := uc.entities.Get(ctx, entityID)
	if err != nil {
		return domain.Entity{}, domain.Article{}, err
	}
	article, err := uc.entities.GetArticleByEntity(ctx, entityID)
	if err != nil {
		return domain.Entity{}, domain.Article{}, err
	}
	return entity, article, nil
}

// ListEntities lists live entities in a workspace.
func (uc *ArticleUsecase) ListEntities(ctx context.Context, workspaceID string) ([]domain.Entity, error) {
	return uc.entities.List(ctx, workspaceID)
}

// DeleteEntity soft-deletes; the entity stays addressable for restore.
func (uc *ArticleUsecase) DeleteEntity(ctx context.Context, entityID, actor string) error {
	entity, err := uc.entities.Get(ctx, entityID)
	if err != nil {
		return err
	}
	if entity.Deleted() {
		return domain.NotFoundError{Resource: "entity"}
	}

	level := policy.FromTags(entity.Tags)
	if err := uc.requireProtected(ctx, entity, actor, level); err != nil {
		return err
	}

	if err := uc.entities.SoftDelete(ctx, entityID); err != nil {
		return err
	}

	uc.cache.Invalidate(ctx, entityID)
	uc.audit.Record(ctx, domain.AuditEntry{
		WorkspaceID: entity.WorkspaceID,
		ActorID:     actor,
		Action:      "entity.delete",
		TargetType:  "entity",
		TargetID:    entityID,
		At:          time.Now().UTC(),
	})
	return nil
}

// RestoreEntity reverses a soft delete.
func (uc *ArticleUsecase) RestoreEntity(ctx context.Context, entityID, actor string) error {
	entity, err := uc.entities.Get(ctx, entityID)
	if err != nil {
		return err
	}
	if !entity.Deleted() {
		return domain.ConflictError{Reason: "entity is not deleted"}
	}

	level := policy.FromTags(entity.Tags)
	if err := uc.requireProtected(ctx, entity, actor, level); err != nil {
		return err
	}

	if err := uc.entities.Restore(ctx, entityID); err != nil {
		return err
	}

	uc.cache.Invalidate(ctx, entityID)
	uc.audit.Record(ctx, domain.AuditEntry{
		WorkspaceID: entity.WorkspaceID,
		ActorID:     actor,
		Action:      "entity.restore",
		TargetType:  "entity",
		TargetID:    entityID,
		At:          time.Now().UTC(),
	})
	return nil
}

func (uc *ArticleUsecase) requireProtected(ctx context.Context, entity domain.Entity, actor string, level policy.Level) error {
	err := requireRole(ctx, uc.roles, actor, entity.WorkspaceID, level.RequiredRole())
	if err != nil && level == policy.LevelAdmin && errors.Is(err, domain.ErrForbidden) {
		return domain.ForbiddenError{Reason: "requires admin approval: this article is protected"}
	}
	return err
}
