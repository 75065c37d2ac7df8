package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GrEarl/Depictionator-sub001/internal/domain"
	"github.com/GrEarl/Depictionator-sub001/internal/infra/database/models"
)

type RevisionRepository struct {
	db *gorm.DB
}

func NewRevisionRepository(db *gorm.DB) *RevisionRepository {
	return &RevisionRepository{db: db}
}

func revisionToDomain(m models.Revision) domain.Revision {
	var target domain.RevisionTarget
	switch domain.TargetKind(m.Target) {
	case domain.TargetOverlay:
		if m.OverlayID != nil {
			target = domain.OverlayTarget(*m.OverlayID)
		}
	default:
		if m.ArticleID != nil {
			target = domain.BaseTarget(*m.ArticleID)
		}
	}
	return domain.Revision{
		ID:               m.ID,
		Target:           target,
		Body:             m.Body,
		ChangeSummary:    m.ChangeSummary,
		Author:           m.Author,
		CreatedAt:        m.CDate,
		Status:           domain.RevisionStatus(m.Status),
		ApprovedBy:       m.ApprovedBy,
		ApprovedAt:       m.ApprovedAt,
		ParentRevisionID: m.ParentRevisionID,
	}
}

func reviewRequestToDomain(m models.ReviewRequest, comments []models.ReviewComment) domain.ReviewRequest {
	request := domain.ReviewRequest{
		ID:          m.ID,
		WorkspaceID: m.WorkspaceID,
		RevisionID:  m.RevisionID,
		Status:      domain.ReviewStatus(m.Status),
		RequestedBy: m.RequestedBy,
		CreatedAt:   m.CDate,
		ClosedAt:    m.ClosedAt,
	}
	for _, comment := range comments {
		request.Comments = append(request.Comments, reviewCommentToDomain(comment))
	}
	return request
}

func reviewCommentToDomain(m models.ReviewComment) domain.ReviewComment {
	return domain.ReviewComment{
		ID:        m.ID,
		RequestID: m.RequestID,
		Author:    m.Author,
		Body:      m.Body,
		CreatedAt: m.CDate,
	}
}

// CreateBase appends a pre-approved revision to an article's base channel and
// advances the base pointer in the same transaction. Editors with clearance
// for the article's protection level skip the review queue entirely.
func (r *RevisionRepository) CreateBase(ctx context.Context, articleID, body, summary, author string) (domain.Revision, error) {
	now := time.Now().UTC()
	var revision models.Revision

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var article models.Article
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", articleID).
			Take(&article).Error
		if err == gorm.ErrRecordNotFound {
			return domain.NotFoundError{Resource: "article"}
		}
		if err != nil {
			return err
		}

		revision = models.Revision{
			ID:               uuid.NewString(),
			Target:           string(domain.TargetBase),
			ArticleID:        &article.ID,
			Body:             body,
			ChangeSummary:    summary,
			Author:           author,
			Status:           string(domain.RevisionApproved),
			ApprovedBy:       &author,
			ApprovedAt:       &now,
			ParentRevisionID: article.BaseRevisionID,
			CDate:            now,
		}
		if err := tx.Create(&revision).Error; err != nil {
			return err
		}

		return tx.Model(&models.Article{}).
			Where("id = ?", articleID).
			Update("base_revision_id", revision.ID).Error
	})
	if err != nil {
		return domain.Revision{}, err
	}
	return revisionToDomain(revision), nil
}

// CreateDraft inserts a draft revision parented on the target's current
// pointer and opens a review request for it. The pointer itself does not move
// until the request is approved.
func (r *RevisionRepository) CreateDraft(ctx context.Context, workspaceID string, target domain.RevisionTarget, body, summary, author string) (domain.Revision, domain.ReviewRequest, error) {
	now := time.Now().UTC()
	var revision models.Revision
	var request models.ReviewRequest

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		parent, err := lockTargetPointer(tx, target)
		if err != nil {
			return err
		}

		revision = models.Revision{
			ID:               uuid.NewString(),
			Target:           string(target.Kind),
			Body:             body,
			ChangeSummary:    summary,
			Author:           author,
			Status:           string(domain.RevisionDraft),
			ParentRevisionID: parent,
			CDate:            now,
		}
		if target.Kind == domain.TargetOverlay {
			revision.OverlayID = &target.ID
		} else {
			revision.ArticleID = &target.ID
		}
		if err := tx.Create(&revision).Error; err != nil {
			return err
		}

		request = models.ReviewRequest{
			ID:          uuid.NewString(),
			WorkspaceID: workspaceID,
			RevisionID:  revision.ID,
			Status:      string(domain.ReviewOpen),
			RequestedBy: author,
			CDate:       now,
		}
		return tx.Create(&request).Error
	})
	if err != nil {
		return domain.Revision{}, domain.ReviewRequest{}, err
	}
	return revisionToDomain(revision), reviewRequestToDomain(request, nil), nil
}

// CreateRestoreDraft copies the source revision's body into a fresh draft
// whose parent is the source itself, preserving the fork in the history chain.
func (r *RevisionRepository) CreateRestoreDraft(ctx context.Context, workspaceID string, source domain.Revision, author string) (domain.Revision, domain.ReviewRequest, error) {
	summary := fmt.Sprintf("Restore from %s", source.ID)
	now := time.Now().UTC()
	var revision models.Revision
	var request models.ReviewRequest

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockTargetPointer(tx, source.Target); err != nil {
			return err
		}

		revision = models.Revision{
			ID:               uuid.NewString(),
			Target:           string(source.Target.Kind),
			Body:             source.Body,
			ChangeSummary:    summary,
			Author:           author,
			Status:           string(domain.RevisionDraft),
			ParentRevisionID: &source.ID,
			CDate:            now,
		}
		if source.Target.Kind == domain.TargetOverlay {
			revision.OverlayID = &source.Target.ID
		} else {
			revision.ArticleID = &source.Target.ID
		}
		if err := tx.Create(&revision).Error; err != nil {
			return err
		}

		request = models.ReviewRequest{
			ID:          uuid.NewString(),
			WorkspaceID: workspaceID,
			RevisionID:  revision.ID,
			Status:      string(domain.ReviewOpen),
			RequestedBy: author,
			CDate:       now,
		}
		return tx.Create(&request).Error
	})
	if err != nil {
		return domain.Revision{}, domain.ReviewRequest{}, err
	}
	return revisionToDomain(revision), reviewRequestToDomain(request, nil), nil
}

func (r *RevisionRepository) Get(ctx context.Context, id string) (domain.Revision, error) {
	var row models.Revision
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&row).Error
	if err == gorm.ErrRecordNotFound {
		return domain.Revision{}, domain.NotFoundError{Resource: "revision"}
	}
	if err != nil {
		return domain.Revision{}, err
	}
	return revisionToDomain(row), nil
}

func (r *RevisionRepository) History(ctx context.Context, target domain.RevisionTarget) ([]domain.Revision, error) {
	var rows []models.Revision
	query := r.db.WithContext(ctx).Order("c_date desc, id desc")
	if target.Kind == domain.TargetOverlay {
		query = query.Where("overlay_id = ?", target.ID)
	} else {
		query = query.Where("article_id = ?", target.ID)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	revisions := make([]domain.Revision, 0, len(rows))
	for _, row := range rows {
		revisions = append(revisions, revisionToDomain(row))
	}
	return revisions, nil
}

func (r *RevisionRepository) OwnerEntity(ctx context.Context, target domain.RevisionTarget) (domain.Entity, error) {
	var row models.Entity
	var err error
	if target.Kind == domain.TargetOverlay {
		err = r.db.WithContext(ctx).
			Joins("JOIN overlays ON overlays.entity_id = entities.id").
			Where("overlays.id = ?", target.ID).
			Take(&row).Error
	} else {
		err = r.db.WithContext(ctx).
			Joins("JOIN articles ON articles.entity_id = entities.id").
			Where("articles.id = ?", target.ID).
			Take(&row).Error
	}
	if err == gorm.ErrRecordNotFound {
		return domain.Entity{}, domain.NotFoundError{Resource: "entity"}
	}
	if err != nil {
		return domain.Entity{}, err
	}
	return entityToDomain(row), nil
}

// lockTargetPointer row-locks the revision target's owner and returns its
// current head pointer, so concurrent drafts serialize and each records the
// head it was forked from.
func lockTargetPointer(tx *gorm.DB, target domain.RevisionTarget) (*string, error) {
	if target.Kind == domain.TargetOverlay {
		var overlay models.Overlay
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", target.ID).
			Take(&overlay).Error
		if err == gorm.ErrRecordNotFound {
			return nil, domain.NotFoundError{Resource: "overlay"}
		}
		if err != nil {
			return nil, err
		}
		return overlay.ActiveRevisionID, nil
	}

	var article models.Article
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", target.ID).
		Take(&article).Error
	if err == gorm.ErrRecordNotFound {
		return nil, domain.NotFoundError{Resource: "article"}
	}
	if err != nil {
		return nil, err
	}
	return article.BaseRevisionID, nil
}
