package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GrEarl/Depictionator-sub001/internal/domain"
	"github.com/GrEarl/Depictionator-sub001/internal/infra/database/models"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Get(ctx context.Context, id string) (domain.ReviewRequest, error) {
	var row models.ReviewRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&row).Error
	if err == gorm.ErrRecordNotFound {
		return domain.ReviewRequest{}, domain.NotFoundError{Resource: "review request"}
	}
	if err != nil {
		return domain.ReviewRequest{}, err
	}

	var comments []models.ReviewComment
	err = r.db.WithContext(ctx).
		Where("request_id = ?", id).
		Order("c_date asc, id asc").
		Find(&comments).Error
	if err != nil {
		return domain.ReviewRequest{}, err
	}

	return reviewRequestToDomain(row, comments), nil
}

// Approve closes the request, flips the draft to approved and advances the
// target's head pointer, all in one transaction. A request that is already
// closed, or a revision that already left draft, yields a conflict.
func (r *ReviewRepository) Approve(ctx context.Context, requestID, approver string) (domain.Revision, error) {
	now := time.Now().UTC()
	var revision models.Revision

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := lockOpenRequest(tx, requestID)
		if err != nil {
			return err
		}

		revision, err = lockDraftRevision(tx, request.RevisionID)
		if err != nil {
			return err
		}

		revision.Status = string(domain.RevisionApproved)
		revision.ApprovedBy = &approver
		revision.ApprovedAt = &now
		err = tx.Model(&models.Revision{}).
			Where("id = ?", revision.ID).
			Updates(map[string]any{
				"status":      revision.Status,
				"approved_by": approver,
				"approved_at": now,
			}).Error
		if err != nil {
			return err
		}

		if err := advancePointer(tx, revision); err != nil {
			return err
		}

		return tx.Model(&models.ReviewRequest{}).
			Where("id = ?", requestID).
			Updates(map[string]any{
				"status":    string(domain.ReviewApproved),
				"closed_at": now,
			}).Error
	})
	if err != nil {
		return domain.Revision{}, err
	}
	return revisionToDomain(revision), nil
}

// Reject closes the request and marks the draft rejected. The head pointer is
// untouched, so readers keep seeing whatever was live before. The reason is
// recorded as a review comment by the rejecting moderator.
func (r *ReviewRepository) Reject(ctx context.Context, requestID, reason, approver string) (domain.Revision, domain.ReviewComment, error) {
	now := time.Now().UTC()
	var revision models.Revision
	var comment models.ReviewComment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := lockOpenRequest(tx, requestID)
		if err != nil {
			return err
		}

		revision, err = lockDraftRevision(tx, request.RevisionID)
		if err != nil {
			return err
		}

		revision.Status = string(domain.RevisionRejected)
		err = tx.Model(&models.Revision{}).
			Where("id = ?", revision.ID).
			Update("status", revision.Status).Error
		if err != nil {
			return err
		}

		comment = models.ReviewComment{
			ID:        uuid.NewString(),
			RequestID: requestID,
			Author:    approver,
			Body:      reason,
			CDate:     now,
		}
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}

		return tx.Model(&models.ReviewRequest{}).
			Where("id = ?", requestID).
			Updates(map[string]any{
				"status":    string(domain.ReviewRejected),
				"closed_at": now,
			}).Error
	})
	if err != nil {
		return domain.Revision{}, domain.ReviewComment{}, err
	}
	return revisionToDomain(revision), reviewCommentToDomain(comment), nil
}

func (r *ReviewRepository) AddComment(ctx context.Context, requestID, author, body string) (domain.ReviewComment, error) {
	comment := models.ReviewComment{
		ID:        uuid.NewString(),
		RequestID: requestID,
		Author:    author,
		Body:      body,
		CDate:     time.Now().UTC(),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockOpenRequest(tx, requestID); err != nil {
			return err
		}
		return tx.Create(&comment).Error
	})
	if err != nil {
		return domain.ReviewComment{}, err
	}
	return reviewCommentToDomain(comment), nil
}

func (r *ReviewRepository) ListOpen(ctx context.Context, workspaceID string) ([]domain.ReviewRequest, error) {
	var rows []models.ReviewRequest
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND status = ?", workspaceID, string(domain.ReviewOpen)).
		Order("c_date asc, id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	requests := make([]domain.ReviewRequest, 0, len(rows))
	for _, row := range rows {
		var comments []models.ReviewComment
		err := r.db.WithContext(ctx).
			Where("request_id = ?", row.ID).
			Order("c_date asc, id asc").
			Find(&comments).Error
		if err != nil {
			return nil, err
		}
		requests = append(requests, reviewRequestToDomain(row, comments))
	}
	return requests, nil
}

func lockOpenRequest(tx *gorm.DB, requestID string) (models.ReviewRequest, error) {
	var request models.ReviewRequest
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", requestID).
		Take(&request).Error
	if err == gorm.ErrRecordNotFound {
		return models.ReviewRequest{}, domain.NotFoundError{Resource: "review request"}
	}
	if err != nil {
		return models.ReviewRequest{}, err
	}
	if domain.ReviewStatus(request.Status) != domain.ReviewOpen {
		return models.ReviewRequest{}, domain.ConflictError{Reason: "review request already " + request.Status}
	}
	return request, nil
}

func lockDraftRevision(tx *gorm.DB, revisionID string) (models.Revision, error) {
	var revision models.Revision
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", revisionID).
		Take(&revision).Error
	if err == gorm.ErrRecordNotFound {
		return models.Revision{}, domain.NotFoundError{Resource: "revision"}
	}
	if err != nil {
		return models.Revision{}, err
	}
	if domain.RevisionStatus(revision.Status) != domain.RevisionDraft {
		return models.Revision{}, domain.ConflictError{Reason: "revision already " + revision.Status}
	}
	return revision, nil
}

func advancePointer(tx *gorm.DB, revision models.Revision) error {
	if domain.TargetKind(revision.Target) == domain.TargetOverlay {
		if revision.OverlayID == nil {
			return domain.ValidationError{Reason: "overlay revision without owner"}
		}
		return tx.Model(&models.Overlay{}).
			Where("id = ?", *revision.OverlayID).
			Updates(map[string]any{
				"active_revision_id": revision.ID,
				"m_date":             time.Now().UTC(),
			}).Error
	}
	if revision.ArticleID == nil {
		return domain.ValidationError{Reason: "base revision without owner"}
	}
	return tx.Model(&models.Article{}).
		Where("id = ?", *revision.ArticleID).
		Update("base_revision_id", revision.ID).Error
}
