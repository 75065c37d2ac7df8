package usecase

import (
	"context"
	"time"

	"github.com/GrEarl/Depictionator-sub001/internal/domain"
)

// ReviewRepository defines persistence for the moderation queue. Approve and
// Reject are serialized per request by the store (row locks); a caller that
// loses the race observes ConflictError, never a silent overwrite.
type ReviewRepository interface {
	Get(ctx context.Context, id string) (domain.ReviewRequest, error)
	// Approve transitions revision and request to approved and advances the
	// owning article/overlay pointer, all in one transaction.
	Approve(ctx context.Context, requestID, approver string) (domain.Revision, error)
	// Reject transitions to rejected, records the reason as a comment and
	// leaves the current pointer untouched.
	Reject(ctx context.Context, requestID, reason, approver string) (domain.Revision, domain.ReviewComment, error)
	AddComment(ctx context.Context, requestID, author, body string) (domain.ReviewComment, error)
	ListOpen(ctx context.Context, workspaceID string) ([]domain.ReviewRequest, error)
}

type ReviewUsecase struct {
	reviews   ReviewRepository
	revisions RevisionRepository
	roles     RoleGateway
	audit     AuditSink
	notifier  Notifier
	cache     ResolutionCache
}

func NewReviewUsecase(
	reviews ReviewRepository,
	revisions RevisionRepository,
	roles RoleGateway,
	audit AuditSink,
	notifier Notifier,
	cache ResolutionCache,
) *ReviewUsecase {
	return &ReviewUsecase{
		reviews:   reviews,
		revisions: revisions,
		roles:     roles,
		audit:     audit,
		notifier:  notifier,
		cache:     cache,
	}
}

// Approve moves the reviewed revision to approved and promotes it to the
// current revision of its target. Approving an already-closed request is a
// conflict, not an overwrite.
func (uc *ReviewUsecase) Approve(ctx context.Context, requestID, approver string) (domain.Revision, error) {
	request, err := uc.reviews.Get(ctx, requestID)
	if err != nil {
		return domain.Revision{}, err
	}
	if err := requireRole(ctx, uc.roles, approver, request.WorkspaceID, domain.RoleReviewer); err != nil {
		return domain.Revision{}, err
	}

	revision, err := uc.reviews.Approve(ctx, requestID, approver)
	if err != nil {
		return domain.Revision{}, err
	}

	entity, err := uc.revisions.OwnerEntity(ctx, revision.Target)
	if err != nil {
		return domain.Revision{}, err
	}

	uc.cache.Invalidate(ctx, entity.ID)
	uc.audit.Record(ctx, domain.AuditEntry{
		WorkspaceID: request.WorkspaceID,
		ActorID:     approver,
		Action:      "review.approve",
		TargetType:  "review",
		TargetID:    requestID,
		Metadata:    map[string]string{"revisionId": revision.ID},
		At:          time.Now().UTC(),
	})
	uc.notifier.NotifyWatchers(ctx, domain.Event{
		WorkspaceID: request.WorkspaceID,
		TargetType:  "entity",
		TargetID:    entity.ID,
		EntityID:    entity.ID,
		Type:        "review.approved",
		Payload: map[string]string{
			"revisionId": revision.ID,
			"author":     revision.Author,
		},
		At: time.Now().UTC(),
	})
	// The author hears about the outcome even when not watching the entity.
	uc.notifier.NotifyWatchers(ctx, domain.Event{
		WorkspaceID: request.WorkspaceID,
		TargetType:  "user",
		TargetID:    revision.Author,
		Type:        "review.approved",
		Payload: map[string]string{
			"revisionId": revision.ID,
		},
		At: time.Now().UTC(),
	})

	return revision, nil
}

// Reject closes the request without advancing any pointer and records the
// reason as a review comment for the author.
func (uc *ReviewUsecase) Reject(ctx context.Context, requestID, reason, approver string) (domain.Revision, error) {
	if reason == "" {
		return domain.Revision{}, domain.ValidationError{Reason: "rejection reason must not be empty"}
	}
	request, err := uc.reviews.Get(ctx, requestID)
	if err != nil {
		return domain.Revision{}, err
	}
	if err := requireRole(ctx, uc.roles, approver, request.WorkspaceID, domain.RoleReviewer); err != nil {
		return domain.Revision{}, err
	}

	revision, comment, err := uc.reviews.Reject(ctx, requestID, reason, approver)
	if err != nil {
		return domain.Revision{}, err
	}

	uc.audit.Record(ctx, domain.AuditEntry{
		WorkspaceID: request.WorkspaceID,
		ActorID:     approver,
		Action:      "review.reject",
		TargetType:  "review",
		TargetID:    requestID,
		Metadata:    map[string]string{"revisionId": revision.ID, "reason": reason},
		At:          time.Now().UTC(),
	})
	uc.notifier.NotifyWatchers(ctx, domain.Event{
		WorkspaceID: request.WorkspaceID,
		TargetType:  "user",
		TargetID:    revision.Author,
		Type:        "review.rejected",
		Payload: map[string]string{
			"revisionId": revision.ID,
			"reason":     comment.Body,
		},
		At: time.Now().UTC(),
	})

	return revision, nil
}

// AddComment appends to the discussion thread of an open request. Any
// workspace member with at least viewer role may comment.
func (uc *ReviewUsecase) AddComment(ctx context.Context, requestID, author, body string) (domain.ReviewComment, error) {
	if body == "" {
		return domain.ReviewComment{}, domain.ValidationError{Reason: "comment body must not be empty"}
	}
	request, err := uc.reviews.Get(ctx, requestID)
	if err != nil {
		return domain.ReviewComment{}, err
	}
	if err := requireRole(ctx, uc.roles, author, request.WorkspaceID, domain.RoleViewer); err != nil {
		return domain.ReviewComment{}, err
	}
	if request.Status != domain.ReviewOpen {
		return domain.ReviewComment{}, domain.ConflictError{Reason: "review request is closed"}
	}

	return uc.reviews.AddComment(ctx, requestID, author, body)
}

// ListOpen returns the open moderation queue of a workspace.
func (uc *ReviewUsecase) ListOpen(ctx context.Context, workspaceID, actor string) ([]domain.ReviewRequest, error) {
	if err := requireRole(ctx, uc.roles, actor, workspaceID, domain.RoleViewer); err != nil {
		return nil, err
	}
	return uc.reviews.ListOpen(ctx, workspaceID)
}
